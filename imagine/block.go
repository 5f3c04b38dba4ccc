// ABOUTME: Per-block handler state: decoded directives, resolved program, cache paths and engine services.
// ABOUTME: newBlock implements the common initialization every handler variant relies on.
package imagine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Block is the state a handler works on for one code block. Handler
// variants embed *Block.
type Block struct {
	Directives

	// Code is the block exactly as received.
	Code CodeBlock
	// Codec is the lowercased type identifier that selected the handler.
	Codec string
	// Program is the external program to run.
	Program string
	// Paths are the cache input/output files for this block.
	Paths CachePaths
	// Text is Code.Content in the configured text encoding.
	Text string

	basedir  string
	log      *Logger
	runner   Runner
	registry *Registry
}

// newBlock decodes code, resolves the program for codec, computes the cache
// paths and writes the input file when it is not already there.
func (e *Engine) newBlock(desc Descriptor, codec string, code CodeBlock) (*Block, error) {
	log := e.log.Named(desc.Name)

	d, err := Decode(code.KeyVals)
	if err != nil {
		log.Errorf("invalid code block attributes: %v", err)
		return nil, err
	}

	program := d.Prog
	if program == "" {
		program = desc.Codecs[codec]
	}
	if program == "" {
		log.Errorf("%s not listed in %v", codec, desc.Codecs)
		return nil, fmt.Errorf("%w: %s has no program for %q", ErrNoProgram, desc.Name, codec)
	}

	encoded, err := e.encode(code.Content)
	if err != nil {
		log.Warnf("could not encode content, writing it unconverted: %v", err)
		encoded = []byte(code.Content)
	}

	b := &Block{
		Directives: d,
		Code:       code,
		Codec:      codec,
		Program:    program,
		Paths:      NewCachePaths(CacheName(e.config.BaseDir, BlockIdentity(code))),
		Text:       string(encoded),
		basedir:    e.config.BaseDir,
		log:        log,
		runner:     e.config.Runner,
		registry:   e.config.Registry,
	}

	b.ensureDir()
	if !fileExists(b.Paths.Input) {
		b.write(b.Paths.Input, encoded)
	}
	return b, nil
}

// ensureDir creates the cache directory on first use.
func (b *Block) ensureDir() {
	dir := filepath.Dir(b.Paths.Base)
	if _, err := os.Stat(dir); err == nil {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.log.Errorf("could not create directory %s: %v", dir, err)
		return
	}
	b.log.Infof("created directory %s", dir)
}

// write stores data at dst. Zero bytes is a no-op and a failed write is
// logged and reported as false, never returned as an error.
func (b *Block) write(dst string, data []byte) bool {
	if len(data) == 0 {
		b.log.Verbosef("skipped writing 0 bytes to %s", dst)
		return false
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		b.log.Errorf("fail: could not write %d bytes to %s", len(data), dst)
		b.log.Errorf("exception %v", err)
		return false
	}
	b.log.Verbosef("wrote %d bytes to %s", len(data), dst)
	return true
}

// SelectFormat picks the output extension for the target document format:
// alternates[format] when present, def otherwise.
func (b *Block) SelectFormat(format, def string, alternates map[string]string) {
	ext := def
	if alt, ok := alternates[strings.ToLower(format)]; ok {
		ext = alt
	}
	b.Paths.SetExtension(ext)
}

// OptionArgs splits the options attribute on whitespace.
func (b *Block) OptionArgs() []string {
	return strings.Fields(b.Options)
}

// Run invokes the block's program with args against the block's output path.
func (b *Block) Run(ctx context.Context, args ...string) RunResult {
	return b.runner.Run(ctx, b.Program, args, b.Paths.Output, false)
}

// ImageDir is the cache directory generated files are written to.
func (b *Block) ImageDir() string {
	return ImageDir(b.basedir)
}
