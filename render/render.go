// ABOUTME: Runs whole documents (pandoc JSON or Markdown) through one imagine engine.
// ABOUTME: Shared by the CLI, HTTP server, MCP server and TUI; serializes engine access for concurrent hosts.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/2389-research/imagine/imagine"
	"github.com/2389-research/imagine/markdown"
	"github.com/2389-research/imagine/pandoc"
)

// Mode selects the document front-end.
type Mode string

const (
	ModePandoc   Mode = "pandoc"
	ModeMarkdown Mode = "markdown"
)

// ParseMode accepts "pandoc", "json", "markdown" or "md". An empty string
// means auto-detect and yields "".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "pandoc", "json":
		return ModePandoc, nil
	case "markdown", "md":
		return ModeMarkdown, nil
	default:
		return "", fmt.Errorf("unknown document mode %q (want pandoc or markdown)", s)
	}
}

// DetectMode guesses the front-end from the document: a JSON object that
// looks like a pandoc AST is pandoc, anything else is Markdown.
func DetectMode(src []byte) Mode {
	trimmed := bytes.TrimSpace(src)
	if len(trimmed) > 0 && trimmed[0] == '{' &&
		(bytes.Contains(trimmed, []byte(`"pandoc-api-version"`)) || bytes.Contains(trimmed, []byte(`"blocks"`))) {
		return ModePandoc
	}
	return ModeMarkdown
}

// Options control one Render call.
type Options struct {
	// Mode is the front-end; "" auto-detects.
	Mode Mode
	// Format is the target document format (html, latex, docx, ...).
	Format string
	// HTML converts Markdown output to an HTML fragment. Ignored for pandoc.
	HTML bool
}

// Result is a rendered document plus per-run block counts.
type Result struct {
	Output    []byte
	Mode      Mode
	Blocks    int
	Replaced  int
	Unchanged int
	// Failed counts blocks a handler answered to that still came back
	// unchanged, typically because the tool failed or is missing.
	Failed int
	// Images lists the image paths the output references.
	Images []string
}

// Renderer feeds documents through an engine one at a time.
type Renderer struct {
	engine *imagine.Engine
	log    *imagine.Logger
	mu     sync.Mutex
}

// NewRenderer creates a Renderer around engine. log may be nil.
func NewRenderer(engine *imagine.Engine, log *imagine.Logger) *Renderer {
	if log == nil {
		log = imagine.DiscardLogger()
	}
	return &Renderer{engine: engine, log: log}
}

// Engine returns the wrapped engine.
func (r *Renderer) Engine() *imagine.Engine {
	return r.engine
}

// Render processes every code block of src.
func (r *Renderer) Render(ctx context.Context, src []byte, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mode := opts.Mode
	if mode == "" {
		mode = DetectMode(src)
	}
	format := opts.Format
	if format == "" && opts.HTML && mode == ModeMarkdown {
		format = "html"
	}

	res := &Result{Mode: mode}
	counter := &countingProcessor{engine: r.engine, result: res}

	switch mode {
	case ModePandoc:
		var out bytes.Buffer
		if err := pandoc.Filter(ctx, counter, bytes.NewReader(src), &out, format); err != nil {
			return nil, err
		}
		res.Output = out.Bytes()

	case ModeMarkdown:
		out, err := markdown.Rewrite(ctx, counter, src, format, markdown.Options{HTMLImages: opts.HTML, Log: r.log})
		if err != nil {
			return nil, err
		}
		if opts.HTML {
			if out, err = markdown.ToHTML(out); err != nil {
				return nil, err
			}
		}
		res.Output = out

	default:
		return nil, fmt.Errorf("unknown document mode %q", mode)
	}

	r.log.Verbosef("%s document: %d blocks, %d replaced", mode, res.Blocks, res.Replaced)
	return res, nil
}

// Process runs a single block, serialized with every other call.
func (r *Renderer) Process(ctx context.Context, b imagine.CodeBlock, format string) (imagine.Replacement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Process(ctx, b, format)
}

// countingProcessor tallies outcomes while delegating to the engine.
type countingProcessor struct {
	engine *imagine.Engine
	result *Result
}

func (c *countingProcessor) Process(ctx context.Context, b imagine.CodeBlock, format string) (imagine.Replacement, error) {
	c.result.Blocks++
	rep, err := c.engine.Process(ctx, b, format)
	if err != nil {
		return nil, err
	}
	if rep.Unchanged() {
		c.result.Unchanged++
		if _, _, matched := c.engine.Resolve(b); matched {
			c.result.Failed++
		}
		return rep, nil
	}
	c.result.Replaced++
	for _, n := range rep {
		if n.Kind == imagine.NodeImage && n.Src != "" {
			c.result.Images = append(c.result.Images, n.Src)
		}
	}
	return rep, nil
}
