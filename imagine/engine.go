// ABOUTME: Engine that dispatches code blocks to handlers: class tags first, then prog, then the no-op default.
// ABOUTME: Processes one block at a time and reports each outcome through optional events.
package imagine

import (
	"context"
	"fmt"
	"strings"
)

// EngineConfig holds the collaborators an Engine is built from. Zero values
// select the defaults.
type EngineConfig struct {
	BaseDir      string      // cache directory prefix (default: "pd")
	Encoding     string      // text encoding for input files (default: utf-8)
	Registry     *Registry   // handler registry (default: DefaultRegistry())
	Runner       Runner      // process runner (default: ExecRunner)
	Logger       *Logger     // diagnostics (default: discard)
	Recorder     Recorder    // invocation recorder for the default runner (optional)
	EventHandler func(Event) // optional event callback
}

// Engine resolves handlers for code blocks and runs them.
// It is not safe for concurrent use; hosts serving concurrent requests must
// serialize calls to Process.
type Engine struct {
	config EngineConfig
	log    *Logger
	encode TextEncoder
	seq    int
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultBaseDir
	}
	if cfg.Logger == nil {
		cfg.Logger = DiscardLogger()
	}
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Runner == nil {
		cfg.Runner = NewExecRunner(cfg.Logger, cfg.Recorder)
	}

	encode, err := NewTextEncoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config: cfg,
		log:    cfg.Logger,
		encode: encode,
	}, nil
}

// Registry returns the engine's handler registry.
func (e *Engine) Registry() *Registry {
	return e.config.Registry
}

// BaseDir returns the cache directory prefix.
func (e *Engine) BaseDir() string {
	return e.config.BaseDir
}

// SetEventHandler replaces the event callback.
func (e *Engine) SetEventHandler(handler func(Event)) {
	e.config.EventHandler = handler
}

// Resolve finds the descriptor for b. It never touches the filesystem:
//  1. the first class tag (lowercased) with a registered handler
//  2. the last prog attribute (lowercased), when b has attributes
//  3. nothing
func (e *Engine) Resolve(b CodeBlock) (Descriptor, string, bool) {
	reg := e.config.Registry

	for _, class := range b.Classes {
		codec := strings.ToLower(class)
		if d, ok := reg.Lookup(codec); ok {
			e.log.Debugf("%s dispatched by class to %s", class, d.Name)
			return d, codec, true
		}
	}

	if len(b.KeyVals) == 0 {
		return Descriptor{}, "", false
	}

	prog, _ := peekValue(b.KeyVals, KeyProg)
	codec := strings.ToLower(prog)
	if d, ok := reg.Lookup(codec); ok && codec != "" {
		e.log.Debugf("%s dispatched by prog to %s", prog, d.Name)
		return d, codec, true
	}

	return Descriptor{}, "", false
}

// Dispatch returns the handler for b. Unmatched blocks get a handler that
// always leaves them unchanged. Errors are limited to malformed attributes
// and codecs without a program.
func (e *Engine) Dispatch(b CodeBlock) (Handler, error) {
	desc, codec, ok := e.Resolve(b)
	return e.build(desc, codec, ok, b)
}

func (e *Engine) build(desc Descriptor, codec string, resolved bool, b CodeBlock) (Handler, error) {
	if !resolved {
		e.log.Debugf("dispatched by default")
		return unchangedHandler{log: e.log}, nil
	}

	block, err := e.newBlock(desc, codec, b)
	if err != nil {
		return nil, err
	}
	return desc.New(block), nil
}

// Process dispatches b and produces its replacement for the target format.
// A nil Replacement means the block stays as authored.
func (e *Engine) Process(ctx context.Context, b CodeBlock, format string) (Replacement, error) {
	e.seq++
	evt := Event{Seq: e.seq, Handler: defaultHandlerName}

	desc, codec, ok := e.Resolve(b)
	if ok {
		evt.Codec, evt.Handler = codec, desc.Name
	}
	evt.Type = EventBlockStarted
	e.emitEvent(evt)

	h, err := e.build(desc, codec, ok, b)
	if err != nil {
		evt.Type = EventBlockFailed
		evt.Data = map[string]any{"error": err.Error()}
		e.emitEvent(evt)
		return nil, fmt.Errorf("code block %d: %w", evt.Seq, err)
	}

	r := h.Produce(ctx, format)
	evt.Type = EventBlockUnchanged
	if !r.Unchanged() {
		last := r[len(r)-1]
		evt.Type = EventBlockReplaced
		evt.Data = map[string]any{"nodes": len(r), "kind": last.Kind.String()}
		if last.Src != "" {
			evt.Data["src"] = last.Src
		}
	}
	e.emitEvent(evt)
	return r, nil
}
