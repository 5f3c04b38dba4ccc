// ABOUTME: Builds the engine, renderer and optional ledger from the resolved CLI config.
// ABOUTME: Every command goes through newApp so they share logging, registry and recording setup.
package main

import (
	"io"

	"github.com/2389-research/imagine/imagine"
	"github.com/2389-research/imagine/ledger"
	"github.com/2389-research/imagine/render"
)

// app is the wired engine for one command run.
type app struct {
	cfg      config
	log      *imagine.Logger
	engine   *imagine.Engine
	renderer *render.Renderer
	ledger   *ledger.Ledger
}

// newApp wires an engine for cfg. A ledger that cannot be opened is logged
// and skipped so the filter keeps working.
func newApp(cfg config, stderr io.Writer) (*app, error) {
	log := imagine.NewLogger(stderr, imagine.Level(cfg.verbosity))

	reg := imagine.DefaultRegistry()
	if len(cfg.programs) > 0 {
		var err error
		if reg, err = reg.WithPrograms(cfg.programs); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, log: log}
	var recorder imagine.Recorder
	if cfg.ledger != "" {
		l, err := ledger.Open(cfg.ledger)
		if err != nil {
			log.Named("Ledger").Warnf("not recording invocations: %v", err)
		} else {
			a.ledger = l
			recorder = l
		}
	}

	engine, err := imagine.NewEngine(imagine.EngineConfig{
		BaseDir:  cfg.baseDir,
		Encoding: cfg.encoding,
		Registry: reg,
		Logger:   log,
		Recorder: recorder,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = engine
	a.renderer = render.NewRenderer(engine, log)
	return a, nil
}

// Close releases the ledger, if any.
func (a *app) Close() error {
	if a.ledger == nil {
		return nil
	}
	return a.ledger.Close()
}
