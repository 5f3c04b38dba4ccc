// ABOUTME: HTTP service exposing the imagine filter behind a chi router.
// ABOUTME: Filters pandoc JSON and Markdown documents, lists handlers and serves generated images.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/2389-research/imagine/imagine"
	"github.com/2389-research/imagine/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config holds the server settings.
type Config struct {
	Addr     string        // listen address (default: "127.0.0.1:2390")
	CacheTTL time.Duration // document cache lifetime (default: 10m, negative disables)
	MaxBody  int64         // request body limit in bytes (default: 8 MiB)
}

// Server serves the filter over HTTP.
type Server struct {
	renderer *render.Renderer
	cache    *render.Cache
	router   chi.Router
	addr     string
	maxBody  int64
}

// HandlerInfo describes one registered handler in /handlers responses.
type HandlerInfo struct {
	Name   string            `json:"name"`
	Codecs map[string]string `json:"codecs"`
}

// New creates a Server around renderer.
func New(renderer *render.Renderer, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:2390"
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = 8 << 20
	}

	s := &Server{
		renderer: renderer,
		addr:     cfg.Addr,
		maxBody:  cfg.MaxBody,
	}
	if cfg.CacheTTL > 0 {
		s.cache = render.NewCache(renderer.Render, cfg.CacheTTL)
	}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves HTTP on the configured address until ctx is done, then shuts
// down gracefully. Timeouts are sized for slow external tools.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("imagine server listening on http://%s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("imagine server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/handlers", s.handleHandlers)
	r.Post("/filter/pandoc", s.handleFilter(render.ModePandoc))
	r.Post("/filter/markdown", s.handleFilter(render.ModeMarkdown))

	images := imagine.ImageDir(s.renderer.Engine().BaseDir())
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(images))))

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHandlers(w http.ResponseWriter, r *http.Request) {
	var out []HandlerInfo
	for _, d := range s.renderer.Engine().Registry().Descriptors() {
		out = append(out, HandlerInfo{Name: d.Name, Codecs: d.Codecs})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleFilter runs the request body through the given front-end. The
// target format comes from ?format=, and ?html=true converts Markdown
// output to HTML.
func (s *Server) handleFilter(mode render.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("reading body: %v", err))
			return
		}

		opts := render.Options{Mode: mode, Format: r.URL.Query().Get("format")}
		if v := r.URL.Query().Get("html"); v != "" {
			if opts.HTML, err = strconv.ParseBool(v); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid html flag %q", v))
				return
			}
		}

		res, hit, err := s.render(r, body, opts)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, imagine.ErrMalformedAttributes) {
				status = http.StatusUnprocessableEntity
			}
			log.Printf("filter request_id=%s mode=%s error=%v", RequestID(r.Context()), mode, err)
			writeError(w, status, err.Error())
			return
		}

		w.Header().Set("Content-Type", contentType(mode, opts.HTML))
		w.Header().Set("X-Imagine-Blocks", strconv.Itoa(res.Blocks))
		w.Header().Set("X-Imagine-Replaced", strconv.Itoa(res.Replaced))
		w.Header().Set("X-Imagine-Cache", map[bool]string{true: "hit", false: "miss"}[hit])
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Output)
	}
}

func (s *Server) render(r *http.Request, body []byte, opts render.Options) (*render.Result, bool, error) {
	if s.cache != nil {
		return s.cache.Render(r.Context(), body, opts)
	}
	res, err := s.renderer.Render(r.Context(), body, opts)
	return res, false, err
}

func contentType(mode render.Mode, html bool) string {
	switch {
	case mode == render.ModePandoc:
		return "application/json"
	case html:
		return "text/html; charset=utf-8"
	default:
		return "text/markdown; charset=utf-8"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
