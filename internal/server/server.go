// Package server provides the HTTP server setup for go-quotepdf.
//
// NewServer wires the configuration into the render service, the quotation
// generator and the router.
//
// Expected outputs:
// - Server listens on the configured port (default 3000)
// - Each PDF request gets its own browser, bounded by the render timeout
//
// Usage:
//
//	server, err := server.NewServer(cfg, logger)
//	server.ListenAndServe()
//
// See internal/server/routes.go for route registration.
package server

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"go-quotepdf/internal/config"
	"go-quotepdf/internal/generator"
	"go-quotepdf/internal/handlers"
	"go-quotepdf/internal/htmltpl"
	"go-quotepdf/internal/render"

	"go.uber.org/zap"
)

type Server struct {
	Config    config.Config
	Logger    *zap.Logger
	Generator handlers.Pipeline
}

func NewServer(cfg config.Config, log *zap.Logger) (*http.Server, error) {
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}

	renderer, err := render.New(render.Options{
		Engine:        cfg.Engine,
		BrowserPath:   cfg.BrowserPath,
		AutoDownload:  cfg.BrowserAutoDownload,
		NoSandbox:     cfg.NoSandbox,
		Timeout:       cfg.RenderTimeout,
		MaxConcurrent: cfg.MaxConcurrentRenders,
		WorkDir:       cfg.WorkDir,
	}, log.Named("render"))
	if err != nil {
		return nil, err
	}

	srv := &Server{
		Config: cfg,
		Logger: log,
		Generator: &generator.Generator{
			Template:    htmltpl.New(cfg.TemplatePath, cfg.LogoPath),
			Renderer:    renderer,
			AnnexPaths:  cfg.AnnexPaths,
			GeneratedBy: cfg.GeneratedBy,
			Location:    loc,
			Log:         log.Named("generator"),
		},
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.RenderTimeout + 30*time.Second,
	}

	return server, nil
}
