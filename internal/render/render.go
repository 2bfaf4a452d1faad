// Package render turns filled HTML into a Letter-size PDF with a headless
// browser.
//
// Every render gets its own browser process. A Service bounds how many run
// at once and how long each may take; when the deadline passes a watchdog
// kills the browser's process group so a hung page cannot hold the request.
package render

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go-quotepdf/internal/apperr"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Engine names accepted in Options.Engine.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// Concurrency bounds when Options.MaxConcurrent is not set.
const (
	MinConcurrent = 1
	MaxConcurrent = 8
	cpuDivisor    = 2
)

// DefaultTimeout bounds a render when Options.Timeout is not set.
const DefaultTimeout = 60 * time.Second

// Renderer converts an HTML document to PDF bytes.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Options configures a Service.
type Options struct {
	Engine        string
	BrowserPath   string
	AutoDownload  bool
	NoSandbox     bool
	Timeout       time.Duration
	MaxConcurrent int
	WorkDir       string
}

// Service runs an engine under a concurrency cap and a per-render deadline.
type Service struct {
	engine  Renderer
	sem     *semaphore.Weighted
	timeout time.Duration
	log     *zap.Logger
}

// New builds the engine named in opts and wraps it in a Service.
func New(opts Options, log *zap.Logger) (*Service, error) {
	path, err := resolveBrowser(opts.BrowserPath, opts.AutoDownload)
	if err != nil {
		return nil, err
	}
	if opts.Engine == "" {
		opts.Engine = EngineChromedp
	}
	var engine Renderer
	switch opts.Engine {
	case EngineChromedp:
		engine = &chromedpEngine{execPath: path, noSandbox: opts.NoSandbox, workDir: opts.WorkDir, log: log}
	case EngineRod:
		engine = &rodEngine{execPath: path, noSandbox: opts.NoSandbox, workDir: opts.WorkDir, log: log}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, opts.Engine)
	}
	log.Info("render engine ready",
		zap.String("engine", opts.Engine),
		zap.String("browser", path),
		zap.Int("max_concurrent", ResolveConcurrency(opts.MaxConcurrent)),
		zap.Duration("timeout", opts.Timeout),
	)
	return NewService(engine, opts, log), nil
}

// NewService wraps an existing engine.
func NewService(engine Renderer, opts Options, log *zap.Logger) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		engine:  engine,
		sem:     semaphore.NewWeighted(int64(ResolveConcurrency(opts.MaxConcurrent))),
		timeout: timeout,
		log:     log,
	}
}

// ResolveConcurrency returns n when positive, otherwise half of GOMAXPROCS
// clamped to [MinConcurrent, MaxConcurrent].
func ResolveConcurrency(n int) int {
	if n > 0 {
		return n
	}
	return min(max(runtime.GOMAXPROCS(0)/cpuDivisor, MinConcurrent), MaxConcurrent)
}

// Render waits for a browser slot, then renders html within the deadline.
// A cancelled wait is reported as apperr.KindUnavailable.
func (s *Service) Render(ctx context.Context, html string) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "no browser slot available", err).WithOp("render")
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	buf, err := s.engine.Render(ctx, html)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %v", ErrRenderTimeout, s.timeout, err)
		}
		s.log.Error("render failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	s.log.Debug("rendered PDF", zap.Int("bytes", len(buf)), zap.Duration("elapsed", time.Since(start)))
	return buf, nil
}
