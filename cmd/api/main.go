// Package main API.
//
// go-quotepdf provides a REST API that turns quotation data into a PDF.
//
//	Schemes: http
//	BasePath: /
//	Version: 1.0.0
//	Host: localhost:3000
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//	- application/pdf
//	- text/html
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-quotepdf/internal/config"
	"go-quotepdf/internal/logger"
	"go-quotepdf/internal/server"
	"go-quotepdf/internal/utils"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, log *zap.Logger, done chan bool, cleanupFunc func()) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("shutting down gracefully, press Ctrl+C again to force")

	// In-flight renders may take a while; give them a bounded window.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if cleanupFunc != nil {
		log.Info("cleaning work directory")
		cleanupFunc()
	}

	log.Info("server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func cleanupWorkDir(dir string, log *zap.Logger) func() {
	return func() {
		n, err := utils.CleanDir(dir)
		if err != nil {
			log.Warn("cleaning work directory", zap.String("dir", dir), zap.Error(err))
			return
		}
		if n > 0 {
			log.Debug("removed leftover render files", zap.String("dir", dir), zap.Int("count", n))
		}
	}
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	port := flag.Int("port", 0, "listen port (overrides PORT)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if flag.CommandLine.Changed("port") {
		cfg.Port = *port
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	log, err := logger.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if _, err := maxprocs.Set(maxprocs.Logger(log.Sugar().Infof)); err != nil {
		log.Warn("setting GOMAXPROCS", zap.Error(err))
	}

	cleanup := cleanupWorkDir(cfg.WorkDir, log)
	cleanup()

	apiServer, err := server.NewServer(cfg, log)
	if err != nil {
		log.Fatal("building server", zap.Error(err))
	}

	log.Info("starting server",
		zap.String("addr", apiServer.Addr),
		zap.String("engine", cfg.Engine),
		zap.Bool("api_key", cfg.APIKey != ""),
	)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	go gracefulShutdown(apiServer, log, done, cleanup)

	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("http server error", zap.Error(err))
	}

	<-done
	log.Info("graceful shutdown complete")
}
