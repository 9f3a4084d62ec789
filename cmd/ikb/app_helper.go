package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ikb/internal/config"
	"ikb/internal/logging"
	"ikb/internal/retrieval"
	"ikb/internal/search"
	"ikb/internal/stats"
)

// app bundles the shared components a command needs: configuration, the
// incident store, the search index, and the retrieval funnel over them.
type app struct {
	Root   string
	Config *config.Config
	Logger *logging.Logger
	Store  *stats.Store
	Index  *search.Index
	Funnel *retrieval.Funnel
}

var (
	appOnce   sync.Once
	sharedApp *app
	appErr    error
)

// getApp returns a shared app instance, lazily initialized on first use.
func getApp(root string, logger *logging.Logger) (*app, error) {
	appOnce.Do(func() {
		cfg, err := config.LoadConfig(root)
		if err != nil {
			logger.Warn("Failed to load config, using defaults", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = config.DefaultConfig()
		}
		if err := cfg.Validate(); err != nil {
			appErr = err
			return
		}

		store, err := stats.Open(filepath.Join(root, cfg.Store.Path), logger)
		if err != nil {
			appErr = fmt.Errorf("failed to open incident store: %w", err)
			return
		}

		index, err := search.NewIndex(store.Conn(), search.NewOverlapReranker())
		if err != nil {
			store.Close()
			appErr = fmt.Errorf("failed to open search index: %w", err)
			return
		}

		policy := retrieval.NewPolicy(cfg.Retrieval)
		funnel := retrieval.NewFunnel(index, policy, cfg, logger)

		sharedApp = &app{
			Root:   root,
			Config: cfg,
			Logger: logger,
			Store:  store,
			Index:  index,
			Funnel: funnel,
		}
	})

	return sharedApp, appErr
}

// mustGetApp returns the shared app or exits on error.
func mustGetApp(root string, logger *logging.Logger) *app {
	a, err := getApp(root, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		os.Exit(1)
	}
	return a
}

// getRoot returns the working directory the data dir lives under.
func getRoot() (string, error) {
	return os.Getwd()
}

// mustGetRoot returns the working directory or exits on error.
func mustGetRoot() string {
	root, err := getRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return root
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// newLogger creates a logger with the specified output format.
func newLogger(format string) *logging.Logger {
	logFormat := logging.HumanFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	level := logging.InfoLevel
	if logLevelFlag != "" {
		level = logging.ParseLevel(logLevelFlag)
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  level,
	})
}
