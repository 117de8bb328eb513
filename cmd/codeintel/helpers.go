package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"codeintel/internal/config"
	"codeintel/internal/slogutil"
	"codeintel/internal/storage"
)

// targetRoot returns the absolute directory a command operates on.
func targetRoot(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return abs, nil
}

// loadConfig loads and validates the configuration for root.
func loadConfig(root string) (*config.LoadResult, error) {
	result, err := config.LoadConfigWithDetails(root, configPathFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := result.Config.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// newLogger writes to stderr. Explicit -v or -q flags win over the
// configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verbosityFlag > 0 || quietFlag {
		level = slogutil.LevelFromVerbosity(verbosityFlag, quietFlag)
	}
	format := cfg.Logging.Format
	if logFormatFlag != "" {
		format = logFormatFlag
	}
	return slogutil.NewFormattedLogger(os.Stderr, level, format)
}

// newContext is cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// cachePath resolves the configured cache location against root.
func cachePath(root string, cfg *config.Config) string {
	p := cfg.Cache.Path
	if p == "" {
		p = storage.DefaultPath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// openCache opens the persistent embedding cache. The caller closes both
// returned values.
func openCache(path string, logger *slog.Logger) (*storage.DB, *storage.EmbeddingCache, error) {
	db, err := storage.Open(path, logger)
	if err != nil {
		return nil, nil, err
	}
	cache, err := storage.NewEmbeddingCache(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, cache, nil
}
