// Package shared holds the context passed to all CLI commands.
package shared

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-ports/spaccount/internal/config"
	"github.com/go-ports/spaccount/internal/service"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// Home overrides the spdb home directory.
	// When empty, resolution falls through to SPDB_HOME env var, then persisted config, then ~/.spdb.
	Home string
	// Verbose forces debug logging regardless of log.level.
	Verbose bool
	// LogOutput receives log records; nil means os.Stderr.
	LogOutput io.Writer
}

// ResolvedHome returns the --home flag or the resolved default.
func (c *Context) ResolvedHome() string {
	if c.Home != "" {
		return c.Home
	}
	return config.GetHome()
}

// OpenService loads the config, configures logging from it and returns a
// connected Service. The caller must Close it.
func (c *Context) OpenService(ctx context.Context) (*service.Service, error) {
	home := c.ResolvedHome()
	cfg, err := service.LoadConfig(home)
	if err != nil {
		return nil, err
	}
	c.setupLogger(cfg.Log.Level)
	return service.Open(ctx, home, cfg)
}

func (c *Context) setupLogger(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(c.logOutput(), &slog.HandlerOptions{Level: c.logLevel(level)})))
}

func (c *Context) logOutput() io.Writer {
	if c.LogOutput != nil {
		return c.LogOutput
	}
	return os.Stderr
}

// logLevel maps log.level to a slog level; Verbose forces debug.
func (c *Context) logLevel(level string) slog.Level {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if c.Verbose {
		lvl = slog.LevelDebug
	}
	return lvl
}
