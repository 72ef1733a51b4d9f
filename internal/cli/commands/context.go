package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/biosimlabs/textode/internal/compiler"
	"github.com/biosimlabs/textode/internal/config"
)

// ConfigKey stores the resolved *config.Config in the command context.
type ConfigKey struct{}

// LoggerKey stores the *slog.Logger in the command context.
type LoggerKey struct{}

func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(ConfigKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

func loggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newCompiler builds a compiler with the configured extra trigger phrases
// registered.
func newCompiler(cfg *config.Config, logger *slog.Logger) (*compiler.Compiler, error) {
	c := compiler.New(compiler.WithLogger(logger))
	for rule, phrases := range cfg.Words {
		for _, phrase := range phrases {
			if err := c.RegisterWord(rule, phrase); err != nil {
				return nil, fmt.Errorf("registering configured words: %w", err)
			}
		}
	}
	return c, nil
}
