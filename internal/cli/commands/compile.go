package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/biosimlabs/textode/internal/config"
	"github.com/biosimlabs/textode/internal/state"
	"github.com/biosimlabs/textode/pkg/model"
)

// NewCompileCmd creates the compile command.
func NewCompileCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a reaction text file into an ODE model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())

			if err := compileOnce(cmd, cfg, logger); err != nil && !watch {
				return err
			} else if err != nil {
				// In watch mode a broken input is reported, not fatal.
				fmt.Fprintf(cmd.ErrOrStderr(), "compile failed: %v\n", err)
			}
			if !watch {
				return nil
			}
			return watchAndCompile(cmd, cfg, logger)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "recompile when the input file changes")
	return cmd
}

func compileOnce(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	text, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	c, err := newCompiler(cfg, logger)
	if err != nil {
		return err
	}
	m, compileErr := c.Compile(string(text))

	if err := recordBuild(cfg, logger, string(text), m, compileErr); err != nil {
		logger.Warn("build history not recorded", "error", err)
	}
	if compileErr != nil {
		return compileErr
	}

	printModel(cmd, m)
	return nil
}

func printModel(cmd *cobra.Command, m *model.Model) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"No.", "Rate equation"})
	for _, r := range m.Reactions {
		t.AppendRow(table.Row{r.Line, r.Expr})
	}
	t.Render()

	t = table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Differential equation"})
	for _, eq := range m.Equations {
		t.AppendRow(table.Row{eq.String()})
	}
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "%d species, %d reactions, %d parameters (%d excluded)\n",
		len(m.Species), len(m.Reactions), len(m.Parameters), len(m.Excluded))
}

func recordBuild(cfg *config.Config, logger *slog.Logger, text string, m *model.Model, compileErr error) error {
	if cfg.StatePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
		return err
	}
	store := state.New(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return err
	}
	defer store.Close()
	if err := store.InitSchema(); err != nil {
		return err
	}

	b := state.Build{
		InputPath: cfg.Input,
		InputHash: state.HashInput(text),
		Status:    state.StatusOK,
	}
	if compileErr != nil {
		b.Status = state.StatusFailed
		b.Error = compileErr.Error()
	} else {
		b.Species = len(m.Species)
		b.Reactions = len(m.Reactions)
		b.Parameters = len(m.Parameters)
	}
	_, err := store.RecordBuild(b)
	return err
}

// watchAndCompile recompiles the input on every write until the command
// context is canceled.
func watchAndCompile(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops a
	// watch registered on the file itself.
	dir := filepath.Dir(cfg.Input)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(cfg.Input)
	logger.Info("watching for changes", "input", cfg.Input)

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("input changed", "event", event.Op.String())
			if err := compileOnce(cmd, cfg, logger); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "compile failed: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
