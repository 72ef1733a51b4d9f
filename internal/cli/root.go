// Package cli provides the textode command-line interface.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/biosimlabs/textode/internal/cli/commands"
	"github.com/biosimlabs/textode/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "textode",
		Short: "textode - biochemical text to ODE model compiler",
		Long: `textode compiles a constrained biochemical-event notation
("A binds B --> AB") into a symbolic ODE model: parameters, species,
rate laws and per-species differential equations.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir := cwd
			if root := config.FindProjectRoot(cwd); root != "" {
				dir = root
			}
			cfg, err := config.Load(dir, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := context.WithValue(cmd.Context(), commands.ConfigKey{}, cfg)
			ctx = context.WithValue(ctx, commands.LoggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("input", "", "reaction text file to compile")
	flags.String("output_dir", "", "directory for rendered reports")
	flags.String("state_path", "", "SQLite build-history database")
	flags.Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(
		commands.NewCompileCmd(),
		commands.NewReportCmd(),
		commands.NewCohortCmd(),
		commands.NewVersionCmd(Version, GitCommit),
	)
	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("command failed", "error", err)
		return 1
	}
	return 0
}
