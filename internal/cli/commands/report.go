package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/biosimlabs/textode/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Compile the model and render markdown reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())

			text, err := os.ReadFile(cfg.Input)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			c, err := newCompiler(cfg, logger)
			if err != nil {
				return err
			}
			m, err := c.Compile(string(text))
			if err != nil {
				return err
			}

			if err := report.Write(m, cfg.OutputDir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reports written to %s\n", cfg.OutputDir)
			return nil
		},
	}
}
