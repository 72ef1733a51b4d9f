package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/biosimlabs/textode/internal/cohort"
	"github.com/biosimlabs/textode/internal/compiler"
	"github.com/biosimlabs/textode/internal/config"
	"github.com/biosimlabs/textode/internal/express"
	"github.com/biosimlabs/textode/internal/report"
	"github.com/biosimlabs/textode/internal/state"
	"github.com/biosimlabs/textode/pkg/model"
)

// NewCohortCmd creates the cohort command.
func NewCohortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cohort",
		Short: "Compile and run one model per patient",
		Long: `cohort reads one reaction text file per patient from the configured
patients directory, compiles each on a bounded worker pool and renders a
per-patient report. One patient's failure never aborts the others.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())

			if cfg.Cohort.PatientsDir == "" {
				return fmt.Errorf("cohort.patients_dir is not configured")
			}
			patients, err := loadPatients(cfg.Cohort.PatientsDir)
			if err != nil {
				return err
			}
			if len(patients) == 0 {
				return fmt.Errorf("no patient files in %s", cfg.Cohort.PatientsDir)
			}
			if err := checkExpressionCoverage(cfg, logger, patients); err != nil {
				return err
			}

			// Validate the configured vocabulary once; the factory below
			// recreates compilers from the same, now known-good, config.
			if _, err := newCompiler(cfg, logger); err != nil {
				return err
			}

			runner := cohort.RunnerFunc(func(_ context.Context, id string, m *model.Model) error {
				return report.Write(m, filepath.Join(cfg.OutputDir, "patients", id))
			})
			opts := []cohort.Option{
				cohort.WithLogger(logger),
				cohort.WithCompilerFactory(func() *compiler.Compiler {
					c, _ := newCompiler(cfg, logger)
					return c
				}),
			}
			if cfg.Cohort.Workers > 0 {
				opts = append(opts, cohort.WithWorkers(cfg.Cohort.Workers))
			}

			results, err := cohort.New(runner, opts...).Run(cmd.Context(), patients)
			if err != nil {
				return err
			}

			if err := recordCohort(cfg, logger, patients, results); err != nil {
				logger.Warn("cohort history not recorded", "error", err)
			}
			printResults(cmd, results)
			return nil
		},
	}
}

// loadPatients maps every .txt file in dir to one patient, identified by
// the file's base name.
func loadPatients(dir string) ([]cohort.Patient, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading patients directory: %w", err)
	}
	var patients []cohort.Patient
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading patient file: %w", err)
		}
		patients = append(patients, cohort.Patient{
			ID:    strings.TrimSuffix(e.Name(), ".txt"),
			Input: string(data),
		})
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].ID < patients[j].ID })
	return patients, nil
}

// checkExpressionCoverage ensures every patient has a column in the
// configured gene-expression table before any build starts.
func checkExpressionCoverage(cfg *config.Config, logger *slog.Logger, patients []cohort.Patient) error {
	if cfg.Cohort.ExpressionTable == "" {
		return nil
	}
	tbl, err := express.LoadTPM(cfg.Cohort.ExpressionTable)
	if err != nil {
		return err
	}
	var missing []string
	for _, p := range patients {
		if !tbl.HasSample(p.ID) {
			missing = append(missing, p.ID)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("patients without expression data in %s: %s",
			cfg.Cohort.ExpressionTable, strings.Join(missing, ", "))
	}
	logger.Debug("expression table loaded",
		"genes", len(tbl.Genes()), "samples", len(tbl.Samples()))
	return nil
}

// recordCohort stores one build row for the cohort input set plus one row
// per patient result.
func recordCohort(cfg *config.Config, logger *slog.Logger, patients []cohort.Patient, results []cohort.Result) error {
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

	var inputs strings.Builder
	for _, p := range patients {
		inputs.WriteString(p.ID)
		inputs.WriteString("\x00")
		inputs.WriteString(p.Input)
		inputs.WriteString("\x00")
	}
	status := state.StatusOK
	for _, r := range results {
		if r.Err != nil {
			status = state.StatusFailed
			break
		}
	}
	buildID, err := store.RecordBuild(state.Build{
		InputPath: cfg.Cohort.PatientsDir,
		InputHash: state.HashInput(inputs.String()),
		Status:    status,
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		run := state.CohortRun{
			BuildID:  buildID,
			Patient:  r.Patient,
			Status:   state.StatusOK,
			Duration: r.Duration,
		}
		if r.Err != nil {
			run.Status = state.StatusFailed
			run.Error = r.Err.Error()
		}
		if _, err := store.RecordCohortRun(run); err != nil {
			return err
		}
	}
	return nil
}

func printResults(cmd *cobra.Command, results []cohort.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Patient", "Status", "Duration", "Error"})
	var failed int
	for _, r := range results {
		status := state.StatusOK
		errText := ""
		if r.Err != nil {
			status = state.StatusFailed
			errText = r.Err.Error()
			failed++
		}
		t.AppendRow(table.Row{r.Patient, status, r.Duration.Round(time.Millisecond), errText})
	}
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "%d patients, %d failed\n", len(results), failed)
}
