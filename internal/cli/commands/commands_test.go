package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biosimlabs/textode/internal/cli"
	"github.com/biosimlabs/textode/internal/report"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeModel(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestCompileCommand(t *testing.T) {
	input := writeModel(t, "A binds B --> AB\nAB is dissociated into A and B\n")
	statePath := filepath.Join(t.TempDir(), "state.db")

	out, err := run(t, "compile", "--input", input, "--state_path", statePath)
	require.NoError(t, err)
	assert.Contains(t, out, "kf1*A*B - kr1*AB")
	assert.Contains(t, out, "3 species, 2 reactions, 4 parameters")

	_, err = os.Stat(statePath)
	assert.NoError(t, err, "state database should be created")
}

func TestCompileCommand_BrokenInput(t *testing.T) {
	input := writeModel(t, "A glows\n")
	statePath := filepath.Join(t.TempDir(), "state.db")

	_, err := run(t, "compile", "--input", input, "--state_path", statePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered words")
}

func TestReportCommand(t *testing.T) {
	input := writeModel(t, "A dimerizes --> B\n")
	outDir := filepath.Join(t.TempDir(), "reports")

	_, err := run(t, "report", "--input", input, "--output_dir", outDir, "--state_path", "")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, report.RateEquationsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kf1·A·A - kr1·B")
}

func TestCohortCommand(t *testing.T) {
	patientsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(patientsDir, "patient_1.txt"),
		[]byte("A binds B --> AB\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(patientsDir, "patient_2.txt"),
		[]byte("A glows\n"), 0o644))

	outDir := filepath.Join(t.TempDir(), "out")
	t.Setenv("TEXTODE_COHORT__PATIENTS_DIR", patientsDir)

	out, err := run(t, "cohort", "--output_dir", outDir, "--state_path", "")
	require.NoError(t, err, "a failing patient must not fail the command")
	assert.Contains(t, out, "2 patients, 1 failed")

	_, err = os.Stat(filepath.Join(outDir, "patients", "patient_1", report.SummaryFile))
	assert.NoError(t, err)
}

func TestCohortCommand_MissingExpressionData(t *testing.T) {
	patientsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(patientsDir, "patient_1.txt"),
		[]byte("A binds B --> AB\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(patientsDir, "patient_2.txt"),
		[]byte("A is degraded\n"), 0o644))

	tpm := filepath.Join(t.TempDir(), "tpm.csv")
	require.NoError(t, os.WriteFile(tpm, []byte("gene,patient_1\nEGFR,100.0\n"), 0o644))

	t.Setenv("TEXTODE_COHORT__PATIENTS_DIR", patientsDir)
	t.Setenv("TEXTODE_COHORT__EXPRESSION_TABLE", tpm)

	_, err := run(t, "cohort", "--output_dir", t.TempDir(), "--state_path", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patient_2")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "textode")
}
