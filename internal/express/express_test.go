package express

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tpmCSV = `gene,patient_1,patient_2
EGFR,128.3,54.0
ERBB2,20.1,88.6
MYC,310.5,295.2
`

func loadTable(t *testing.T) *Table {
	t.Helper()
	table, err := ReadTPM(strings.NewReader(tpmCSV))
	require.NoError(t, err)
	return table
}

func TestReadTPM(t *testing.T) {
	table := loadTable(t)

	assert.Equal(t, []string{"patient_1", "patient_2"}, table.Samples())
	assert.Equal(t, []string{"EGFR", "ERBB2", "MYC"}, table.Genes())
	assert.True(t, table.HasSample("patient_1"))
	assert.False(t, table.HasSample("patient_3"))

	v, err := table.Value("ERBB2", "patient_2")
	require.NoError(t, err)
	assert.Equal(t, 88.6, v)
}

func TestReadTPM_Malformed(t *testing.T) {
	cases := []struct {
		name string
		csv  string
	}{
		{"no sample columns", "gene\nEGFR\n"},
		{"ragged row", "gene,p1,p2\nEGFR,1.0\n"},
		{"non-numeric value", "gene,p1\nEGFR,high\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadTPM(strings.NewReader(tc.csv))
			assert.Error(t, err)
		})
	}
}

func TestSum(t *testing.T) {
	table := loadTable(t)

	ws, err := table.Sum("EGFR_total", "patient_1", []string{"EGFR", "ERBB2"})
	require.NoError(t, err)
	assert.Equal(t, "EGFR_total", ws.Target)
	assert.Equal(t, "w_EGFR*128.3 + w_ERBB2*20.1", ws.String())

	_, err = table.Sum("x", "patient_1", []string{"KRAS"})
	assert.Error(t, err, "unknown gene must fail")
	_, err = table.Sum("x", "patient_9", []string{"EGFR"})
	assert.Error(t, err, "unknown sample must fail")
}

func TestIndividualization(t *testing.T) {
	table := loadTable(t)

	var ind Individualization
	ind.Sample = "patient_2"

	init, err := table.Sum("EGFR", "patient_2", []string{"EGFR"})
	require.NoError(t, err)
	ind.AsInitialCondition(init)

	rate, err := table.Sum("V3", "patient_2", []string{"MYC", "EGFR"})
	require.NoError(t, err)
	ind.AsMaximalTranscriptionRate(rate)

	assert.Equal(t, []string{"w_EGFR", "w_MYC"}, ind.ParameterNames())
	require.Len(t, ind.TranscriptionRates, 1)
	assert.Equal(t, "w_MYC*295.2 + w_EGFR*128.3", ind.TranscriptionRates[0].String())
}
