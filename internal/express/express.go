// Package express individualizes a compiled model with gene-expression
// data. Transcript abundances (TPM) are folded into weighted sums over
// per-gene weighting-factor parameters, which a downstream consumer
// applies either to a species' initial condition or to a maximal
// transcription rate.
package express

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// WeightPrefix marks weighting-factor parameters in individualized models.
const WeightPrefix = "w_"

// Table holds transcript abundances per gene per sample identifier.
type Table struct {
	genes   map[string]map[string]float64
	samples []string
}

// LoadTPM reads a TPM table from a CSV file. The first column holds gene
// symbols; the header row names the samples.
func LoadTPM(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening TPM table: %w", err)
	}
	defer f.Close()
	t, err := ReadTPM(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// ReadTPM parses a TPM table from r.
func ReadTPM(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("table needs a gene column and at least one sample column")
	}
	samples := make([]string, len(header)-1)
	for i, s := range header[1:] {
		samples[i] = strings.TrimSpace(s)
	}

	t := &Table{genes: make(map[string]map[string]float64), samples: samples}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("gene %q: %d values for %d samples", rec[0], len(rec)-1, len(samples))
		}
		gene := strings.TrimSpace(rec[0])
		row := make(map[string]float64, len(samples))
		for i, field := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("gene %q, sample %q: %w", gene, samples[i], err)
			}
			row[samples[i]] = v
		}
		t.genes[gene] = row
	}
	return t, nil
}

// Samples returns the sample identifiers in header order.
func (t *Table) Samples() []string {
	out := make([]string, len(t.samples))
	copy(out, t.samples)
	return out
}

// HasSample reports whether id is a column of the table.
func (t *Table) HasSample(id string) bool {
	for _, s := range t.samples {
		if s == id {
			return true
		}
	}
	return false
}

// Value returns the abundance of gene in sample.
func (t *Table) Value(gene, sample string) (float64, error) {
	row, ok := t.genes[gene]
	if !ok {
		return 0, fmt.Errorf("gene %q not present in expression table", gene)
	}
	v, ok := row[sample]
	if !ok {
		return 0, fmt.Errorf("sample %q not present in expression table", sample)
	}
	return v, nil
}

// Genes returns the gene symbols in sorted order.
func (t *Table) Genes() []string {
	out := make([]string, 0, len(t.genes))
	for g := range t.genes {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// WeightedSum is the symbolic individualization expression for one target:
// sum over genes of w_<gene> * TPM(gene, sample).
type WeightedSum struct {
	// Target is the species or parameter symbol the sum individualizes.
	Target string
	// Weights holds the weighting-factor parameter per gene.
	Weights []Weight
}

// Weight is one w_<gene> * value term of a weighted sum.
type Weight struct {
	Gene  string
	Param string
	Value float64
}

// String renders the sum, e.g. "w_EGFR*128.3 + w_ERBB2*20.1".
func (ws WeightedSum) String() string {
	parts := make([]string, len(ws.Weights))
	for i, w := range ws.Weights {
		parts[i] = w.Param + "*" + strconv.FormatFloat(w.Value, 'g', -1, 64)
	}
	return strings.Join(parts, " + ")
}

// Sum builds the weighted sum of the given genes for one sample, targeting
// the named species or parameter. Every gene must be present in the table.
func (t *Table) Sum(target, sample string, genes []string) (WeightedSum, error) {
	if len(genes) == 0 {
		return WeightedSum{}, fmt.Errorf("target %q: no genes given", target)
	}
	ws := WeightedSum{Target: target}
	for _, gene := range genes {
		v, err := t.Value(gene, sample)
		if err != nil {
			return WeightedSum{}, fmt.Errorf("target %q: %w", target, err)
		}
		ws.Weights = append(ws.Weights, Weight{
			Gene:  gene,
			Param: WeightPrefix + gene,
			Value: v,
		})
	}
	return ws, nil
}

// Individualization maps weighted sums onto a model for one sample.
type Individualization struct {
	Sample string
	// InitialConditions individualize species initial values.
	InitialConditions []WeightedSum
	// TranscriptionRates individualize maximal transcription rate
	// parameters (V of a transcription reaction).
	TranscriptionRates []WeightedSum
}

// AsInitialCondition appends a weighted sum applied to a species' initial
// value.
func (ind *Individualization) AsInitialCondition(ws WeightedSum) {
	ind.InitialConditions = append(ind.InitialConditions, ws)
}

// AsMaximalTranscriptionRate appends a weighted sum applied to a
// transcription-rate parameter.
func (ind *Individualization) AsMaximalTranscriptionRate(ws WeightedSum) {
	ind.TranscriptionRates = append(ind.TranscriptionRates, ws)
}

// ParameterNames returns every weighting-factor parameter referenced by
// the individualization, deduplicated and sorted.
func (ind *Individualization) ParameterNames() []string {
	seen := make(map[string]struct{})
	for _, group := range [][]WeightedSum{ind.InitialConditions, ind.TranscriptionRates} {
		for _, ws := range group {
			for _, w := range ws.Weights {
				seen[w.Param] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
