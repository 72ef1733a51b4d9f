package compiler

import (
	"log/slog"
	"strconv"

	"github.com/biosimlabs/textode/pkg/model"
)

// build is the mutable state of a single compile call. It owns every
// collection of the model being assembled and is never shared across
// builds or touched after Compile returns.
type build struct {
	logger *slog.Logger

	m *model.Model

	paramIdx   map[string]int
	speciesSet map[string]struct{}
	// eqIdx maps species name to its entry in m.Equations. Entries are
	// created in first-touched order and never reordered.
	eqIdx       map[string]int
	excludedSet map[string]struct{}
}

func newBuild(logger *slog.Logger) *build {
	return &build{
		logger:      logger,
		m:           &model.Model{},
		paramIdx:    make(map[string]int),
		speciesSet:  make(map[string]struct{}),
		eqIdx:       make(map[string]int),
		excludedSet: make(map[string]struct{}),
	}
}

// param returns the line-qualified symbol for a base parameter name.
func param(base string, line int) string {
	return base + strconv.Itoa(line)
}

// registerParams registers one line-qualified parameter per base name,
// skipping symbols already present.
func (b *build) registerParams(line int, bases ...string) {
	for _, base := range bases {
		name := param(base, line)
		if _, ok := b.paramIdx[name]; ok {
			continue
		}
		b.paramIdx[name] = len(b.m.Parameters)
		b.m.Parameters = append(b.m.Parameters, model.Parameter{
			Name: name,
			Base: base,
			Line: line,
		})
	}
}

func (b *build) hasParam(name string) bool {
	_, ok := b.paramIdx[name]
	return ok
}

// removeParam deletes a registered parameter. Used by the transcription
// handler to drop the repressor constants when no repressor clause is
// present.
func (b *build) removeParam(name string) {
	i, ok := b.paramIdx[name]
	if !ok {
		return
	}
	b.m.Parameters = append(b.m.Parameters[:i], b.m.Parameters[i+1:]...)
	delete(b.paramIdx, name)
	for j := i; j < len(b.m.Parameters); j++ {
		b.paramIdx[b.m.Parameters[j].Name] = j
	}
}

// excludeParam marks a parameter as fixed and outside estimation.
func (b *build) excludeParam(name string) {
	if _, ok := b.excludedSet[name]; ok {
		return
	}
	b.excludedSet[name] = struct{}{}
	b.m.Excluded = append(b.m.Excluded, name)
	if i, ok := b.paramIdx[name]; ok {
		b.m.Parameters[i].Excluded = true
	}
}

// constrainParam binds a parameter to equal the same base name on another
// line.
func (b *build) constrainParam(name string, refLine int) {
	if i, ok := b.paramIdx[name]; ok {
		b.m.Parameters[i].ConstrainedTo = refLine
	}
}

// addSpecies registers species in order of first mention.
func (b *build) addSpecies(names ...string) {
	for _, name := range names {
		if _, ok := b.speciesSet[name]; ok {
			continue
		}
		b.speciesSet[name] = struct{}{}
		b.m.Species = append(b.m.Species, name)
	}
}

func (b *build) addReaction(line int, expr string) {
	b.m.Reactions = append(b.m.Reactions, model.Reaction{Line: line, Expr: expr})
}

func (b *build) addPair(unphosphorylated, phosphorylated string) {
	b.m.Pairs = append(b.m.Pairs, model.ProteinPair{
		Unphosphorylated: unphosphorylated,
		Phosphorylated:   phosphorylated,
	})
}

// addTerm folds one signed flux contribution into the species'
// differential equation, creating the entry on first touch.
func (b *build) addTerm(species string, t model.Term) {
	if i, ok := b.eqIdx[species]; ok {
		b.m.Equations[i].Terms = append(b.m.Equations[i].Terms, t)
		return
	}
	b.eqIdx[species] = len(b.m.Equations)
	b.m.Equations = append(b.m.Equations, model.Equation{
		Species: species,
		Terms:   []model.Term{t},
	})
}

// checkSpeciesNames is the post-pass consistency check over all recorded
// phosphorylation pairs. A pair whose multiplicity is odd and that shares
// exactly one name with another distinct pair indicates the same physical
// event written with inconsistent species names.
func (b *build) checkSpeciesNames() error {
	b.logger.Debug("checking species name consistency", "pairs", len(b.m.Pairs))
	counts := make(map[model.ProteinPair]int)
	var distinct []model.ProteinPair
	for _, p := range b.m.Pairs {
		if counts[p] == 0 {
			distinct = append(distinct, p)
		}
		counts[p]++
	}
	for _, one := range b.m.Pairs {
		if counts[one]%2 == 0 {
			continue
		}
		for _, another := range distinct {
			sameU := one.Unphosphorylated == another.Unphosphorylated
			sameP := one.Phosphorylated == another.Phosphorylated
			if sameU == sameP {
				continue
			}
			if !sameU {
				return &InconsistentNamingError{NameA: one.Unphosphorylated, NameB: another.Unphosphorylated}
			}
			return &InconsistentNamingError{NameA: one.Phosphorylated, NameB: another.Phosphorylated}
		}
	}
	return nil
}
