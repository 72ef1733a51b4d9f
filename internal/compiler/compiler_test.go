package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biosimlabs/textode/internal/lexicon"
)

func TestCompile_Dimerize(t *testing.T) {
	m, err := New().Compile("A dimerizes --> B")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, m.Species)
	assert.Equal(t, []string{"kf1", "kr1"}, m.ParameterNames())
	require.Len(t, m.Reactions, 1)
	assert.Equal(t, "v[1] = kf1*A*A - kr1*B", m.Reactions[0].String())

	eqA, ok := m.Equation("A")
	require.True(t, ok)
	assert.Equal(t, "dA/dt = -2*v[1]", eqA.String())
	eqB, ok := m.Equation("B")
	require.True(t, ok)
	assert.Equal(t, "dB/dt = +v[1]", eqB.String())
}

func TestCompile_BindWithParameters(t *testing.T) {
	// The reaction sits on line 2, so its parameters are kf2 and kr2.
	m, err := New().Compile("\nA binds B --> C | kf=0.5, kr=0.1")
	require.NoError(t, err)

	require.Len(t, m.ParamInits, 2)
	assert.Equal(t, "kf2 = 0.5", m.ParamInits[0].String())
	assert.Equal(t, "kr2 = 0.1", m.ParamInits[1].String())
	assert.Empty(t, m.Excluded)

	require.Len(t, m.Reactions, 1)
	assert.Equal(t, "v[2] = kf2*A*B - kr2*C", m.Reactions[0].String())
}

func TestCompile_DuplicateLines(t *testing.T) {
	text := "B is degraded\n" +
		"\n" +
		"A is degraded\n" +
		"C is degraded\n" +
		"\n" +
		"D is degraded\n" +
		"A is degraded\n"
	_, err := New().Compile(text)

	var dup *DuplicateLineError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "A is degraded", dup.Text)
	assert.Equal(t, []int{3, 7}, dup.Lines)
}

func TestCompile_NoMatchingRule(t *testing.T) {
	t.Run("nothing close", func(t *testing.T) {
		_, err := New().Compile("A glows")
		var nm *NoMatchingRuleError
		require.ErrorAs(t, err, &nm)
		assert.Equal(t, 1, nm.Line)
		assert.Equal(t, "A glows", nm.Text)
		assert.Nil(t, nm.Suggestion)
	})

	t.Run("misspelled phrase", func(t *testing.T) {
		_, err := New().Compile("Kin phosphorilates X --> Xp")
		var nm *NoMatchingRuleError
		require.ErrorAs(t, err, &nm)
		require.NotNil(t, nm.Suggestion)
		assert.Equal(t, " phosphorylates", nm.Suggestion.Phrase)
		assert.GreaterOrEqual(t, nm.Suggestion.Score, 0.7)
	})
}

func TestCompile_InconsistentNaming(t *testing.T) {
	text := "X is phosphorylated --> Xp\n" +
		"\n" +
		"X is phosphorylated --> Xphos\n"
	_, err := New().Compile(text)

	var inc *InconsistentNamingError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, "Xp", inc.NameA)
	assert.Equal(t, "Xphos", inc.NameB)
}

func TestCompile_ConsistentPairPasses(t *testing.T) {
	text := "Kin phosphorylates X --> Xp\n" +
		"Ptase dephosphorylates Xp --> X\n"
	m, err := New().Compile(text)
	require.NoError(t, err)
	assert.Len(t, m.Pairs, 2)
}

func TestCompile_SpeciesFirstMentionOrder(t *testing.T) {
	text := "A binds B --> AB\n" +
		"AB is dissociated into A and B\n" +
		"C phosphorylates A --> Ap\n"
	m, err := New().Compile(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "AB", "C", "Ap"}, m.Species)
}

func TestCompile_EquationsCoverExactlyTouchedSpecies(t *testing.T) {
	// C only catalyzes; it gains no differential equation.
	text := "A binds B --> AB\n" +
		"C phosphorylates A --> Ap\n"
	m, err := New().Compile(text)
	require.NoError(t, err)

	var covered []string
	for _, eq := range m.Equations {
		covered = append(covered, eq.Species)
	}
	assert.ElementsMatch(t, []string{"A", "B", "AB", "Ap"}, covered)
	_, ok := m.Equation("C")
	assert.False(t, ok)
}

func TestCompile_Idempotent(t *testing.T) {
	text := "A binds B --> AB | kf=0.2\n" +
		"AB is dissociated into A and B\n" +
		"@obs Total_A = A + AB\n" +
		"@sim tspan: [0, 100]\n"
	c := New()
	m1, err := c.Compile(text)
	require.NoError(t, err)
	m2, err := c.Compile(text)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
}

func TestRegisterWord(t *testing.T) {
	t.Run("before compile", func(t *testing.T) {
		c := New()
		require.NoError(t, c.RegisterWord(lexicon.RulePhosphorylate, "activates"))
		m, err := c.Compile("Kin activates X --> Xa")
		require.NoError(t, err)
		require.Len(t, m.Reactions, 1)
		assert.Equal(t, "v[1] = V1*Kin*X/(K1+X)", m.Reactions[0].String())
	})

	t.Run("after compile", func(t *testing.T) {
		c := New()
		_, err := c.Compile("A is degraded")
		require.NoError(t, err)
		err = c.RegisterWord(lexicon.RuleBind, "docks onto")
		var cfg *lexicon.ConfigurationError
		require.ErrorAs(t, err, &cfg)
	})
}

func TestCompile_ParameterExclusion(t *testing.T) {
	m, err := New().Compile("A binds B --> AB | const kf=1.0, kr=0")
	require.NoError(t, err)

	assert.Equal(t, []string{"kf1", "kr1"}, m.Excluded)
	require.Len(t, m.Parameters, 2)
	assert.True(t, m.Parameters[0].Excluded)
	assert.True(t, m.Parameters[1].Excluded)
}

func TestCompile_ParameterConstraint(t *testing.T) {
	text := "A is degraded\n" +
		"B is degraded | 1\n"
	m, err := New().Compile(text)
	require.NoError(t, err)

	require.Len(t, m.Constraints, 1)
	assert.Equal(t, "kf2 = kf1", m.Constraints[0].String())
	assert.Equal(t, []string{"kf2"}, m.Excluded)

	kf2 := m.Parameters[1]
	assert.Equal(t, "kf2", kf2.Name)
	assert.Equal(t, 1, kf2.ConstrainedTo)
}

func TestCompile_DanglingConstraint(t *testing.T) {
	// Line 1 registers V1/K1, so line 2's kf has no counterpart.
	text := "Kin phosphorylates X --> Xp\n" +
		"A is degraded | 1\n"
	_, err := New().Compile(text)

	var dangling *DanglingReferenceError
	require.ErrorAs(t, err, &dangling)
	assert.Equal(t, 2, dangling.Line)
	assert.Equal(t, 1, dangling.Ref)
}

func TestCompile_ClauseErrors(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		check func(error) bool
	}{
		{"unknown parameter", "A binds B --> AB | V=1", func(err error) bool {
			var e *UnknownParameterError
			return errors.As(err, &e)
		}},
		{"non-numeric parameter", "A binds B --> AB | kf=fast", func(err error) bool {
			var e *NonNumericValueError
			return errors.As(err, &e)
		}},
		{"undefined species init", "A binds B --> AB | | Z=1", func(err error) bool {
			var e *UndefinedSpeciesError
			return errors.As(err, &e)
		}},
		{"non-numeric init", "A binds B --> AB | | A=lots", func(err error) bool {
			var e *NonNumericValueError
			return errors.As(err, &e)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Compile(tc.text)
			require.Error(t, err)
			assert.True(t, tc.check(err), "got %T: %v", err, err)
		})
	}
}

func TestCompile_InitialConditions(t *testing.T) {
	m, err := New().Compile("A binds B --> AB | kf=0.5 | A=100, B=50")
	require.NoError(t, err)
	require.Len(t, m.InitialConditions, 2)
	assert.Equal(t, "A = 100", m.InitialConditions[0].String())
	assert.Equal(t, "B = 50", m.InitialConditions[1].String())
}

func TestCompile_CommentsAndWhitespace(t *testing.T) {
	m, err := New().Compile("A   binds\tB --> AB  # complex formation\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "AB"}, m.Species)
	assert.Equal(t, "v[1] = kf1*A*B - kr1*AB", m.Reactions[0].String())
}

func TestCompile_Annotations(t *testing.T) {
	text := "Kin phosphorylates X --> Xp\n" +
		"Ptase dephosphorylates Xp --> X\n" +
		"@obs Total_X = X + Xp\n" +
		"@sim tspan: [0, 120]\n" +
		"@sim unperturbed: Kin = 0\n" +
		"@sim condition stimulated: Kin = 10\n"
	m, err := New().Compile(text)
	require.NoError(t, err)

	require.Len(t, m.Observables, 1)
	assert.Equal(t, "Total_X", m.Observables[0].Name)
	assert.Equal(t, "X + Xp", m.Observables[0].Expr)

	require.NotNil(t, m.Tspan)
	assert.Equal(t, 0, m.Tspan.T0)
	assert.Equal(t, 120, m.Tspan.Tf)

	assert.Equal(t, "Kin = 0", m.Unperturbed)

	require.Len(t, m.Conditions, 1)
	assert.Equal(t, "stimulated", m.Conditions[0].Name)
	assert.Equal(t, "Kin = 10", m.Conditions[0].Stmt)
}

func TestCompile_AnnotationErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"obs without equals", "@obs Total_X"},
		{"sim without colon", "@sim tspan [0, 100]"},
		{"sim unknown directive", "@sim span: [0, 100]"},
		{"tspan missing brackets", "@sim tspan: 0, 100"},
		{"tspan negative bound", "@sim tspan: [0, -1]"},
		{"tspan one element", "@sim tspan: [100]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Compile(tc.text)
			var ann *AnnotationError
			require.ErrorAs(t, err, &ann)
			assert.Equal(t, 1, ann.Line)
		})
	}
}

func TestCompileFile(t *testing.T) {
	_, err := New().CompileFile("testdata/does_not_exist.txt")
	require.Error(t, err)
}
