// Package model defines the intermediate representation produced by the
// textode compiler: ordered collections of parameters, species, rate laws
// and per-species differential equations, plus the auxiliary statements
// (parameter initializers, initial conditions, constraints) and simulation
// annotations needed by downstream emitters.
//
// All collections are insertion-ordered and that order is authoritative:
// parameters appear in registration order, species in order of first
// mention, reactions in line order, and differential equations in the order
// their species was first touched by any reaction.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Parameter is one kinetic constant occurrence. Name is the rule's base
// name suffixed with the originating line number, which makes it globally
// unique per reaction occurrence (kf on line 3 becomes kf3).
type Parameter struct {
	Name string
	Base string
	Line int
	// Excluded marks the parameter as fixed: it keeps its declared value
	// and is omitted from downstream estimation.
	Excluded bool
	// ConstrainedTo is the line number of the parameter this one must
	// equal, or 0 when unconstrained.
	ConstrainedTo int
}

// Assignment binds a symbol to a literal value or to another symbol.
// It is used for parameter initializers, initial conditions and
// parameter constraints alike.
type Assignment struct {
	Target string
	Value  string
}

func (a Assignment) String() string {
	return a.Target + " = " + a.Value
}

// Reaction is one rate-law statement, indexed by the input line that
// produced it.
type Reaction struct {
	Line int
	Expr string
}

func (r Reaction) String() string {
	return fmt.Sprintf("v[%d] = %s", r.Line, r.Expr)
}

// Term is one signed flux contribution to a differential equation.
type Term struct {
	// Sign is +1 or -1.
	Sign int
	// Coefficient is an optional stoichiometric factor such as "2".
	Coefficient string
	// Line is the reaction index the term refers to.
	Line int
	// Scale is an optional volume-ratio factor such as "(1/0.5)",
	// applied when a translocation crosses compartments of different
	// volume.
	Scale string
}

// body renders the unsigned part of the term, e.g. "2*v[1]" or
// "v[9]*(1/0.5)".
func (t Term) body() string {
	var sb strings.Builder
	if t.Coefficient != "" {
		sb.WriteString(t.Coefficient)
		sb.WriteString("*")
	}
	sb.WriteString("v[")
	sb.WriteString(strconv.Itoa(t.Line))
	sb.WriteString("]")
	if t.Scale != "" {
		sb.WriteString("*")
		sb.WriteString(t.Scale)
	}
	return sb.String()
}

func (t Term) String() string {
	if t.Sign < 0 {
		return "-" + t.body()
	}
	return "+" + t.body()
}

// Equation is the accumulated right-hand side of one species'
// differential equation. Terms are appended in the order their reactions
// were parsed and are never reordered.
type Equation struct {
	Species string
	Terms   []Term
}

func (e Equation) String() string {
	var sb strings.Builder
	sb.WriteString("d")
	sb.WriteString(e.Species)
	sb.WriteString("/dt = ")
	for i, t := range e.Terms {
		if i == 0 {
			sb.WriteString(t.String())
			continue
		}
		if t.Sign < 0 {
			sb.WriteString(" - ")
		} else {
			sb.WriteString(" + ")
		}
		sb.WriteString(t.body())
	}
	return sb.String()
}

// Observable is one @obs annotation, captured verbatim.
type Observable struct {
	Name string
	Expr string
}

// Condition is one named @sim condition, captured verbatim.
type Condition struct {
	Name string
	Stmt string
}

// Tspan is the simulation integration interval.
type Tspan struct {
	T0 int
	Tf int
}

// ProteinPair records one phosphorylation-type reaction's
// (unphosphorylated, phosphorylated) species names. Duplicates are
// significant: pair multiplicity drives the post-pass naming check.
type ProteinPair struct {
	Unphosphorylated string
	Phosphorylated   string
}

// Model is the fully built intermediate representation of one input file.
// It is immutable once the compiler returns it.
type Model struct {
	Parameters []Parameter
	Species    []string
	Reactions  []Reaction
	Equations  []Equation

	// ParamInits holds parameter-initializer statements in clause order.
	ParamInits []Assignment
	// InitialConditions holds species initial-value statements.
	InitialConditions []Assignment
	// Constraints holds parameter-constraint statements (one line's
	// parameter bound to equal another's).
	Constraints []Assignment
	// Excluded lists parameter symbols fixed at their declared values.
	Excluded []string

	Observables []Observable
	Tspan       *Tspan
	Conditions  []Condition
	Unperturbed string

	// Pairs lists every phosphorylation pair mention in parse order.
	Pairs []ProteinPair
}

// ParameterNames returns the ordered parameter symbol list.
func (m *Model) ParameterNames() []string {
	names := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		names[i] = p.Name
	}
	return names
}

// HasSpecies reports whether name is a registered species.
func (m *Model) HasSpecies(name string) bool {
	for _, s := range m.Species {
		if s == name {
			return true
		}
	}
	return false
}

// Equation returns the differential equation for the given species.
func (m *Model) Equation(species string) (Equation, bool) {
	for _, eq := range m.Equations {
		if eq.Species == species {
			return eq, true
		}
	}
	return Equation{}, false
}
