package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biosimlabs/textode/internal/lexicon"
)

// MalformedSentenceError reports a reaction sentence missing a required
// delimiter such as "-->" or "and".
type MalformedSentenceError struct {
	Line int
	Msg  string
}

func (e *MalformedSentenceError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// NonNumericValueError reports a literal that does not parse as a real
// number.
type NonNumericValueError struct {
	Line  int
	What  string // "parameter value", "initial value", "compartment volume"
	Value string
}

func (e *NonNumericValueError) Error() string {
	return fmt.Sprintf("line %d: %s %q must be a real number", e.Line, e.What, e.Value)
}

// UnknownParameterError reports a parameter-clause name outside the rule's
// expected base names.
type UnknownParameterError struct {
	Line  int
	Name  string
	Valid []string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("line %d: unknown parameter %q; available parameters are: %s",
		e.Line, e.Name, strings.Join(e.Valid, ", "))
}

// UndefinedSpeciesError reports an initial-value clause naming a species
// absent from the reaction sentence.
type UndefinedSpeciesError struct {
	Line int
	Name string
}

func (e *UndefinedSpeciesError) Error() string {
	return fmt.Sprintf("line %d: species %q is not defined in the reaction", e.Line, e.Name)
}

// InvalidNamingError reports a product sharing its name with a reactant it
// is derived from.
type InvalidNamingError struct {
	Line int
	Name string
}

func (e *InvalidNamingError) Error() string {
	return fmt.Sprintf("line %d: %s <- use a different name", e.Line, e.Name)
}

// DanglingReferenceError reports a parameter constraint pointing at a line
// whose parameters do not exist, i.e. the two lines use different rules.
type DanglingReferenceError struct {
	Line int
	Ref  int
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("lines %d and %d: different reaction rules in parameter constraints", e.Line, e.Ref)
}

// DuplicateLineError reports identical line text occurring more than once
// in the input.
type DuplicateLineError struct {
	Text  string
	Lines []int
}

func (e *DuplicateLineError) Error() string {
	nums := make([]string, len(e.Lines))
	for i, n := range e.Lines {
		nums[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("reaction %q is duplicated in lines %s", e.Text, strings.Join(nums, ", "))
}

// InconsistentNamingError reports the same phosphorylation event referenced
// with two different species names across separate lines.
type InconsistentNamingError struct {
	NameA string
	NameB string
}

func (e *InconsistentNamingError) Error() string {
	return fmt.Sprintf("these species names should be same: %q and %q", e.NameA, e.NameB)
}

// AnnotationError reports a malformed @obs or @sim annotation.
type AnnotationError struct {
	Line int
	Msg  string
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// NoMatchingRuleError reports a reaction line no registered trigger phrase
// matches. Suggestion, when present, carries the closest registered phrase
// and the line fragment it resembled.
type NoMatchingRuleError struct {
	Line       int
	Text       string
	Suggestion *lexicon.Suggestion
}

func (e *NoMatchingRuleError) Error() string {
	msg := fmt.Sprintf("unregistered words in line %d: %s", e.Line, e.Text)
	if e.Suggestion != nil {
		msg += fmt.Sprintf(" (maybe: %q)", e.Suggestion.Phrase)
	}
	return msg
}
