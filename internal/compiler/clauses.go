package compiler

import (
	"strconv"
	"strings"

	"github.com/biosimlabs/textode/pkg/model"
)

// constPrefix marks a parameter binding as fixed, excluding it from
// estimation regardless of its value.
const constPrefix = "const "

// applyParamClause processes the first clause of a reaction line. Two
// forms are accepted: comma-separated name=value bindings, or a single
// non-negative integer referencing an earlier line whose parameters this
// line's must equal.
func (b *build) applyParamClause(line int, clause string, expected []string) error {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}
	tokens := strings.Split(clause, ",")

	allAssignments := true
	for _, tok := range tokens {
		if !strings.Contains(tok, "=") {
			allAssignments = false
			break
		}
	}

	switch {
	case allAssignments:
		for _, tok := range tokens {
			if err := b.bindParam(line, tok, expected); err != nil {
				return err
			}
		}
	case isDecimal(strings.TrimSpace(tokens[0])):
		ref, _ := strconv.Atoi(strings.TrimSpace(tokens[0]))
		return b.constrainParams(line, ref, expected)
	}
	return nil
}

// bindParam processes one name=value token. The name may carry a "const "
// prefix; a zero value or the prefix marks the parameter as excluded.
func (b *build) bindParam(line int, token string, expected []string) error {
	parts := strings.SplitN(token, "=", 2)
	base := strings.Trim(parts[0], " ")
	fixed := false
	if strings.HasPrefix(base, constPrefix) {
		base = strings.TrimPrefix(base, constPrefix)
		fixed = true
	}

	valid := false
	for _, name := range expected {
		if base == name {
			valid = true
			break
		}
	}
	if !valid {
		return &UnknownParameterError{Line: line, Name: strings.Trim(parts[0], " "), Valid: expected}
	}

	value := strings.Trim(parts[1], " ")
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return &NonNumericValueError{Line: line, What: "parameter value", Value: value}
	}

	name := param(base, line)
	b.m.ParamInits = append(b.m.ParamInits, model.Assignment{Target: name, Value: value})
	if v == 0 || fixed {
		b.excludeParam(name)
	}
	return nil
}

// constrainParams binds every expected parameter at line to its
// counterpart at ref. The referenced line must have registered the same
// base names, i.e. both lines must use the same reaction rule.
func (b *build) constrainParams(line, ref int, expected []string) error {
	for _, base := range expected {
		refName := param(base, ref)
		if !b.hasParam(refName) {
			return &DanglingReferenceError{Line: line, Ref: ref}
		}
		name := param(base, line)
		b.excludeParam(name)
		b.constrainParam(name, ref)
		b.m.ParamInits = append(b.m.ParamInits, model.Assignment{Target: name, Value: refName})
		b.m.Constraints = append(b.m.Constraints, model.Assignment{Target: name, Value: refName})
	}
	return nil
}

// applyInitClause processes the second clause of a reaction line:
// comma-separated species=value initial conditions. Each species must
// appear in the reaction sentence.
func (b *build) applyInitClause(line int, clause, sentence string) error {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}
	for _, tok := range strings.Split(clause, ",") {
		parts := strings.SplitN(tok, "=", 2)
		name := strings.Trim(parts[0], " ")
		if !strings.Contains(sentence, name) {
			return &UndefinedSpeciesError{Line: line, Name: name}
		}
		if len(parts) < 2 {
			return &NonNumericValueError{Line: line, What: "initial value", Value: ""}
		}
		value := strings.Trim(parts[1], " ")
		if !isFloat(value) {
			return &NonNumericValueError{Line: line, What: "initial value", Value: value}
		}
		b.m.InitialConditions = append(b.m.InitialConditions, model.Assignment{Target: name, Value: value})
	}
	return nil
}
