package compiler

import (
	"strconv"
	"strings"

	"github.com/biosimlabs/textode/pkg/model"
)

// applyObservable records an "@obs name = expression" annotation. The
// expression text is captured verbatim for downstream emitters.
func (b *build) applyObservable(line int, body string) error {
	parts := strings.SplitN(body, "=", 2)
	if len(parts) < 2 {
		return &AnnotationError{Line: line, Msg: "@obs requires 'name = expression'"}
	}
	b.m.Observables = append(b.m.Observables, model.Observable{
		Name: strings.TrimSpace(parts[0]),
		Expr: strings.TrimSpace(parts[1]),
	})
	return nil
}

// applySimulation records one of the "@sim" directives: the integration
// interval, the unperturbed steady-state statement, or a named condition.
// Statement text is validated only for basic shape.
func (b *build) applySimulation(line int, body string) error {
	if strings.Count(body, ":") != 1 {
		return &AnnotationError{Line: line, Msg: "missing colon in @sim directive"}
	}
	switch {
	case strings.HasPrefix(body, "tspan"):
		return b.applyTspan(line, body)
	case strings.HasPrefix(body, "unperturbed"):
		parts := strings.SplitN(body, ":", 2)
		b.m.Unperturbed += strings.TrimSpace(parts[1])
		return nil
	case strings.HasPrefix(body, "condition "):
		rest := strings.TrimPrefix(body, "condition ")
		parts := strings.SplitN(rest, ":", 2)
		b.m.Conditions = append(b.m.Conditions, model.Condition{
			Name: strings.TrimSpace(parts[0]),
			Stmt: strings.TrimSpace(parts[1]),
		})
		return nil
	default:
		return &AnnotationError{
			Line: line,
			Msg:  "available options are: '@sim tspan:', '@sim unperturbed:' or '@sim condition XXX:'",
		}
	}
}

// applyTspan parses "tspan: [t0, tf]" where t0 and tf are non-negative
// integers.
func (b *build) applyTspan(line int, body string) error {
	parts := strings.SplitN(body, ":", 2)
	span := strings.TrimSpace(parts[1])
	open := strings.Index(span, "[")
	closing := strings.Index(span, "]")
	if open < 0 || closing < 0 || closing < open {
		return &AnnotationError{
			Line: line,
			Msg:  "tspan must be a two element vector [t0, tf] specifying the initial and final times",
		}
	}
	fields := strings.Split(span[open+1:closing], ",")
	if len(fields) != 2 {
		return &AnnotationError{
			Line: line,
			Msg:  "tspan must be a two element vector [t0, tf] specifying the initial and final times",
		}
	}
	t0s := strings.TrimSpace(fields[0])
	tfs := strings.TrimSpace(fields[1])
	if !isDecimal(t0s) || !isDecimal(tfs) {
		return &AnnotationError{Line: line, Msg: "@sim tspan: [t0, tf] must be a list of non-negative integers"}
	}
	t0, _ := strconv.Atoi(t0s)
	tf, _ := strconv.Atoi(tfs)
	b.m.Tspan = &model.Tspan{T0: t0, Tf: tf}
	return nil
}
