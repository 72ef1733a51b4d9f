package compiler

import (
	"regexp"
	"strconv"
	"strings"
)

// Line classification for normalized input lines.
type lineKind int

const (
	lineBlank lineKind = iota
	lineObservable
	lineSimulation
	lineReaction
)

// Annotation prefixes.
const (
	obsPrefix = "@obs "
	simPrefix = "@sim "
)

var spaceRuns = regexp.MustCompile(`[ \t]+`)

// normalize collapses whitespace runs to single spaces, truncates the line
// at the first '#' and trims trailing space. Comment text never reaches
// the rule matcher.
func normalize(raw string) string {
	line := spaceRuns.ReplaceAllString(raw, " ")
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimRight(line, " ")
}

// classify determines what a normalized line describes.
func classify(line string) lineKind {
	switch {
	case strings.TrimSpace(line) == "":
		return lineBlank
	case strings.HasPrefix(line, obsPrefix):
		return lineObservable
	case strings.HasPrefix(line, simPrefix):
		return lineSimulation
	default:
		return lineReaction
	}
}

// splitClauses separates a reaction line into its sentence and the
// optional parameter and initial-value clauses. Either clause segment may
// be empty.
func splitClauses(line string) (sentence, paramClause, initClause string) {
	parts := strings.Split(line, "|")
	sentence = parts[0]
	if len(parts) > 1 {
		paramClause = parts[1]
	}
	if len(parts) > 2 {
		initClause = parts[2]
	}
	return sentence, paramClause, initClause
}

// duplicateLines returns the 1-based numbers of every raw line equal to
// text, in file order.
func duplicateLines(raw []string, text string) []int {
	var lines []int
	for i, l := range raw {
		if l == text {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// isFloat reports whether s parses as a real number.
func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isDecimal reports whether s is a non-empty string of ASCII digits.
func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// afterArrow returns the fragment following " --> ", trimmed.
func afterArrow(s string) (string, bool) {
	if !strings.Contains(s, arrow) {
		return "", false
	}
	parts := strings.SplitN(s, arrow, 2)
	return strings.TrimSpace(parts[1]), true
}

// aroundArrow returns the trimmed fragments on both sides of " --> ".
func aroundArrow(s string) (before, after string, ok bool) {
	if !strings.Contains(s, arrow) {
		return "", "", false
	}
	parts := strings.SplitN(s, arrow, 2)
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// arrow separates reactants from products in a reaction sentence.
const arrow = " --> "
