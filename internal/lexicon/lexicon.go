// Package lexicon maps biochemical-event rules to the trigger phrases that
// identify them in input sentences. Phrases are stored with a leading space
// so that " binds" matches "A binds B" but never "A forbids B".
package lexicon

import (
	"fmt"
	"strings"
)

// Rule identifiers for the supported biochemical-event grammars.
const (
	RuleDimerize           = "dimerize"
	RuleBind               = "bind"
	RuleIsDissociated      = "is_dissociated"
	RuleIsPhosphorylated   = "is_phosphorylated"
	RuleIsDephosphorylated = "is_dephosphorylated"
	RulePhosphorylate      = "phosphorylate"
	RuleDephosphorylate    = "dephosphorylate"
	RuleTranscribe         = "transcribe"
	RuleIsTranslated       = "is_translated"
	RuleSynthesize         = "synthesize"
	RuleIsSynthesized      = "is_synthesized"
	RuleDegrade            = "degrade"
	RuleIsDegraded         = "is_degraded"
	RuleIsTranslocated     = "is_translocated"
)

// ruleOrder fixes dispatch precedence. Rules are tried in this order when
// matching a sentence, so it must stay stable for deterministic parses.
var ruleOrder = []string{
	RuleDimerize,
	RuleBind,
	RuleIsDissociated,
	RuleIsPhosphorylated,
	RuleIsDephosphorylated,
	RulePhosphorylate,
	RuleDephosphorylate,
	RuleTranscribe,
	RuleIsTranslated,
	RuleSynthesize,
	RuleIsSynthesized,
	RuleDegrade,
	RuleIsDegraded,
	RuleIsTranslocated,
}

// ConfigurationError reports an invalid phrase registration.
type ConfigurationError struct {
	Rule   string
	Phrase string
	Msg    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cannot register %q under rule %q: %s", e.Phrase, e.Rule, e.Msg)
}

// Lexicon holds the trigger-phrase vocabulary. It is mutable only through
// Register and is meant to be frozen by the caller once parsing begins.
type Lexicon struct {
	phrases map[string][]string
}

// Default returns a lexicon preloaded with the built-in vocabulary.
func Default() *Lexicon {
	return &Lexicon{phrases: map[string][]string{
		RuleDimerize: {
			" dimerizes",
			" homodimerizes",
			" forms a dimer",
			" forms dimers",
		},
		RuleBind: {
			" binds",
			" forms complexes with",
		},
		RuleIsDissociated: {
			" is dissociated into",
		},
		RuleIsPhosphorylated: {
			" is phosphorylated",
		},
		RuleIsDephosphorylated: {
			" is dephosphorylated",
		},
		RulePhosphorylate: {
			" phosphorylates",
		},
		RuleDephosphorylate: {
			" dephosphorylates",
		},
		RuleTranscribe: {
			" transcribe",
			" transcribes",
		},
		RuleIsTranslated: {
			" is translated into",
		},
		RuleSynthesize: {
			" synthesizes",
			" promotes synthesis of",
		},
		RuleIsSynthesized: {
			" is synthesized",
		},
		RuleDegrade: {
			" degrades",
			" promotes degradation of",
		},
		RuleIsDegraded: {
			" is degraded",
		},
		RuleIsTranslocated: {
			" is translocated",
		},
	}}
}

// Rules returns the rule identifiers in dispatch order.
func (l *Lexicon) Rules() []string {
	out := make([]string, len(ruleOrder))
	copy(out, ruleOrder)
	return out
}

// Phrases returns the trigger phrases registered under rule.
func (l *Lexicon) Phrases(rule string) []string {
	out := make([]string, len(l.phrases[rule]))
	copy(out, l.phrases[rule])
	return out
}

// Register adds a user-defined trigger phrase to rule. The phrase is
// normalized with a leading space. Registration fails when the rule is
// unknown or when the normalized phrase equals a phrase already registered
// under any rule, including the same one.
func (l *Lexicon) Register(rule, phrase string) error {
	if _, ok := l.phrases[rule]; !ok {
		return &ConfigurationError{
			Rule:   rule,
			Phrase: phrase,
			Msg:    fmt.Sprintf("unknown rule; choose one of: %s", strings.Join(ruleOrder, ", ")),
		}
	}
	normalized := " " + strings.TrimSpace(phrase)
	for _, owner := range ruleOrder {
		for _, registered := range l.phrases[owner] {
			if registered == normalized {
				return &ConfigurationError{
					Rule:   rule,
					Phrase: phrase,
					Msg:    fmt.Sprintf("already used by rule %q", owner),
				}
			}
		}
	}
	l.phrases[rule] = append(l.phrases[rule], normalized)
	return nil
}

// Match returns the first rule (in dispatch order) with a trigger phrase
// contained in line. Phrases are compared after preposition stripping, so
// " is translated into" still matches a sentence ending in "is translated".
func (l *Lexicon) Match(line string) (string, bool) {
	for _, rule := range ruleOrder {
		for _, phrase := range l.phrases[rule] {
			if strings.Contains(line, stripPreposition(phrase)) {
				return rule, true
			}
		}
	}
	return "", false
}

// SplitSentence splits sentence at the longest trigger phrase of rule that
// occurs in it. Full phrases are preferred; when only a
// preposition-stripped form occurs, that form is used instead. The two
// fragments around the phrase are returned untrimmed.
func (l *Lexicon) SplitSentence(rule, sentence string) (left, right string, ok bool) {
	trimmed := strings.TrimSpace(sentence)

	var hits []string
	for _, phrase := range l.phrases[rule] {
		if strings.Contains(trimmed, phrase) {
			hits = append(hits, phrase)
		}
	}
	if len(hits) == 0 {
		for _, phrase := range l.phrases[rule] {
			if stripped := stripPreposition(phrase); strings.Contains(trimmed, stripped) {
				hits = append(hits, stripped)
			}
		}
	}
	if len(hits) == 0 {
		return "", "", false
	}

	best := hits[0]
	for _, h := range hits[1:] {
		if len(h) > len(best) {
			best = h
		}
	}
	parts := strings.SplitN(trimmed, best, 2)
	return parts[0], parts[1], true
}
