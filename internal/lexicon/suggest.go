package lexicon

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// similarityThreshold is the minimum character-similarity ratio for a
// phrase to be offered as a suggestion.
const similarityThreshold = 0.7

// Suggestion is a "did you mean" hint produced when no rule matches a
// reaction line.
type Suggestion struct {
	// Phrase is the registered trigger phrase most similar to part of
	// the line.
	Phrase string
	// Fragment is the exact substring of the line that achieved the
	// best similarity score.
	Fragment string
	// Score is the similarity ratio in [0, 1].
	Score float64
}

// Suggest scans every registered phrase against every equal-length
// substring of line and returns the best-scoring phrase, if its score
// reaches the threshold. The result is advisory text for error messages
// only and is never acted on automatically.
func (l *Lexicon) Suggest(line string) (Suggestion, bool) {
	var best Suggestion
	for _, rule := range ruleOrder {
		for _, phrase := range l.phrases[rule] {
			fragment, score := bestWindow(phrase, line)
			if fragment == "" {
				continue
			}
			if score > best.Score {
				best = Suggestion{Phrase: phrase, Fragment: fragment, Score: score}
			}
		}
	}
	if best.Score < similarityThreshold {
		return Suggestion{}, false
	}
	return best, true
}

// bestWindow slides phrase over line and returns the equal-length
// substring with the highest character-similarity ratio. An empty fragment
// means the line is shorter than the phrase.
func bestWindow(phrase, line string) (string, float64) {
	pr := strings.Split(phrase, "")
	lr := strings.Split(line, "")
	if len(lr) < len(pr) {
		return "", 0
	}

	var (
		bestScore float64
		bestAt    = -1
	)
	for i := 0; i+len(pr) <= len(lr); i++ {
		m := difflib.NewMatcher(pr, lr[i:i+len(pr)])
		if r := m.Ratio(); r > bestScore || bestAt < 0 {
			bestScore = r
			bestAt = i
		}
	}
	return strings.Join(lr[bestAt:bestAt+len(pr)], ""), bestScore
}
