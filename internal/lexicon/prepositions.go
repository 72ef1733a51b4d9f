package lexicon

import "strings"

// prepositions are trailing words removed from trigger phrases before
// sentence matching, so that "mRNA is translated into protein" is
// recognized by " is translated into" even when the user drops or varies
// the preposition. Each entry carries its leading space.
var prepositions = []string{
	" to",
	" for",
	" from",
	" up",
	" down",
	" in",
	" on",
	" at",
	" off",
	" into",
	" of",
	" with",
	" within",
	" between",
	" among",
	" through",
	" over",
	" under",
	" around",
}

// stripPreposition removes a single trailing preposition from phrase, if
// present, together with any whitespace left before it.
func stripPreposition(phrase string) string {
	for _, p := range prepositions {
		if strings.HasSuffix(phrase, p) {
			return strings.TrimRight(strings.TrimSuffix(phrase, p), " ")
		}
	}
	return phrase
}
