package engine

import (
	"sort"
	"strings"
	"unicode"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
)

// Suggestion is a "did you mean" candidate for a query that found nothing.
type Suggestion struct {
	Archetype  catalog.Archetype `json:"archetype"`
	Confidence float64           `json:"confidence"` // 0.0-1.0
}

// minSuggestConfidence is the lowest similarity worth offering.
const minSuggestConfidence = 0.5

// Common gym abbreviations
var abbreviations = map[string]string{
	"db":   "dumbbell",
	"bb":   "barbell",
	"kb":   "kettlebell",
	"ez":   "ez bar",
	"ohp":  "overhead press",
	"rdl":  "romanian deadlift",
	"sldl": "stiff leg deadlift",
	"lat":  "lateral",
	"incl": "incline",
	"decl": "decline",
	"ext":  "extension",
	"bp":   "bench press",
	"bw":   "bodyweight",
}

// Suggest ranks archetypes by how closely their display name resembles
// query, best first, keeping those at or above 0.5 confidence. limit <= 0
// returns every candidate. An empty query suggests nothing.
//
// Scoring tiers: exact name 1.0, exact after abbreviation expansion 0.95,
// name contained as whole words in the expanded query 0.9, otherwise
// Levenshtein similarity.
func (e *Engine) Suggest(query string, limit int) []Suggestion {
	normalized := normalize(query)
	if normalized == "" {
		return nil
	}
	expanded := expandAbbreviations(normalized)

	var out []Suggestion
	for _, a := range e.catalog.Archetypes() {
		score := suggestionScore(normalized, expanded, a)
		if score >= minSuggestConfidence {
			out = append(out, Suggestion{Archetype: a, Confidence: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func suggestionScore(normalized, expanded string, a catalog.Archetype) float64 {
	best := 0.0
	for _, name := range []string{normalize(a.DisplayName), normalize(strings.ReplaceAll(a.Key, "_", " "))} {
		var score float64
		switch {
		case name == normalized:
			score = 1.0
		case name == expanded:
			score = 0.95
		case containsWords(expanded, name):
			score = 0.9
		default:
			score = max(similarityScore(normalized, name), similarityScore(expanded, name))
		}
		best = max(best, score)
	}
	return best
}

// normalize converts a string to lowercase and removes non-alphanumeric characters
func normalize(s string) string {
	var result strings.Builder
	s = strings.ToLower(s)
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	// Collapse multiple spaces into one
	return strings.Join(strings.Fields(result.String()), " ")
}

// expandAbbreviations replaces common abbreviations with full words
func expandAbbreviations(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if expanded, ok := abbreviations[word]; ok {
			words[i] = expanded
		}
	}
	return strings.Join(words, " ")
}

// containsWords reports whether phrase appears in s on word boundaries.
func containsWords(s, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+s+" ", " "+phrase+" ")
}

// similarityScore calculates a 0-1 similarity score based on Levenshtein distance
func similarityScore(a, b string) float64 {
	if a == b {
		return 1.0
	}

	dist := levenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(dist)/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings
// using two rolling rows.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
