package match

import (
	"strings"
	"unicode"
)

// Candidate is one result row from the external search step.
type Candidate struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Breakdown records which signals fired for a candidate.
type Breakdown struct {
	TitleMatch   bool `json:"titleMatchesName"`
	SnippetMatch bool `json:"snippetMatchesName"`
	CityMatch    bool `json:"containsCity"`
}

// Score is the result of scoring a single candidate. Scores are recomputed
// per candidate and never mutated.
type Score struct {
	Candidate Candidate `json:"candidate"`
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// BestMatch is the outcome of scoring a candidate list. Scores always holds
// the full per-candidate list so callers can log the decision.
type BestMatch struct {
	Found  bool
	URL    string
	Score  int
	Scores []Score
}

const (
	titlePoints   = 50
	snippetPoints = 20
	cityPoints    = 30

	// DefaultMinScore is the confidence floor: a bare title match passes,
	// a snippet or city signal alone does not.
	DefaultMinScore = 50
)

// businessSuffixes are generic business-type words that carry no identity.
// Includes local-language equivalents for the markets we serve.
var businessSuffixes = map[string]struct{}{
	"restaurant":  {},
	"restaurante": {},
	"ristorante":  {},
	"bar":         {},
	"cafe":        {},
	"café":        {},
	"caffe":       {},
	"grill":       {},
	"bistro":      {},
	"steakhouse":  {},
	"pizzeria":    {},
	"מסעדה":       {},
	"קפה":         {},
	"בר":          {},
	"גריל":        {},
}

// NormalizeName lowercases, strips punctuation, drops business-type suffix
// words and collapses whitespace. Idempotent: normalizing a normalized name
// is a no-op.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if _, drop := businessSuffixes[w]; !drop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// ScoreCandidate scores one candidate against an already-normalized name.
// The three signals are additive and independent; max combined score is 100.
func ScoreCandidate(c Candidate, normalizedName, cityHint string) Score {
	title := NormalizeName(c.Title)
	snippet := NormalizeName(c.Snippet)

	var s Score
	s.Candidate = c

	if normalizedName != "" && strings.Contains(title, normalizedName) {
		s.Breakdown.TitleMatch = true
		s.Score += titlePoints
	}
	if normalizedName != "" && strings.Contains(snippet, normalizedName) {
		s.Breakdown.SnippetMatch = true
		s.Score += snippetPoints
	}
	if city := NormalizeName(cityHint); city != "" {
		if strings.Contains(title, city) || strings.Contains(snippet, city) {
			s.Breakdown.CityMatch = true
			s.Score += cityPoints
		}
	}
	return s
}

// FindBestMatch normalizes the name once, scores every candidate and picks
// the maximum. Ties keep the first-seen candidate. Below minScore the result
// is not-found even when every candidate carries a URL.
func FindBestMatch(candidates []Candidate, name, cityHint string, minScore int) BestMatch {
	normalized := NormalizeName(name)

	result := BestMatch{Scores: make([]Score, 0, len(candidates))}
	bestIdx := -1
	for i, c := range candidates {
		s := ScoreCandidate(c, normalized, cityHint)
		result.Scores = append(result.Scores, s)
		if bestIdx == -1 || s.Score > result.Scores[bestIdx].Score {
			bestIdx = i
		}
	}

	if bestIdx >= 0 && result.Scores[bestIdx].Score >= minScore {
		result.Found = true
		result.URL = result.Scores[bestIdx].Candidate.URL
		result.Score = result.Scores[bestIdx].Score
	}
	return result
}
