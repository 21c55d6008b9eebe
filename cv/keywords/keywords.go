package keywords

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"cv-builder/cv/nlp"
)

// DefaultLimit is used when a caller passes a non-positive bound.
const DefaultLimit = 10

// Score is one term with its normalized salience.
type Score struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// Extractor ranks the distinctive terms of a job description.
type Extractor struct {
	statistics bool
}

// New returns an extractor that uses TF-IDF scoring when the statistics
// capability is present and a frequency/length heuristic otherwise.
func New(caps nlp.Capabilities) *Extractor {
	return &Extractor{statistics: caps.Statistics}
}

// Extract returns at most n terms from text, most salient first. Ties keep
// the order in which the terms first appear. Blank text yields an empty slice.
func (e *Extractor) Extract(text string, n int) []string {
	if n <= 0 {
		n = DefaultLimit
	}
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	if !e.statistics {
		return heuristic(text, n)
	}

	scores := Scores(text)
	if len(scores) > n {
		scores = scores[:n]
	}
	out := make([]string, 0, len(scores))
	for _, s := range scores {
		out = append(out, s.Term)
	}
	return out
}

// Scores computes TF-IDF salience over the single document. With one
// document the smoothed idf is ln(2/2)+1 = 1, so ranking reduces to
// normalized term frequency.
func Scores(text string) []Score {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return []Score{}
	}

	counts := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}

	const docs = 1.0
	idf := math.Log((1+docs)/(1+docs)) + 1

	var norm float64
	raw := make([]float64, len(order))
	for i, term := range order {
		raw[i] = float64(counts[term]) * idf
		norm += raw[i] * raw[i]
	}
	norm = math.Sqrt(norm)

	out := make([]Score, len(order))
	for i, term := range order {
		out[i] = Score{Term: term, Score: raw[i] / norm}
	}
	// stable sort keeps first-occurrence order among equal scores
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// tokenize lower-cases text and splits it into runs of letters and digits.
// '+', '#' and '.' count as word characters so "c++", "c#" and "node.js"
// survive; trailing dots are dropped.
func tokenize(text string) []string {
	var (
		out  []string
		word strings.Builder
	)
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if len([]rune(w)) < 2 || stopWords[w] || !hasAlnum(w) {
			return
		}
		out = append(out, w)
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

func hasAlnum(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// heuristic keeps unique whitespace tokens longer than three characters.
// Callers must treat the result as unordered.
func heuristic(text string, n int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, n)
	for _, field := range strings.Fields(text) {
		w := strings.ToLower(strings.Trim(field, ",.!?;:\"'()"))
		if len([]rune(w)) <= 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == n {
			break
		}
	}
	return out
}
