package semantic

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// FuzzyMatcher ranks member names by similarity to a query that did not resolve
type FuzzyMatcher struct {
	threshold float64
	algorithm edlib.Algorithm
	limit     int
}

// FuzzyMatch is one suggestion and its similarity (0.0-1.0)
type FuzzyMatch struct {
	Name       string
	Similarity float64
}

// NewFuzzyMatcher creates a matcher. algorithm is "jaro-winkler" (default) or
// "levenshtein"; an out of range threshold falls back to 0.80.
func NewFuzzyMatcher(threshold float64, algorithm string, limit int) *FuzzyMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.80
	}
	if limit <= 0 {
		limit = 5
	}
	algo := edlib.JaroWinkler
	if algorithm == "levenshtein" {
		algo = edlib.Levenshtein
	}
	return &FuzzyMatcher{threshold: threshold, algorithm: algo, limit: limit}
}

// Similarity compares case-insensitively
func (fm *FuzzyMatcher) Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, fm.algorithm)
	if err != nil {
		return 0.0
	}
	return float64(score)
}

// FindMatches returns candidates at or above the threshold, best first
func (fm *FuzzyMatcher) FindMatches(target string, candidates []string) []FuzzyMatch {
	var matches []FuzzyMatch
	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		// a qualified query is compared against qualified names only
		subject := c
		if !strings.Contains(target, ".") {
			subject = c[strings.LastIndexByte(c, '.')+1:]
		}
		if s := fm.Similarity(target, subject); s >= fm.threshold {
			matches = append(matches, FuzzyMatch{Name: c, Similarity: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Name < matches[j].Name
	})
	if len(matches) > fm.limit {
		matches = matches[:fm.limit]
	}
	return matches
}

// Suggest returns "Type.Member" names close to query for did-you-mean hints
func (c *Compilation) Suggest(query string) []string {
	matches := NewFuzzyMatcher(0.80, "jaro-winkler", 5).FindMatches(query, c.MemberNames())
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Name
	}
	return out
}
