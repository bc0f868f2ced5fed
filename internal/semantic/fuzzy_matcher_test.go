package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyMatcherSimilarity(t *testing.T) {
	matcher := NewFuzzyMatcher(0.80, "jaro-winkler", 5)

	tests := []struct {
		a, b   string
		minSim float64
		maxSim float64
	}{
		{"Dispose", "Dispose", 1.0, 1.0},
		{"dispose", "Dispose", 1.0, 1.0},
		{"Dispos", "Dispose", 0.9, 1.0},
		{"stream", "Stream", 1.0, 1.0},
		{"abc", "xyz", 0.0, 0.5},
		{"", "x", 0.0, 0.0},
	}
	for _, tt := range tests {
		got := matcher.Similarity(tt.a, tt.b)
		if got < tt.minSim || got > tt.maxSim {
			t.Errorf("Similarity(%q, %q) = %.3f, want in [%.2f, %.2f]", tt.a, tt.b, got, tt.minSim, tt.maxSim)
		}
	}
}

func TestFuzzyMatcherFindMatches(t *testing.T) {
	matcher := NewFuzzyMatcher(0.80, "", 2)
	candidates := []string{"Foo.stream", "Foo.streams", "Foo.timer", "Bar.stream", "Foo.stream"}

	matches := matcher.FindMatches("stream", candidates)
	if assert.Len(t, matches, 2) {
		assert.Equal(t, 1.0, matches[0].Similarity)
		assert.Equal(t, "Bar.stream", matches[0].Name)
		assert.Equal(t, "Foo.stream", matches[1].Name)
	}

	qualified := matcher.FindMatches("Foo.strem", candidates)
	if assert.NotEmpty(t, qualified) {
		assert.Equal(t, "Foo.stream", qualified[0].Name)
	}
}

func TestNewFuzzyMatcherDefaults(t *testing.T) {
	matcher := NewFuzzyMatcher(2, "levenshtein", 0)
	assert.Equal(t, 0.80, matcher.threshold)
	assert.Equal(t, 5, matcher.limit)
}
