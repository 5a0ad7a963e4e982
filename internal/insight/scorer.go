// Package insight derives a quality score for a set of parsed insights.
package insight

import (
	"math"
	"strings"

	"github.com/trendlens/trendlens/internal/model"
)

// The ideal action paragraph runs 150-200 words. Entries outside the band
// earn a reduced base on a stepped monotonic falloff: near-misses below the
// band score higher than very short entries, and overlong entries lose a
// little for verbosity but stay above near-misses since the substance is
// there.
const (
	idealMinWords = 150
	idealMaxWords = 200

	baseIdeal    = 80.0
	baseOverlong = 70.0
	baseNearMiss = 60.0
	baseShort    = 30.0
)

// Term lists that signal concrete, actionable content.
var (
	financialTerms = []string{"$", "%", "million", "billion", "revenue", "roi"}
	marketTerms    = []string{"market", "customer", "competitive", "growth"}
	executionTerms = []string{"strategy", "implementation", "timeline"}
)

// Score computes a 0-100 quality score over every action entry in the given
// insights, as the mean of per-entry scores. Empty input scores 0.
func Score(insights map[string]model.KeywordInsights) float64 {
	total := 0.0
	count := 0

	for _, ki := range insights {
		for _, action := range ki.Actions {
			total += scoreAction(action)
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// scoreAction rates a single action paragraph in [0,100].
func scoreAction(action string) float64 {
	words := len(strings.Fields(action))
	lower := strings.ToLower(action)

	var score float64
	switch {
	case words >= idealMinWords && words <= idealMaxWords:
		score = baseIdeal
	case words > idealMaxWords:
		score = baseOverlong
	case words >= idealMinWords*2/3:
		score = baseNearMiss
	default:
		score = baseShort
	}

	if containsAny(lower, financialTerms) {
		score += 15
	}
	if containsAny(lower, marketTerms) {
		score += 10
	}
	if containsAny(lower, executionTerms) {
		score += 5
	}

	return math.Min(score, 100)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
