package insight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trendlens/trendlens/internal/model"
)

// wordsOf builds an action paragraph with exactly n neutral words.
func wordsOf(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func insightsWith(actions ...string) map[string]model.KeywordInsights {
	return map[string]model.KeywordInsights{
		"Topic": {Actions: actions},
	}
}

func TestScore_Empty(t *testing.T) {
	assert.Zero(t, Score(nil))
	assert.Zero(t, Score(map[string]model.KeywordInsights{}))
	assert.Zero(t, Score(insightsWith()), "keyword with no actions contributes nothing")
}

func TestScore_IdealBand(t *testing.T) {
	assert.Equal(t, baseIdeal, Score(insightsWith(wordsOf(150))))
	assert.Equal(t, baseIdeal, Score(insightsWith(wordsOf(200))))
	assert.Equal(t, baseIdeal, Score(insightsWith(wordsOf(175))))
}

func TestScore_Falloff(t *testing.T) {
	assert.Equal(t, baseOverlong, Score(insightsWith(wordsOf(250))))
	assert.Equal(t, baseNearMiss, Score(insightsWith(wordsOf(120))))
	assert.Equal(t, baseShort, Score(insightsWith(wordsOf(40))))
}

// Moving entries into the ideal band never lowers the score.
func TestScore_MonotonicTowardBand(t *testing.T) {
	short := Score(insightsWith(wordsOf(40), wordsOf(40)))
	oneIn := Score(insightsWith(wordsOf(175), wordsOf(40)))
	bothIn := Score(insightsWith(wordsOf(175), wordsOf(175)))

	assert.LessOrEqual(t, short, oneIn)
	assert.LessOrEqual(t, oneIn, bothIn)
}

func TestScore_ContentBonuses(t *testing.T) {
	base := wordsOf(175)

	financial := Score(insightsWith(base + " revenue"))
	assert.Equal(t, baseIdeal+15, financial)

	stacked := Score(insightsWith(base + " revenue market strategy"))
	assert.Equal(t, baseIdeal+15+10+5, stacked)
}

func TestScore_CappedAt100(t *testing.T) {
	action := wordsOf(175) + " $2M revenue 15% growth market strategy implementation"
	score := Score(insightsWith(action))
	assert.LessOrEqual(t, score, 100.0)
	assert.Equal(t, 100.0, score)
}

func TestScore_MeanAcrossKeywords(t *testing.T) {
	insights := map[string]model.KeywordInsights{
		"A": {Actions: []string{wordsOf(175)}}, // 80
		"B": {Actions: []string{wordsOf(40)}},  // 30
	}
	assert.InDelta(t, 55.0, Score(insights), 0.001)
}
