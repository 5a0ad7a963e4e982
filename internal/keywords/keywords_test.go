package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var watchlist = []string{"Apple", "Google", "Tesla"}

func TestExtract_Hashtags(t *testing.T) {
	text := "Subscription pricing drives subscription revenue. Subscription models need careful pricing."

	got, err := Extract(text, watchlist)
	require.NoError(t, err)

	require.NotEmpty(t, got.Hashtags)
	assert.Equal(t, "#subscription", got.Hashtags[0])
	for _, tag := range got.Hashtags {
		assert.True(t, strings.HasPrefix(tag, "#"))
	}
}

func TestExtract_Mentions(t *testing.T) {
	got, err := Extract("Apple and Tesla both reported earnings this week.", watchlist)
	require.NoError(t, err)

	assert.Equal(t, []string{"Apple", "Tesla"}, got.Mentions)
}

func TestExtract_NoMentions(t *testing.T) {
	got, err := Extract("Small regional grocers face margin pressure.", watchlist)
	require.NoError(t, err)

	assert.Empty(t, got.Mentions)
}

func TestExtract_Empty(t *testing.T) {
	got, err := Extract("   ", watchlist)
	require.NoError(t, err)

	assert.Empty(t, got.Hashtags)
	assert.Empty(t, got.Mentions)
}

func TestExtract_HashtagCap(t *testing.T) {
	var sb strings.Builder
	// Distinct nouns so the frequency map exceeds the cap.
	for _, w := range []string{
		"pricing", "revenue", "margins", "logistics", "inventory", "retention",
		"churn", "acquisition", "partnerships", "licensing", "forecasting", "automation",
	} {
		sb.WriteString("The " + w + " report arrived. ")
	}

	got, err := Extract(sb.String(), nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(got.Hashtags), maxHashtags)
}

func TestExtract_StopwordsFiltered(t *testing.T) {
	got, err := Extract("The business analysis covers the company market.", nil)
	require.NoError(t, err)

	for _, tag := range got.Hashtags {
		assert.NotContains(t, []string{"#business", "#analysis", "#company", "#market"}, tag)
	}
}
