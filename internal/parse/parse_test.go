package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const standardReply = `**KEYWORDS IDENTIFIED:**
A, B

**STRATEGIC ANALYSIS:**

**KEYWORD 1: A**
**INSIGHTS:**
1. t1
**ACTIONS:**
1. action one text...

**KEYWORD 2: B**
**INSIGHTS:**
1. second title
**ACTIONS:**
1. second action
`

func TestParse_StandardRoundTrip(t *testing.T) {
	result := Parse(standardReply)

	assert.Equal(t, []string{"A", "B"}, result.Keywords)

	a, ok := result.Insights["A"]
	require.True(t, ok)
	assert.Equal(t, []string{"t1"}, a.Titles)
	assert.Equal(t, []string{"action one text..."}, a.Actions)

	b, ok := result.Insights["B"]
	require.True(t, ok)
	assert.Equal(t, []string{"second title"}, b.Titles)
	assert.Equal(t, []string{"second action"}, b.Actions)
}

func TestParse_StandardMultiLineAction(t *testing.T) {
	reply := `**KEYWORDS IDENTIFIED:**
Growth

**KEYWORD 1: Growth**
**ACTIONS:**
1. first half of the paragraph
second half of the paragraph
2. another action
`
	result := Parse(reply)

	g, ok := result.Insights["Growth"]
	require.True(t, ok)
	require.Len(t, g.Actions, 2)
	assert.Equal(t, "first half of the paragraph second half of the paragraph", g.Actions[0])
	assert.Equal(t, "another action", g.Actions[1])
}

func TestParse_StandardDashItems(t *testing.T) {
	reply := `**KEYWORDS IDENTIFIED:**
Pricing

**KEYWORD 1: Pricing**
**INSIGHTS:**
- bullet title
**ACTIONS:**
- bullet action
`
	result := Parse(reply)

	p, ok := result.Insights["Pricing"]
	require.True(t, ok)
	assert.Equal(t, []string{"bullet title"}, p.Titles)
	assert.Equal(t, []string{"bullet action"}, p.Actions)
}

func TestParse_StandardBracketedKeywordLine(t *testing.T) {
	reply := "**KEYWORDS IDENTIFIED:**\n[Alpha, Beta, ]\n"
	result := Parse(reply)

	assert.Equal(t, []string{"Alpha", "Beta"}, result.Keywords)
}

func TestParse_StandardEmphasisStrippedFromSectionName(t *testing.T) {
	reply := `**KEYWORDS IDENTIFIED:**
Growth

**KEYWORD 1: Growth Strategy**
**ACTIONS:**
1. act
`
	result := Parse(reply)

	_, ok := result.Insights["Growth Strategy"]
	assert.True(t, ok)
}

// Keywords and sections are extracted independently; a mismatch between the
// keyword line and the section headers is a valid state.
func TestParse_StandardKeywordWithoutSection(t *testing.T) {
	reply := `**KEYWORDS IDENTIFIED:**
A, B

**KEYWORD 1: A**
**ACTIONS:**
1. only A has a section
`
	result := Parse(reply)

	assert.Equal(t, []string{"A", "B"}, result.Keywords)
	_, ok := result.Insights["B"]
	assert.False(t, ok)
}

func TestParse_Alternative(t *testing.T) {
	reply := `Here is my analysis.

Keywords: 1. Market Expansion 2. Pricing Power: 3. Retention (core)

Market Expansion:
- enter two new regions
- partner with local distributors

Thoughts on Pricing Power:
- raise enterprise tier 8%
`
	result := Parse(reply)

	assert.Equal(t, []string{"Market Expansion", "Pricing Power", "Retention"}, result.Keywords)

	me, ok := result.Insights["Market Expansion"]
	require.True(t, ok)
	assert.Equal(t, []string{"enter two new regions", "partner with local distributors"}, me.Actions)
	assert.Equal(t, placeholderTitles, me.Titles)

	pp, ok := result.Insights["Thoughts on Pricing Power"]
	require.True(t, ok, "section name is the header line, not the keyword")
	assert.Equal(t, []string{"raise enterprise tier 8%"}, pp.Actions)
}

func TestParse_AlternativeNoSections(t *testing.T) {
	reply := "Keywords: 1. Alpha 2. Beta\n\nno matching section headers here"
	result := Parse(reply)

	assert.Equal(t, []string{"Alpha", "Beta"}, result.Keywords)
	assert.Empty(t, result.Insights)
}

func TestParse_Fallback(t *testing.T) {
	reply := "Strong Growth ahead for the sector.\n\nThe Market remains fragmented."
	result := Parse(reply)

	// Shortlist order, not order of appearance.
	assert.Equal(t, []string{"Market", "Growth"}, result.Keywords)

	m, ok := result.Insights["Market"]
	require.True(t, ok)
	assert.Equal(t, []string{"Strong Growth ahead for the sector."}, m.Actions)

	g, ok := result.Insights["Growth"]
	require.True(t, ok)
	assert.Equal(t, []string{"The Market remains fragmented."}, g.Actions)
}

func TestParse_FallbackTruncatesParagraphs(t *testing.T) {
	long := "Market " + strings.Repeat("z", 600)
	result := Parse(long)

	require.Equal(t, []string{"Market"}, result.Keywords)
	assert.Len(t, result.Insights["Market"].Actions[0], actionTruncateLimit)
}

func TestParse_FallbackCapsAtFive(t *testing.T) {
	reply := "Market Growth Customer Revenue Innovation Strategy Competitive Digital"
	result := Parse(reply)

	assert.Len(t, result.Keywords, 5)
}

func TestParse_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t\n ",
		"\x00\xff\xfebinary garbage\x01",
		strings.Repeat("**KEYWORD", 1000),
		"**KEYWORDS IDENTIFIED:**",
		"Keywords:",
		"**KEYWORD 1:**\n**ACTIONS:**\ncontinuation with no entry",
	}
	for _, in := range inputs {
		result := Parse(in)
		assert.NotNil(t, result.Keywords)
		assert.NotNil(t, result.Insights)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want lineClass
	}{
		{"", classBlank},
		{"**KEYWORDS IDENTIFIED:**", classKeywordsMarker},
		{"**KEYWORD 1: Growth**", classKeywordHeader},
		{"**INSIGHTS:**", classInsightsMarker},
		{"**ACTIONS:**", classActionsMarker},
		{"**STRATEGIC ANALYSIS:**", classMarkup},
		{"1. first item", classNumberedItem},
		{"- dash item", classDashItem},
		{"plain continuation text", classPlain},
		{"2024 was a strong year", classPlain},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.line), "line %q", tt.line)
	}
}
