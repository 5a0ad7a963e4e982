// Package prompt builds the analysis prompts sent to the model. Both
// templates pin the reply to one layout: a KEYWORDS IDENTIFIED line followed
// by five KEYWORD sections, each with an INSIGHTS block of numbered short
// titles and an ACTIONS block of numbered 150-200 word paragraphs.
package prompt

import "fmt"

// DefaultContentBudget caps how much source content is embedded in a prompt
// when the caller does not configure a budget.
const DefaultContentBudget = 1000

const questionTemplate = `You are a business analyst. Provide strategic insights for this question.

Question: %s
Keywords: %s

Please respond in exactly this format:

**KEYWORDS IDENTIFIED:**
Market Analysis, Growth Strategy, Customer Experience, Digital Innovation, Competitive Advantage

**STRATEGIC ANALYSIS:**

**KEYWORD 1: Market Analysis**
**INSIGHTS:**
1. Market Opportunity: Current market size and growth potential
2. Target Customers: Key customer segments and their needs
3. Revenue Potential: Financial projections and business model
**ACTIONS:**
1. A detailed action paragraph of 150-200 words with specific numbers, percentages, dollar amounts, and timeframes.
2. A second detailed action paragraph of 150-200 words.
3. A third detailed action paragraph of 150-200 words.

Repeat the KEYWORD/INSIGHTS/ACTIONS structure for all five keywords.
Provide specific numbers, percentages, dollar amounts, and timeframes in every action item.`

const contentTemplate = `Analyze this content and provide business insights.

Question: %s
Keywords: %s
Content: %s

Respond in exactly this format:

**KEYWORDS IDENTIFIED:**
<five comma-separated keywords>

**STRATEGIC ANALYSIS:**

**KEYWORD 1: <first keyword>**
**INSIGHTS:**
<three numbered short strategic-focus titles>
**ACTIONS:**
<three numbered action paragraphs of 150-200 words each>

Repeat the KEYWORD/INSIGHTS/ACTIONS structure for all five keywords.
Provide specific numbers, percentages, dollar amounts, and timeframes in every action item.`

// Build constructs a content-free analysis prompt.
func Build(question, keywordHint string) string {
	return fmt.Sprintf(questionTemplate, question, keywordHint)
}

// BuildWithContent constructs a content-aware prompt. Content beyond the
// budget is truncated with a marker; a non-positive budget falls back to the
// default.
func BuildWithContent(question, keywordHint, content string, budget int) string {
	if budget <= 0 {
		budget = DefaultContentBudget
	}
	return fmt.Sprintf(contentTemplate, question, keywordHint, Truncate(content, budget))
}

// Truncate hard-caps s at limit characters, appending "..." when cut.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
