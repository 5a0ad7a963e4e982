// Package parse turns a model reply into structured keyword/insight data.
// The model is asked for one fixed layout but does not always comply, so
// three layouts are recognized in decreasing order of structure: the standard
// KEYWORDS IDENTIFIED format, an alternative "Keywords:" list format, and a
// term-shortlist fallback. Parsing is best-effort and never fails; a reply
// matching none of the layouts yields an empty ParsedAnalysis.
package parse

import (
	"regexp"
	"strings"

	"github.com/trendlens/trendlens/internal/model"
)

// Reply-layout markers.
const (
	standardMarker    = "KEYWORDS IDENTIFIED"
	alternativeMarker = "Keywords:"
)

// actionTruncateLimit caps fallback-mode action paragraphs.
const actionTruncateLimit = 500

// placeholderTitles is used when a layout carries actions but no title lines.
var placeholderTitles = []string{"Key Insight", "Strategic Focus", "Recommended Direction"}

// fallbackShortlist is the fixed set of business terms probed, in order, when
// a reply matches neither structured layout.
var fallbackShortlist = []string{
	"Market", "Growth", "Customer", "Revenue", "Innovation",
	"Strategy", "Competitive", "Digital",
}

// Parse extracts keywords and per-keyword insights from a model reply.
func Parse(reply string) model.ParsedAnalysis {
	switch {
	case strings.Contains(reply, standardMarker):
		return parseStandard(reply)
	case strings.Contains(reply, alternativeMarker):
		return parseAlternative(reply)
	default:
		return parseFallback(reply)
	}
}

// state is the standard-format line-machine state.
type state int

const (
	stateIdle state = iota
	stateCollectingKeywords
	stateCollectingTitles
	stateCollectingActions
)

// lineClass tags a physical line for the standard-format machine.
type lineClass int

const (
	classBlank lineClass = iota
	classKeywordsMarker
	classKeywordHeader
	classInsightsMarker
	classActionsMarker
	classMarkup // other **-prefixed line
	classNumberedItem
	classDashItem
	classPlain
)

var numberedRe = regexp.MustCompile(`^\d+\.`)

func classify(line string) lineClass {
	switch {
	case line == "":
		return classBlank
	case strings.HasPrefix(line, "**KEYWORDS IDENTIFIED"):
		return classKeywordsMarker
	case strings.HasPrefix(line, "**KEYWORD") && strings.Contains(line, ":"):
		return classKeywordHeader
	case strings.HasPrefix(line, "**INSIGHTS"):
		return classInsightsMarker
	case strings.HasPrefix(line, "**ACTIONS"):
		return classActionsMarker
	case strings.HasPrefix(line, "**"):
		return classMarkup
	case numberedRe.MatchString(line):
		return classNumberedItem
	case strings.HasPrefix(line, "- "):
		return classDashItem
	default:
		return classPlain
	}
}

// itemText strips the leading numbering or bullet from a list-item line.
func itemText(line string, class lineClass) string {
	switch class {
	case classNumberedItem:
		if _, rest, ok := strings.Cut(line, "."); ok {
			return strings.TrimSpace(rest)
		}
	case classDashItem:
		return strings.TrimSpace(line[2:])
	}
	return strings.TrimSpace(line)
}

// parseStandard processes the requested layout line by line.
func parseStandard(reply string) model.ParsedAnalysis {
	result := model.ParsedAnalysis{
		Keywords: []string{},
		Insights: map[string]model.KeywordInsights{},
	}

	st := stateIdle
	var currentKeyword string
	var titles, actions []string

	flush := func() {
		if currentKeyword != "" && (len(titles) > 0 || len(actions) > 0) {
			result.Insights[currentKeyword] = model.KeywordInsights{
				Titles:  titles,
				Actions: actions,
			}
		}
	}

	for _, raw := range strings.Split(reply, "\n") {
		line := strings.TrimSpace(raw)
		class := classify(line)
		if class == classBlank {
			continue
		}

		switch class {
		case classKeywordsMarker:
			st = stateCollectingKeywords
			continue
		case classKeywordHeader:
			flush()
			_, name, _ := strings.Cut(line, ":")
			currentKeyword = strings.TrimSpace(strings.ReplaceAll(name, "**", ""))
			titles, actions = nil, nil
			st = stateIdle
			continue
		case classInsightsMarker:
			st = stateCollectingTitles
			continue
		case classActionsMarker:
			st = stateCollectingActions
			continue
		}

		switch st {
		case stateCollectingKeywords:
			if class != classMarkup {
				result.Keywords = splitKeywordLine(line)
				st = stateIdle
			}
		case stateCollectingTitles:
			if currentKeyword != "" && (class == classNumberedItem || class == classDashItem) {
				if text := itemText(line, class); text != "" {
					titles = append(titles, text)
				}
			}
		case stateCollectingActions:
			if currentKeyword == "" {
				continue
			}
			switch class {
			case classNumberedItem, classDashItem:
				if text := itemText(line, class); text != "" {
					actions = append(actions, text)
				}
			case classPlain:
				// Continuation of a multi-line action paragraph.
				if len(actions) > 0 {
					actions[len(actions)-1] += " " + line
				}
			}
		}
	}
	flush()

	return result
}

// splitKeywordLine splits a comma-separated keyword line, stripping brackets
// and dropping empty fragments.
func splitKeywordLine(line string) []string {
	line = strings.NewReplacer("[", "", "]", "").Replace(line)
	var keywords []string
	for _, k := range strings.Split(line, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords
}

// altKeywordRe matches each numbered keyword in a "Keywords: 1. Foo 2. Bar"
// line: everything between one number-dot marker and the next.
var altKeywordRe = regexp.MustCompile(`\d+\.\s*([^0-9]+)`)

// parseAlternative handles replies that list keywords on a "Keywords:" line
// and open sections with a "<keyword ...>:" header followed by dash items.
// Title lists are not recoverable from this layout, so sections get the
// placeholder titles.
func parseAlternative(reply string) model.ParsedAnalysis {
	result := model.ParsedAnalysis{
		Keywords: []string{},
		Insights: map[string]model.KeywordInsights{},
	}

	lines := strings.Split(reply, "\n")
	sectionStart := 0
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if idx := strings.Index(line, alternativeMarker); idx >= 0 {
			result.Keywords = extractNumberedKeywords(line[idx+len(alternativeMarker):])
			sectionStart = i + 1
			break
		}
	}
	if len(result.Keywords) == 0 {
		return result
	}

	var currentSection string
	var actions []string
	flush := func() {
		if currentSection != "" && len(actions) > 0 {
			result.Insights[currentSection] = model.KeywordInsights{
				Titles:  append([]string(nil), placeholderTitles...),
				Actions: actions,
			}
		}
	}

	for _, raw := range lines[sectionStart:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ":") && containsAnyKeyword(line, result.Keywords) {
			flush()
			currentSection = strings.TrimSpace(strings.TrimSuffix(line, ":"))
			actions = nil
			continue
		}

		if currentSection != "" && strings.HasPrefix(line, "- ") {
			if text := strings.TrimSpace(line[2:]); text != "" {
				actions = append(actions, text)
			}
		}
	}
	flush()

	return result
}

// extractNumberedKeywords pulls keywords out of a numbered list remainder,
// stripping trailing colons and parenthesized qualifiers.
func extractNumberedKeywords(remainder string) []string {
	var keywords []string
	for _, m := range altKeywordRe.FindAllStringSubmatch(remainder, -1) {
		k := strings.TrimSpace(m[1])
		if idx := strings.Index(k, "("); idx >= 0 {
			k = strings.TrimSpace(k[:idx])
		}
		k = strings.TrimSpace(strings.TrimSuffix(k, ":"))
		k = strings.TrimSuffix(k, ",")
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	if keywords == nil {
		keywords = []string{}
	}
	return keywords
}

func containsAnyKeyword(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// parseFallback selects up to five shortlist terms present in the reply and
// pairs each with a paragraph in order. Structure quality is poor here but a
// caller still gets something to render.
func parseFallback(reply string) model.ParsedAnalysis {
	result := model.ParsedAnalysis{
		Keywords: []string{},
		Insights: map[string]model.KeywordInsights{},
	}
	if strings.TrimSpace(reply) == "" {
		return result
	}

	lower := strings.ToLower(reply)
	for _, term := range fallbackShortlist {
		if strings.Contains(lower, strings.ToLower(term)) {
			result.Keywords = append(result.Keywords, term)
			if len(result.Keywords) == 5 {
				break
			}
		}
	}

	var paragraphs []string
	for _, p := range paragraphRe.Split(reply, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	for i, keyword := range result.Keywords {
		if i >= len(paragraphs) {
			break
		}
		action := paragraphs[i]
		if len(action) > actionTruncateLimit {
			action = action[:actionTruncateLimit]
		}
		result.Insights[keyword] = model.KeywordInsights{
			Titles:  append([]string(nil), placeholderTitles...),
			Actions: []string{action},
		}
	}

	return result
}
