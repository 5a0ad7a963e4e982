package model

// KeywordInsights holds the structured insight lists extracted for a single
// keyword section of a model reply. Both lists may be empty independently.
type KeywordInsights struct {
	// Titles are short strategic-focus labels (one line each).
	Titles []string `json:"titles" yaml:"titles"`
	// Actions are long-form recommendation paragraphs.
	Actions []string `json:"actions" yaml:"actions"`
}

// ParsedAnalysis is the parser's output: the ordered keyword list from the
// KEYWORDS IDENTIFIED line plus per-section insights. The two are extracted
// independently; a keyword may appear in Keywords without a matching section
// in Insights, and section headers need not match Keywords entries exactly.
type ParsedAnalysis struct {
	Keywords []string                   `json:"keywords"`
	Insights map[string]KeywordInsights `json:"insights"`
}

// Empty reports whether the parse produced no usable structure.
func (p ParsedAnalysis) Empty() bool {
	return len(p.Keywords) == 0 && len(p.Insights) == 0
}

// AnalysisResult is the single result shape returned by every orchestrator
// operation, populated on success and failure alike. When Error is non-empty,
// Keywords is empty and Insights is an empty map; FullResponse is always safe
// to render.
type AnalysisResult struct {
	Keywords     []string                   `json:"keywords" yaml:"keywords"`
	Insights     map[string]KeywordInsights `json:"insights" yaml:"insights"`
	FullResponse string                     `json:"full_response" yaml:"full_response"`
	Error        string                     `json:"error,omitempty" yaml:"error,omitempty"`
	AnalysisID   string                     `json:"analysis_id,omitempty" yaml:"analysis_id,omitempty"`
	URL          string                     `json:"url,omitempty" yaml:"url,omitempty"`
	Filename     string                     `json:"filename,omitempty" yaml:"filename,omitempty"`
}

// ErrorResult builds a well-formed failure result. FullResponse carries the
// raw text when the failure came from the model itself.
func ErrorResult(errText, fullResponse string) AnalysisResult {
	return AnalysisResult{
		Keywords:     []string{},
		Insights:     map[string]KeywordInsights{},
		FullResponse: fullResponse,
		Error:        errText,
	}
}

// Failed reports whether the result carries an error.
func (r AnalysisResult) Failed() bool {
	return r.Error != ""
}
