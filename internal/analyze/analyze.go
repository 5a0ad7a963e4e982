// Package analyze runs the full analysis pipeline: build a prompt for the
// request, invoke the model through the caching gateway, and parse the reply
// into structured keyword insights. Every public operation returns a
// well-formed AnalysisResult; failures are carried in its Error field, never
// as a Go error.
package analyze

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"

	"github.com/trendlens/trendlens/internal/config"
	"github.com/trendlens/trendlens/internal/gateway"
	"github.com/trendlens/trendlens/internal/model"
	"github.com/trendlens/trendlens/internal/parse"
	"github.com/trendlens/trendlens/internal/prompt"
)

// fileQuestion is the question used for uploaded documents, which carry no
// free-text question of their own.
const fileQuestion = "extract strategic business insights and market opportunities"

// urlEllipsis marks hard truncation of fetched page text.
const urlEllipsis = "..."

// Extractor produces plain text from an uploaded document.
type Extractor interface {
	Extract(filename string, data []byte) (string, error)
}

// Fetcher produces plain text from a web page.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Orchestrator ties the prompt builder, model gateway and parser together.
type Orchestrator struct {
	gw        *gateway.Gateway
	extractor Extractor
	fetcher   Fetcher
	cfg       config.AnalysisConfig
}

// New returns an orchestrator. The extractor and fetcher may be nil when the
// caller never uses AnalyzeFile or AnalyzeURL.
func New(gw *gateway.Gateway, extractor Extractor, fetcher Fetcher, cfg config.AnalysisConfig) *Orchestrator {
	return &Orchestrator{gw: gw, extractor: extractor, fetcher: fetcher, cfg: cfg}
}

// AnalyzeQuestion runs a content-free analysis of the question. A blank
// question short-circuits with an error result before any model call.
func (o *Orchestrator) AnalyzeQuestion(ctx context.Context, question, keywordHint string) model.AnalysisResult {
	if strings.TrimSpace(question) == "" {
		return model.ErrorResult("Please provide a question to analyze", "")
	}

	p := prompt.Build(question, keywordHint)
	result := o.runPipeline(ctx, p)
	result.AnalysisID = analysisID(question, keywordHint)
	return result
}

// AnalyzeText analyzes free-form text, optionally steered by a question or a
// keyword hint. At least one of the three inputs must be non-blank. When text
// is present the content-aware prompt is used; otherwise the request reduces
// to a question-only analysis.
func (o *Orchestrator) AnalyzeText(ctx context.Context, text, question, keywordHint string) model.AnalysisResult {
	text = strings.TrimSpace(text)
	question = strings.TrimSpace(question)
	keywordHint = strings.TrimSpace(keywordHint)

	if text == "" && question == "" && keywordHint == "" {
		return model.ErrorResult("Please provide text, a question, or a keyword to analyze", "")
	}

	effective, hint := effectiveQuestion(text, question, keywordHint)
	if text == "" {
		return o.AnalyzeQuestion(ctx, effective, hint)
	}

	p := prompt.BuildWithContent(effective, hint, text, o.cfg.ContentBudget)
	result := o.runPipeline(ctx, p)
	result.AnalysisID = analysisID(effective, hint)
	return result
}

// AnalyzeFile extracts text from an uploaded document and analyzes it with a
// fixed generic question. Extraction failure returns an error result without
// calling the model.
func (o *Orchestrator) AnalyzeFile(ctx context.Context, filename string, data []byte) model.AnalysisResult {
	text, err := o.extractor.Extract(filename, data)
	if err != nil {
		zap.L().Warn("file extraction failed", zap.String("filename", filename), zap.Error(err))
		result := model.ErrorResult("Could not extract text from file: "+err.Error(), "")
		result.Filename = filename
		return result
	}

	result := o.AnalyzeText(ctx, text, fileQuestion, "")
	result.Filename = filename
	return result
}

// AnalyzeURL fetches a page, reduces it to plain text and analyzes it. The
// input url is attached to the result unconditionally, on error included.
func (o *Orchestrator) AnalyzeURL(ctx context.Context, url, question, keywordHint string) model.AnalysisResult {
	text, err := o.fetcher.FetchText(ctx, url)
	if err != nil {
		zap.L().Warn("url fetch failed", zap.String("url", url), zap.Error(err))
		result := model.ErrorResult("Could not fetch content from URL: "+err.Error(), "")
		result.URL = url
		return result
	}

	if o.cfg.URLTextCap > 0 && len(text) > o.cfg.URLTextCap {
		text = text[:o.cfg.URLTextCap] + urlEllipsis
	}

	result := o.AnalyzeText(ctx, text, question, keywordHint)
	result.URL = url
	return result
}

// runPipeline invokes the gateway and parses the reply. A gateway error reply
// becomes an error result carrying the raw text as FullResponse.
func (o *Orchestrator) runPipeline(ctx context.Context, p string) model.AnalysisResult {
	reply := o.gw.Invoke(ctx, p)
	if gateway.IsErrorReply(reply) {
		return model.ErrorResult(reply, reply)
	}

	parsed := parse.Parse(reply)
	return model.AnalysisResult{
		Keywords:     parsed.Keywords,
		Insights:     parsed.Insights,
		FullResponse: reply,
	}
}

// effectiveQuestion applies the fixed precedence rule for text analysis:
// text+question, then text+keyword, then text only, then question only, then
// keyword only.
func effectiveQuestion(text, question, keywordHint string) (q, hint string) {
	switch {
	case text != "" && question != "":
		return "Based on the provided content, " + question, keywordHint
	case text != "" && keywordHint != "":
		return "Analyze the provided content focusing on " + keywordHint, keywordHint
	case text != "":
		return "Analyze the provided content for business opportunities", ""
	case question != "":
		return question, keywordHint
	default:
		return "Analyze " + keywordHint, keywordHint
	}
}

// analysisID is a short deterministic digest of the request, used for display
// and correlation only.
func analysisID(question, keywordHint string) string {
	sum := md5.Sum([]byte(question + "_" + keywordHint))
	return hex.EncodeToString(sum[:])[:8]
}
