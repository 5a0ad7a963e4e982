// Package sentiment provides lexicon-based polarity scoring for analyzed
// content. It is intentionally coarse: the labels feed dashboard summaries,
// not decisions.
package sentiment

import (
	"math"
	"strings"
)

// Labels returned by Analyze.
const (
	LabelPositive = "Positive"
	LabelNegative = "Negative"
	LabelNeutral  = "Neutral"
)

// neutralBand is the polarity magnitude below which content is Neutral.
const neutralBand = 0.1

var positiveWords = map[string]float64{
	"good": 0.5, "great": 0.8, "excellent": 1.0, "amazing": 0.9,
	"positive": 0.6, "love": 0.8, "best": 0.9, "strong": 0.5,
	"growth": 0.4, "success": 0.7, "innovative": 0.6, "opportunity": 0.5,
}

var negativeWords = map[string]float64{
	"bad": -0.5, "terrible": -0.9, "awful": -0.9, "hate": -0.8,
	"worst": -1.0, "negative": -0.6, "poor": -0.6, "weak": -0.5,
	"decline": -0.5, "failure": -0.8, "risk": -0.3, "loss": -0.6,
}

// subjectiveWords mark opinionated rather than factual content.
var subjectiveWords = map[string]bool{
	"think": true, "believe": true, "feel": true, "seems": true,
	"probably": true, "amazing": true, "terrible": true, "best": true,
	"worst": true, "love": true, "hate": true,
}

// Result is a sentiment reading over one text.
type Result struct {
	Sentiment    string  `json:"sentiment"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Confidence   float64 `json:"confidence"`
}

// Analyze scores the text's sentiment. Empty or token-free text is Neutral
// with zero confidence.
func Analyze(text string) Result {
	words := tokenize(text)
	if len(words) == 0 {
		return Result{Sentiment: LabelNeutral}
	}

	var polaritySum float64
	var hits, subjective int
	for _, w := range words {
		if p, ok := positiveWords[w]; ok {
			polaritySum += p
			hits++
		}
		if n, ok := negativeWords[w]; ok {
			polaritySum += n
			hits++
		}
		if subjectiveWords[w] {
			subjective++
		}
	}

	var polarity float64
	if hits > 0 {
		polarity = polaritySum / float64(hits)
	}

	label := LabelNeutral
	switch {
	case polarity > neutralBand:
		label = LabelPositive
	case polarity < -neutralBand:
		label = LabelNegative
	}

	return Result{
		Sentiment:    label,
		Polarity:     round3(polarity),
		Subjectivity: round3(float64(subjective) / float64(len(words))),
		Confidence:   round3(math.Abs(polarity)),
	}
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.Trim(f, ".,!?;:'\"()[]"); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
