package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trendlens/trendlens/internal/insight"
	"github.com/trendlens/trendlens/internal/model"
)

var (
	analyzeQuestion string
	analyzeKeyword  string
	analyzeText     string
	analyzeURL      string
	analyzeFile     string
	analyzeOutput   string
)

// analysisOutput is the CLI result envelope.
type analysisOutput struct {
	Result       model.AnalysisResult `json:"result" yaml:"result"`
	QualityScore float64              `json:"quality_score" yaml:"quality_score"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a single analysis",
	Long:  "Analyzes a question, free text, a document or a URL and prints the structured result.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var result model.AnalysisResult
		switch {
		case analyzeFile != "":
			data, err := os.ReadFile(analyzeFile)
			if err != nil {
				return eris.Wrapf(err, "read %s", analyzeFile)
			}
			result = env.Orchestrator.AnalyzeFile(ctx, analyzeFile, data)
		case analyzeURL != "":
			result = env.Orchestrator.AnalyzeURL(ctx, analyzeURL, analyzeQuestion, analyzeKeyword)
		case analyzeText != "":
			result = env.Orchestrator.AnalyzeText(ctx, analyzeText, analyzeQuestion, analyzeKeyword)
		default:
			result = env.Orchestrator.AnalyzeQuestion(ctx, analyzeQuestion, analyzeKeyword)
		}

		out := analysisOutput{
			Result:       result,
			QualityScore: insight.Score(result.Insights),
		}
		if err := printOutput(out, analyzeOutput); err != nil {
			return err
		}

		if result.Failed() {
			return eris.New(result.Error)
		}
		return nil
	},
}

// printOutput writes v to stdout as json or yaml.
func printOutput(v any, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return eris.Wrap(enc.Encode(v), "encode yaml")
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuestion, "question", "q", "", "business question to analyze")
	analyzeCmd.Flags().StringVarP(&analyzeKeyword, "keyword", "k", "", "keyword hint to steer the analysis")
	analyzeCmd.Flags().StringVarP(&analyzeText, "text", "t", "", "free text to analyze")
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "web page to analyze")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "document to analyze (txt, md, html, docx, pdf)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "json", "output format (json|yaml)")
	rootCmd.AddCommand(analyzeCmd)
}
