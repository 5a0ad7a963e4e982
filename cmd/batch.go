package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trendlens/trendlens/internal/analyze"
	"github.com/trendlens/trendlens/internal/insight"
	"github.com/trendlens/trendlens/internal/model"
)

var (
	batchFile    string
	batchLimit   int
	batchOutput  string
	batchKeyword string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a list of URLs concurrently",
	Long:  "Reads URLs from a file (one per line, # comments allowed) and analyzes them with a bounded worker pool.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		urls, err := readURLList(batchFile)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := processBatch(ctx, env.Orchestrator, urls, batchLimit, cfg.Analysis.BatchWorkers)
		if err != nil {
			return err
		}

		return printOutput(results, batchOutput)
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "file with one URL per line (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of URLs to process")
	batchCmd.Flags().StringVarP(&batchKeyword, "keyword", "k", "", "keyword hint applied to every URL")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "json", "output format (json|yaml)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// readURLList loads non-blank, non-comment lines.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, eris.Wrapf(sc.Err(), "read %s", path)
}

// batchEntry is one URL's outcome in the batch report.
type batchEntry struct {
	URL          string               `json:"url" yaml:"url"`
	Result       model.AnalysisResult `json:"result" yaml:"result"`
	QualityScore float64              `json:"quality_score" yaml:"quality_score"`
}

// processBatch runs URL analyses with a bounded worker pool. Individual
// failures become error-tagged entries, never an aborted batch.
func processBatch(ctx context.Context, orch *analyze.Orchestrator, urls []string, limit, concurrency int) ([]batchEntry, error) {
	if len(urls) == 0 {
		zap.L().Info("no urls to process")
		return nil, nil
	}
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("urls", len(urls)),
		zap.Int("concurrency", concurrency),
	)

	entries := make([]batchEntry, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			result := orch.AnalyzeURL(gctx, url, "", batchKeyword)
			entries[i] = batchEntry{
				URL:          url,
				Result:       result,
				QualityScore: insight.Score(result.Insights),
			}

			if result.Failed() {
				failed.Add(1)
				zap.L().Warn("analysis failed", zap.String("url", url), zap.String("error", result.Error))
			} else {
				succeeded.Add(1)
				zap.L().Info("analysis complete",
					zap.String("url", url),
					zap.Int("keywords", len(result.Keywords)),
				)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return entries, nil
}
