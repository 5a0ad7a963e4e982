package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trendlens/trendlens/internal/export"
	"github.com/trendlens/trendlens/internal/store"
)

var (
	exportEmail string
	exportKind  string
	exportLimit int
	exportPath  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analysis history to a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		analyses, err := st.ListAnalyses(ctx, store.AnalysisFilter{
			Email: exportEmail,
			Kind:  exportKind,
			Limit: exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list analyses")
		}

		if err := export.WriteXLSX(exportPath, analyses); err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("path", exportPath),
			zap.Int("analyses", len(analyses)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportEmail, "email", "", "filter by account email")
	exportCmd.Flags().StringVar(&exportKind, "kind", "", "filter by analysis kind (question|text|url|file|comprehensive)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "max analyses to export (default 100)")
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "analyses.xlsx", "output spreadsheet path")
	rootCmd.AddCommand(exportCmd)
}
