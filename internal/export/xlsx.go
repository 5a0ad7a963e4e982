// Package export writes analysis history to spreadsheet files for sharing
// outside the tool.
package export

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/trendlens/trendlens/internal/insight"
	"github.com/trendlens/trendlens/internal/model"
)

var header = []string{
	"Created", "Kind", "Analysis ID", "Source", "Keywords", "Quality", "Error",
}

// WriteXLSX writes one row per saved analysis plus a detail sheet with every
// keyword's actions.
func WriteXLSX(path string, analyses []model.SavedAnalysis) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Analyses")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	writeRow(summary, header...)

	for _, a := range analyses {
		writeRow(summary,
			a.CreatedAt.Format("2006-01-02 15:04"),
			a.Kind,
			a.Result.AnalysisID,
			source(a.Result),
			strings.Join(a.Result.Keywords, ", "),
			formatScore(a.Result),
			a.Result.Error,
		)
	}

	detail, err := f.AddSheet("Insights")
	if err != nil {
		return eris.Wrap(err, "export: add detail sheet")
	}
	writeRow(detail, "Analysis ID", "Keyword", "Titles", "Actions")

	for _, a := range analyses {
		for kw, ins := range a.Result.Insights {
			writeRow(detail,
				a.Result.AnalysisID,
				kw,
				strings.Join(ins.Titles, "; "),
				strings.Join(ins.Actions, "\n"),
			)
		}
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func writeRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().Value = c
	}
}

func source(r model.AnalysisResult) string {
	if r.URL != "" {
		return r.URL
	}
	return r.Filename
}

func formatScore(r model.AnalysisResult) string {
	if r.Failed() {
		return ""
	}
	return strconv.FormatFloat(insight.Score(r.Insights), 'f', 1, 64)
}
