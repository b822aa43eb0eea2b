package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/investai/radar/internal/results"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet    = "Summary"
	CandidatesSheet = "Ranked Candidates"
	AnalysisSheet   = "Detailed Analysis"
)

var candidateHeaders = []string{"Rank", "ID", "Name", "Tagline", "Sector", "Stage", "Fit Score", "Success Rate", "Market Fit", "Tech Credibility", "Competition"}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// WriteExcelFile saves the report as an xlsx workbook at path. The extension is added when missing.
func WriteExcelFile(report results.Report, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := build(report, time.Now())
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return path, nil
}

// WriteExcel writes the report as an xlsx workbook to w.
func WriteExcel(report results.Report, w io.Writer) error {
	f, err := build(report, time.Now())
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func build(report results.Report, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{CandidatesSheet, AnalysisSheet} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if err := summarySheet(f, report, generated); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := candidatesSheet(f, report.Candidates); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}
	if err := analysisSheet(f, report.Candidates); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create detailed analysis sheet: %w", err)
	}
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func summarySheet(f *excelize.File, report results.Report, generated time.Time) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 40); err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := [][]any{
		{"Job", report.JobID},
		{"Generated", generated.Format("2006-01-02 15:04:05")},
		{"Candidates", len(report.Candidates)},
		{"Average Success Rate", report.Aggregate.SuccessRate},
		{"Average Market Fit", report.Aggregate.MarketFit},
		{"Average Tech Credibility", report.Aggregate.TechCredibility},
		{"Average Competition", report.Aggregate.Competition},
	}
	if report.NoMatches {
		rows = append(rows, []any{"Note", "No candidates matched the filters"})
	}
	for i, values := range rows {
		row := i + 1
		if err := setRow(f, SummarySheet, row, values...); err != nil {
			return err
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetCellStyle(SummarySheet, cell, cell, labelStyle); err != nil {
			return err
		}
	}
	return nil
}

// scoreColor picks the fill of a candidate row from its fit score.
func scoreColor(score int) string {
	switch {
	case score >= 80:
		return "C6EFCE"
	case score >= 60:
		return "FFEB9C"
	case score >= 40:
		return "FFC7CE"
	default:
		return "FF9999"
	}
}

func candidatesSheet(f *excelize.File, candidates []results.Candidate) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(CandidatesSheet, "A", "B", 8); err != nil {
		return err
	}
	if err := f.SetColWidth(CandidatesSheet, "C", "D", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(CandidatesSheet, "E", "K", 15); err != nil {
		return err
	}

	headers := make([]any, 0, len(candidateHeaders))
	for _, h := range candidateHeaders {
		headers = append(headers, h)
	}
	if err := setRow(f, CandidatesSheet, 1, headers...); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(candidateHeaders))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(CandidatesSheet, "A1", lastCol+"1", header); err != nil {
		return err
	}

	styles := map[string]int{}
	for i, c := range candidates {
		row := i + 2
		if err := setRow(f, CandidatesSheet, row,
			i+1, c.ID, c.Name, c.Tagline, c.Sector, c.Stage, c.FitScore,
			c.Metrics.SuccessRate, c.Metrics.MarketFit, c.Metrics.TechCredibility, c.Metrics.Competition,
		); err != nil {
			return err
		}

		color := scoreColor(c.FitScore)
		style, ok := styles[color]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
				Border: thinBorder,
			})
			if err != nil {
				return err
			}
			styles[color] = style
		}
		if err := f.SetCellStyle(CandidatesSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), style); err != nil {
			return err
		}
	}

	if len(candidates) > 0 {
		if err := f.AutoFilter(CandidatesSheet, fmt.Sprintf("A1:%s%d", lastCol, len(candidates)+1), []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	return freezeHeader(f, CandidatesSheet)
}

func analysisSheet(f *excelize.File, candidates []results.Candidate) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(AnalysisSheet, "A", "A", 8); err != nil {
		return err
	}
	if err := f.SetColWidth(AnalysisSheet, "B", "B", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(AnalysisSheet, "C", "C", 80); err != nil {
		return err
	}

	if err := setRow(f, AnalysisSheet, 1, "Rank", "Name", "Analysis"); err != nil {
		return err
	}
	if err := f.SetCellStyle(AnalysisSheet, "A1", "C1", header); err != nil {
		return err
	}

	row := 2
	for i, c := range candidates {
		if c.DetailedAnalysis == "" {
			continue
		}
		if err := setRow(f, AnalysisSheet, row, i+1, c.Name, c.DetailedAnalysis); err != nil {
			return err
		}
		if err := f.SetCellStyle(AnalysisSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), wrap); err != nil {
			return err
		}
		row++
	}
	return freezeHeader(f, AnalysisSheet)
}

func freezeHeader(f *excelize.File, sheet string) error {
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
