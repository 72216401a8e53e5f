package analytics

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/kazi/core/project"
)

const (
	projectsSheet  = "Projects"
	analyticsSheet = "Analytics"

	WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var projectsHeader = []interface{}{"ID", "Student", "Title", "Description", "Deadline", "Status", "Marks", "Feedback", "Attachment"}

// WriteWorkbook writes an xlsx workbook with the projects list, the report tables
// and two charts (status pie, marks column chart).
func WriteWorkbook(w io.Writer, projects []project.Project, rep Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = errors.Wrap(cErr, "closing workbook")
		}
	}()

	if err = f.SetSheetName("Sheet1", projectsSheet); err != nil {
		return errors.Wrap(err, "renaming sheet")
	}
	if err = writeProjectsSheet(f, projects); err != nil {
		return errors.Wrap(err, "writing projects sheet")
	}

	if _, err = f.NewSheet(analyticsSheet); err != nil {
		return errors.Wrap(err, "creating analytics sheet")
	}
	if err = writeAnalyticsSheet(f, rep); err != nil {
		return errors.Wrap(err, "writing analytics sheet")
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func writeProjectsSheet(f *excelize.File, projects []project.Project) error {
	if err := f.SetSheetRow(projectsSheet, "A1", &projectsHeader); err != nil {
		return err
	}
	if err := boldRow(f, projectsSheet, 1, len(projectsHeader)); err != nil {
		return err
	}

	for i, p := range projects {
		var marks interface{} = ""
		if p.Marks.Valid {
			marks = p.Marks.Int
		}
		row := []interface{}{p.ID, p.Student, p.Title, p.Description, p.Deadline.String(), string(p.Status), marks, p.Feedback, p.PdfName}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(projectsSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(projectsSheet, "B", "D", 30)
}

func writeAnalyticsSheet(f *excelize.File, rep Report) error {
	// status distribution: A1:B5
	if err := f.SetSheetRow(analyticsSheet, "A1", &[]interface{}{"Status", "Projects"}); err != nil {
		return err
	}
	for i, st := range project.Statuses {
		if err := f.SetSheetRow(analyticsSheet, fmt.Sprintf("A%d", i+2), &[]interface{}{string(st), rep.StatusDistribution[st]}); err != nil {
			return err
		}
	}
	lastStatusRow := len(project.Statuses) + 1

	// marks distribution: D1:E(n+1)
	if err := f.SetSheetRow(analyticsSheet, "D1", &[]interface{}{"Marks", "Projects"}); err != nil {
		return err
	}
	for i, bin := range rep.Bins {
		if err := f.SetSheetRow(analyticsSheet, fmt.Sprintf("D%d", i+2), &[]interface{}{bin.Label, bin.Count}); err != nil {
			return err
		}
	}
	lastBinRow := len(rep.Bins) + 1

	// totals: G1:H2
	var avg interface{} = "-"
	if rep.AverageMarks.Valid {
		avg = rep.AverageMarks.Float64
	}
	if err := f.SetSheetRow(analyticsSheet, "G1", &[]interface{}{"Total projects", rep.Total}); err != nil {
		return err
	}
	if err := f.SetSheetRow(analyticsSheet, "G2", &[]interface{}{"Average marks", avg}); err != nil {
		return err
	}
	if err := boldRow(f, analyticsSheet, 1, 5); err != nil {
		return err
	}

	if err := f.AddChart(analyticsSheet, "J1", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       analyticsSheet + "!$B$1",
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", analyticsSheet, lastStatusRow),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", analyticsSheet, lastStatusRow),
		}},
		Title:    []excelize.RichTextRun{{Text: "Project status distribution"}},
		PlotArea: excelize.ChartPlotArea{ShowPercent: true},
	}); err != nil {
		return errors.Wrap(err, "adding status chart")
	}

	if err := f.AddChart(analyticsSheet, "J17", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       analyticsSheet + "!$E$1",
			Categories: fmt.Sprintf("%s!$D$2:$D$%d", analyticsSheet, lastBinRow),
			Values:     fmt.Sprintf("%s!$E$2:$E$%d", analyticsSheet, lastBinRow),
		}},
		Title:  []excelize.RichTextRun{{Text: "Marks distribution"}},
		Legend: excelize.ChartLegend{Position: "none"},
	}); err != nil {
		return errors.Wrap(err, "adding marks chart")
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}
