// Package report renders extraction results as a spreadsheet.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/AbdulrahmanBUW/PipeExtractionTool/pkg/pipespec"
)

// SheetName is the name of the report worksheet.
const SheetName = "Spec Positions"

// Summary holds the derived totals appended below the report rows.
type Summary struct {
	// TotalSheets is the number of sheets in the report.
	TotalSheets int
	// DistinctPositions is the count of distinct spec-position values
	// across all sheets, case-insensitive.
	DistinctPositions int
	// GeneratedAt is the report generation timestamp.
	GeneratedAt time.Time
}

// Summarize computes the report summary.
func Summarize(results []pipespec.SheetResult) Summary {
	distinct := make(map[string]struct{})
	for _, r := range results {
		for _, v := range r.SpecPositions {
			distinct[strings.ToLower(v)] = struct{}{}
		}
	}
	return Summary{
		TotalSheets:       len(results),
		DistinctPositions: len(distinct),
		GeneratedAt:       time.Now(),
	}
}

// Write renders the results to an xlsx file. The workbook is saved to a
// temporary file in the target directory and renamed into place, so a
// write failure never leaves a truncated report behind.
func Write(path string, results []pipespec.SheetResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := fill(f, results, Summarize(results)); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := f.SaveAs(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move report into place: %w", err)
	}
	return nil
}

// fill writes the header, one row per sheet, and the summary block.
func fill(f *excelize.File, results []pipespec.SheetResult, sum Summary) error {
	index, err := f.NewSheet(SheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	header := []interface{}{"Sheet", "Spec Positions", "Count"}
	if err := setRow(f, 1, header); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetCellStyle(SheetName, "A1", "C1", style)
	}

	row := 2
	for _, r := range results {
		cells := []interface{}{
			r.SheetName,
			strings.Join(r.SpecPositions, ", "),
			len(r.SpecPositions),
		}
		if err := setRow(f, row, cells); err != nil {
			return err
		}
		row++
	}

	row++ // blank separator
	summaryRows := [][]interface{}{
		{"Total sheets", sum.TotalSheets},
		{"Distinct spec positions", sum.DistinctPositions},
		{"Generated", sum.GeneratedAt.Format(time.RFC3339)},
	}
	for _, cells := range summaryRows {
		if err := setRow(f, row, cells); err != nil {
			return err
		}
		row++
	}

	f.SetColWidth(SheetName, "A", "A", 32)
	f.SetColWidth(SheetName, "B", "B", 64)
	return nil
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &cells)
}
