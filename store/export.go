package store

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes a document's parsed standards to an XLSX workbook, one
// sheet per grade level, in the layout teachers ask for: standard rows with
// their objectives indented underneath.
func (s *Store) ExportXLSX(ctx context.Context, docID int64, outPath string) error {
	stds, err := s.GetStandardsByDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("loading standards: %w", err)
	}
	if len(stds) == 0 {
		return fmt.Errorf("document %d has no parsed standards", docID)
	}

	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"ID", "Strand", "Text"}
	rowBySheet := make(map[string]int)

	for _, st := range stds {
		sheet := sheetName(st.GradeLevel)
		if _, ok := rowBySheet[sheet]; !ok {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("creating sheet %s: %w", sheet, err)
			}
			if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
				return err
			}
			rowBySheet[sheet] = 2
		}

		row := rowBySheet[sheet]
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{st.StandardID, st.StrandName, st.StandardText}); err != nil {
			return err
		}
		row++

		for _, obj := range st.Objectives {
			cell, _ := excelize.CoordinatesToCellName(2, row)
			if err := f.SetSheetRow(sheet, cell, &[]interface{}{obj.ObjectiveID, obj.ObjectiveText}); err != nil {
				return err
			}
			row++
		}
		rowBySheet[sheet] = row
	}

	// Drop the default empty sheet when the export created its own.
	if len(rowBySheet) > 0 {
		f.DeleteSheet("Sheet1")
	}

	return f.SaveAs(outPath)
}

func sheetName(grade string) string {
	switch grade {
	case "K":
		return "Kindergarten"
	case "N":
		return "Novice"
	case "I":
		return "Intermediate"
	case "P":
		return "Proficient"
	case "AC":
		return "Accomplished"
	case "AD":
		return "Advanced"
	default:
		return "Grade " + grade
	}
}
