// =============================================================================
// OC Harvester - XLSX Workbook Reader
// =============================================================================
//
// This module reads the optional .xlsx copy of a daily detail file back into
// the same CSVData shape the CSV reader produces, so the `inspect` command can
// check either format.
//
// SHEET SELECTION:
//   The "Detalle" sheet is read when present, otherwise the first sheet.
//   Numeric cells come back as their displayed text ("1190").
//
// =============================================================================

package xlsxparser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hbsjo/oc-harvester/internal/csvparser"
	"github.com/hbsjo/oc-harvester/internal/export"
)

// ParseFile reads the detail sheet of a workbook.
//
// PARAMETERS:
//   - path: The path to the .xlsx file.
//
// RETURNS:
//   - The parsed data, with SourceFile set.
//   - An error if the workbook cannot be opened or has no sheets.
func ParseFile(path string) (*csvparser.CSVData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := export.DetailSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return parseSheet(f, path, sheet)
}

// ParseSheet reads one named sheet of a workbook.
func ParseSheet(path, sheet string) (*csvparser.CSVData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseSheet(f, path, sheet)
}

func parseSheet(f *excelize.File, path, sheet string) (*csvparser.CSVData, error) {
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	data, err := csvparser.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	data.SourceFile = path
	return data, nil
}
