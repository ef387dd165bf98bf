package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/hbsjo/oc-harvester/internal/rows"
)

// DetailSheet is the worksheet name used in the XLSX copy.
const DetailSheet = "Detalle"

// WriteDetailXLSX writes the detail rows to an .xlsx workbook with a bold,
// frozen header row. Amount columns are stored as numbers; nulls are left
// blank.
func WriteDetailXLSX(path string, rs []rows.OutputRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DetailSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(rows.Columns))
	for i, c := range rows.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(DetailSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(rows.Columns))
	if err := f.SetCellStyle(DetailSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetPanes(DetailSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	for i, r := range rs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := xlsxValues(r)
		if err := f.SetSheetRow(DetailSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// xlsxValues mirrors OutputRow.Record but keeps amounts numeric.
func xlsxValues(r rows.OutputRow) []interface{} {
	record := r.Record()
	values := make([]interface{}, len(record))
	for i, v := range record {
		values[i] = v
	}

	amounts := []*int64{r.Quantity, r.UnitPrice, r.NetTotal, r.Tax, r.GrossTotal, r.OrderNet, r.OrderTax, r.OrderGross}
	first := len(record) - len(amounts)
	for i, a := range amounts {
		if a == nil {
			values[first+i] = nil
			continue
		}
		values[first+i] = *a
	}
	return values
}
