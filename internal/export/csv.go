// =============================================================================
// OC Harvester - CSV Export
// =============================================================================
//
// Daily files are semicolon-delimited, UTF-8 with a byte-order mark and CRLF
// line endings, which is what spreadsheet users on Spanish-locale Windows
// open without an import wizard.
//
// Files are written to a temporary name in the target directory and renamed
// into place, so a crash never leaves a half-written daily file behind.
//
// =============================================================================

package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hbsjo/oc-harvester/internal/rows"
	"github.com/hbsjo/oc-harvester/internal/types"
)

// BOM is the UTF-8 byte-order mark written at the start of every file.
const BOM = "\uFEFF"

// Delimiter separates fields.
const Delimiter = ';'

// WriteDetailCSV writes the detail rows (already sorted) to path.
func WriteDetailCSV(path string, rs []rows.OutputRow) error {
	records := make([][]string, 0, len(rs))
	for _, r := range rs {
		records = append(records, r.Record())
	}
	return writeCSV(path, rows.Columns, records)
}

// WriteErrorCSV writes the error records to path.
func WriteErrorCSV(path string, errs []types.ErrorRecord) error {
	records := make([][]string, 0, len(errs))
	for _, e := range errs {
		records = append(records, e.Record())
	}
	return writeCSV(path, types.ErrorColumns, records)
}

func writeCSV(path string, header []string, records [][]string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(tmp)
	w.Comma = Delimiter
	w.UseCRLF = true

	if err = w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err = w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
