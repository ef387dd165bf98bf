// =============================================================================
// OC Harvester - CSV Reader
// =============================================================================
//
// This module reads the daily files back. It is used by the `inspect`
// command to check a produced detail file and by tests to verify what the
// exporter wrote.
//
// FEATURES:
//   - Configurable delimiter (the daily files use ';')
//   - UTF-8 byte-order mark is stripped from the first header
//   - Rows are returned as header -> value maps, in file order
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how a file is read.
type Settings struct {
	// Delimiter is the field separator. Accepts a single character or one of
	// "tab", "pipe", "semicolon".
	// Default: ";"
	Delimiter string
}

// DefaultSettings matches the daily output files.
func DefaultSettings() Settings {
	return Settings{Delimiter: ";"}
}

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed file.
type CSVData struct {
	// Headers contains the column headers, BOM removed.
	Headers []string

	// Rows contains the data rows as header -> value maps.
	Rows []map[string]string

	// SourceFile is the path the data was read from.
	SourceFile string

	// HasBOM reports whether the file started with a UTF-8 byte-order mark.
	HasBOM bool
}

// RowCount returns the number of data rows.
func (d *CSVData) RowCount() int { return len(d.Rows) }

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads a delimited file from disk.
//
// PARAMETERS:
//   - filePath: The path to the file.
//   - settings: Reader settings.
//
// RETURNS:
//   - The parsed data.
//   - An error if the file cannot be opened or parsed.
func ParseFile(filePath string, settings Settings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := Parse(file, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// Parse reads delimited data from r.
func Parse(r io.Reader, settings Settings) (*CSVData, error) {
	reader := bufio.NewReader(r)

	hasBOM := false
	if prefix, err := reader.Peek(3); err == nil && bytes.Equal(prefix, []byte{0xEF, 0xBB, 0xBF}) {
		hasBOM = true
		if _, err := reader.Discard(3); err != nil {
			return nil, fmt.Errorf("failed to skip BOM: %w", err)
		}
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	data, err := FromRecords(allRows)
	if err != nil {
		return nil, err
	}
	data.HasBOM = hasBOM
	return data, nil
}

// FromRecords builds CSVData from raw records whose first record is the
// header. Other tabular readers (the workbook reader) share it.
func FromRecords(records [][]string) (*CSVData, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers := cleanHeaders(records[0])

	return &CSVData{
		Headers: headers,
		Rows:    extractDataRows(records[1:], headers),
	}, nil
}

// configureReader applies the settings to a csv.Reader.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon", "":
		reader.Comma = ';'
	default:
		reader.Comma = rune(settings.Delimiter[0])
	}

	// Error files and detail files have fixed widths, but tolerate short
	// rows so inspect can report them instead of failing outright.
	reader.FieldsPerRecord = -1
}

// cleanHeaders trims headers and names empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// extractDataRows converts raw rows into header -> value maps, skipping
// blank lines. Missing trailing cells become empty strings.
func extractDataRows(raw [][]string, headers []string) []map[string]string {
	dataRows := make([]map[string]string, 0, len(raw))

	for _, row := range raw {
		if isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				rowMap[header] = row[colIndex]
			} else {
				rowMap[header] = ""
			}
		}
		dataRows = append(dataRows, rowMap)
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// GetColumnByHeader returns all values of one column.
func GetColumnByHeader(data *CSVData, header string) []string {
	values := make([]string, len(data.Rows))
	for i, row := range data.Rows {
		values[i] = row[header]
	}
	return values
}

// GetUniqueValues returns the distinct values of a column in first-seen
// order.
func GetUniqueValues(data *CSVData, header string) []string {
	seen := make(map[string]bool)
	var unique []string

	for _, row := range data.Rows {
		value := row[header]
		if !seen[value] {
			seen[value] = true
			unique = append(unique, value)
		}
	}

	return unique
}
