package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a parsed roster file: ordered original headers plus rows keyed
// by normalised header. Headers keep their source order so error logs can
// echo the file's own columns.
type Table struct {
	Headers []string
	Rows    []Row
}

// ErrUnsupportedFormat is returned for file extensions we cannot parse.
var ErrUnsupportedFormat = fmt.Errorf("unsupported roster format, expected .csv, .xls or .xlsx")

// ReadFile parses a roster file on disk, dispatching on extension.
func ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(file)
	case ".xls", ".xlsx":
		return ReadXLSX(file)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ReadCSV parses a CSV roster. The first record is treated as the header
// row; short records are tolerated and missing cells read as empty.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("roster file has no header row")
	}
	return buildTable(records), nil
}

// ReadXLSX parses the first sheet of an Excel roster.
func ReadXLSX(r io.Reader) (*Table, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer workbook.Close() //nolint:errcheck

	sheet := workbook.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("roster file has no header row")
	}
	return buildTable(records), nil
}

func buildTable(records [][]string) *Table {
	headers := make([]string, 0, len(records[0]))
	normalized := make([]string, 0, len(records[0]))
	for _, h := range records[0] {
		headers = append(headers, strings.TrimSpace(h))
		normalized = append(normalized, NormalizeHeader(h))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make(Row, len(normalized))
		for i, key := range normalized {
			if key == "" {
				continue
			}
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[key] = value
		}
		rows = append(rows, row)
	}
	return &Table{Headers: headers, Rows: rows}
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// NationalIDs collects every non-empty national ID in file order, used by
// the rollback flow to scope which students a past import may have created.
func (t *Table) NationalIDs() []string {
	ids := make([]string, 0, len(t.Rows))
	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		id := row.Value(FieldNationalID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
