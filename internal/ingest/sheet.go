package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is the raw tabular content of one uploaded file.
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadFile loads a tabular file into a Sheet. CSV and XLSX are supported; the
// legacy binary spreadsheet format is rejected with a remediation hint.
func ReadFile(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls files cannot be read; re-save the file as .xlsx or .csv", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %s files are not supported; upload a .csv or .xlsx file", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readCSV(path string) (*Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return &Sheet{Name: filepath.Base(path), Rows: rows}, nil
}

func readXLSX(path string) (*Sheet, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %q: %w", sheets[0], err)
	}
	return &Sheet{Name: sheets[0], Rows: rows}, nil
}

// Cell returns the trimmed cell at (row, col), or "" when either index is
// out of range.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	return cellAt(s.Rows[row], col)
}

// RowIsBlank reports whether every cell of the given row is blank.
func (s *Sheet) RowIsBlank(row int) bool {
	if row < 0 || row >= len(s.Rows) {
		return true
	}
	return rowIsBlank(s.Rows[row])
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
