package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// tableReader feeds header-first rows from any supported format to gocsv.
type tableReader struct {
	rows   [][]string
	cursor int
}

var _ gocsv.CSVReader = (*tableReader)(nil)

func (r *tableReader) Read() ([]string, error) {
	if r.cursor >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.cursor]
	r.cursor++
	return row, nil
}

func (r *tableReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.cursor:]
	r.cursor = len(r.rows)
	return rest, nil
}

// readTable loads the first sheet of a workbook or a whole CSV file.
// Header cells are lowercased and trimmed; blank rows are dropped and short
// rows padded to the header width.
func readTable(filename string, data []byte) (*tableReader, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(data)
	case ".csv":
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoValidRows
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	out := [][]string{header}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		out = append(out, row)
	}
	return &tableReader{rows: out}, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
