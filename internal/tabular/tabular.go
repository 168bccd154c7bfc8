// Package tabular decodes uploaded recipient spreadsheets (CSV or XLSX)
// into ordered raw rows. The whole input is materialized up front so the
// validate/process phase boundary stays explicit: a malformed file fails
// here, before any row reaches the issuance pipeline.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrBadFormat marks input that is not a decodable tabular file. It aborts
// the whole submission with zero rows processed.
var ErrBadFormat = errors.New("malformed tabular input")

// Row is one data line keyed by header cell. Keys keep their original
// spelling; consumers resolve aliases case-insensitively.
type Row map[string]string

// Decode reads a tabular file into ordered rows, dispatching on the file
// extension. The first line is the header; every following line becomes one
// Row. A header-only file yields zero rows and no error.
func Decode(r io.Reader, filename string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return decodeCSV(r)
	case ".xlsx":
		return decodeXLSX(r)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrBadFormat, filepath.Ext(filename))
	}
}

func decodeCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrBadFormat)
	}

	header := records[0]
	// Excel exports prepend a UTF-8 BOM to the first header cell.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return assemble(header, records[1:])
}

func decodeXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrBadFormat)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrBadFormat)
	}

	return assemble(records[0], records[1:])
}

// assemble zips data lines with the header. Header cells may repeat; the
// first occurrence wins. Lines with every cell empty are skipped (trailing
// spreadsheet rows), short lines are padded with empty cells.
func assemble(header []string, lines [][]string) ([]Row, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: empty header row", ErrBadFormat)
	}

	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		if allEmpty(line) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if _, dup := row[name]; dup {
				continue
			}
			if i < len(line) {
				row[name] = line[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func allEmpty(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
