// Package csvio reads uploaded CSV/XLSX files into rows of fields and writes
// export CSVs. Reading is deliberately tolerant: merchants hand us files with
// BOMs, ragged rows and sometimes malformed quoting.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const bom = "\uFEFF"

// ReadAll parses CSV text into rows of fields. Quoted fields may contain
// commas, newlines and doubled quotes; both \n and \r\n line endings work.
// Rows whose fields are all empty after trimming are dropped. Malformed
// quoting never fails the read, it just yields best-effort field boundaries.
func ReadAll(text string) ([][]string, error) {
	text = strings.TrimPrefix(text, bom)

	r := csv.NewReader(strings.NewReader(text))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if blankRow(record) {
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// ReadXLSX converts the first sheet of an XLSX file into the same
// row-of-fields shape ReadAll produces.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in xlsx file")
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}

	var rows [][]string
	for _, record := range raw {
		if blankRow(record) {
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// WriteAll writes rows as CSV. encoding/csv handles quoting, so
// export-then-reparse preserves every cell exactly.
func WriteAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
