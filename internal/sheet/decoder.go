// Package sheet decodes spreadsheet uploads into rows of cell text.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format identifies a spreadsheet container.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DecodeError reports a buffer that could not be read as a workbook.
type DecodeError struct {
	Format Format
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	prefix := "decode spreadsheet"
	if e.Format != "" {
		prefix = fmt.Sprintf("decode %s spreadsheet", e.Format)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// RawRow is one spreadsheet row as cell text. Empty cells are "".
type RawRow []string

// Cell returns the trimmed cell at i, or "" past the end of the row.
func (r RawRow) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// Empty reports whether every cell is blank.
func (r RawRow) Empty() bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Table is the first sheet of a decoded workbook.
type Table struct {
	Format    Format
	SheetName string
	rows      []RawRow
}

// NewTable wraps already decoded rows.
func NewTable(rows []RawRow) *Table {
	return &Table{rows: rows}
}

// Rows returns the positional rows, blank rows included.
func (t *Table) Rows() []RawRow {
	return t.rows
}

// Records returns header-keyed row objects. The first non-blank row is the
// header; blank data rows are skipped and empty cells are left out of the map.
func (t *Table) Records() []map[string]string {
	headerIdx := -1
	for i, row := range t.rows {
		if !row.Empty() {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	header := t.rows[headerIdx]
	var out []map[string]string
	for _, row := range t.rows[headerIdx+1:] {
		if row.Empty() {
			continue
		}
		obj := make(map[string]string, len(header))
		for i, name := range header {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if v := row.Cell(i); v != "" {
				obj[name] = v
			}
		}
		out = append(out, obj)
	}
	return out
}

// DetectFormat sniffs the container from the leading bytes.
func DetectFormat(data []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, true
	case bytes.HasPrefix(data, ole2Magic):
		return FormatXLS, true
	}
	return "", false
}

// Decode reads the first sheet of an xlsx or xls workbook.
func Decode(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Reason: "empty file"}
	}
	format, ok := DetectFormat(data)
	if !ok {
		return nil, &DecodeError{Reason: "unsupported file format, expected .xlsx or .xls"}
	}
	switch format {
	case FormatXLSX:
		return decodeXLSX(data)
	default:
		return decodeXLS(data)
	}
}

func decodeXLSX(data []byte) (*Table, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: FormatXLSX, Reason: "unreadable workbook", Cause: err}
	}
	defer xl.Close()

	sheetName := xl.GetSheetName(0)
	if sheetName == "" {
		return nil, &DecodeError{Format: FormatXLSX, Reason: "workbook has no sheets"}
	}

	rawRows, err := xl.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{Format: FormatXLSX, Reason: "read first sheet", Cause: err}
	}

	rows := make([]RawRow, len(rawRows))
	for i, r := range rawRows {
		rows[i] = trimTrailing(r)
	}
	return &Table{Format: FormatXLSX, SheetName: sheetName, rows: rows}, nil
}

func decodeXLS(data []byte) (table *Table, err error) {
	// The legacy reader panics on some malformed compound files.
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = &DecodeError{Format: FormatXLS, Reason: "unreadable workbook", Cause: fmt.Errorf("%v", r)}
		}
	}()

	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &DecodeError{Format: FormatXLS, Reason: "unreadable workbook", Cause: err}
	}
	if book == nil {
		return nil, &DecodeError{Format: FormatXLS, Reason: "compound file has no workbook stream"}
	}
	if book.NumSheets() == 0 {
		return nil, &DecodeError{Format: FormatXLS, Reason: "workbook has no sheets"}
	}
	ws := book.GetSheet(0)
	if ws == nil {
		return nil, &DecodeError{Format: FormatXLS, Reason: "workbook has no sheets"}
	}

	rows := make([]RawRow, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := xlsRow(ws, i)
		if row == nil {
			rows = append(rows, RawRow{})
			continue
		}
		// Some writers store the last column index instead of one past it.
		width := row.LastCol()
		for row.Col(width) != "" {
			width++
		}
		cells := make([]string, width)
		for c := range cells {
			cells[c] = row.Col(c)
		}
		rows = append(rows, trimTrailing(cells))
	}

	// MaxRow is an index, and sheets without data still report row zero.
	for len(rows) > 0 && rows[len(rows)-1].Empty() {
		rows = rows[:len(rows)-1]
	}
	return &Table{Format: FormatXLS, SheetName: ws.Name, rows: rows}, nil
}

// xlsRow returns nil for rows the sheet never wrote. The reader dereferences
// missing rows instead of reporting them.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func trimTrailing(cells []string) RawRow {
	end := len(cells)
	for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
		end--
	}
	return RawRow(cells[:end])
}
