// Package parser turns uploaded spreadsheets into debtor records, streaming
// row by row so large files never load fully into memory.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"debtorbatch/internal/debtor"
)

// Column headers expected on the first row. Matching is trim- and
// case-insensitive.
const (
	HeaderIdentification = "Identificación"
	HeaderFirstNames     = "Nombres"
	HeaderLastNames      = "Apellidos"
	HeaderEmail          = "Email"
	HeaderPhone          = "Teléfono"
	HeaderAmount         = "Monto Deuda"
	HeaderDueDate        = "Fecha Vencimiento"
	HeaderConcept        = "Concepto"
)

// ErrMissingHeader reports a required column absent from the header row.
var ErrMissingHeader = errors.New("missing required column header")

// RowSource streams debtor records from a spreadsheet. Next returns io.EOF
// once the file is exhausted. Callers must Close when done.
type RowSource interface {
	// Next returns the next data row. Unparseable cells degrade to zero
	// values on the record so validation can report every bad field; an
	// error here means the stream itself broke.
	Next() (*debtor.Record, error)
	Close() error
}

// Open picks a RowSource by file extension. ext includes the dot, as returned
// by filepath.Ext.
func Open(r io.Reader, ext string) (RowSource, error) {
	switch strings.ToLower(ext) {
	case ".xlsx":
		return newXLSXSource(r)
	case ".csv":
		return newCSVSource(r)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}
}

// columnMap resolves header names to column indexes. Returns ErrMissingHeader
// wrapped with the first missing name.
func columnMap(headers []string) (map[string]int, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	required := []string{
		HeaderIdentification, HeaderFirstNames, HeaderLastNames,
		HeaderEmail, HeaderPhone, HeaderAmount, HeaderDueDate, HeaderConcept,
	}
	cols := make(map[string]int, len(required))
	for _, name := range required {
		i, ok := index[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeader, name)
		}
		cols[name] = i
	}
	return cols, nil
}

func cell(row []string, cols map[string]int, name string) string {
	i := cols[name]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// buildRecord shapes one raw row into a Record. rowIndex is the 1-based
// spreadsheet row number (data starts at 2). An unparseable amount or date
// leaves the zero value in place, so the validator reports both fields on a
// row where both are bad instead of stopping at the first.
func buildRecord(row []string, cols map[string]int, rowIndex int) *debtor.Record {
	rec := &debtor.Record{
		RowIndex:    rowIndex,
		ExternalKey: cell(row, cols, HeaderIdentification),
		FirstName:   cell(row, cols, HeaderFirstNames),
		LastName:    cell(row, cols, HeaderLastNames),
		Email:       cell(row, cols, HeaderEmail),
		PhoneNumber: cell(row, cols, HeaderPhone),
		Concept:     cell(row, cols, HeaderConcept),
	}

	if amount, err := parseAmount(cell(row, cols, HeaderAmount)); err == nil {
		rec.Amount = amount
	}
	if due, err := parseDate(cell(row, cols, HeaderDueDate)); err == nil {
		rec.DueDate = due
	}

	return rec
}

// blankRow reports whether every cell is empty. Trailing blank rows are common
// in exported spreadsheets and are skipped silently.
func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
