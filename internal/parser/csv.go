package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"debtorbatch/internal/debtor"
)

// csvSource streams rows from a comma-separated file with the same header
// contract as xlsx uploads.
type csvSource struct {
	reader   *csv.Reader
	cols     map[string]int
	rowIndex int
}

func newCSVSource(r io.Reader) (*csvSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingHeader)
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}
	cols, err := columnMap(headers)
	if err != nil {
		return nil, err
	}

	return &csvSource{reader: cr, cols: cols, rowIndex: 1}, nil
}

func (s *csvSource) Next() (*debtor.Record, error) {
	for {
		row, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read row %d: %w", s.rowIndex+1, err)
		}
		s.rowIndex++
		if blankRow(row) {
			continue
		}
		return buildRecord(row, s.cols, s.rowIndex), nil
	}
}

func (s *csvSource) Close() error { return nil }
