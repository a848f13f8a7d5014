package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"debtorbatch/internal/debtor"
)

// xlsxSource streams rows from the first sheet of an xlsx workbook.
type xlsxSource struct {
	file     *excelize.File
	rows     *excelize.Rows
	cols     map[string]int
	rowIndex int
}

func newXLSXSource(r io.Reader) (*xlsxSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("iterate sheet %q: %w", sheets[0], err)
	}

	if !rows.Next() {
		rows.Close()
		f.Close()
		return nil, fmt.Errorf("%w: empty sheet", ErrMissingHeader)
	}
	headers, err := rows.Columns()
	if err != nil {
		rows.Close()
		f.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}
	cols, err := columnMap(headers)
	if err != nil {
		rows.Close()
		f.Close()
		return nil, err
	}

	return &xlsxSource{file: f, rows: rows, cols: cols, rowIndex: 1}, nil
}

func (s *xlsxSource) Next() (*debtor.Record, error) {
	for s.rows.Next() {
		s.rowIndex++
		row, err := s.rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", s.rowIndex, err)
		}
		if blankRow(row) {
			continue
		}
		return buildRecord(row, s.cols, s.rowIndex), nil
	}
	if err := s.rows.Error(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *xlsxSource) Close() error {
	s.rows.Close()
	return s.file.Close()
}
