package dataprocessing

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WorkbookSource reads an extract stored as an .xlsx workbook.
type WorkbookSource struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
	line   int
}

// OpenWorkbookSource opens path and streams the named sheet, or the first
// sheet when name is empty. The first non-blank row is the header.
func OpenWorkbookSource(path, sheet string) (*WorkbookSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	src := &WorkbookSource{file: f, rows: rows}
	row, err := src.Next()
	if err != nil {
		src.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("sheet %q has no header row", sheet)
		}
		return nil, err
	}
	src.header = row.Cells
	return src, nil
}

func (s *WorkbookSource) Header() []string { return s.header }

// Next skips blank rows so that trailing empty lines are not counted.
func (s *WorkbookSource) Next() (RawRow, error) {
	for s.rows.Next() {
		s.line++
		cells, err := s.rows.Columns()
		if err != nil {
			return RawRow{}, &MalformedRowError{Line: s.line, Err: err}
		}
		if blankRow(cells) {
			continue
		}
		return RawRow{Line: s.line, Cells: cells}, nil
	}
	if err := s.rows.Error(); err != nil {
		return RawRow{}, err
	}
	return RawRow{}, io.EOF
}

func (s *WorkbookSource) Close() error {
	if s.rows != nil {
		s.rows.Close()
	}
	return s.file.Close()
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
