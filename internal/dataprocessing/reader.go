package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// RawRow is one data line of an extract before mapping.
type RawRow struct {
	Line  int
	Cells []string
}

// Source yields the header and the data rows of an extract.
// Next returns io.EOF after the last row.
type Source interface {
	Header() []string
	Next() (RawRow, error)
	Close() error
}

// MalformedRowError is returned by Next for a line the reader could not split.
// The pipeline records it as a rejected row and keeps reading.
type MalformedRowError struct {
	Line int
	Err  error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// ReaderOptions fixes how a delimited extract is decoded.
type ReaderOptions struct {
	Delimiter string
	Encoding  string
	Sheet     string
}

// DelimitedSource reads a delimited text extract.
type DelimitedSource struct {
	reader *csv.Reader
	closer io.Closer
	header []string
}

// NewDelimitedSource wraps r, decoding it with the configured encoding.
func NewDelimitedSource(r io.Reader, opts ReaderOptions) (*DelimitedSource, error) {
	delim, err := delimiterRune(opts.Delimiter)
	if err != nil {
		return nil, err
	}
	decoded, err := decodingReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(decoded)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("extract has no header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return &DelimitedSource{reader: cr, header: header}, nil
}

func (s *DelimitedSource) Header() []string { return s.header }

func (s *DelimitedSource) Next() (RawRow, error) {
	cells, err := s.reader.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return RawRow{}, &MalformedRowError{Line: perr.StartLine, Err: perr.Err}
		}
		return RawRow{}, err
	}
	line, _ := s.reader.FieldPos(0)
	return RawRow{Line: line, Cells: cells}, nil
}

func (s *DelimitedSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// OpenSource opens an extract by file extension: .xlsx workbooks through
// excelize, everything else as delimited text.
func OpenSource(path string, opts ReaderOptions) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return OpenWorkbookSource(path, opts.Sheet)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open extract: %w", err)
	}
	src, err := NewDelimitedSource(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

func delimiterRune(d string) (rune, error) {
	switch d {
	case "":
		return ';', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(d)
	if r == utf8.RuneError || size != len(d) || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", d)
	}
	return r, nil
}

func decodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(encoding, "_", "-")) {
	case "", "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "utf-8", "utf8":
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}
