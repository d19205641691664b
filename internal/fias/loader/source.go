package loader

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// Record is one source row keyed by lower-cased column name.
type Record map[string]string

// Get returns the trimmed value of col, or "" when absent.
func (r Record) Get(col string) string {
	return strings.TrimSpace(r[strings.ToLower(col)])
}

// Source yields records until it returns io.EOF.
type Source interface {
	Next() (Record, error)
}

// SliceSource serves records from memory.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource creates a source over records.
func NewSliceSource(records ...Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// CSVSource reads a delimited table export with a header row.
type CSVSource struct {
	reader *csv.Reader
	header []string
}

// NewCSVSource wraps r, decoding it from encoding (utf-8, windows-1251 or
// cp866) and reading the header row.
func NewCSVSource(r io.Reader, encoding string) (*CSVSource, error) {
	decoded, err := decode(r, encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "loader: read CSV header")
	}
	for i, col := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
	}

	return &CSVSource{reader: reader, header: header}, nil
}

// Next returns the next row. Short rows leave trailing columns empty.
func (s *CSVSource) Next() (Record, error) {
	row, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, eris.Wrap(err, "loader: read CSV row")
	}

	rec := make(Record, len(s.header))
	for i, col := range s.header {
		if i < len(row) {
			rec[col] = row[i]
		}
	}
	return rec, nil
}

func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(r), nil
	case "cp866":
		return charmap.CodePage866.NewDecoder().Reader(r), nil
	default:
		return nil, eris.Errorf("loader: unsupported encoding %q", encoding)
	}
}
