package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrMissingNameColumn = errors.New("CSV must have 'player_name' column")
	ErrMalformedRow      = errors.New("malformed row")
)

// Record is a raw record together with its position in the source.
type Record struct {
	Row    int
	Fields RawRecord
}

// RecordSource yields records in source order and returns io.EOF when exhausted.
// An error wrapping ErrMalformedRow only spoils the current record.
type RecordSource interface {
	Name() string
	Next() (Record, error)
}

// CSVSource reads records from a CSV document with a header line.
// Data rows are numbered from 2 so they line up with the file.
type CSVSource struct {
	r      *csv.Reader
	header []string
	row    int
}

func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingNameColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
	}
	found := false
	for _, h := range header {
		if h == FieldPlayerName {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrMissingNameColumn
	}
	return &CSVSource{r: cr, header: header, row: 1}, nil
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) Next() (Record, error) {
	fields, err := s.r.Read()
	if errors.Is(err, io.EOF) {
		return Record{}, io.EOF
	}
	s.row++
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return Record{Row: s.row}, fmt.Errorf("%w: %v", ErrMalformedRow, perr.Err)
		}
		return Record{}, err
	}

	rec := make(RawRecord, len(s.header))
	for i, v := range fields {
		if i >= len(s.header) || s.header[i] == "" {
			continue
		}
		if _, dup := rec[s.header[i]]; dup {
			continue
		}
		rec[s.header[i]] = strings.TrimSpace(v)
	}
	return Record{Row: s.row, Fields: rec}, nil
}

// SliceSource replays records already held in memory, numbered from 1.
type SliceSource struct {
	name    string
	records []RawRecord
	pos     int
}

func NewSliceSource(name string, records []RawRecord) *SliceSource {
	return &SliceSource{name: name, records: records}
}

func (s *SliceSource) Name() string { return s.name }

func (s *SliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	s.pos++
	return Record{Row: s.pos, Fields: s.records[s.pos-1]}, nil
}
