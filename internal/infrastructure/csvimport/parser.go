// Package csvimport reads school rosters exported from spreadsheets.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// recordReader yields one record per call and io.EOF at the end.
// *csv.Reader satisfies it.
type recordReader interface {
	Read() ([]string, error)
}

// Parser reads a tabular file whose header names are matched
// case-insensitively. The records come from a CSV stream or a workbook sheet.
type Parser struct {
	delimiter  rune
	headers    []string
	headerMap  map[string]int
	currentRow int
	reader     recordReader
	closer     io.Closer
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// NewParser wraps r, strips a UTF-8 BOM and checks the encoding
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		delimiter: ',',
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	sample, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(sample))) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8(sample, err == io.EOF) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(br)
	cr.Comma = p.delimiter
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	p.reader = cr
	return p, nil
}

// validUTF8 checks a peeked sample. When the sample was cut short, a rune
// split at the window edge is not treated as invalid.
func validUTF8(b []byte, complete bool) bool {
	if complete {
		return utf8.Valid(b)
	}
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return false
}

// Close releases the underlying workbook, if any
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// ParseHeader reads the header row
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		key := NormalizeHeader(h)
		p.headers[i] = key
		if _, dup := p.headerMap[key]; !dup && key != "" {
			p.headerMap[key] = i
		}
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the normalized header names in column order
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader reports whether a normalized header is present
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerMap[NormalizeHeader(name)]
	return ok
}

// Row is one data line keyed by normalized header
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value of the first alias that is present and non-empty
func (r *Row) Get(aliases ...string) string {
	for _, a := range aliases {
		if v := r.Data[NormalizeHeader(a)]; v != "" {
			return v
		}
	}
	return ""
}

// IsEmpty reports whether every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow returns the next row or io.EOF
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}

	row := &Row{
		LineNumber: p.currentRow,
		Data:       make(map[string]string, len(p.headerMap)),
	}
	for key, i := range p.headerMap {
		if i < len(record) {
			row.Data[key] = strings.TrimSpace(record[i])
		}
	}
	return row, nil
}

// NormalizeHeader lowercases a header and collapses inner whitespace
func NormalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}
