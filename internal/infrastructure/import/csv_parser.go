// Package csvimport reads spreadsheet exports (leads, contacts) as
// header-keyed rows.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// utf8BOM is stripped from the start of the file when present
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads a CSV file whose first row names the columns
type Parser struct {
	delimiter  rune
	maxRows    int
	headers    []string
	headerMap  map[string]int
	currentRow int
	reader     *csv.Reader
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// WithMaxRows caps the number of data rows; 0 means unlimited
func WithMaxRows(n int) ParserOption {
	return func(p *Parser) {
		p.maxRows = n
	}
}

// NewParser creates a parser and reads the header row.
// Header names are normalized with NormalizeHeader.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		delimiter: ',',
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); len(head) == len(utf8BOM) && string(head) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	sample, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(sample))) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(sample)) {
		return nil, ErrInvalidEncoding
	}

	p.reader = csv.NewReader(br)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1

	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// trimPartialRune drops up to three trailing bytes of a rune cut off by
// the peek window
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0 && !utf8.Valid(b); i++ {
		b = b[:len(b)-1]
	}
	return b
}

func (p *Parser) readHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := NormalizeHeader(h)
		p.headers[i] = name
		if name == "" {
			continue
		}
		if _, dup := p.headerMap[name]; dup {
			return &RowError{Row: 1, Column: name, Code: ErrCodeInvalidHeader, Message: "duplicate column"}
		}
		p.headerMap[name] = i
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// NormalizeHeader lowercases a column name and joins words with underscores,
// so "Customer Name" and "customer_name" are the same column
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	}), "_")
}

// Headers returns the normalized header names in file order
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader reports whether a column is present
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// MissingHeaders returns the required columns the file lacks
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data row keyed by normalized header
type Row struct {
	// LineNumber is the 1-based line in the file, counting the header
	LineNumber int
	Data       map[string]string
}

// Get returns the trimmed value of a column, or "" when absent
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty reports whether every field is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Next returns the next non-empty row, or io.EOF at the end of the file
func (p *Parser) Next() (*Row, error) {
	for {
		record, err := p.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &RowError{Row: parseErr.Line, Code: ErrCodeMalformedRow, Message: parseErr.Err.Error()}
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		p.currentRow++
		if p.maxRows > 0 && p.currentRow > p.maxRows {
			return nil, ErrTooManyRows
		}

		line, _ := p.reader.FieldPos(0)
		row := &Row{LineNumber: line, Data: make(map[string]string, len(p.headerMap))}
		for name, i := range p.headerMap {
			if i < len(record) {
				row.Data[name] = strings.TrimSpace(record[i])
			} else {
				row.Data[name] = ""
			}
		}
		if row.IsEmpty() {
			continue
		}
		return row, nil
	}
}

// RowsRead returns how many data rows have been consumed so far
func (p *Parser) RowsRead() int {
	return p.currentRow
}
