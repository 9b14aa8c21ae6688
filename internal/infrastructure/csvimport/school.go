package csvimport

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Header aliases, matched case-insensitively in order
var (
	NameColumns     = []string{"nama sekolah", "sekolah", "nama"}
	NPSNColumns     = []string{"npsn"}
	LevelColumns    = []string{"jenjang", "jenis", "tingkat"}
	StatusColumns   = []string{"status"}
	AddressColumns  = []string{"alamat", "address"}
	StudentColumns  = []string{"siswa", "jumlah siswa", "jml siswa", "total siswa"}
	TeacherColumns  = []string{"guru", "jumlah guru", "jml guru", "total guru"}
	ClassColumns    = []string{"rombel", "jumlah rombel", "jml rombel"}
	LatColumns      = []string{"lat", "latitude"}
	LngColumns      = []string{"lng", "longitude", "long"}
	WhatsappColumns = []string{"wa", "kontak wa", "whatsapp"}
	EmailColumns    = []string{"email", "kontak email"}
)

var (
	nonDigit   = regexp.MustCompile(`\D`)
	nonNumeric = regexp.MustCompile(`[^0-9.\-]`)
)

// SchoolRow is one school parsed from a roster
type SchoolRow struct {
	Line         int
	Name         string
	NPSN         string
	Level        string
	Status       string
	Address      string
	StudentCount *int
	TeacherCount *int
	ClassCount   *int
	Lat          *float64
	Lng          *float64
	Whatsapp     string
	Email        string
}

// SchoolReader turns a roster CSV into SchoolRows
type SchoolReader struct {
	maxRows   int
	maxErrors int
	opts      []ParserOption
}

// SchoolReaderOption configures a SchoolReader
type SchoolReaderOption func(*SchoolReader)

// WithMaxRows caps the number of data rows. Zero means no cap.
func WithMaxRows(n int) SchoolReaderOption {
	return func(r *SchoolReader) {
		r.maxRows = n
	}
}

// WithMaxErrors caps the number of retained row errors
func WithMaxErrors(n int) SchoolReaderOption {
	return func(r *SchoolReader) {
		r.maxErrors = n
	}
}

// WithParserOptions passes options through to the CSV parser
func WithParserOptions(opts ...ParserOption) SchoolReaderOption {
	return func(r *SchoolReader) {
		r.opts = append(r.opts, opts...)
	}
}

// NewSchoolReader creates a reader
func NewSchoolReader(opts ...SchoolReaderOption) *SchoolReader {
	r := &SchoolReader{maxErrors: 100}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read parses every row. File-level problems return an error; row-level
// problems are collected and the row is skipped. Rows without a name and
// without an NPSN are ignored.
func (r *SchoolReader) Read(in io.Reader) ([]SchoolRow, *ErrorCollection, error) {
	p, err := NewParser(in, r.opts...)
	if err != nil {
		return nil, nil, err
	}
	return r.read(p)
}

// ReadWorkbook is Read for an .xlsx workbook. An empty sheet name selects
// the first sheet.
func (r *SchoolReader) ReadWorkbook(in io.Reader, sheet string) ([]SchoolRow, *ErrorCollection, error) {
	p, err := NewWorkbookParser(in, sheet)
	if err != nil {
		return nil, nil, err
	}
	defer p.Close()
	return r.read(p)
}

func (r *SchoolReader) read(p *Parser) ([]SchoolRow, *ErrorCollection, error) {
	if err := p.ParseHeader(); err != nil {
		return nil, nil, err
	}
	if !hasAny(p, NameColumns) {
		return nil, nil, ErrMissingNameColumn
	}

	errs := NewErrorCollection(r.maxErrors)
	var rows []SchoolRow
	seen := make(map[string]int)
	count := 0

	for {
		row, err := p.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs.Add(RowError{Row: p.currentRow, Code: ErrCodeMalformedRow, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}
		count++
		if r.maxRows > 0 && count > r.maxRows {
			return nil, nil, fmt.Errorf("%w (%d)", ErrTooManyRows, r.maxRows)
		}

		school, rowErrs := parseSchoolRow(row)
		if len(rowErrs) > 0 {
			for _, e := range rowErrs {
				errs.Add(e)
			}
			continue
		}
		if school == nil {
			continue
		}
		if school.NPSN != "" {
			if first, dup := seen[school.NPSN]; dup {
				errs.Add(RowError{
					Row:     row.LineNumber,
					Column:  "npsn",
					Code:    ErrCodeDuplicate,
					Message: fmt.Sprintf("NPSN sudah muncul di baris %d", first),
					Value:   school.NPSN,
				})
				continue
			}
			seen[school.NPSN] = row.LineNumber
		}
		rows = append(rows, *school)
	}
	return rows, errs, nil
}

func parseSchoolRow(row *Row) (*SchoolRow, []RowError) {
	name := row.Get(NameColumns...)
	npsn := nonDigit.ReplaceAllString(row.Get(NPSNColumns...), "")
	if name == "" && npsn == "" {
		return nil, nil
	}

	var errs []RowError
	if name == "" {
		errs = append(errs, RowError{
			Row:     row.LineNumber,
			Column:  "nama sekolah",
			Code:    ErrCodeRequiredField,
			Message: "nama sekolah wajib diisi",
		})
	}

	s := &SchoolRow{
		Line:     row.LineNumber,
		Name:     name,
		NPSN:     npsn,
		Level:    row.Get(LevelColumns...),
		Status:   row.Get(StatusColumns...),
		Address:  row.Get(AddressColumns...),
		Whatsapp: row.Get(WhatsappColumns...),
		Email:    row.Get(EmailColumns...),
	}

	intField := func(column string, aliases []string) *int {
		raw := row.Get(aliases...)
		n, ok, err := parseCount(raw)
		if err != nil {
			errs = append(errs, RowError{Row: row.LineNumber, Column: column, Code: ErrCodeInvalidType, Message: "harus berupa angka", Value: raw})
			return nil
		}
		if !ok {
			return nil
		}
		if n < 0 {
			errs = append(errs, RowError{Row: row.LineNumber, Column: column, Code: ErrCodeInvalidRange, Message: "tidak boleh negatif", Value: raw})
			return nil
		}
		return &n
	}
	floatField := func(column string, aliases []string, limit float64) *float64 {
		raw := row.Get(aliases...)
		f, ok, err := parseNumber(raw)
		if err != nil {
			errs = append(errs, RowError{Row: row.LineNumber, Column: column, Code: ErrCodeInvalidType, Message: "harus berupa angka", Value: raw})
			return nil
		}
		if !ok {
			return nil
		}
		if f < -limit || f > limit {
			errs = append(errs, RowError{Row: row.LineNumber, Column: column, Code: ErrCodeInvalidRange, Message: fmt.Sprintf("harus di antara -%g dan %g", limit, limit), Value: raw})
			return nil
		}
		return &f
	}

	s.StudentCount = intField("siswa", StudentColumns)
	s.TeacherCount = intField("guru", TeacherColumns)
	s.ClassCount = intField("rombel", ClassColumns)
	s.Lat = floatField("lat", LatColumns, 90)
	s.Lng = floatField("lng", LngColumns, 180)

	if len(errs) > 0 {
		return nil, errs
	}
	return s, nil
}

// parseNumber strips everything except digits, dots and minus signs.
// ok is false for a blank cell.
func parseNumber(raw string) (float64, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, false, nil
	}
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, false, fmt.Errorf("not a number: %q", raw)
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

// parseCount parses a whole number. Thousands separators are accepted.
func parseCount(raw string) (int, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, false, nil
	}
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	if cleaned == "" {
		return 0, false, fmt.Errorf("not a number: %q", raw)
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func hasAny(p *Parser, aliases []string) bool {
	for _, a := range aliases {
		if p.HasHeader(a) {
			return true
		}
	}
	return false
}
