package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheetRecords streams the rows of one worksheet. Gaps between rows come
// back as empty records so line numbers match the sheet.
type sheetRecords struct {
	file *excelize.File
	rows *excelize.Rows
}

func (s *sheetRecords) Read() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return s.rows.Columns(excelize.Options{RawCellValue: true})
}

func (s *sheetRecords) Close() error {
	return errors.Join(s.rows.Close(), s.file.Close())
}

// NewWorkbookParser opens an .xlsx workbook and reads one sheet. An empty
// sheet name selects the first sheet.
func NewWorkbookParser(r io.Reader, sheet string) (*Parser, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	name, err := pickSheet(f, sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	rows, err := f.Rows(name)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	src := &sheetRecords{file: f, rows: rows}
	return &Parser{
		headerMap: make(map[string]int),
		reader:    src,
		closer:    src,
	}, nil
}

// SheetNames lists the sheets of a workbook in tab order
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func pickSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrEmptyFile
	}
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if strings.EqualFold(name, sheet) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
}

// IsWorkbookName reports whether a file name looks like an .xlsx workbook
func IsWorkbookName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(extension(name)), ".xlsx")
}

func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
