// Package tabular reads the registry files (delimited text, XLSX workbooks
// and text documents) into source tables.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/source"
)

// ErrUnsupportedFormat is returned for file types the reader cannot parse,
// notably legacy binary .xls workbooks.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Supported text encodings.
const (
	UTF8      = "utf-8"
	CP1252    = "cp1252"
	ISO8859_2 = "iso-8859-2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options describes how to cut a table out of a file.
type Options struct {
	// Delimiter of delimited text; ',' when zero.
	Delimiter rune
	// Encoding of delimited text and documents; UTF-8 when empty.
	Encoding string
	// NoHeader synthesizes a header of column positions ("0", "1", …).
	NoHeader bool
	// SkipRows drops leading rows before the header.
	SkipRows int
	// SkipFooter drops trailing rows.
	SkipFooter int
	// Sheet selects a workbook sheet; the first sheet when empty.
	Sheet string
	// AllSheets returns one table per sheet.
	AllSheets bool
}

// Read parses path according to its extension. Delimited text yields one
// table, workbooks one per selected sheet.
func Read(path string, opts Options) ([]source.Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt", ".tsv":
		t, err := ReadCSV(path, opts)
		if err != nil {
			return nil, err
		}
		return []source.Table{t}, nil
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, opts)
	default:
		return nil, fmt.Errorf("read %s: %w %q", path, ErrUnsupportedFormat, ext)
	}
}

// ReadCSV reads a delimited text file.
func ReadCSV(path string, opts Options) (source.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return source.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParseCSV(f, filepath.Base(path), opts)
}

// ParseCSV reads delimited text from r.
func ParseCSV(r io.Reader, name string, opts Options) (source.Table, error) {
	r, err := decode(r, opts.Encoding)
	if err != nil {
		return source.Table{}, fmt.Errorf("decode %s: %w", name, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return source.Table{}, fmt.Errorf("read %s: %w", name, err)
	}

	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.Comma = ','
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return source.Table{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return cut(name, rows, opts), nil
}

// ReadXLSX reads the selected sheets of a workbook. Cell values are read
// raw, so dates arrive as spreadsheet serial numbers.
func ReadXLSX(path string, opts Options) ([]source.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	switch {
	case opts.AllSheets:
	case opts.Sheet != "":
		sheets = []string{opts.Sheet}
	case len(sheets) > 0:
		sheets = sheets[:1]
	}

	tables := make([]source.Table, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
		}
		tables = append(tables, cut(filepath.Base(path)+"#"+sheet, rows, opts))
	}
	return tables, nil
}

// ReadText reads a whole document and converts it to UTF-8.
func ReadText(path, enc string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r, err := decode(f, enc)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func decode(r io.Reader, enc string) (io.Reader, error) {
	var e encoding.Encoding
	switch strings.ToLower(enc) {
	case "", UTF8, "utf8":
		return r, nil
	case CP1252, "windows-1252":
		e = charmap.Windows1252
	case ISO8859_2, "latin2":
		e = charmap.ISO8859_2
	default:
		return nil, fmt.Errorf("%w: encoding %q", ErrUnsupportedFormat, enc)
	}
	return e.NewDecoder().Reader(r), nil
}

// cut applies the header and skip options to raw rows.
func cut(name string, rows [][]string, opts Options) source.Table {
	t := source.Table{Name: name}
	if opts.SkipRows >= len(rows) {
		return t
	}
	rows = rows[opts.SkipRows:]
	if opts.SkipFooter > 0 {
		rows = rows[:max(0, len(rows)-opts.SkipFooter)]
	}
	if len(rows) == 0 {
		return t
	}

	if opts.NoHeader {
		width := 0
		for _, r := range rows {
			width = max(width, len(r))
		}
		t.Header = make([]string, width)
		for i := range width {
			t.Header[i] = strconv.Itoa(i)
		}
		t.Rows = rows
		return t
	}

	t.Header = rows[0]
	t.Rows = rows[1:]
	return t
}
