package recipe

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Row is one line of a bulk import file. Column names follow the CMS
// structure's labels.
type Row struct {
	Title        string `csv:"Denominazione"`
	Presentation string `csv:"Presentazione"`
	Difficulty   string `csv:"Difficolta"`
	Preparation  string `csv:"Preparazione"`
	Cooking      string `csv:"Cottura"`
	Servings     string `csv:"Dosi"`
	Cost         string `csv:"Costo"`
	Ingredients  string `csv:"Ingredienti"`
	Locations    string `csv:"RiferimentoGeografico"`
	Category     string `csv:"CategoriaRicetta"`

	// Line is the source line the record starts on; the header is line 1.
	// For workbooks it is the sheet row number.
	Line int `csv:"-"`
}

// Recipe converts the row into a Recipe.
func (r Row) Recipe() Recipe {
	return Recipe{
		Title:        r.Title,
		Presentation: r.Presentation,
		Difficulty:   r.Difficulty,
		Preparation:  r.Preparation,
		Cooking:      r.Cooking,
		Servings:     r.Servings,
		Cost:         r.Cost,
		Ingredients:  r.Ingredients,
		Locations:    r.Locations,
		Category:     r.Category,
	}
}

func (r Row) blank() bool {
	r.Line = 0
	return r == Row{}
}

// RowError describes a row that could not be decoded or submitted.
type RowError struct {
	Line  int    `json:"line"`
	Title string `json:"title,omitempty"`
	Error string `json:"error"`
}

// ReadCSV decodes delimited rows. A UTF-8 byte order mark is dropped,
// missing columns decode as empty, and malformed lines are reported
// without stopping the read.
func ReadCSV(src io.Reader, delimiter rune) ([]Row, []RowError, error) {
	rd := csv.NewReader(transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	rd.Comma = delimiter
	rd.FieldsPerRecord = -1
	rd.LazyQuotes = true

	return decodeRows(rd)
}

// ReadXLSX decodes the first sheet of a workbook; its first row is the header.
func ReadXLSX(src io.Reader) ([]Row, []RowError, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, eris.Wrap(err, "recipe: read xlsx")
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, eris.Wrap(err, "recipe: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.New("recipe: xlsx has no sheets")
	}

	return decodeRows(&sheetReader{sheet: f.Sheets[0]})
}

func decodeRows(r csvutil.Reader) ([]Row, []RowError, error) {
	fw := &fixedWidthReader{r: r}
	dec, err := csvutil.NewDecoder(fw)
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "recipe: read header")
	}

	var (
		rows    []Row
		rowErrs []RowError
	)
	for {
		var row Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowErrs = append(rowErrs, RowError{Line: parseErr.StartLine, Error: parseErr.Error()})
				continue
			}
			return nil, nil, eris.Wrapf(err, "recipe: decode line %d", fw.line)
		}
		if row.blank() {
			continue
		}
		row.Line = fw.line
		rows = append(rows, row)
	}
	return rows, rowErrs, nil
}

// fieldPositioner reports where a field of the last record starts.
// *csv.Reader implements it.
type fieldPositioner interface {
	FieldPos(field int) (line, column int)
}

// fixedWidthReader trims every value and pads or cuts records to the
// header's width so short lines decode with empty trailing columns. It
// tracks the line the last record started on.
type fixedWidthReader struct {
	r     csvutil.Reader
	width int
	line  int
}

func (f *fixedWidthReader) Read() ([]string, error) {
	rec, err := f.r.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			f.line = parseErr.StartLine
		}
		return nil, err
	}
	if p, ok := f.r.(fieldPositioner); ok {
		f.line, _ = p.FieldPos(0)
	} else {
		f.line++
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	if f.width == 0 {
		f.width = len(rec)
		return rec, nil
	}
	switch {
	case len(rec) < f.width:
		rec = append(rec, make([]string, f.width-len(rec))...)
	case len(rec) > f.width:
		rec = rec[:f.width]
	}
	return rec, nil
}

// sheetReader yields worksheet rows as records.
type sheetReader struct {
	sheet *xlsx.Sheet
	next  int
}

func (s *sheetReader) Read() ([]string, error) {
	if s.next >= len(s.sheet.Rows) {
		return nil, io.EOF
	}
	row := s.sheet.Rows[s.next]
	s.next++
	if row == nil {
		return []string{}, nil
	}
	rec := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		rec[i] = cell.String()
	}
	return rec, nil
}

// sniffXLSX reports whether data starts like a zip archive.
func sniffXLSX(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}
