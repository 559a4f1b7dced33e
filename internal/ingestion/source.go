// Package ingestion turns typed input and uploaded CSV/PDF files into an ordered list of company names.
package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NameList is the ordered list of company names for one run. Duplicates are allowed.
type NameList []string

// SourceKind identifies which extractor an upload was resolved to.
type SourceKind string

const (
	SourceCSV SourceKind = "csv"
	SourcePDF SourceKind = "pdf"
)

// Source produces company names from an uploaded file.
type Source interface {
	Kind() SourceKind
	Filename() string
	ExtractNames() (NameList, error)
}

// Detect resolves an upload to its source variant by filename suffix.
// Anything that does not end in ".pdf" is treated as CSV text.
func Detect(filename string, data []byte) Source {
	if strings.HasSuffix(filename, ".pdf") {
		return &PDFSource{name: filename, data: data}
	}
	return &CSVSource{name: filename, data: data}
}

// Preview is the decoded file content and parsed table of a CSV upload.
type Preview struct {
	Content  string     `json:"content"`
	Encoding Encoding   `json:"encoding"`
	Header   []string   `json:"header"`
	Rows     [][]string `json:"rows"`
}

// CSVSource extracts names from the first column of a CSV file with a header row.
type CSVSource struct {
	name string
	data []byte

	// Preview is populated by a successful ExtractNames call.
	Preview *Preview
}

func (s *CSVSource) Kind() SourceKind { return SourceCSV }

func (s *CSVSource) Filename() string { return s.name }

// ExtractNames decodes the file and returns the first-column value of every data row.
// Empty cells are skipped; other values are kept exactly as written.
func (s *CSVSource) ExtractNames() (NameList, error) {
	text, enc, err := DecodeText(s.data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Filename: s.name, Kind: SourceCSV, Message: "file has no header row"}
	}
	if err != nil {
		return nil, &ParseError{Filename: s.name, Kind: SourceCSV, Message: "failed to read header", Cause: err}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Filename: s.name, Kind: SourceCSV, Message: "failed to read rows", Cause: err}
	}

	s.Preview = &Preview{
		Content:  text,
		Encoding: enc,
		Header:   header,
		Rows:     rows,
	}

	names := make(NameList, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		names = append(names, row[0])
	}
	return names, nil
}

// PDFSource extracts one candidate name per non-blank line of PDF text.
type PDFSource struct {
	name string
	data []byte
}

func (s *PDFSource) Kind() SourceKind { return SourcePDF }

func (s *PDFSource) Filename() string { return s.name }

// ExtractNames reads the text of every page and splits it into names.
func (s *PDFSource) ExtractNames() (NameList, error) {
	text, err := s.Text()
	if err != nil {
		return nil, err
	}
	return NamesFromText(text), nil
}

// Text returns the text of all pages, one visual row per line, pages in order.
func (s *PDFSource) Text() (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(s.data), int64(len(s.data)))
	if err != nil {
		return "", &ParseError{Filename: s.name, Kind: SourcePDF, Message: "failed to open PDF", Cause: err}
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines, err := pageLines(page)
		if err != nil {
			return "", &ParseError{Filename: s.name, Kind: SourcePDF, Message: fmt.Sprintf("failed to extract text from page %d", i), Cause: err}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}

	return strings.Join(pages, "\n"), nil
}

// pageLines groups the glyphs of a page into rows by baseline, top to bottom,
// and joins each row left to right.
func pageLines(page pdf.Page) (lines []string, err error) {
	// The reader panics on malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			lines = nil
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	type row struct {
		y     float64
		glyph []pdf.Text
	}
	var rows []*row
	byY := make(map[float64]*row)

	for _, t := range page.Content().Text {
		if t.S == "\n" {
			continue
		}
		y := math.Round(t.Y)
		r, ok := byY[y]
		if !ok {
			r = &row{y: y}
			byY[y] = r
			rows = append(rows, r)
		}
		r.glyph = append(r.glyph, t)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines = make([]string, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.glyph, func(i, j int) bool { return r.glyph[i].X < r.glyph[j].X })
		var sb strings.Builder
		for _, g := range r.glyph {
			sb.WriteString(g.S)
		}
		lines = append(lines, sb.String())
	}
	return lines, nil
}

// NamesFromText splits extracted text into lines, trims each one and drops blank lines.
func NamesFromText(text string) NameList {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var names NameList
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}
