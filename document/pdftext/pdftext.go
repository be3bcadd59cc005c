// Package pdftext extracts text from PDF files. Each function reads the file
// through a different path of the parser so the conversion backends built
// on top of them fail independently.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the text found on one page, numbered from 1.
type Page struct {
	Number int
	Text   string
}

// Empty reports whether the page has no visible text.
func (p Page) Empty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// PlainText extracts the text of the whole document in one pass.
func PlainText(path string) (text string, err error) {
	defer recoverParse(&err)

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rd); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return buf.String(), nil
}

// Pages extracts the plain text of every page.
func Pages(path string) (pages []Page, err error) {
	defer recoverParse(&err)

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}

		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

// PageRows rebuilds the text of every page row by row from the positioned
// words, one line per row.
func PageRows(path string) (pages []Page, err error) {
	defer recoverParse(&err)

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}

		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d rows: %w", i, err)
		}

		var sb strings.Builder
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			if s := strings.TrimSpace(line.String()); s != "" {
				sb.WriteString(s)
				sb.WriteByte('\n')
			}
		}
		pages = append(pages, Page{Number: i, Text: sb.String()})
	}
	return pages, nil
}

// The parser panics on some malformed streams instead of returning errors.
func recoverParse(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed pdf: %v", r)
	}
}
