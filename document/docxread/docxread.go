// Package docxread pulls the text structure out of Word documents.
package docxread

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

// Block is a body level element: either a paragraph or a table.
type Block struct {
	Paragraph string
	Table     [][]string
}

// IsTable reports whether the block holds a table.
func (b Block) IsTable() bool {
	return b.Table != nil
}

// Document is the ordered body of a Word document.
type Document struct {
	Blocks []Block
}

// Read parses the body of the document at path, keeping the order of
// paragraphs and tables.
func Read(path string) (*Document, error) {
	var doc *Document
	err := withDocumentPart(path, func(r io.Reader) error {
		var err error
		doc, err = parseBody(xml.NewDecoder(r))
		return err
	})
	return doc, err
}

// Paragraphs returns the text of every paragraph anywhere in the document,
// table cells included, in document order.
func Paragraphs(path string) ([]string, error) {
	var out []string
	err := withDocumentPart(path, func(r io.Reader) error {
		dec := xml.NewDecoder(r)
		for {
			tok, err := dec.Token()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("decode %s: %w", documentPart, err)
			}
			if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "p" {
				text, err := readParagraph(dec)
				if err != nil {
					return err
				}
				out = append(out, text)
			}
		}
	})
	return out, err
}

func withDocumentPart(path string, fn func(io.Reader) error) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", documentPart, err)
		}
		defer rc.Close()
		return fn(rc)
	}
	return fmt.Errorf("docx has no %s", documentPart)
}

func parseBody(dec *xml.Decoder) (*Document, error) {
	doc := &Document{}
	inBody := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if !inBody {
				return nil, fmt.Errorf("%s has no body", documentPart)
			}
			return doc, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", documentPart, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local == "body" {
			inBody = true
			continue
		}
		if !inBody {
			continue
		}

		switch se.Name.Local {
		case "p":
			text, err := readParagraph(dec)
			if err != nil {
				return nil, err
			}
			doc.Blocks = append(doc.Blocks, Block{Paragraph: text})
		case "tbl":
			rows, err := readTable(dec)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = [][]string{}
			}
			doc.Blocks = append(doc.Blocks, Block{Table: rows})
		default:
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("decode %s: %w", documentPart, err)
			}
		}
	}
}

// readParagraph collects the text of the paragraph whose start element was
// just consumed, up to and including its end element.
func readParagraph(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth, inText := 0, false

	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("decode paragraph: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if depth == 0 {
				return sb.String(), nil
			}
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}

// readTable collects cell texts row by row. Nested tables are flattened
// into the cell that holds them.
func readTable(dec *xml.Decoder) ([][]string, error) {
	var rows [][]string
	var cell []string
	inCell := false

	flush := func() {
		if len(rows) == 0 {
			rows = append(rows, nil)
		}
		last := len(rows) - 1
		rows[last] = append(rows[last], strings.Join(cell, "\n"))
		cell, inCell = nil, false
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode table: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				rows = append(rows, []string{})
			case "tc":
				inCell = true
				cell = nil
			case "p":
				text, err := readParagraph(dec)
				if err != nil {
					return nil, err
				}
				if inCell {
					cell = append(cell, text)
				}
			case "tbl":
				nested, err := readTable(dec)
				if err != nil {
					return nil, err
				}
				for _, row := range nested {
					cell = append(cell, strings.Join(row, "\t"))
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tc":
				if inCell {
					flush()
				}
			case "tbl":
				return rows, nil
			}
		}
	}
}
