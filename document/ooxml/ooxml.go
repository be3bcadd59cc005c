// Package ooxml writes minimal Office Open XML documents: a .docx made of
// plain paragraphs and a .pptx with one title and body slide per page.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
)

// Slide is one title and body slide.
type Slide struct {
	Title string
	Body  string
}

type part struct {
	name string
	data []byte
}

var funcs = template.FuncMap{
	"xml": func(s string) (string, error) {
		var buf bytes.Buffer
		if err := xml.EscapeText(&buf, []byte(stripInvalid(s))); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
	"lines": func(s string) []string {
		return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	},
	"add": func(a, b int) int { return a + b },
}

// WriteDocx writes paragraphs as a Word document to path.
func WriteDocx(path string, paragraphs []string) error {
	doc, err := render(docxDocument, paragraphs)
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}

	return writePackage(path, []part{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/document.xml", doc},
	})
}

// WritePptx writes slides as a presentation to path.
func WritePptx(path string, slides []Slide) error {
	parts := []part{}

	ct, err := render(pptxContentTypes, slides)
	if err != nil {
		return fmt.Errorf("render content types: %w", err)
	}
	pres, err := render(pptxPresentation, slides)
	if err != nil {
		return fmt.Errorf("render presentation: %w", err)
	}
	presRels, err := render(pptxPresentationRels, slides)
	if err != nil {
		return fmt.Errorf("render presentation rels: %w", err)
	}

	parts = append(parts,
		part{"[Content_Types].xml", ct},
		part{"_rels/.rels", []byte(pptxRels)},
		part{"ppt/presentation.xml", pres},
		part{"ppt/_rels/presentation.xml.rels", presRels},
		part{"ppt/slideMasters/slideMaster1.xml", []byte(pptxSlideMaster)},
		part{"ppt/slideMasters/_rels/slideMaster1.xml.rels", []byte(pptxSlideMasterRels)},
		part{"ppt/slideLayouts/slideLayout1.xml", []byte(pptxSlideLayout)},
		part{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", []byte(pptxSlideLayoutRels)},
		part{"ppt/theme/theme1.xml", []byte(pptxTheme)},
	)

	for i, s := range slides {
		data, err := render(pptxSlide, s)
		if err != nil {
			return fmt.Errorf("render slide %d: %w", i+1, err)
		}
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), data},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), []byte(pptxSlideRels)},
		)
	}

	return writePackage(path, parts)
}

func render(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePackage(path string, parts []part) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return writeZip(f, parts)
}

func writeZip(w io.Writer, parts []part) error {
	zw := zip.NewWriter(w)
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("add %s: %w", p.name, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

// stripInvalid drops runes XML 1.0 cannot carry, such as the control
// characters some PDF extractors emit.
func stripInvalid(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		case r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}
