package backends

import (
	"context"
	"fmt"
	"strings"

	"converteasy/document"
	"converteasy/document/ooxml"
	"converteasy/document/pdftext"
)

type pageExtractor func(path string) ([]pdftext.Page, error)

// PDFPlainText extracts the whole text of a PDF in one pass and writes its
// paragraphs to a Word document.
type PDFPlainText struct {
	Chunker document.Chunker
}

func (b *PDFPlainText) Name() string { return PDFPlainTextName }

func (b *PDFPlainText) Convert(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text, err := pdftext.PlainText(src)
	if err != nil {
		return err
	}

	paragraphs := b.Chunker.Chunks(text)
	if len(paragraphs) == 0 {
		paragraphs = []string{document.EmptyDocumentText}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return ooxml.WriteDocx(dst, paragraphs)
}

// PDFPages writes the text of a PDF page by page, with a placeholder for
// pages without text.
type PDFPages struct {
	name    string
	extract pageExtractor
	chunker document.Chunker
}

// NewPDFPages reads pages with the plain text extractor.
func NewPDFPages(chunker document.Chunker) *PDFPages {
	return &PDFPages{name: PDFPagesName, extract: pdftext.Pages, chunker: chunker}
}

// NewPDFRows rebuilds every page from its text rows.
func NewPDFRows(chunker document.Chunker) *PDFPages {
	return &PDFPages{name: PDFRowsName, extract: pdftext.PageRows, chunker: chunker}
}

func (b *PDFPages) Name() string { return b.name }

func (b *PDFPages) Convert(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pages, err := b.extract(src)
	if err != nil {
		return err
	}

	var paragraphs []string
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if page.Empty() {
			paragraphs = append(paragraphs, document.EmptyPageText(page.Number))
			continue
		}
		paragraphs = append(paragraphs, b.chunker.Chunks(page.Text)...)
	}
	if len(paragraphs) == 0 {
		paragraphs = []string{document.EmptyDocumentText}
	}

	return ooxml.WriteDocx(dst, paragraphs)
}

// PDFSlides makes one slide per PDF page titled with the page number.
type PDFSlides struct {
	name    string
	extract pageExtractor
	chunker document.Chunker
}

// NewPDFSlides reads slide bodies with the plain text extractor.
func NewPDFSlides(chunker document.Chunker) *PDFSlides {
	return &PDFSlides{name: PDFSlidesName, extract: pdftext.Pages, chunker: chunker}
}

// NewPDFSlidesRows reads slide bodies from the text rows of every page.
func NewPDFSlidesRows(chunker document.Chunker) *PDFSlides {
	return &PDFSlides{name: PDFSlidesRowsName, extract: pdftext.PageRows, chunker: chunker}
}

func (b *PDFSlides) Name() string { return b.name }

func (b *PDFSlides) Convert(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pages, err := b.extract(src)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("pdf has no pages")
	}

	slides := make([]ooxml.Slide, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		body := document.EmptySlideText
		if !page.Empty() {
			body = strings.Join(b.chunker.Chunks(page.Text), "\n")
		}
		slides = append(slides, ooxml.Slide{Title: document.PageTitle(page.Number), Body: body})
	}

	return ooxml.WritePptx(dst, slides)
}
