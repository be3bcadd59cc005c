package backends

import (
	"context"
	"fmt"
	"strings"

	"converteasy/document"
	"converteasy/document/docxread"
	"converteasy/document/htmlout"
)

// DocxStructured renders the paragraphs and tables of a Word document in
// body order.
type DocxStructured struct {
	Chunker document.Chunker
}

func (b *DocxStructured) Name() string { return DocxStructuredName }

func (b *DocxStructured) Convert(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := docxread.Read(src)
	if err != nil {
		return fmt.Errorf("read word document: %w", err)
	}

	var blocks []docxread.Block
	for _, block := range doc.Blocks {
		if block.IsTable() {
			blocks = append(blocks, block)
			continue
		}
		for _, chunk := range b.Chunker.Split(block.Paragraph) {
			blocks = append(blocks, docxread.Block{Paragraph: chunk})
		}
	}
	if len(blocks) == 0 {
		blocks = []docxread.Block{{Paragraph: document.EmptyDocumentText}}
	}

	return htmlout.WriteFile(dst, htmlout.DefaultTitle, blocks)
}

// DocxText ignores document structure and emits every non-empty paragraph,
// table cells included, as its own HTML paragraph.
type DocxText struct {
	Chunker document.Chunker
}

func (b *DocxText) Name() string { return DocxTextName }

func (b *DocxText) Convert(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paragraphs, err := docxread.Paragraphs(src)
	if err != nil {
		return fmt.Errorf("read word text: %w", err)
	}

	var blocks []docxread.Block
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		for _, chunk := range b.Chunker.Split(p) {
			blocks = append(blocks, docxread.Block{Paragraph: chunk})
		}
	}
	if len(blocks) == 0 {
		blocks = []docxread.Block{{Paragraph: document.EmptyDocumentText}}
	}

	return htmlout.WriteFile(dst, htmlout.DefaultTitle, blocks)
}
