package backends

import (
	"context"
	"errors"

	"converteasy/document"
)

// ConversionBackend is one strategy for converting a source file into a
// destination file. A nil error means dst was written; the caller still
// checks that it is non-empty.
type ConversionBackend interface {
	Name() string
	Convert(ctx context.Context, src, dst string) error
}

// ErrUnavailable reports that a backend cannot run in this environment. It
// is an ordinary failure for the fallback chain.
var ErrUnavailable = errors.New("backend unavailable")

// Backend names.
const (
	DocxStructuredName = "docx-structured"
	DocxTextName       = "docx-text"
	PDFPlainTextName   = "pdf-plaintext"
	PDFPagesName       = "pdf-pages"
	PDFRowsName        = "pdf-rows"
	PDFSlidesName      = "pdf-slides"
	PDFSlidesRowsName  = "pdf-slides-rows"
)

// New builds a backend by name. The chunker bounds the size of every text
// unit handed to the writers.
func New(name string, chunker document.Chunker) (ConversionBackend, error) {
	switch name {
	case DocxStructuredName:
		return &DocxStructured{Chunker: chunker}, nil
	case DocxTextName:
		return &DocxText{Chunker: chunker}, nil
	case PDFPlainTextName:
		return &PDFPlainText{Chunker: chunker}, nil
	case PDFPagesName:
		return NewPDFPages(chunker), nil
	case PDFRowsName:
		return NewPDFRows(chunker), nil
	case PDFSlidesName:
		return NewPDFSlides(chunker), nil
	case PDFSlidesRowsName:
		return NewPDFSlidesRows(chunker), nil
	default:
		return nil, &UnknownBackendError{Name: name}
	}
}

// UnknownBackendError is returned by New for names it does not know.
type UnknownBackendError struct {
	Name string
}

func (e *UnknownBackendError) Error() string {
	return "unknown backend " + e.Name
}

// Func adapts a plain function into a ConversionBackend.
type Func struct {
	BackendName string
	Fn          func(ctx context.Context, src, dst string) error
}

func (f Func) Name() string {
	return f.BackendName
}

func (f Func) Convert(ctx context.Context, src, dst string) error {
	if f.Fn == nil {
		return ErrUnavailable
	}
	return f.Fn(ctx, src, dst)
}
