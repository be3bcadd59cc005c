package backends

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"converteasy/document"
	"converteasy/document/docxread"
	"converteasy/internal/testpdf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChunker = document.NewChunker(20, 30)

func writeDocx(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, "in.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = io.WriteString(w, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+body+`</w:body></w:document>`)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func slideTexts(t *testing.T, path string) []string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	files := make(map[string]*zip.File)
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var slides []string
	for i := 1; ; i++ {
		f, ok := files[fmt.Sprintf("ppt/slides/slide%d.xml", i)]
		if !ok {
			return slides
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		slides = append(slides, string(data))
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{
		DocxStructuredName, DocxTextName,
		PDFPlainTextName, PDFPagesName, PDFRowsName,
		PDFSlidesName, PDFSlidesRowsName,
	} {
		t.Run(name, func(t *testing.T) {
			b, err := New(name, testChunker)
			require.NoError(t, err)
			assert.Equal(t, name, b.Name())
		})
	}

	_, err := New("libreoffice", testChunker)
	var unknown *UnknownBackendError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "libreoffice", unknown.Name)
}

func TestFunc(t *testing.T) {
	f := Func{BackendName: "stub"}
	assert.Equal(t, "stub", f.Name())
	assert.ErrorIs(t, f.Convert(context.Background(), "a", "b"), ErrUnavailable)

	called := false
	f.Fn = func(ctx context.Context, src, dst string) error {
		called = true
		return nil
	}
	require.NoError(t, f.Convert(context.Background(), "a", "b"))
	assert.True(t, called)
}

func TestDocxStructured(t *testing.T) {
	dir := t.TempDir()
	src := writeDocx(t, dir,
		para("Intro &amp; summary")+
			`<w:tbl><w:tr><w:tc>`+para("k")+`</w:tc><w:tc>`+para("v")+`</w:tc></w:tr></w:tbl>`+
			para("")+
			para("one two three four five six seven eight nine"))
	dst := filepath.Join(dir, "out.html")

	require.NoError(t, (&DocxStructured{Chunker: testChunker}).Convert(context.Background(), src, dst))

	out := readFile(t, dst)
	assert.Contains(t, out, "<p>Intro &amp; summary</p>")
	assert.Contains(t, out, "<tr><td>k</td><td>v</td></tr>")
	assert.NotContains(t, out, "<p></p>")
	assert.Contains(t, out, "<p>one two three four</p>")
	assert.Less(t, strings.Index(out, "<table>"), strings.Index(out, "one two"))
}

func TestDocxText(t *testing.T) {
	dir := t.TempDir()
	src := writeDocx(t, dir,
		para("first")+
			`<w:tbl><w:tr><w:tc>`+para("cell")+`</w:tc></w:tr></w:tbl>`)
	dst := filepath.Join(dir, "out.html")

	require.NoError(t, (&DocxText{Chunker: testChunker}).Convert(context.Background(), src, dst))

	out := readFile(t, dst)
	assert.Contains(t, out, "<p>first</p>")
	assert.Contains(t, out, "<p>cell</p>")
	assert.NotContains(t, out, "<table>")
}

func TestDocxBackends_EmptyDocumentGetsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	src := writeDocx(t, dir, para("")+para("   "))

	for _, b := range []ConversionBackend{&DocxStructured{Chunker: testChunker}, &DocxText{Chunker: testChunker}} {
		t.Run(b.Name(), func(t *testing.T) {
			dst := filepath.Join(dir, b.Name()+".html")
			require.NoError(t, b.Convert(context.Background(), src, dst))
			assert.Contains(t, readFile(t, dst), document.EmptyDocumentText)
		})
	}
}

func TestDocxBackends_RejectNonZip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.docx")
	require.NoError(t, os.WriteFile(src, []byte("not a zip"), 0o644))

	for _, b := range []ConversionBackend{&DocxStructured{Chunker: testChunker}, &DocxText{Chunker: testChunker}} {
		err := b.Convert(context.Background(), src, filepath.Join(dir, "out.html"))
		assert.Error(t, err, b.Name())
	}
}

func TestPDFToDocBackends(t *testing.T) {
	dir := t.TempDir()
	src := testpdf.WriteFile(t, dir, "in.pdf", []string{"Alpha page", "", "Gamma page"})

	testCases := []struct {
		backend     ConversionBackend
		placeholder bool
	}{
		{&PDFPlainText{Chunker: testChunker}, false},
		{NewPDFPages(testChunker), true},
		{NewPDFRows(testChunker), true},
	}

	for _, tc := range testCases {
		t.Run(tc.backend.Name(), func(t *testing.T) {
			dst := filepath.Join(dir, tc.backend.Name()+".docx")
			require.NoError(t, tc.backend.Convert(context.Background(), src, dst))

			paras, err := docxread.Paragraphs(dst)
			require.NoError(t, err)
			joined := strings.Join(paras, "\n")
			assert.Contains(t, joined, "Alpha page")
			assert.Contains(t, joined, "Gamma page")
			if tc.placeholder {
				assert.Contains(t, paras, document.EmptyPageText(2))
			}
		})
	}
}

func TestPDFPlainText_NoTextGetsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	src := testpdf.WriteFile(t, dir, "in.pdf", []string{""})
	dst := filepath.Join(dir, "out.docx")

	require.NoError(t, (&PDFPlainText{Chunker: testChunker}).Convert(context.Background(), src, dst))

	paras, err := docxread.Paragraphs(dst)
	require.NoError(t, err)
	assert.Equal(t, []string{document.EmptyDocumentText}, paras)
}

func TestPDFSlidesBackends(t *testing.T) {
	dir := t.TempDir()
	src := testpdf.WriteFile(t, dir, "in.pdf", []string{"Slide text", ""})

	for _, b := range []ConversionBackend{NewPDFSlides(testChunker), NewPDFSlidesRows(testChunker)} {
		t.Run(b.Name(), func(t *testing.T) {
			dst := filepath.Join(dir, b.Name()+".pptx")
			require.NoError(t, b.Convert(context.Background(), src, dst))

			slides := slideTexts(t, dst)
			require.Len(t, slides, 2)
			assert.Contains(t, slides[0], "<a:t>Page 1</a:t>")
			assert.Contains(t, slides[0], "Slide text")
			assert.Contains(t, slides[1], "<a:t>Page 2</a:t>")
			assert.Contains(t, slides[1], document.EmptySlideText)
		})
	}
}

func TestPDFBackends_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	src := testpdf.WriteFile(t, dir, "in.pdf", []string{"text"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, b := range []ConversionBackend{&PDFPlainText{Chunker: testChunker}, NewPDFPages(testChunker), NewPDFSlides(testChunker)} {
		err := b.Convert(ctx, src, filepath.Join(dir, "out"))
		assert.True(t, errors.Is(err, context.Canceled), b.Name())
	}
}

func TestPDFBackends_RejectGarbage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 garbage"), 0o644))

	for _, b := range []ConversionBackend{&PDFPlainText{Chunker: testChunker}, NewPDFRows(testChunker), NewPDFSlidesRows(testChunker)} {
		assert.Error(t, b.Convert(context.Background(), src, filepath.Join(dir, "out")), b.Name())
	}
}
