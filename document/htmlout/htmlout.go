// Package htmlout renders extracted document blocks as a standalone HTML page.
package htmlout

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"converteasy/document/docxread"
)

// DefaultTitle is used when the caller does not name the page.
const DefaultTitle = "Converted Document"

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
h1, h2, h3 { color: #333; }
p { line-height: 1.6; margin: 10px 0; }
table { border-collapse: collapse; width: 100%; margin: 10px 0; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; }
img { max-width: 100%; height: auto; }
</style>
</head>
<body>
{{- range .Blocks}}
{{- if .IsTable}}
<table>
{{- range .Table}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- else}}
<p>{{.Paragraph}}</p>
{{- end}}
{{- end}}
</body>
</html>
`))

type pageData struct {
	Title  string
	Blocks []docxread.Block
}

// Render writes blocks as an HTML document. Text is escaped by the
// template engine.
func Render(w io.Writer, title string, blocks []docxread.Block) error {
	if title == "" {
		title = DefaultTitle
	}
	return page.Execute(w, pageData{Title: title, Blocks: blocks})
}

// WriteFile renders blocks into the file at path.
func WriteFile(path, title string, blocks []docxread.Block) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := Render(f, title, blocks); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
