package document

import "fmt"

// Placeholders written instead of content when a source yields no text, so
// sparse documents still convert.
const (
	EmptyDocumentText = "This file has no extractable text content"
	EmptySlideText    = "No text content"
)

// EmptyPageText returns the placeholder written for a page without text.
func EmptyPageText(page int) string {
	return fmt.Sprintf("Page %d - no text content", page)
}

// PageTitle is the title of the slide made from a page.
func PageTitle(page int) string {
	return fmt.Sprintf("Page %d", page)
}
