// Package document holds the format independent text handling shared by the
// conversion backends.
package document

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultChunkMaxLen    = 800
	DefaultChunkThreshold = 1000
)

// Chunker splits extracted text into units small enough for the output
// writers. Lengths are measured in runes.
type Chunker struct {
	// MaxLen bounds the length of every chunk cut from a long paragraph.
	MaxLen int
	// Threshold is the paragraph length above which a paragraph is chunked.
	Threshold int
}

// NewChunker returns a chunker, falling back to the defaults for
// non-positive values.
func NewChunker(maxLen, threshold int) Chunker {
	if maxLen <= 0 {
		maxLen = DefaultChunkMaxLen
	}
	if threshold <= 0 {
		threshold = DefaultChunkThreshold
	}
	return Chunker{MaxLen: maxLen, Threshold: threshold}
}

// Paragraphs splits text on blank lines and drops empty paragraphs.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Chunks splits text into paragraphs and chunks the long ones.
func (c Chunker) Chunks(text string) []string {
	var out []string
	for _, p := range Paragraphs(text) {
		out = append(out, c.Split(p)...)
	}
	return out
}

// Split chunks a single paragraph when it exceeds the threshold. Cuts
// prefer the last whitespace inside the window and fall back to a hard cut
// at MaxLen. Only whitespace at a cut is dropped. MaxLen bounds only chunks
// cut from paragraphs longer than Threshold; a shorter paragraph is returned
// whole even when it exceeds MaxLen.
func (c Chunker) Split(paragraph string) []string {
	paragraph = strings.TrimSpace(paragraph)
	if paragraph == "" {
		return nil
	}
	if c.MaxLen <= 0 || utf8.RuneCountInString(paragraph) <= c.Threshold {
		return []string{paragraph}
	}

	var chunks []string
	rest := []rune(paragraph)
	for {
		rest = trimLeftSpace(rest)
		if len(rest) == 0 {
			break
		}
		if len(rest) <= c.MaxLen {
			chunks = append(chunks, string(rest))
			break
		}

		cut := c.MaxLen
		if i := lastSpace(rest[:c.MaxLen+1]); i > 0 {
			cut = i
		}
		chunks = append(chunks, strings.TrimRightFunc(string(rest[:cut]), unicode.IsSpace))
		rest = rest[cut:]
	}
	return chunks
}

func trimLeftSpace(r []rune) []rune {
	for len(r) > 0 && unicode.IsSpace(r[0]) {
		r = r[1:]
	}
	return r
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if unicode.IsSpace(r[i]) {
			return i
		}
	}
	return -1
}
