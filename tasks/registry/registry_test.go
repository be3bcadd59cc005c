package registry

import (
	"context"
	"testing"

	"converteasy/document"
	"converteasy/tasks"
	"converteasy/tasks/backends"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chunker = document.NewChunker(0, 0)

func stub(name string) backends.ConversionBackend {
	return backends.Func{BackendName: name, Fn: func(context.Context, string, string) error { return nil }}
}

func TestBackendRegistry_RegisterKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(tasks.DirectionPDFToDoc, stub("a"))
	r.Register(tasks.DirectionPDFToDoc, stub("b"), stub("c"))

	assert.Equal(t, []string{"a", "b", "c"}, r.Names(tasks.DirectionPDFToDoc))

	_, ok := r.Chain(tasks.DirectionDocToHTML)
	assert.False(t, ok)
}

func TestBackendRegistry_ChainIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Register(tasks.DirectionPDFToPPT, stub("a"), stub("b"))

	chain, ok := r.Chain(tasks.DirectionPDFToPPT)
	require.True(t, ok)
	chain[0] = stub("changed")

	assert.Equal(t, []string{"a", "b"}, r.Names(tasks.DirectionPDFToPPT))
}

func TestNewDefault(t *testing.T) {
	r := NewDefault(chunker)

	assert.Equal(t, []tasks.Direction{
		tasks.DirectionDocToHTML, tasks.DirectionPDFToDoc, tasks.DirectionPDFToPPT,
	}, r.Directions())
	assert.Equal(t, []string{"docx-structured", "docx-text"}, r.Names(tasks.DirectionDocToHTML))
	assert.Equal(t, []string{"pdf-plaintext", "pdf-pages", "pdf-rows"}, r.Names(tasks.DirectionPDFToDoc))
	assert.Equal(t, []string{"pdf-slides", "pdf-slides-rows"}, r.Names(tasks.DirectionPDFToPPT))
}

func TestNewFromNames(t *testing.T) {
	testCases := []struct {
		name        string
		chains      map[tasks.Direction][]string
		wantPDFDoc  []string
		errContains string
	}{
		{
			name:       "override one direction",
			chains:     map[tasks.Direction][]string{tasks.DirectionPDFToDoc: {"pdf-rows", "pdf-plaintext"}},
			wantPDFDoc: []string{"pdf-rows", "pdf-plaintext"},
		},
		{
			name:       "empty list keeps default",
			chains:     map[tasks.Direction][]string{tasks.DirectionPDFToDoc: {}},
			wantPDFDoc: []string{"pdf-plaintext", "pdf-pages", "pdf-rows"},
		},
		{
			name:        "unknown backend",
			chains:      map[tasks.Direction][]string{tasks.DirectionPDFToDoc: {"abiword"}},
			errContains: "unknown backend abiword",
		},
		{
			name:        "unknown direction",
			chains:      map[tasks.Direction][]string{"html2pdf": {"pdf-pages"}},
			errContains: "unsupported direction",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewFromNames(tc.chains, chunker)
			if tc.errContains != "" {
				require.ErrorContains(t, err, tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantPDFDoc, r.Names(tasks.DirectionPDFToDoc))
			assert.Equal(t, []string{"docx-structured", "docx-text"}, r.Names(tasks.DirectionDocToHTML))
		})
	}
}
