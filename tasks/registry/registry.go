package registry

import (
	"fmt"
	"slices"
	"sync"

	"converteasy/document"
	"converteasy/tasks"
	"converteasy/tasks/backends"
)

// DefaultChains is the built-in backend priority order per direction, most
// general backend first.
var DefaultChains = map[tasks.Direction][]string{
	tasks.DirectionDocToHTML: {backends.DocxStructuredName, backends.DocxTextName},
	tasks.DirectionPDFToDoc:  {backends.PDFPlainTextName, backends.PDFPagesName, backends.PDFRowsName},
	tasks.DirectionPDFToPPT:  {backends.PDFSlidesName, backends.PDFSlidesRowsName},
}

// BackendRegistry maps each conversion direction to its ordered fallback
// chain. Chains are fixed at start-up; nothing reorders them at runtime.
type BackendRegistry struct {
	mu     sync.RWMutex
	chains map[tasks.Direction][]backends.ConversionBackend
}

// NewRegistry constructs an empty backend registry.
func NewRegistry() *BackendRegistry {
	return &BackendRegistry{
		chains: make(map[tasks.Direction][]backends.ConversionBackend),
	}
}

// NewFromNames builds a registry from backend names per direction. Names
// missing from chains fall back to DefaultChains.
func NewFromNames(chains map[tasks.Direction][]string, chunker document.Chunker) (*BackendRegistry, error) {
	r := NewRegistry()

	for _, direction := range tasks.Directions {
		names, ok := chains[direction]
		if !ok || len(names) == 0 {
			names = DefaultChains[direction]
		}
		for _, name := range names {
			b, err := backends.New(name, chunker)
			if err != nil {
				return nil, fmt.Errorf("chain %s: %w", direction, err)
			}
			r.Register(direction, b)
		}
	}

	for direction := range chains {
		if !slices.Contains(tasks.Directions, direction) {
			return nil, fmt.Errorf("chain for unsupported direction %q", direction)
		}
	}
	return r, nil
}

// NewDefault builds the registry with DefaultChains.
func NewDefault(chunker document.Chunker) *BackendRegistry {
	r, err := NewFromNames(nil, chunker)
	if err != nil {
		// DefaultChains only names built-in backends
		panic(err)
	}
	return r
}

// Register appends backends to the end of a direction's chain.
// This should be called during application initialization.
func (r *BackendRegistry) Register(direction tasks.Direction, bs ...backends.ConversionBackend) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chains[direction] = append(r.chains[direction], bs...)
}

// Chain returns a copy of the backends registered for a direction, in
// priority order. ok is false when the direction has no backends.
func (r *BackendRegistry) Chain(direction tasks.Direction) ([]backends.ConversionBackend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.chains[direction]
	if len(chain) == 0 {
		return nil, false
	}
	return slices.Clone(chain), true
}

// Names returns the backend names of a direction's chain.
func (r *BackendRegistry) Names(direction tasks.Direction) []string {
	chain, _ := r.Chain(direction)

	names := make([]string, 0, len(chain))
	for _, b := range chain {
		names = append(names, b.Name())
	}
	return names
}

// Directions returns the directions that have at least one backend, sorted.
// This is useful for health checks and API documentation.
func (r *BackendRegistry) Directions() []tasks.Direction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	directions := make([]tasks.Direction, 0, len(r.chains))
	for d, chain := range r.chains {
		if len(chain) > 0 {
			directions = append(directions, d)
		}
	}
	slices.Sort(directions)
	return directions
}
