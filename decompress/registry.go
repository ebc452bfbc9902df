package decompress

import (
	"sync"

	"golang.org/x/exp/slices"
)

// Registry maps a format name to the Decompressor that implements it.
type Registry struct {
	mu            sync.RWMutex
	decompressors map[string]Decompressor
}

var defaultRegistry = &Registry{
	decompressors: make(map[string]Decompressor),
}

// Register adds d to the default registry under d.Name().
func Register(d Decompressor) {
	defaultRegistry.Register(d)
}

// Get retrieves a decompressor by name from the default registry.
func Get(name string) (Decompressor, error) {
	return defaultRegistry.Get(name)
}

// List returns every decompressor registered in the default registry.
func List() []Decompressor {
	return defaultRegistry.List()
}

// Register adds d under d.Name(), replacing any prior registration
// under that name.
func (r *Registry) Register(d Decompressor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decompressors[d.Name()] = d
}

// Get retrieves a decompressor by name.
func (r *Registry) Get(name string) (Decompressor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decompressors[name]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// List returns every registered decompressor, ordered by name so that
// callers iterating it (e.g. to print diagnostics) get a stable order
// independent of map iteration.
func (r *Registry) List() []Decompressor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Decompressor, 0, len(r.decompressors))
	for _, d := range r.decompressors {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Decompressor) int {
		switch {
		case a.Name() < b.Name():
			return -1
		case a.Name() > b.Name():
			return 1
		default:
			return 0
		}
	})
	return out
}
