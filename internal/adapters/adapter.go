// internal/adapters/adapter.go
package adapters

import (
	"context"

	"sante-search/internal/search"
)

// Adapter is one backend search capability, one per resource category.
// Implementations never panic; a backend or transport problem comes back as
// an error for the executor to isolate. An adapter only filters by the
// parameters its registry schema documents — capability gaps are handled by
// the executor's refinement pass, not hidden here.
type Adapter interface {
	Category() search.Category
	Search(ctx context.Context, params search.Params) ([]search.Item, error)
}

// Set indexes adapters by category for the executor.
type Set map[search.Category]Adapter

func NewSet(list ...Adapter) Set {
	s := Set{}
	for _, a := range list {
		s[a.Category()] = a
	}
	return s
}

func (s Set) Get(category search.Category) (Adapter, bool) {
	a, ok := s[category]
	return a, ok
}
