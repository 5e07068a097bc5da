// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
)

// Load reads and indexes the adapter registry from disk.
func Load(path string) (*AdapterRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg AdapterRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, a := range reg.Adapters {
		if a.Category == "" {
			return nil, fmt.Errorf("registry %s: adapter with empty category", path)
		}
		if seen[a.Category] {
			return nil, fmt.Errorf("registry %s: duplicate category %q", path, a.Category)
		}
		seen[a.Category] = true
	}
	return &reg, nil
}

// Get returns the spec for a category.
func (r *AdapterRegistry) Get(category string) (AdapterSpec, bool) {
	for _, a := range r.Adapters {
		if a.Category == category {
			return a, true
		}
	}
	return AdapterSpec{}, false
}

// Categories lists every registered category in file order.
func (r *AdapterRegistry) Categories() []string {
	out := make([]string, 0, len(r.Adapters))
	for _, a := range r.Adapters {
		out = append(out, a.Category)
	}
	return out
}

// ValidateParams checks an adapter parameter mapping against the category's
// JSON Schema. A category without a schema accepts anything.
func (r *AdapterRegistry) ValidateParams(category string, params map[string]interface{}) error {
	spec, ok := r.Get(category)
	if !ok {
		return fmt.Errorf("unknown adapter category %q", category)
	}
	if spec.ParamSchema == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(spec.ParamSchema),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		return fmt.Errorf("schema validation for %q: %w", category, err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("params for %q rejected: %s", category, first.String())
	}
	return nil
}
