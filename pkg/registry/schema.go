// pkg/registry/schema.go
package registry

// AdapterRegistry is the on-disk capability catalog for the resource search
// adapters. One AdapterSpec per resource category.
type AdapterRegistry struct {
	Version     string        `json:"version"`
	LastUpdated string        `json:"lastUpdated"`
	Adapters    []AdapterSpec `json:"adapters"`
}

// AdapterSpec describes what one adapter accepts and how the planner and
// executor may use it.
type AdapterSpec struct {
	Category    string `json:"category"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`

	// ServerSideGeo marks adapters that filter by postal code or city on the
	// backend. Adapters without it get the executor's local refinement pass.
	ServerSideGeo bool `json:"serverSideGeo"`

	// ParamSchema is a JSON Schema constraining the adapter's parameter
	// mapping. Params outside the schema are a planner error, not something
	// the adapter silently ignores.
	ParamSchema map[string]interface{} `json:"paramSchema"`

	// TimeoutMS bounds one adapter call. Zero falls back to the global
	// adapter timeout.
	TimeoutMS int `json:"timeoutMs"`

	// Fallbacks is the ordered fallback chain for sequential plans.
	Fallbacks []string `json:"fallbacks"`
}
