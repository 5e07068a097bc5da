// internal/search/types.go
package search

// Category identifies one backend search domain.
type Category string

const (
	CategoryFacility                Category = "facility"
	CategoryPractitionerBySpecialty Category = "practitioner_by_specialty"
	CategoryPractitionerByName      Category = "practitioner_by_name"
	CategoryService                 Category = "service"
	CategoryEquipment               Category = "equipment"
	CategoryUnknown                 Category = "unknown"
)

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntitySpecialty       EntityType = "specialty"
	EntityLocation        EntityType = "location"
	EntityPersonName      EntityType = "person_name"
	EntityQuantity        EntityType = "quantity"
	EntityResourceKeyword EntityType = "resource_keyword"
)

// Query is the raw request handed to the engine.
type Query struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	// Context carries caller-resolved overrides (keys: specialty, city,
	// postal_code). An override short-circuits extraction for its entity type.
	Context map[string]string `json:"context,omitempty"`
}

// Entity is one typed match pulled out of the query text. Immutable once extracted.
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"` // canonical value (profession code, postal code, name...)
	Confidence float64    `json:"confidence"`
	Span       string     `json:"span,omitempty"` // source text the entity was matched from
}

// Intent is the classified resource category with its confidence.
type Intent struct {
	Category      Category `json:"category"`
	Confidence    float64  `json:"confidence"`
	Entities      []Entity `json:"entities"`
	LowConfidence bool     `json:"lowConfidence"`
}

// Params is the adapter parameter set, drawn from the fixed vocabulary every
// adapter understands a subset of.
type Params struct {
	SpecialtyCode    string `json:"specialtyCode,omitempty"`
	PostalCode       string `json:"postalCode,omitempty"`
	City             string `json:"city,omitempty"`
	FamilyName       string `json:"familyName,omitempty"`
	GivenName        string `json:"givenName,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
	ResourceType     string `json:"resourceType,omitempty"`
	Count            int    `json:"count,omitempty"`
}

// AsMap returns the set parameters as a generic map, the shape the capability
// registry validates against.
func (p Params) AsMap() map[string]interface{} {
	m := map[string]interface{}{}
	if p.SpecialtyCode != "" {
		m["specialtyCode"] = p.SpecialtyCode
	}
	if p.PostalCode != "" {
		m["postalCode"] = p.PostalCode
	}
	if p.City != "" {
		m["city"] = p.City
	}
	if p.FamilyName != "" {
		m["familyName"] = p.FamilyName
	}
	if p.GivenName != "" {
		m["givenName"] = p.GivenName
	}
	if p.OrganizationName != "" {
		m["organizationName"] = p.OrganizationName
	}
	if p.ResourceType != "" {
		m["resourceType"] = p.ResourceType
	}
	if p.Count > 0 {
		m["count"] = p.Count
	}
	return m
}

// Plan is the executable search strategy for one request.
type Plan struct {
	Primary   Category   `json:"primary"`
	Fallbacks []Category `json:"fallbacks"` // empty when Parallel
	Parallel  bool       `json:"parallel"`
	// Peers are the non-primary categories of a parallel fan-out; they have
	// no precedence among themselves beyond merge order.
	Peers  []Category          `json:"peers,omitempty"`
	Params map[Category]Params `json:"params"`
	// RequestedPostal and RequestedCity are the geography the refinement
	// pass ranks against.
	RequestedPostal string `json:"requestedPostal,omitempty"`
	RequestedCity   string `json:"requestedCity,omitempty"`
	LowConfidence   bool   `json:"lowConfidence"`
}

// Categories returns every planned category, primary first.
func (p *Plan) Categories() []Category {
	out := []Category{p.Primary}
	out = append(out, p.Peers...)
	out = append(out, p.Fallbacks...)
	return out
}

// Item is an opaque backend record. Adapters flatten their native shapes into
// maps; the formatter is the only component that interprets the keys.
type Item map[string]interface{}

// ResourceResult is the outcome of one adapter call.
type ResourceResult struct {
	Category Category `json:"category"`
	Success  bool     `json:"success"`
	Items    []Item   `json:"items"`
	Error    string   `json:"error,omitempty"`
}

// MatchQuality ranks how precisely an item's address matches the requested geography.
type MatchQuality string

const (
	MatchExact    MatchQuality = "exact"
	MatchDistrict MatchQuality = "district"
	MatchRegion   MatchQuality = "region"
	MatchUnknown  MatchQuality = "unknown"
)

// rank orders qualities best-first for the stable refinement sort.
func (q MatchQuality) Rank() int {
	switch q {
	case MatchExact:
		return 0
	case MatchDistrict:
		return 1
	case MatchRegion:
		return 2
	default:
		return 3
	}
}

// Record is the uniform result shape every adapter item is formatted into.
type Record struct {
	ID               string                 `json:"id"`
	DisplayName      string                 `json:"displayName"`
	Fields           map[string]interface{} `json:"fields,omitempty"`
	ResourceCategory Category               `json:"resourceCategory"`
	LocationMatch    MatchQuality           `json:"locationMatch"`
}

// Outcome status values recorded in the trace per attempted category.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
)

// CategoryOutcome is one line of the diagnostic trace.
type CategoryOutcome struct {
	Category   Category `json:"category"`
	Status     string   `json:"status"`
	Error      string   `json:"error,omitempty"`
	ItemCount  int      `json:"itemCount"`
	DurationMS int64    `json:"durationMs"`
}

// Trace records which plan path actually executed.
type Trace struct {
	RequestID     string            `json:"requestId"`
	Mode          string            `json:"mode"` // "sequential" or "parallel"
	Outcomes      []CategoryOutcome `json:"outcomes"`
	ServedBy      Category          `json:"servedBy,omitempty"`
	LowConfidence bool              `json:"lowConfidence"`
	Exhausted     bool              `json:"exhausted"`
}

// AggregatedResponse is the single envelope returned to the caller.
type AggregatedResponse struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Items   []Record `json:"items"`
	Trace   Trace    `json:"trace"`
}

// Item keys adapters agree on when flattening backend records. Only these are
// interpreted outside the adapter that produced them; everything else rides
// along as opaque descriptive fields.
const (
	ItemKeyID          = "id"
	ItemKeyName        = "name"
	ItemKeyFamily      = "family"
	ItemKeyGiven       = "given"
	ItemKeyPrefix      = "prefix"
	ItemKeyCity        = "city"
	ItemKeyPostalCode  = "postalCode"
	ItemKeyOrgRef      = "organizationRef"
	ItemKeyLocMatch    = "locationMatch"
	ItemKeyProfession  = "professionCode"
	ItemKeyServiceType = "serviceType"
	ItemKeyDeviceType  = "deviceType"
)
