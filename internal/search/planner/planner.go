// internal/search/planner/planner.go
package planner

import (
	"strconv"

	"sante-search/internal/common/config"
	"sante-search/internal/common/errors"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"
	"sante-search/internal/search/extractor"
	"sante-search/pkg/registry"
)

// Thresholds deciding between sequential fallback and parallel fan-out.
// Parallel is reserved for comparably strong, independent evidence; a weak
// secondary signal only earns a fallback slot.
const (
	parallelMinScore = 2.0
	parallelMaxGap   = 2.0
	ambiguityMaxGap  = 3.0
)

// Planner turns a classified intent into an executable plan: primary
// category, fallback chain or parallel peers, and per-category adapter
// parameters validated against the capability registry.
type Planner struct {
	registry *registry.AdapterRegistry
	cfg      config.SearchConfig
	logger   logger.Logger
}

func New(reg *registry.AdapterRegistry, cfg config.SearchConfig, log logger.Logger) *Planner {
	return &Planner{registry: reg, cfg: cfg, logger: log}
}

// Plan builds the search strategy. A low-confidence intent produces a broad,
// minimally filtered facility search instead of a category guess.
func (p *Planner) Plan(intent search.Intent, scores map[search.Category]float64) (*search.Plan, error) {
	plan := &search.Plan{
		Params:        map[search.Category]search.Params{},
		LowConfidence: intent.LowConfidence,
	}
	if postal, ok := extractor.PostalEntity(intent.Entities); ok {
		plan.RequestedPostal = postal.Value
	}
	if city, ok := extractor.CityEntity(intent.Entities); ok {
		plan.RequestedCity = city.Value
	}

	if intent.LowConfidence || intent.Category == search.CategoryUnknown || missingDefiningEntity(intent) {
		plan.LowConfidence = true
		p.planBroad(plan, intent)
	} else {
		p.planFocused(plan, intent, scores)
	}

	for _, category := range plan.Categories() {
		params := p.resolveParams(category, intent)
		if err := p.registry.ValidateParams(string(category), params.AsMap()); err != nil {
			return nil, errors.NewUnsupportedParamsError(string(category), err.Error())
		}
		plan.Params[category] = params
	}

	p.logger.Info("plan built", map[string]interface{}{
		"primary":   string(plan.Primary),
		"fallbacks": len(plan.Fallbacks),
		"parallel":  plan.Parallel,
	})
	return plan, nil
}

// missingDefiningEntity reports a focused category whose defining entity was
// never extracted. A role keyword alone can pick practitioner_by_name without
// any name to search for; planning that category would only bounce off the
// registry schema, so the intent demotes to the broad plan instead.
func missingDefiningEntity(intent search.Intent) bool {
	switch intent.Category {
	case search.CategoryPractitionerByName:
		_, ok := extractor.EntityByType(intent.Entities, search.EntityPersonName)
		return !ok
	case search.CategoryPractitionerBySpecialty:
		_, ok := extractor.EntityByType(intent.Entities, search.EntitySpecialty)
		return !ok
	}
	return false
}

// planBroad keeps only geography and count: facility first, registry
// fallbacks behind it.
func (p *Planner) planBroad(plan *search.Plan, intent search.Intent) {
	plan.Primary = search.CategoryFacility
	plan.Fallbacks = p.registryFallbacks(search.CategoryFacility)
	if _, ok := extractor.EntityByType(intent.Entities, search.EntitySpecialty); !ok {
		// Without a specialty there is nothing for the practitioner adapter
		// to filter on; a broad plan then stays facility-only.
		plan.Fallbacks = removeCategory(plan.Fallbacks, search.CategoryPractitionerBySpecialty)
	}
}

func (p *Planner) planFocused(plan *search.Plan, intent search.Intent, scores map[search.Category]float64) {
	plan.Primary = intent.Category

	second, secondScore := secondBest(scores, intent.Category)
	primaryScore := scores[intent.Category]

	if second != search.CategoryUnknown &&
		secondScore >= parallelMinScore &&
		primaryScore-secondScore <= parallelMaxGap {
		plan.Parallel = true
		plan.Peers = []search.Category{second}
		return
	}

	if second != search.CategoryUnknown && primaryScore-secondScore <= ambiguityMaxGap {
		plan.Fallbacks = p.registryFallbacks(intent.Category)
	}
}

// registryFallbacks reads the fallback chain from the capability registry,
// keeping only categories the registry actually knows.
func (p *Planner) registryFallbacks(category search.Category) []search.Category {
	spec, ok := p.registry.Get(string(category))
	if !ok {
		return nil
	}
	out := make([]search.Category, 0, len(spec.Fallbacks))
	for _, f := range spec.Fallbacks {
		if _, known := p.registry.Get(f); known {
			out = append(out, search.Category(f))
		}
	}
	return out
}

// resolveParams maps canonical entities into one adapter's parameter
// vocabulary. The mapping is adapter-specific: adapters differ in what they
// can filter on, and the registry schema enforces that.
func (p *Planner) resolveParams(category search.Category, intent search.Intent) search.Params {
	params := search.Params{Count: p.resolveCount(intent)}

	switch category {
	case search.CategoryFacility:
		if kw, ok := extractor.EntityByType(intent.Entities, search.EntityResourceKeyword); ok && kw.Value == "facility" {
			params.OrganizationName = kw.Span
		}
		if postal, ok := extractor.PostalEntity(intent.Entities); ok {
			params.PostalCode = postal.Value
		} else if city, ok := extractor.CityEntity(intent.Entities); ok {
			params.City = city.Value
		}

	case search.CategoryPractitionerBySpecialty:
		if spec, ok := extractor.EntityByType(intent.Entities, search.EntitySpecialty); ok {
			params.SpecialtyCode = spec.Value
		}

	case search.CategoryPractitionerByName:
		if name, ok := extractor.EntityByType(intent.Entities, search.EntityPersonName); ok {
			params.FamilyName, params.GivenName = extractor.SplitPersonName(name.Value)
		}

	case search.CategoryService, search.CategoryEquipment:
		if kw, ok := extractor.EntityByType(intent.Entities, search.EntityResourceKeyword); ok {
			params.ResourceType = kw.Span
		}
	}
	return params
}

func (p *Planner) resolveCount(intent search.Intent) int {
	count := p.cfg.DefaultCount
	if qty, ok := extractor.EntityByType(intent.Entities, search.EntityQuantity); ok {
		if n, err := strconv.Atoi(qty.Value); err == nil && n > 0 {
			count = n
		}
	}
	if p.cfg.MaxCount > 0 && count > p.cfg.MaxCount {
		count = p.cfg.MaxCount
	}
	return count
}

// peerOrder fixes the runner-up tie-break, most to least specific. Iterating
// the scores map directly would make parallel fan-out depend on map order.
var peerOrder = []search.Category{
	search.CategoryPractitionerByName,
	search.CategoryPractitionerBySpecialty,
	search.CategoryFacility,
	search.CategoryService,
	search.CategoryEquipment,
}

func secondBest(scores map[search.Category]float64, primary search.Category) (search.Category, float64) {
	best := search.CategoryUnknown
	bestScore := 0.0
	for _, category := range peerOrder {
		score := scores[category]
		if category == primary || score <= 0 {
			continue
		}
		if score > bestScore {
			best, bestScore = category, score
		}
	}
	return best, bestScore
}

func removeCategory(list []search.Category, target search.Category) []search.Category {
	out := list[:0]
	for _, c := range list {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}
