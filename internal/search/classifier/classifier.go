// internal/search/classifier/classifier.go
package classifier

import (
	"strings"

	"sante-search/internal/common/logger"
	"sante-search/internal/search"
	"sante-search/internal/search/extractor"
)

// Classifier scores candidate resource categories from keyword evidence and
// extracted entities, then folds entity confidences into one intent
// confidence. Longer, more literal patterns carry higher weights than short
// generic ones.
type Classifier struct {
	logger logger.Logger
}

type pattern struct {
	text   string
	weight float64
}

// categoryPatterns is the trigger table per resource category. Multi-word
// patterns match as substrings of the lowered query, single words match whole
// tokens.
var categoryPatterns = map[search.Category][]pattern{
	search.CategoryPractitionerByName: {
		{"docteur", 4}, {"dr", 4}, {"doctor named", 5},
	},
	search.CategoryFacility: {
		{"centre de santé", 4}, {"maison de santé", 4},
		{"hôpital", 3}, {"hopital", 3}, {"hospital", 3},
		{"clinique", 3}, {"clinic", 3}, {"cabinet", 3},
		{"pharmacie", 3}, {"pharmacy", 3},
		{"établissement", 3}, {"etablissement", 3},
	},
	search.CategoryService: {
		{"service d'urgences", 4}, {"urgences", 3}, {"emergency", 3},
		{"radiologie", 3}, {"radiology", 3},
		{"laboratoire", 3}, {"laboratory", 3},
		{"vaccination", 3}, {"dépistage", 3}, {"depistage", 3},
	},
	search.CategoryEquipment: {
		{"irm", 3}, {"mri", 3}, {"scanner", 3},
		{"équipement", 3}, {"equipement", 3}, {"equipment", 3},
		{"échographe", 3}, {"echographe", 3}, {"imagerie", 3},
	},
}

// entityBoosts adds entity-derived evidence on top of the keyword patterns.
// A person name is the most specific signal and outweighs everything else.
const (
	boostPersonName      = 4.0
	boostSpecialty       = 3.0
	boostResourceKeyword = 2.0
)

// tiePriority breaks equal scores: a name match beats a specialty match,
// which beats the broader category kinds.
var tiePriority = map[search.Category]int{
	search.CategoryPractitionerByName:      0,
	search.CategoryPractitionerBySpecialty: 1,
	search.CategoryFacility:                2,
	search.CategoryService:                 3,
	search.CategoryEquipment:               4,
}

// genericRoleWords count as explicit role keywords even without a resolved
// specialty entity.
var genericRoleWords = map[string]bool{
	"docteur": true, "doctor": true, "dr": true, "pr": true,
	"praticien": true, "practitioner": true,
	"spécialiste": true, "specialiste": true, "specialist": true,
}

func New(log logger.Logger) *Classifier {
	return &Classifier{logger: log}
}

// Classify picks the best-scoring category for the query and computes the
// overall intent confidence. A query with no scoring evidence yields the
// unknown category with low_confidence set, which the planner treats as
// "search broadly" rather than guessing.
func (c *Classifier) Classify(q search.Query, entities []search.Entity) search.Intent {
	tokens := tokenSet(strings.ToLower(q.Text))
	scores := c.Scores(q, entities)

	category := pickCategory(scores)
	confidence := c.confidence(category, entities, tokens)
	low := category == search.CategoryUnknown || confidence < 0.5 || len(entities) == 0

	c.logger.Debug("intent classified", map[string]interface{}{
		"category":       string(category),
		"confidence":     confidence,
		"low_confidence": low,
	})

	return search.Intent{
		Category:      category,
		Confidence:    confidence,
		Entities:      entities,
		LowConfidence: low,
	}
}

// Scores exposes the raw per-category evidence, used by the planner to detect
// comparably strong independent evidence for parallel fan-out.
func (c *Classifier) Scores(q search.Query, entities []search.Entity) map[search.Category]float64 {
	lower := strings.ToLower(q.Text)
	tokens := tokenSet(lower)

	scores := map[search.Category]float64{}
	for category, patterns := range categoryPatterns {
		for _, p := range patterns {
			if matchPattern(lower, tokens, p.text) {
				scores[category] += p.weight
			}
		}
	}
	if _, ok := extractor.EntityByType(entities, search.EntityPersonName); ok {
		scores[search.CategoryPractitionerByName] += boostPersonName
	}
	if _, ok := extractor.EntityByType(entities, search.EntitySpecialty); ok {
		scores[search.CategoryPractitionerBySpecialty] += boostSpecialty
	}
	if kw, ok := extractor.EntityByType(entities, search.EntityResourceKeyword); ok {
		switch kw.Value {
		case "facility":
			scores[search.CategoryFacility] += boostResourceKeyword
		case "service":
			scores[search.CategoryService] += boostResourceKeyword
		case "equipment":
			scores[search.CategoryEquipment] += boostResourceKeyword
		}
	}
	return scores
}

func pickCategory(scores map[search.Category]float64) search.Category {
	best := search.CategoryUnknown
	bestScore := 0.0
	for category, score := range scores {
		if score <= 0 {
			continue
		}
		if score > bestScore ||
			(score == bestScore && tiePriority[category] < tiePriority[best]) {
			best, bestScore = category, score
		}
	}
	if bestScore == 0 {
		return search.CategoryUnknown
	}
	return best
}

// confidence folds entity confidences into [0,1]: specialty weighs 0.3,
// location 0.3 for facility/service and 0.15 otherwise, an explicit role
// keyword adds 0.2, and two or more distinct entity types add 0.1.
func (c *Classifier) confidence(category search.Category, entities []search.Entity, tokens map[string]bool) float64 {
	score := 0.0

	// The defining entity weighs 0.3: the specialty, the person name for a
	// name lookup, or the resource keyword for the broader category kinds.
	specConf := 0.0
	if spec, ok := extractor.EntityByType(entities, search.EntitySpecialty); ok {
		specConf = spec.Confidence
	}
	if name, ok := extractor.EntityByType(entities, search.EntityPersonName); ok && name.Confidence > specConf {
		specConf = name.Confidence
	}
	if kw, ok := extractor.EntityByType(entities, search.EntityResourceKeyword); ok && kw.Confidence > specConf {
		specConf = kw.Confidence
	}
	score += 0.3 * specConf

	locWeight := 0.15
	if category == search.CategoryFacility || category == search.CategoryService {
		locWeight = 0.3
	}
	locConf := 0.0
	if loc, ok := extractor.PostalEntity(entities); ok {
		locConf = loc.Confidence
	} else if loc, ok := extractor.CityEntity(entities); ok {
		locConf = loc.Confidence
	}
	score += locWeight * locConf

	if hasRoleKeyword(entities, tokens) {
		score += 0.2
	}

	if distinctEntityTypes(entities) >= 2 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// hasRoleKeyword reports an explicit profession word in the query: either a
// specialty phrase matched exactly (confidence 1.0) or a generic role word.
func hasRoleKeyword(entities []search.Entity, tokens map[string]bool) bool {
	if spec, ok := extractor.EntityByType(entities, search.EntitySpecialty); ok && spec.Confidence == 1.0 {
		return true
	}
	for w := range genericRoleWords {
		if tokens[w] {
			return true
		}
	}
	return false
}

func distinctEntityTypes(entities []search.Entity) int {
	seen := map[search.EntityType]bool{}
	for _, e := range entities {
		seen[e.Type] = true
	}
	return len(seen)
}

func matchPattern(lower string, tokens map[string]bool, p string) bool {
	if strings.Contains(p, " ") {
		return strings.Contains(lower, p)
	}
	return tokens[p]
}

func tokenSet(lower string) map[string]bool {
	set := map[string]bool{}
	for _, f := range strings.Fields(lower) {
		f = strings.Trim(f, `.,;:!?'"()[]{}«»`)
		if f != "" {
			set[f] = true
		}
	}
	return set
}
