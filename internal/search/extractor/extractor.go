// internal/search/extractor/extractor.go
package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sante-search/internal/common/logger"
	"sante-search/internal/search"
	"sante-search/internal/search/normalizer"
)

// Extractor pulls typed entities out of raw query text. Matching logic is a
// single ordered rule table evaluated once per query; rules append entities
// and never fail — an unmatched category is simply absent.
type Extractor struct {
	norm   *normalizer.Normalizer
	logger logger.Logger
	rules  []rule

	specialtyTerms []string // sorted canonical vocabulary for fuzzy fallback
	districtRe     *regexp.Regexp
	postalRe       *regexp.Regexp
	quantityRe     *regexp.Regexp
	titledNameRe   *regexp.Regexp
	bareNameRe     *regexp.Regexp
	orgPhraseRe    *regexp.Regexp
}

type rule struct {
	name  string
	apply func(qc *queryContext)
}

// queryContext is the per-request scratch state the rules write into.
type queryContext struct {
	raw       string
	lower     string
	tokens    []string
	overrides map[string]string
	entities  []search.Entity
}

var (
	postalPattern   = regexp.MustCompile(`\b(\d{5})\b`)
	quantityPattern = regexp.MustCompile(`(?i)\b(?:find|get|show|list|give me|cherchez?|trouvez?|donne(?:-moi)?)\s+(\d+)\b`)
	titledNameRe    = regexp.MustCompile(`\b(?:Dr|Docteur|Doctor|Pr|Prof|Professeur)\.?\s+(\p{Lu}[\p{Ll}'-]+(?:\s+\p{Lu}[\p{Ll}'-]+){0,2})`)
	bareNameRe      = regexp.MustCompile(`\b(\p{Lu}[\p{Ll}'-]+(?:\s+\p{Lu}[\p{Ll}'-]+)+)\b`)
	orgPhraseRe     = regexp.MustCompile(`(?i)\b((?:cabinet|centre|clinique|maison|laboratoire)\s+(?:de\s+la\s+|de\s+|d['’]\s*|du\s+)?[\p{L}-]+)`)
)

// nameExclusions suppresses capitalized sequences that are never person names.
var nameExclusions = map[string]bool{
	"find": true, "get": true, "show": true, "list": true, "search": true,
	"cherche": true, "trouve": true, "donne": true, "give": true,
	"dr": true, "docteur": true, "doctor": true, "prof": true, "professeur": true,
	"cabinet": true, "centre": true, "clinique": true, "hôpital": true,
	"hopital": true, "hospital": true, "pharmacie": true, "maison": true,
	"laboratoire": true, "urgences": true,
}

// facilityKeywords, serviceKeywords and equipmentKeywords map trigger words to
// the resource-keyword kind carried on the entity.
var facilityKeywords = []string{
	"hôpital", "hopital", "hospital", "clinique", "clinic", "cabinet",
	"centre", "center", "pharmacie", "pharmacy", "établissement",
	"etablissement", "maison de santé", "maison de sante", "dispensaire",
}

var serviceKeywords = []string{
	"urgences", "emergency", "radiologie", "radiology", "laboratoire",
	"laboratory", "consultation", "vaccination", "dépistage", "depistage",
}

var equipmentKeywords = []string{
	"irm", "mri", "scanner", "échographe", "echographe", "équipement",
	"equipement", "equipment", "matériel", "materiel", "imagerie",
}

func New(norm *normalizer.Normalizer, log logger.Logger) *Extractor {
	terms := norm.SpecialtyTerms()
	sort.Strings(terms)

	metro := regexp.QuoteMeta(strings.ToLower(norm.Metropolis().Name))
	districtRe := regexp.MustCompile(`(?i)\b` + metro + `\s+(\d{1,2})\s*(?:e\b|er\b|ème\b|eme\b|th\b|st\b|nd\b|rd\b)?(?:\s*arrondissement)?`)

	e := &Extractor{
		norm:           norm,
		logger:         log,
		specialtyTerms: terms,
		districtRe:     districtRe,
		postalRe:       postalPattern,
		quantityRe:     quantityPattern,
		titledNameRe:   titledNameRe,
		bareNameRe:     bareNameRe,
		orgPhraseRe:    orgPhraseRe,
	}
	e.rules = []rule{
		{name: "specialty", apply: e.extractSpecialty},
		{name: "geography", apply: e.extractGeography},
		{name: "person_name", apply: e.extractPersonName},
		{name: "quantity", apply: e.extractQuantity},
		{name: "resource_keyword", apply: e.extractResourceKeyword},
	}
	return e
}

// Extract runs the rule table over the query. Context overrides short-circuit
// the rules covering their entity type.
func (e *Extractor) Extract(q search.Query) []search.Entity {
	qc := &queryContext{
		raw:       q.Text,
		lower:     strings.ToLower(q.Text),
		tokens:    tokenize(q.Text),
		overrides: q.Context,
	}

	for _, r := range e.rules {
		r.apply(qc)
	}

	e.logger.Debug("entities extracted", map[string]interface{}{
		"query":    q.Text,
		"entities": len(qc.entities),
	})
	return qc.entities
}

// ---- specialty ----

func (e *Extractor) extractSpecialty(qc *queryContext) {
	if override := qc.overrides["specialty"]; override != "" {
		if canonical, ok := e.norm.SpecialtyTerm(override); ok {
			code, _ := e.norm.SpecialtyCode(canonical)
			qc.entities = append(qc.entities, search.Entity{
				Type:       search.EntitySpecialty,
				Value:      code,
				Confidence: 1.0,
				Span:       override,
			})
			return
		}
	}

	// Phrase scan: all contiguous word spans, longest first, exact table hit
	// wins with confidence 1.0. Trailing plural "s" is tolerated.
	for span := 3; span >= 1; span-- {
		for i := 0; i+span <= len(qc.tokens); i++ {
			phrase := strings.Join(qc.tokens[i:i+span], " ")
			canonical, ok := e.norm.SpecialtyTerm(phrase)
			if !ok && strings.HasSuffix(phrase, "s") {
				canonical, ok = e.norm.SpecialtyTerm(strings.TrimSuffix(phrase, "s"))
			}
			if ok {
				code, _ := e.norm.SpecialtyCode(canonical)
				qc.entities = append(qc.entities, search.Entity{
					Type:       search.EntitySpecialty,
					Value:      code,
					Confidence: 1.0,
					Span:       phrase,
				})
				return
			}
		}
	}

	// Fuzzy fallback against the canonical vocabulary, best token wins.
	bestTerm, bestSpan, bestScore := "", "", 0.0
	for _, token := range qc.tokens {
		if len([]rune(token)) < 4 {
			continue
		}
		term, score := e.norm.FuzzyMatch(token, e.specialtyTerms, e.norm.Cutoff())
		if score > bestScore {
			bestTerm, bestSpan, bestScore = term, token, score
		}
	}
	if bestTerm != "" {
		code, _ := e.norm.SpecialtyCode(bestTerm)
		qc.entities = append(qc.entities, search.Entity{
			Type:       search.EntitySpecialty,
			Value:      code,
			Confidence: bestScore,
			Span:       bestSpan,
		})
	}
}

// ---- geography ----

func (e *Extractor) extractGeography(qc *queryContext) {
	if override := qc.overrides["postal_code"]; override != "" {
		qc.entities = append(qc.entities, search.Entity{
			Type:       search.EntityLocation,
			Value:      override,
			Confidence: 1.0,
			Span:       override,
		})
		return
	}

	postalFound := false

	// Absolute 5-digit postal code wins outright.
	if m := e.postalRe.FindString(qc.lower); m != "" {
		qc.entities = append(qc.entities, search.Entity{
			Type:       search.EntityLocation,
			Value:      m,
			Confidence: 1.0,
			Span:       m,
		})
		postalFound = true
	}

	// "metropolis + district" synthesis.
	if !postalFound {
		if m := e.districtRe.FindStringSubmatch(qc.lower); m != nil {
			if district, err := strconv.Atoi(m[1]); err == nil {
				if code, ok := e.norm.DistrictPostalCode(district); ok {
					qc.entities = append(qc.entities, search.Entity{
						Type:       search.EntityLocation,
						Value:      code,
						Confidence: 1.0,
						Span:       strings.TrimSpace(m[0]),
					})
				}
			}
		}
	}

	// Named city. Kept even when a postal code won: the postal code drives
	// filtering and the city rides along as display information.
	cityOverride := qc.overrides["city"]
	if cityOverride != "" {
		qc.entities = append(qc.entities, search.Entity{
			Type:       search.EntityLocation,
			Value:      strings.ToLower(cityOverride),
			Confidence: 0.8,
			Span:       cityOverride,
		})
		return
	}
	for _, token := range qc.tokens {
		if city, ok := e.norm.MatchCity(token); ok {
			qc.entities = append(qc.entities, search.Entity{
				Type:       search.EntityLocation,
				Value:      city,
				Confidence: 0.8,
				Span:       token,
			})
			return
		}
	}
}

// ---- person name ----

func (e *Extractor) extractPersonName(qc *queryContext) {
	// Titled form first: "Dr Martin", "Docteur Jean Dupont".
	if m := e.titledNameRe.FindStringSubmatch(qc.raw); m != nil {
		if name := filterNameWords(m[1]); name != "" {
			qc.entities = append(qc.entities, search.Entity{
				Type:       search.EntityPersonName,
				Value:      name,
				Confidence: 0.9,
				Span:       strings.TrimSpace(m[0]),
			})
			return
		}
	}

	// Bare consecutive capitalized words, filtered through the exclusion list.
	for _, m := range e.bareNameRe.FindAllString(qc.raw, -1) {
		if name := filterNameWords(m); name != "" && strings.Contains(name, " ") {
			qc.entities = append(qc.entities, search.Entity{
				Type:       search.EntityPersonName,
				Value:      name,
				Confidence: 0.6,
				Span:       m,
			})
			return
		}
	}
}

// filterNameWords drops excluded words (verbs, titles, place and facility
// nouns) from a candidate capitalized sequence.
func filterNameWords(candidate string) string {
	kept := []string{}
	for _, word := range strings.Fields(candidate) {
		lower := strings.ToLower(word)
		if nameExclusions[lower] {
			continue
		}
		if isKnownCityWord(lower) {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// isKnownCityWord covers the fixed city allow-list without threading the
// normalizer through a free function; the list is small and stable.
func isKnownCityWord(w string) bool {
	switch w {
	case "paris", "lyon", "marseille", "toulouse", "nice", "nantes",
		"montpellier", "strasbourg", "bordeaux", "lille", "rennes",
		"reims", "toulon", "grenoble", "dijon", "angers", "nîmes":
		return true
	}
	return false
}

// ---- quantity ----

func (e *Extractor) extractQuantity(qc *queryContext) {
	if m := e.quantityRe.FindStringSubmatch(qc.raw); m != nil {
		qc.entities = append(qc.entities, search.Entity{
			Type:       search.EntityQuantity,
			Value:      m[1],
			Confidence: 1.0,
			Span:       strings.TrimSpace(m[0]),
		})
	}
}

// ---- resource keyword ----

func (e *Extractor) extractResourceKeyword(qc *queryContext) {
	kind, keyword := "", ""
	if k := firstKeyword(qc, facilityKeywords); k != "" {
		kind, keyword = "facility", k
	} else if k := firstKeyword(qc, serviceKeywords); k != "" {
		kind, keyword = "service", k
	} else if k := firstKeyword(qc, equipmentKeywords); k != "" {
		kind, keyword = "equipment", k
	}
	if kind == "" {
		return
	}

	span := keyword
	if kind == "facility" {
		// Widen to the organization-name phrase ("cabinet d'ostéopathie")
		// so the planner can use it as a name filter.
		if m := e.orgPhraseRe.FindString(qc.raw); m != "" {
			span = strings.TrimSpace(m)
		}
	}

	qc.entities = append(qc.entities, search.Entity{
		Type:       search.EntityResourceKeyword,
		Value:      kind,
		Confidence: 0.9,
		Span:       span,
	})
}

// firstKeyword matches single-word keywords token-by-token so that "irm"
// does not fire inside "infirmier"; multi-word keywords use substring search.
func firstKeyword(qc *queryContext, keywords []string) string {
	for _, k := range keywords {
		if strings.Contains(k, " ") {
			if strings.Contains(qc.lower, k) {
				return k
			}
			continue
		}
		for _, token := range qc.tokens {
			if token == k {
				return k
			}
		}
	}
	return ""
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?'"()[]{}«»`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// EntityByType returns the first entity of the given type, if present.
func EntityByType(entities []search.Entity, t search.EntityType) (search.Entity, bool) {
	for _, e := range entities {
		if e.Type == t {
			return e, true
		}
	}
	return search.Entity{}, false
}

// PostalEntity returns the location entity carrying a 5-digit postal code,
// preferring it over a named-city location.
func PostalEntity(entities []search.Entity) (search.Entity, bool) {
	for _, e := range entities {
		if e.Type == search.EntityLocation && len(e.Value) == 5 && isDigits(e.Value) {
			return e, true
		}
	}
	return search.Entity{}, false
}

// CityEntity returns the named-city location entity, if present.
func CityEntity(entities []search.Entity) (search.Entity, bool) {
	for _, e := range entities {
		if e.Type == search.EntityLocation && !isDigits(e.Value) {
			return e, true
		}
	}
	return search.Entity{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SplitPersonName applies the directory convention: a single token is a
// family name; otherwise the last token is the family name and the rest the
// given name.
func SplitPersonName(full string) (family, given string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " ")
	}
}

// String implements fmt.Stringer for debug logs.
func (e *Extractor) String() string {
	return fmt.Sprintf("extractor(rules=%d, vocabulary=%d)", len(e.rules), len(e.specialtyTerms))
}
