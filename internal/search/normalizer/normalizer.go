// internal/search/normalizer/normalizer.go
package normalizer

import (
	"fmt"
	"strings"

	"sante-search/internal/common/config"
)

// Normalizer maps vocabulary variants to canonical codes. All tables are
// copied at construction and never mutated afterwards.
type Normalizer struct {
	specialties map[string]string // canonical term -> profession code
	variants    map[string]string // variant -> canonical term
	cities      map[string]bool
	metropolis  config.MetropolisConfig
	cutoff      float64
}

// Match is the result of a fuzzy lookup.
type Match struct {
	Canonical string
	Score     float64
}

func New(cfg config.SearchConfig) *Normalizer {
	specialties := make(map[string]string, len(cfg.Specialties))
	for term, code := range cfg.Specialties {
		specialties[strings.ToLower(term)] = code
	}
	variants := make(map[string]string, len(cfg.Variants))
	for variant, canonical := range cfg.Variants {
		variants[strings.ToLower(variant)] = strings.ToLower(canonical)
	}
	cities := make(map[string]bool, len(cfg.Cities))
	for _, city := range cfg.Cities {
		cities[strings.ToLower(city)] = true
	}

	return &Normalizer{
		specialties: specialties,
		variants:    variants,
		cities:      cities,
		metropolis:  cfg.Metropolis,
		cutoff:      cfg.FuzzyCutoff,
	}
}

// FuzzyMatch finds the best candidate for term. An exact case-insensitive hit
// short-circuits with score 1.0; otherwise the best edit-distance similarity
// above cutoff wins. Ties keep the first candidate in iteration order, so
// callers needing determinism pass a sorted candidate slice.
func (n *Normalizer) FuzzyMatch(term string, candidates []string, cutoff float64) (string, float64) {
	lower := strings.ToLower(strings.TrimSpace(term))
	if lower == "" {
		return "", 0
	}

	for _, candidate := range candidates {
		if strings.ToLower(candidate) == lower {
			return candidate, 1.0
		}
	}

	best := ""
	bestScore := 0.0
	for _, candidate := range candidates {
		score := similarity(lower, strings.ToLower(candidate))
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if bestScore < cutoff {
		return "", 0
	}
	return best, bestScore
}

// Cutoff returns the configured default fuzzy cutoff.
func (n *Normalizer) Cutoff() float64 {
	return n.cutoff
}

// SpecialtyTerm resolves a raw term to its canonical specialty term, walking
// the variant table first. Returns false when the term is unknown.
func (n *Normalizer) SpecialtyTerm(term string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(term))
	if canonical, ok := n.variants[lower]; ok {
		lower = canonical
	}
	if _, ok := n.specialties[lower]; ok {
		return lower, true
	}
	return "", false
}

// SpecialtyCode returns the profession code for a canonical specialty term.
func (n *Normalizer) SpecialtyCode(term string) (string, bool) {
	code, ok := n.specialties[strings.ToLower(term)]
	return code, ok
}

// SpecialtyTerms returns the canonical specialty vocabulary, for fuzzy fallback.
func (n *Normalizer) SpecialtyTerms() []string {
	out := make([]string, 0, len(n.specialties))
	for term := range n.specialties {
		out = append(out, term)
	}
	return out
}

// MatchCity reports whether the token is a known city name.
func (n *Normalizer) MatchCity(token string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(token))
	if n.cities[lower] {
		return lower, true
	}
	return "", false
}

// Metropolis returns the configured district synthesis rule.
func (n *Normalizer) Metropolis() config.MetropolisConfig {
	return n.metropolis
}

// DistrictPostalCode synthesizes a postal code from a metropolis district
// number. District 17 of a "750" metropolis yields "75017". Numbers outside
// the configured range yield no match.
func (n *Normalizer) DistrictPostalCode(district int) (string, bool) {
	if district < n.metropolis.MinDistrict || district > n.metropolis.MaxDistrict {
		return "", false
	}
	return fmt.Sprintf("%s%02d", n.metropolis.PostalPrefix, district), true
}

// similarity is a normalized Levenshtein ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
