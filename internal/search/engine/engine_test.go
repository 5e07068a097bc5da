// internal/search/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sante-search/internal/adapters"
	"sante-search/internal/common/config"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"
	"sante-search/internal/search/classifier"
	"sante-search/internal/search/executor"
	"sante-search/internal/search/extractor"
	"sante-search/internal/search/formatter"
	"sante-search/internal/search/normalizer"
	"sante-search/internal/search/planner"
	"sante-search/pkg/registry"
)

const testRegistryJSON = `{
  "version": "1.0.0",
  "adapters": [
    {"category": "facility", "serverSideGeo": true, "fallbacks": ["practitioner_by_specialty"]},
    {"category": "practitioner_by_specialty", "fallbacks": ["facility"]},
    {"category": "practitioner_by_name", "fallbacks": []},
    {"category": "service", "fallbacks": ["facility"]},
    {"category": "equipment", "fallbacks": ["facility"]}
  ]
}`

type stubAdapter struct {
	category search.Category
	items    []search.Item
	err      error
	gotCalls int
	last     search.Params
}

func (s *stubAdapter) Category() search.Category { return s.category }

func (s *stubAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	s.gotCalls++
	s.last = params
	return s.items, s.err
}

func newTestEngine(t *testing.T, adapterList ...adapters.Adapter) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(testRegistryJSON), 0o644))
	reg, err := registry.Load(path)
	require.NoError(t, err)

	cfg := config.SearchConfig{
		FuzzyCutoff:  0.6,
		DefaultCount: 10,
		MaxCount:     50,
		Specialties: map[string]string{
			"médecin":    "60",
			"dentiste":   "86",
			"sage-femme": "31",
		},
		Variants: map[string]string{"sage-femmes": "sage-femme"},
		Cities:   []string{"paris", "lyon"},
		Metropolis: config.MetropolisConfig{
			Name: "paris", PostalPrefix: "750", MinDistrict: 1, MaxDistrict: 20,
		},
	}
	log := logger.NewNoOpLogger()
	norm := normalizer.New(cfg)

	exec := executor.New(
		adapters.NewSet(adapterList...),
		reg,
		executor.NewRefiner(nil, 2, log),
		time.Second,
		map[search.Category]string{},
		log,
	)
	return New(
		extractor.New(norm, log),
		classifier.New(log),
		planner.New(reg, cfg, log),
		exec,
		formatter.New(log),
		log,
	)
}

func TestInterpretAndSearch_EndToEnd(t *testing.T) {
	practitioners := &stubAdapter{
		category: search.CategoryPractitionerBySpecialty,
		items: []search.Item{
			{search.ItemKeyID: "p1", search.ItemKeyFamily: "Durand", search.ItemKeyProfession: "31"},
		},
	}
	e := newTestEngine(t, practitioners)

	resp, err := e.InterpretAndSearch(context.Background(), search.Query{
		Text: "find 3 sage-femmes in paris 17th",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, search.CategoryPractitionerBySpecialty, resp.Trace.ServedBy)
	assert.NotEmpty(t, resp.Trace.RequestID)

	assert.Equal(t, "31", practitioners.last.SpecialtyCode)
	assert.Equal(t, 3, practitioners.last.Count)
}

func TestInterpretAndSearch_BroadPlanFallbackServes(t *testing.T) {
	// A bare misspelled specialty is low-confidence: the plan searches
	// facilities broadly first, then falls back to the practitioner adapter
	// keyed on the fuzzily resolved specialty.
	facility := &stubAdapter{category: search.CategoryFacility} // success, zero items
	practitioners := &stubAdapter{
		category: search.CategoryPractitionerBySpecialty,
		items:    []search.Item{{search.ItemKeyID: "p1", search.ItemKeyFamily: "Petit"}},
	}
	e := newTestEngine(t, facility, practitioners)

	resp, err := e.InterpretAndSearch(context.Background(), search.Query{Text: "dentist"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, resp.Trace.LowConfidence)
	assert.Equal(t, search.CategoryPractitionerBySpecialty, resp.Trace.ServedBy)
	assert.Equal(t, 1, facility.gotCalls)
	assert.Equal(t, 1, practitioners.gotCalls)
	assert.Equal(t, "86", practitioners.last.SpecialtyCode)
}

func TestInterpretAndSearch_ExhaustionIsStructuredEmpty(t *testing.T) {
	service := &stubAdapter{category: search.CategoryService, err: errors.New("down")}
	facility := &stubAdapter{category: search.CategoryFacility, err: errors.New("down too")}
	e := newTestEngine(t, service, facility)

	resp, err := e.InterpretAndSearch(context.Background(), search.Query{Text: "urgences à lyon"})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Zero(t, resp.Count)
	assert.True(t, resp.Trace.Exhausted)
}

func TestInterpretAndSearch_LowConfidenceQueryStillAnswers(t *testing.T) {
	facility := &stubAdapter{
		category: search.CategoryFacility,
		items:    []search.Item{{search.ItemKeyID: "f1", search.ItemKeyName: "Centre"}},
	}
	e := newTestEngine(t, facility)

	resp, err := e.InterpretAndSearch(context.Background(), search.Query{Text: "quelque chose à paris"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, resp.Trace.LowConfidence)
	assert.Equal(t, "paris", facility.last.City)
}

func TestInterpretAndSearch_ContextOverrides(t *testing.T) {
	practitioners := &stubAdapter{
		category: search.CategoryPractitionerBySpecialty,
		items:    []search.Item{{search.ItemKeyID: "p1", search.ItemKeyFamily: "Petit"}},
	}
	e := newTestEngine(t, practitioners)

	resp, err := e.InterpretAndSearch(context.Background(), search.Query{
		Text:    "je cherche un rendez-vous",
		Context: map[string]string{"specialty": "dentiste", "postal_code": "75011"},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "86", practitioners.last.SpecialtyCode)
}
