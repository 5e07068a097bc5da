// internal/search/classifier/classifier_test.go
package classifier

import (
	"testing"

	"sante-search/internal/common/config"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"
	"sante-search/internal/search/extractor"
	"sante-search/internal/search/normalizer"

	"github.com/stretchr/testify/assert"
)

func createTestPipeline() (*extractor.Extractor, *Classifier) {
	norm := normalizer.New(config.SearchConfig{
		FuzzyCutoff: 0.6,
		Specialties: map[string]string{
			"médecin":    "60",
			"dentiste":   "86",
			"sage-femme": "31",
			"ostéopathe": "50",
		},
		Variants: map[string]string{"sage-femmes": "sage-femme"},
		Cities:   []string{"paris", "lyon"},
		Metropolis: config.MetropolisConfig{
			Name: "paris", PostalPrefix: "750", MinDistrict: 1, MaxDistrict: 20,
		},
	})
	log := logger.NewNoOpLogger()
	return extractor.New(norm, log), New(log)
}

func classify(t *testing.T, text string) search.Intent {
	t.Helper()
	ext, cls := createTestPipeline()
	q := search.Query{Text: text}
	return cls.Classify(q, ext.Extract(q))
}

func TestClassify_SpecialtyWithPostal(t *testing.T) {
	intent := classify(t, "find 3 sage-femmes in paris 17th")

	assert.Equal(t, search.CategoryPractitionerBySpecialty, intent.Category)
	assert.GreaterOrEqual(t, intent.Confidence, 0.5)
	assert.False(t, intent.LowConfidence)
}

func TestClassify_FacilityKeywordBeatsFuzzySpecialty(t *testing.T) {
	intent := classify(t, "cabinet d'ostéopathie in 75003")

	assert.Equal(t, search.CategoryFacility, intent.Category)
	assert.False(t, intent.LowConfidence)
}

func TestClassify_PersonNameIsMostSpecific(t *testing.T) {
	intent := classify(t, "Dr Martin médecin à paris")

	assert.Equal(t, search.CategoryPractitionerByName, intent.Category)
	assert.False(t, intent.LowConfidence)
}

func TestClassify_ServiceAndEquipment(t *testing.T) {
	intent := classify(t, "urgences à lyon")
	assert.Equal(t, search.CategoryService, intent.Category)

	intent = classify(t, "scanner IRM à paris")
	assert.Equal(t, search.CategoryEquipment, intent.Category)
}

func TestClassify_NoEvidenceIsUnknownAndLowConfidence(t *testing.T) {
	intent := classify(t, "bonjour comment ça va")

	assert.Equal(t, search.CategoryUnknown, intent.Category)
	assert.True(t, intent.LowConfidence)
}

func TestClassify_EmptyQuery(t *testing.T) {
	intent := classify(t, "")

	assert.Equal(t, search.CategoryUnknown, intent.Category)
	assert.True(t, intent.LowConfidence)
	assert.Empty(t, intent.Entities)
}

func TestClassify_ConfidenceAlwaysInRange(t *testing.T) {
	queries := []string{
		"find 3 sage-femmes in paris 17th",
		"cabinet d'ostéopathie in 75003",
		"Dr Martin",
		"urgences radiologie laboratoire clinique médecin dentiste paris 75001",
		"",
	}
	for _, q := range queries {
		intent := classify(t, q)
		assert.GreaterOrEqual(t, intent.Confidence, 0.0, q)
		assert.LessOrEqual(t, intent.Confidence, 1.0, q)
	}
}

func TestScores_ComparableEvidenceForTwoCategories(t *testing.T) {
	ext, cls := createTestPipeline()
	q := search.Query{Text: "cabinet de dentiste à paris"}
	entities := ext.Extract(q)

	scores := cls.Scores(q, entities)
	assert.Greater(t, scores[search.CategoryFacility], 0.0)
	assert.Greater(t, scores[search.CategoryPractitionerBySpecialty], 0.0)
}

func TestClassify_TieBreakPriority(t *testing.T) {
	// Equal raw scores resolve by fixed priority, specialty above facility.
	best := pickCategory(map[search.Category]float64{
		search.CategoryFacility:                3,
		search.CategoryPractitionerBySpecialty: 3,
	})
	assert.Equal(t, search.CategoryPractitionerBySpecialty, best)
}
