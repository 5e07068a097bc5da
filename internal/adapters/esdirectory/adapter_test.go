// internal/adapters/esdirectory/adapter_test.go
package esdirectory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"sante-search/internal/common/config"
	"sante-search/internal/common/database"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponse = `{
  "hits": {
    "total": {"value": 1},
    "hits": [
      {"_id": "fac-1", "_source": {"name": "Clinique du Parc", "city": "lyon", "postalCode": "69006"}}
    ]
  }
}`

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *FacilityAdapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewFacilityAdapter(es, "directory-organizations", logger.NewNoOpLogger())
}

func TestFacilityAdapter_Category(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Equal(t, search.CategoryFacility, a.Category())
}

func TestFacilityAdapter_Search(t *testing.T) {
	var gotBody map[string]interface{}
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) > 0 {
			json.Unmarshal(body, &gotBody)
		}
		w.Write([]byte(searchResponse))
	})

	items, err := a.Search(context.Background(), search.Params{
		OrganizationName: "clinique",
		PostalCode:       "69006",
		Count:            5,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fac-1", items[0][search.ItemKeyID])
	assert.Equal(t, "Clinique du Parc", items[0]["name"])

	require.NotNil(t, gotBody)
	assert.Equal(t, float64(5), gotBody["size"])
}

func TestFacilityAdapter_IndexError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})

	_, err := a.Search(context.Background(), search.Params{City: "lyon"})
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery(search.Params{OrganizationName: "cabinet", PostalCode: "75003"})

	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Len(t, boolQuery["must"], 1)
	assert.Len(t, boolQuery["filter"], 1)
	assert.Equal(t, 10, q["size"])

	empty := buildQuery(search.Params{})
	emptyBool := empty["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.Len(t, emptyBool["must"], 1) // match_all
}
