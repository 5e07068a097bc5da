// internal/adapters/esdirectory/adapter.go
package esdirectory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"sante-search/internal/common/database"
	"sante-search/internal/common/errors"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"
)

// FacilityAdapter searches the local Elasticsearch replica of the facility
// directory. The index filters by name, city and postal code server-side.
type FacilityAdapter struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewFacilityAdapter(es *database.ElasticsearchClient, index string, log logger.Logger) *FacilityAdapter {
	return &FacilityAdapter{es: es, index: index, logger: log}
}

func (a *FacilityAdapter) Category() search.Category {
	return search.CategoryFacility
}

func (a *FacilityAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	body, err := json.Marshal(buildQuery(params))
	if err != nil {
		return nil, err
	}

	res, err := a.es.Client.Search(
		a.es.Client.Search.WithContext(ctx),
		a.es.Client.Search.WithIndex(a.index),
		a.es.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(a.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, errors.NewIndexNotFoundError(a.index)
		}
		return nil, errors.NewSearchQueryFailedError(a.index, fmt.Errorf("status %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string                 `json:"_id"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(a.index, err)
	}

	items := make([]search.Item, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		item := search.Item{}
		for k, v := range hit.Source {
			item[k] = v
		}
		if _, ok := item[search.ItemKeyID]; !ok {
			item[search.ItemKeyID] = hit.ID
		}
		items = append(items, item)
	}

	a.logger.Debug("facility index search", map[string]interface{}{
		"index": a.index,
		"hits":  len(items),
	})
	return items, nil
}

// buildQuery assembles the bool query: name matches fuzzily, geography is an
// exact filter.
func buildQuery(params search.Params) map[string]interface{} {
	must := []map[string]interface{}{}
	filter := []map[string]interface{}{}

	if params.OrganizationName != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"name": map[string]interface{}{
					"query":     params.OrganizationName,
					"fuzziness": "AUTO",
				},
			},
		})
	}
	if params.PostalCode != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"postalCode": params.PostalCode},
		})
	}
	if params.City != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"city": params.City},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	if len(boolQuery) == 0 {
		boolQuery["must"] = []map[string]interface{}{{"match_all": map[string]interface{}{}}}
	}

	size := params.Count
	if size <= 0 {
		size = 10
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"size":  size,
	}
}
