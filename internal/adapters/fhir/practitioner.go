// internal/adapters/fhir/practitioner.go
package fhir

import (
	"context"
	"net/url"
	"strconv"

	"sante-search/internal/search"
)

// PractitionerAdapter searches practitioners by name (Practitioner
// resources).
type PractitionerAdapter struct {
	client *Client
}

func NewPractitionerAdapter(client *Client) *PractitionerAdapter {
	return &PractitionerAdapter{client: client}
}

func (a *PractitionerAdapter) Category() search.Category {
	return search.CategoryPractitionerByName
}

func (a *PractitionerAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	query := url.Values{}
	if params.FamilyName != "" {
		query.Set("family", params.FamilyName)
	}
	if params.GivenName != "" {
		query.Set("given", params.GivenName)
	}
	if params.Count > 0 {
		query.Set("_count", strconv.Itoa(params.Count))
	}

	bundle, err := a.client.Search(ctx, "Practitioner", query)
	if err != nil {
		return nil, err
	}
	return practitionerItems(bundle), nil
}
