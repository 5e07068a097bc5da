// internal/adapters/fhir/healthcareservice.go
package fhir

import (
	"context"
	"net/url"
	"strconv"

	"sante-search/internal/search"
)

// HealthcareServiceAdapter searches care services (HealthcareService
// resources), filtered by service type. Geographic narrowing is local.
type HealthcareServiceAdapter struct {
	client *Client
}

func NewHealthcareServiceAdapter(client *Client) *HealthcareServiceAdapter {
	return &HealthcareServiceAdapter{client: client}
}

func (a *HealthcareServiceAdapter) Category() search.Category {
	return search.CategoryService
}

func (a *HealthcareServiceAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	query := url.Values{}
	if params.ResourceType != "" {
		query.Set("service-type", params.ResourceType)
	}
	if params.Count > 0 {
		query.Set("_count", strconv.Itoa(params.Count))
	}

	bundle, err := a.client.Search(ctx, "HealthcareService", query)
	if err != nil {
		return nil, err
	}
	return healthcareServiceItems(bundle), nil
}
