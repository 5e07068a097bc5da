// internal/adapters/fhir/organization.go
package fhir

import (
	"context"
	"net/url"
	"strconv"

	"sante-search/internal/search"
)

// OrganizationAdapter searches facilities (Organization resources). The
// gateway filters by name, city and postal code server-side.
type OrganizationAdapter struct {
	client *Client
}

func NewOrganizationAdapter(client *Client) *OrganizationAdapter {
	return &OrganizationAdapter{client: client}
}

func (a *OrganizationAdapter) Category() search.Category {
	return search.CategoryFacility
}

func (a *OrganizationAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	query := url.Values{}
	if params.OrganizationName != "" {
		query.Set("name", params.OrganizationName)
	}
	if params.PostalCode != "" {
		query.Set("address-postalcode", params.PostalCode)
	}
	if params.City != "" {
		query.Set("address-city", params.City)
	}
	if params.Count > 0 {
		query.Set("_count", strconv.Itoa(params.Count))
	}

	bundle, err := a.client.Search(ctx, "Organization", query)
	if err != nil {
		return nil, err
	}
	return organizationItems(bundle), nil
}
