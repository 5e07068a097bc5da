// internal/adapters/fhir/practitionerrole.go
package fhir

import (
	"context"
	"net/url"
	"strconv"

	"sante-search/internal/search"
)

// PractitionerRoleAdapter searches practitioners by profession code
// (PractitionerRole resources). The gateway cannot filter these by postal
// code, so geographic narrowing happens in the executor's refinement pass.
type PractitionerRoleAdapter struct {
	client *Client
}

func NewPractitionerRoleAdapter(client *Client) *PractitionerRoleAdapter {
	return &PractitionerRoleAdapter{client: client}
}

func (a *PractitionerRoleAdapter) Category() search.Category {
	return search.CategoryPractitionerBySpecialty
}

func (a *PractitionerRoleAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	query := url.Values{}
	if params.SpecialtyCode != "" {
		query.Set("role", params.SpecialtyCode)
	}
	if params.Count > 0 {
		query.Set("_count", strconv.Itoa(params.Count))
	}

	bundle, err := a.client.Search(ctx, "PractitionerRole", query)
	if err != nil {
		return nil, err
	}
	return practitionerRoleItems(bundle), nil
}
