// internal/adapters/orgcache/loader.go
package orgcache

import (
	"context"
	"net/url"

	"sante-search/internal/adapters/fhir"
)

// NewGatewayLoader resolves organization addresses against the directory
// gateway. An organization that is missing, or has no usable address, yields
// a nil Address without error — refinement treats that as unknown quality.
func NewGatewayLoader(client *fhir.Client) Loader {
	return func(ctx context.Context, orgRef string) (*Address, error) {
		query := url.Values{}
		query.Set("_id", orgRef)

		bundle, err := client.Search(ctx, "Organization", query)
		if err != nil {
			return nil, err
		}
		resources := bundle.Resources()
		if len(resources) == 0 {
			return nil, nil
		}
		return addressFromResource(resources[0]), nil
	}
}

func addressFromResource(resource map[string]interface{}) *Address {
	addresses, ok := resource["address"].([]interface{})
	if !ok || len(addresses) == 0 {
		return nil
	}
	first, ok := addresses[0].(map[string]interface{})
	if !ok {
		return nil
	}
	addr := &Address{}
	if city, ok := first["city"].(string); ok {
		addr.City = city
	}
	if postal, ok := first["postalCode"].(string); ok {
		addr.PostalCode = postal
	}
	if addr.City == "" && addr.PostalCode == "" {
		return nil
	}
	return addr
}
