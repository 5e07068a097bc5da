// internal/adapters/fhir/device.go
package fhir

import (
	"context"
	"net/url"
	"strconv"

	"sante-search/internal/search"
)

// DeviceAdapter searches heavy medical equipment (Device resources) by type.
type DeviceAdapter struct {
	client *Client
}

func NewDeviceAdapter(client *Client) *DeviceAdapter {
	return &DeviceAdapter{client: client}
}

func (a *DeviceAdapter) Category() search.Category {
	return search.CategoryEquipment
}

func (a *DeviceAdapter) Search(ctx context.Context, params search.Params) ([]search.Item, error) {
	query := url.Values{}
	if params.ResourceType != "" {
		query.Set("type", params.ResourceType)
	}
	if params.Count > 0 {
		query.Set("_count", strconv.Itoa(params.Count))
	}

	bundle, err := a.client.Search(ctx, "Device", query)
	if err != nil {
		return nil, err
	}
	return deviceItems(bundle), nil
}
