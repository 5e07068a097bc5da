// internal/adapters/fhir/client.go
package fhir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sante-search/internal/common/config"
	"sante-search/internal/common/errors"
	commonhttp "sante-search/internal/common/http"
	"sante-search/internal/common/logger"
)

// Client talks to the national healthcare directory FHIR gateway. Every
// request carries the API key header; responses are FHIR Bundles.
type Client struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	http         *commonhttp.Client
	logger       logger.Logger
}

// Bundle is the subset of a FHIR searchset bundle the adapters consume.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Total        int           `json:"total"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	FullURL  string                 `json:"fullUrl"`
	Resource map[string]interface{} `json:"resource"`
}

func NewClient(cfg config.GatewayConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		apiKeyHeader: cfg.APIKeyHeader,
		http:         commonhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		logger:       log,
	}
}

// Search runs a FHIR search on one resource type and returns the decoded
// bundle.
func (c *Client) Search(ctx context.Context, resource string, query url.Values) (*Bundle, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, resource)
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/fhir+json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.logger.Debug("gateway search", map[string]interface{}{
		"resource": resource,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.NewGatewayUnauthorizedError(resource)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gateway %s returned %d: %s", resource, resp.StatusCode, string(body))
	}

	var bundle Bundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decoding %s bundle: %w", resource, err)
	}
	return &bundle, nil
}

// Resources returns the entry resources of a bundle, skipping empty entries.
func (b *Bundle) Resources() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(b.Entry))
	for _, e := range b.Entry {
		if e.Resource != nil {
			out = append(out, e.Resource)
		}
	}
	return out
}
