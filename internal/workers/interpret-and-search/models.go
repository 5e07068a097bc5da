// internal/workers/interpret-and-search/models.go
package interpretandsearch

import "sante-search/internal/search"

type Input struct {
	Query       string            `json:"query"`
	Language    string            `json:"language,omitempty"` // "fr" or "en", hint only
	UserContext map[string]string `json:"userContext,omitempty"`
}

type Output struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Items   []search.Record `json:"items"`
	Trace   search.Trace    `json:"trace"`
}

// Error codes thrown to the process
const (
	ErrorCodeInvalidQuery = "INVALID_QUERY_FORMAT"
	ErrorCodeSearchFailed = "SEARCH_FAILED"
)
