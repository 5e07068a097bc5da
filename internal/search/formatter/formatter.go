// internal/search/formatter/formatter.go
package formatter

import (
	"strings"

	"sante-search/internal/common/logger"
	"sante-search/internal/search"
	"sante-search/internal/search/executor"
)

// Formatter converts heterogeneous adapter items into the uniform response
// envelope. A malformed record is skipped with a warning; its category is
// never aborted for it.
type Formatter struct {
	logger logger.Logger
}

func New(log logger.Logger) *Formatter {
	return &Formatter{logger: log}
}

// Format assembles the AggregatedResponse from one plan execution: flatten
// every successful category's items in merge order, truncate to the
// requested count, attach the trace.
func (f *Formatter) Format(requestID string, plan *search.Plan, result *executor.Result) *search.AggregatedResponse {
	records := []search.Record{}
	for _, rr := range result.Results {
		for _, item := range rr.Items {
			record, ok := f.toRecord(rr.Category, item)
			if !ok {
				f.logger.Warn("skipping malformed record", map[string]interface{}{
					"category": string(rr.Category),
				})
				continue
			}
			records = append(records, record)
		}
	}

	if limit := requestedCount(plan); limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return &search.AggregatedResponse{
		Success: !result.Exhausted,
		Count:   len(records),
		Items:   records,
		Trace: search.Trace{
			RequestID:     requestID,
			Mode:          result.Mode,
			Outcomes:      result.Outcomes,
			ServedBy:      result.ServedBy,
			LowConfidence: plan.LowConfidence,
			Exhausted:     result.Exhausted,
		},
	}
}

// toRecord interprets the agreed item keys; everything else rides along as
// descriptive fields. A record without an identifier is malformed.
func (f *Formatter) toRecord(category search.Category, item search.Item) (search.Record, bool) {
	id, _ := item[search.ItemKeyID].(string)
	if id == "" {
		return search.Record{}, false
	}

	record := search.Record{
		ID:               id,
		DisplayName:      displayName(category, item),
		ResourceCategory: category,
		LocationMatch:    search.MatchUnknown,
		Fields:           map[string]interface{}{},
	}
	if lm, ok := item[search.ItemKeyLocMatch].(string); ok && lm != "" {
		record.LocationMatch = search.MatchQuality(lm)
	}
	for k, v := range item {
		if k == search.ItemKeyID || k == search.ItemKeyLocMatch {
			continue
		}
		record.Fields[k] = v
	}
	return record, true
}

func displayName(category search.Category, item search.Item) string {
	switch category {
	case search.CategoryPractitionerBySpecialty, search.CategoryPractitionerByName:
		parts := []string{}
		for _, key := range []string{search.ItemKeyPrefix, search.ItemKeyGiven, search.ItemKeyFamily} {
			if v, ok := item[key].(string); ok && v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}

	if name, ok := item[search.ItemKeyName].(string); ok && name != "" {
		return name
	}
	if st, ok := item[search.ItemKeyServiceType].(string); ok && st != "" {
		return st
	}
	if dt, ok := item[search.ItemKeyDeviceType].(string); ok && dt != "" {
		return dt
	}
	id, _ := item[search.ItemKeyID].(string)
	return id
}

func requestedCount(plan *search.Plan) int {
	max := 0
	for _, params := range plan.Params {
		if params.Count > max {
			max = params.Count
		}
	}
	return max
}
