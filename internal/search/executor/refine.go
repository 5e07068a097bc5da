// internal/search/executor/refine.go
package executor

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sante-search/internal/adapters/orgcache"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"
)

// Refiner performs the local geographic refinement pass: resolve each item's
// parent-organization address, classify the match quality against the
// requested geography, and stable-sort best matches first. Items are
// re-ordered, never discarded.
type Refiner struct {
	cache   *orgcache.Cache
	workers int
	logger  logger.Logger
}

func NewRefiner(cache *orgcache.Cache, workers int, log logger.Logger) *Refiner {
	if workers <= 0 {
		workers = 4
	}
	return &Refiner{cache: cache, workers: workers, logger: log}
}

func (r *Refiner) Refine(ctx context.Context, plan *search.Plan, rr *search.ResourceResult) {
	if len(rr.Items) == 0 {
		return
	}

	r.resolveAddresses(ctx, rr.Items)

	for _, item := range rr.Items {
		quality := classifyMatch(
			plan.RequestedPostal, plan.RequestedCity,
			itemString(item, search.ItemKeyPostalCode),
			itemString(item, search.ItemKeyCity),
		)
		item[search.ItemKeyLocMatch] = string(quality)
	}

	sort.SliceStable(rr.Items, func(i, j int) bool {
		qi := search.MatchQuality(itemString(rr.Items[i], search.ItemKeyLocMatch))
		qj := search.MatchQuality(itemString(rr.Items[j], search.ItemKeyLocMatch))
		return qi.Rank() < qj.Rank()
	})
}

// resolveAddresses fills postal code and city on items that carry only an
// organization reference, with bounded concurrency. A failed lookup leaves
// the item untouched; it simply ranks as unknown.
func (r *Refiner) resolveAddresses(ctx context.Context, items []search.Item) {
	if r.cache == nil {
		return
	}

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for _, item := range items {
		if itemString(item, search.ItemKeyPostalCode) != "" {
			continue
		}
		orgRef := itemString(item, search.ItemKeyOrgRef)
		if orgRef == "" {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(item search.Item, orgRef string) {
			defer wg.Done()
			defer func() { <-sem }()

			addr, err := r.cache.Address(ctx, orgRef)
			if err != nil {
				r.logger.Warn("address lookup failed", map[string]interface{}{
					"orgRef": orgRef,
					"error":  err.Error(),
				})
				return
			}
			if addr == nil {
				return
			}
			if addr.PostalCode != "" {
				item[search.ItemKeyPostalCode] = addr.PostalCode
			}
			if addr.City != "" {
				item[search.ItemKeyCity] = addr.City
			}
		}(item, orgRef)
	}
	wg.Wait()
}

// classifyMatch ranks an item's address against the requested geography.
// Postal codes compare hierarchically: full code, then the three-digit
// district group, then the two-digit department. A city-only request can
// only distinguish exact from unknown.
func classifyMatch(reqPostal, reqCity, itemPostal, itemCity string) search.MatchQuality {
	if reqPostal != "" && len(reqPostal) == 5 {
		if itemPostal == "" {
			return cityFallback(reqCity, itemCity)
		}
		switch {
		case itemPostal == reqPostal:
			return search.MatchExact
		case len(itemPostal) >= 3 && itemPostal[:3] == reqPostal[:3]:
			return search.MatchDistrict
		case len(itemPostal) >= 2 && itemPostal[:2] == reqPostal[:2]:
			return search.MatchRegion
		default:
			return search.MatchUnknown
		}
	}
	return cityFallback(reqCity, itemCity)
}

func cityFallback(reqCity, itemCity string) search.MatchQuality {
	if reqCity != "" && itemCity != "" && strings.EqualFold(reqCity, itemCity) {
		return search.MatchExact
	}
	return search.MatchUnknown
}

func itemString(item search.Item, key string) string {
	if v, ok := item[key].(string); ok {
		return v
	}
	return ""
}
