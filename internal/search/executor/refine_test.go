// internal/search/executor/refine_test.go
package executor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sante-search/internal/adapters/orgcache"
	"sante-search/internal/common/database"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"
)

func TestClassifyMatch(t *testing.T) {
	cases := []struct {
		name       string
		reqPostal  string
		reqCity    string
		itemPostal string
		itemCity   string
		want       search.MatchQuality
	}{
		{"exact postal", "75017", "", "75017", "", search.MatchExact},
		{"same district group", "75017", "", "75018", "", search.MatchDistrict},
		{"same department", "75017", "", "75117", "", search.MatchRegion},
		{"different department", "75017", "", "69006", "", search.MatchUnknown},
		{"no item address", "75017", "", "", "", search.MatchUnknown},
		{"city only exact", "", "paris", "", "Paris", search.MatchExact},
		{"city only mismatch", "", "paris", "", "lyon", search.MatchUnknown},
		{"postal request with city-only item", "75017", "paris", "", "paris", search.MatchExact},
		{"nothing requested", "", "", "75017", "paris", search.MatchUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyMatch(tc.reqPostal, tc.reqCity, tc.itemPostal, tc.itemCity))
		})
	}
}

func TestRefine_StableSortNeverDiscards(t *testing.T) {
	r := NewRefiner(nil, 2, logger.NewNoOpLogger())

	items := []search.Item{
		{search.ItemKeyID: "a", search.ItemKeyPostalCode: "92000"},
		{search.ItemKeyID: "b", search.ItemKeyPostalCode: "75017"},
		{search.ItemKeyID: "c", search.ItemKeyPostalCode: "75018"},
		{search.ItemKeyID: "d"},
		{search.ItemKeyID: "e", search.ItemKeyPostalCode: "75018"},
	}
	rr := &search.ResourceResult{Category: search.CategoryPractitionerBySpecialty, Success: true, Items: items}
	plan := &search.Plan{RequestedPostal: "75017"}

	r.Refine(context.Background(), plan, rr)

	require.Len(t, rr.Items, 5)
	ids := []string{}
	for _, it := range rr.Items {
		ids = append(ids, it[search.ItemKeyID].(string))
	}
	// exact first, then district matches keeping their relative order, then
	// the unknowns keeping theirs.
	assert.Equal(t, []string{"b", "c", "e", "a", "d"}, ids)

	assert.Equal(t, string(search.MatchExact), rr.Items[0][search.ItemKeyLocMatch])
	assert.Equal(t, string(search.MatchUnknown), rr.Items[4][search.ItemKeyLocMatch])
}

func TestRefine_ResolvesAddressesThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	loaderCalls := 0
	loader := func(ctx context.Context, orgRef string) (*orgcache.Address, error) {
		loaderCalls++
		if orgRef == "org-exact" {
			return &orgcache.Address{City: "paris", PostalCode: "75017"}, nil
		}
		return nil, nil
	}
	cache := orgcache.New(rdb, loader, time.Hour, logger.NewNoOpLogger())
	r := NewRefiner(cache, 2, logger.NewNoOpLogger())

	items := []search.Item{
		{search.ItemKeyID: "p1", search.ItemKeyOrgRef: "org-unknown"},
		{search.ItemKeyID: "p2", search.ItemKeyOrgRef: "org-exact"},
	}
	rr := &search.ResourceResult{Category: search.CategoryPractitionerBySpecialty, Success: true, Items: items}
	plan := &search.Plan{RequestedPostal: "75017"}

	r.Refine(context.Background(), plan, rr)

	require.Len(t, rr.Items, 2)
	assert.Equal(t, "p2", rr.Items[0][search.ItemKeyID])
	assert.Equal(t, "75017", rr.Items[0][search.ItemKeyPostalCode])
	assert.Equal(t, string(search.MatchExact), rr.Items[0][search.ItemKeyLocMatch])
	assert.Equal(t, string(search.MatchUnknown), rr.Items[1][search.ItemKeyLocMatch])
	assert.Equal(t, 2, loaderCalls)
}

func TestRefine_GatewayItemsResolveOrganizationAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	var gotRef string
	loader := func(ctx context.Context, orgRef string) (*orgcache.Address, error) {
		gotRef = orgRef
		return &orgcache.Address{City: "Paris", PostalCode: "75003"}, nil
	}
	cache := orgcache.New(rdb, loader, time.Hour, logger.NewNoOpLogger())
	r := NewRefiner(cache, 2, logger.NewNoOpLogger())

	// Shaped like a flattened PractitionerRole from the gateway: a name, a
	// profession code and a bare organization id, no address of its own.
	items := []search.Item{{
		search.ItemKeyID:         "role-1",
		search.ItemKeyFamily:     "Martin",
		search.ItemKeyGiven:      "Claire",
		search.ItemKeyProfession: "86",
		search.ItemKeyOrgRef:     "org-9",
	}}
	rr := &search.ResourceResult{Category: search.CategoryPractitionerBySpecialty, Success: true, Items: items}
	plan := &search.Plan{RequestedPostal: "75003"}

	r.Refine(context.Background(), plan, rr)

	assert.Equal(t, "org-9", gotRef)
	assert.Equal(t, "75003", rr.Items[0][search.ItemKeyPostalCode])
	assert.Equal(t, "Paris", rr.Items[0][search.ItemKeyCity])
	assert.Equal(t, string(search.MatchExact), rr.Items[0][search.ItemKeyLocMatch])
}
