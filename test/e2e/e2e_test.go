// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sante-search/internal/adapters"
	"sante-search/internal/adapters/esdirectory"
	"sante-search/internal/adapters/fhir"
	"sante-search/internal/adapters/orgcache"
	"sante-search/internal/adapters/pgdirectory"
	"sante-search/internal/common/config"
	"sante-search/internal/common/database"
	"sante-search/internal/common/logger"
	"sante-search/internal/search"
	"sante-search/internal/search/classifier"
	"sante-search/internal/search/engine"
	"sante-search/internal/search/executor"
	"sante-search/internal/search/extractor"
	"sante-search/internal/search/formatter"
	"sante-search/internal/search/normalizer"
	"sante-search/internal/search/planner"
	"sante-search/pkg/registry"

	ias "sante-search/internal/workers/interpret-and-search"
)

var (
	zeebeClient zbc.Client
	zapLog      *zap.Logger
)

func TestMain(m *testing.M) {
	if os.Getenv("E2E_TESTS") == "" {
		fmt.Println("⚠️ E2E_TESTS not set, skipping e2e suite")
		os.Exit(0)
	}

	var err error
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
	})
	if err != nil {
		panic(fmt.Sprintf("❌ Failed to connect to Zeebe: %v", err))
	}

	zapLog, _ = zap.NewProduction()

	code := m.Run()

	zeebeClient.Close()
	os.Exit(code)
}

func TestFullE2E(t *testing.T) {
	_, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Log("🚀 Starting FULL E2E Test with real services...")

	// 1. Check all external services are available
	assertAllServicesConnectivity(t, cfg)

	// 2. Seed the local directory replicas
	seedPractitionerDirectory(t, cfg)
	seedFacilityIndex(t, cfg)

	// 3. Run real interpretation + search round trips
	testInterpretAndSearch(t, cfg, zapLog)

	t.Log("✅ ALL TESTS PASSED — Full E2E search round trip successful!")
}

func assertAllServicesConnectivity(t *testing.T, cfg *config.Config) {
	t.Log("🔍 Checking service connectivity...")

	// 🔧 FORCE LOCALHOST FOR E2E TESTS
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"
	cfg.Adapters.FacilityBackend = "elasticsearch"
	cfg.Adapters.PractitionerBackend = "postgres"

	// --- PostgreSQL ---
	db, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL connection failed")
	assert.NoError(t, db.Ping(context.Background()), "❌ PostgreSQL ping failed")
	db.Close()
	t.Log("✅ PostgreSQL connected")

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	assert.NoError(t, rdb.Ping(context.Background()), "❌ Redis ping failed")
	rdb.Close()
	t.Log("✅ Redis connected")

	// --- Elasticsearch ---
	esURL := cfg.Database.Elasticsearch.GetURL()
	t.Logf("🔗 Elasticsearch URL: %s", esURL)

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	require.NoError(t, err, "❌ Elasticsearch client creation failed")

	res, err := es.Info()
	require.NoError(t, err, "❌ Elasticsearch info request failed")
	assert.False(t, res.IsError(), "❌ Elasticsearch returned error")
	res.Body.Close()
	t.Log("✅ Elasticsearch connected")

	// --- Zeebe ---
	_, err = zeebeClient.NewTopologyCommand().Send(context.Background())
	assert.NoError(t, err, "❌ Zeebe topology request failed")
	t.Log("✅ Zeebe connected")
}

// ==========================
// 2. Directory Replica Seeding
// ==========================
func seedPractitionerDirectory(t *testing.T, cfg *config.Config) {
	t.Log("🔧 Creating directory tables and inserting test practitioners...")

	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	db := dbClient.GetDB()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS practitioners (
			id TEXT PRIMARY KEY,
			family_name TEXT NOT NULL,
			given_name TEXT,
			prefix TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS practitioner_roles (
			id TEXT PRIMARY KEY,
			practitioner_id TEXT NOT NULL REFERENCES practitioners(id),
			profession_code TEXT NOT NULL,
			organization_id TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
	}
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "❌ Table creation failed")
	}

	seedRows := []struct {
		prID, family, given, prefix string
		roleID, profession, org     string
	}{
		{"prac-001", "Martin", "Claire", "Dr", "role-001", "31", "org-001"},
		{"prac-002", "Dupont", "Jean", "Dr", "role-002", "86", "org-002"},
		{"prac-003", "Bernard", "Sophie", "Dr", "role-003", "86", "org-001"},
	}
	for _, row := range seedRows {
		_, err := db.Exec(
			`INSERT INTO practitioners (id, family_name, given_name, prefix)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
			row.prID, row.family, row.given, row.prefix,
		)
		require.NoError(t, err)
		_, err = db.Exec(
			`INSERT INTO practitioner_roles (id, practitioner_id, profession_code, organization_id, active)
			 VALUES ($1, $2, $3, $4, TRUE) ON CONFLICT (id) DO NOTHING`,
			row.roleID, row.prID, row.profession, row.org,
		)
		require.NoError(t, err)
	}

	t.Log("✅ Practitioner directory seeded")
}

func seedFacilityIndex(t *testing.T, cfg *config.Config) {
	t.Log("🔧 Indexing test facilities...")

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Database.Elasticsearch.GetURL()},
	})
	require.NoError(t, err)

	docs := []string{
		`{"id":"org-001","name":"Centre de Santé Voltaire","city":"paris","postalCode":"75011"}`,
		`{"id":"org-002","name":"Clinique des Lilas","city":"paris","postalCode":"75017"}`,
		`{"id":"org-003","name":"Cabinet Dentaire Part-Dieu","city":"lyon","postalCode":"69003"}`,
	}
	for i, doc := range docs {
		res, err := es.Index(
			cfg.Adapters.FacilityIndex,
			strings.NewReader(doc),
			es.Index.WithDocumentID(fmt.Sprintf("org-%03d", i+1)),
			es.Index.WithRefresh("true"),
		)
		require.NoError(t, err, "❌ Facility indexing failed")
		assert.False(t, res.IsError())
		res.Body.Close()
	}

	t.Log("✅ Facility index seeded")
}

// ==========================
// 3. Real Search Round Trips
// ==========================
func testInterpretAndSearch(t *testing.T, cfg *config.Config, log *zap.Logger) {
	appLog := logger.NewZapAdapter(log)

	eng := buildEngine(t, cfg, appLog)
	handler := ias.NewHandler(&ias.Config{Timeout: 30 * time.Second}, eng, appLog)

	t.Run("specialty query against postgres replica", func(t *testing.T) {
		out, err := handler.Execute(context.Background(), &ias.Input{
			Query:    "je cherche un dentiste",
			Language: "fr",
		})
		require.NoError(t, err)
		assert.True(t, out.Success)
		require.NotEmpty(t, out.Items)
		for _, item := range out.Items {
			assert.Equal(t, search.CategoryPractitionerBySpecialty, item.ResourceCategory)
		}
	})

	t.Run("facility query against elasticsearch replica", func(t *testing.T) {
		out, err := handler.Execute(context.Background(), &ias.Input{
			Query:    "clinique à paris",
			Language: "fr",
		})
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.NotEmpty(t, out.Items)
	})

	t.Run("name query", func(t *testing.T) {
		out, err := handler.Execute(context.Background(), &ias.Input{
			Query:    "Dr Martin à paris",
			Language: "fr",
		})
		require.NoError(t, err)
		assert.True(t, out.Success)
		require.NotEmpty(t, out.Items)
		assert.Contains(t, out.Items[0].DisplayName, "Martin")
	})

	t.Run("nonsense query still answers", func(t *testing.T) {
		out, err := handler.Execute(context.Background(), &ias.Input{
			Query:    "xyzzy plugh",
			Language: "fr",
		})
		require.NoError(t, err)
		assert.True(t, out.Trace.LowConfidence)
	})
}

func buildEngine(t *testing.T, cfg *config.Config, log logger.Logger) *engine.Engine {
	reg, err := registry.Load(findRegistryPath(t))
	require.NoError(t, err)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	gateway := fhir.NewClient(cfg.Gateway, log)

	set := adapters.NewSet(
		esdirectory.NewFacilityAdapter(esClient, cfg.Adapters.FacilityIndex, log),
		pgdirectory.NewSpecialtyAdapter(pg, log),
		pgdirectory.NewNameAdapter(pg, log),
		fhir.NewHealthcareServiceAdapter(gateway),
		fhir.NewDeviceAdapter(gateway),
	)
	backends := map[search.Category]string{
		search.CategoryFacility:                "elasticsearch",
		search.CategoryPractitionerBySpecialty: "postgres",
		search.CategoryPractitionerByName:      "postgres",
		search.CategoryService:                 "gateway",
		search.CategoryEquipment:               "gateway",
	}

	cache := orgcache.New(rdb, orgcache.NewGatewayLoader(gateway),
		time.Duration(cfg.Adapters.CacheTTL)*time.Second, log)
	refiner := executor.NewRefiner(cache, cfg.Adapters.RefineWorkers, log)

	norm := normalizer.New(cfg.Search)
	return engine.New(
		extractor.New(norm, log),
		classifier.New(log),
		planner.New(reg, cfg.Search, log),
		executor.New(set, reg, refiner,
			time.Duration(cfg.Adapters.Timeout)*time.Millisecond, backends, log),
		formatter.New(log),
		log,
	)
}

func findRegistryPath(t *testing.T) string {
	possiblePaths := []string{
		"configs/adapter-registry.json",
		"../configs/adapter-registry.json",
		"../../configs/adapter-registry.json",
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Fatal("❌ adapter-registry.json not found in any expected location")
	return ""
}
