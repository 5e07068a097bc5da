package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sante-search/internal/adapters"
	"sante-search/internal/adapters/esdirectory"
	"sante-search/internal/adapters/fhir"
	"sante-search/internal/adapters/orgcache"
	"sante-search/internal/adapters/pgdirectory"
	"sante-search/internal/common/config"
	"sante-search/internal/common/database"
	"sante-search/internal/common/logger"
	"sante-search/internal/common/observability"
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

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting search server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("search-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry (only when the practitioner
	// categories are served from the local directory replica) ---
	var pg *database.PostgresClient
	if cfg.Adapters.PractitionerBackend == "postgres" {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			// Test the connection with context
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Init Elasticsearch with retry (only for the local facility index) ---
	var esClient *database.ElasticsearchClient
	if cfg.Adapters.FacilityBackend == "elasticsearch" {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Gateway Client & Capability Registry ---
	gateway := fhir.NewClient(cfg.Gateway, log)

	reg, err := registry.Load(cfg.Adapters.RegistryPath)
	if err != nil {
		zapLog.Fatal("adapter registry load failed", zap.Error(err))
	}
	zapLog.Info("Adapter registry loaded",
		zap.String("version", reg.Version),
		zap.Int("adapters", len(reg.Adapters)),
	)

	// --- Assemble Adapters per configured backend ---
	set, backends := buildAdapters(cfg, gateway, pg, esClient, log)
	for cat, backend := range backends {
		zapLog.Info("adapter registered",
			zap.String("category", string(cat)),
			zap.String("backend", backend),
		)
	}

	// --- Assemble Search Pipeline ---
	cache := orgcache.New(redis, orgcache.NewGatewayLoader(gateway),
		time.Duration(cfg.Adapters.CacheTTL)*time.Second, log)
	refiner := executor.NewRefiner(cache, cfg.Adapters.RefineWorkers, log)

	norm := normalizer.New(cfg.Search)
	eng := engine.New(
		extractor.New(norm, log),
		classifier.New(log),
		planner.New(reg, cfg.Search, log),
		executor.New(set, reg, refiner,
			time.Duration(cfg.Adapters.Timeout)*time.Millisecond, backends, log),
		formatter.New(log),
		log,
	)

	// --- Register Workers ---
	if cfg.Workers[ias.TaskType].Enabled {
		handler := ias.NewHandler(
			&ias.Config{
				Timeout: time.Duration(cfg.Workers[ias.TaskType].Timeout) * time.Millisecond,
			},
			eng, log,
		)
		startWorker(zeebeClient, ias.TaskType, cfg.Workers[ias.TaskType], handler.Handle, zapLog)
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Search server stopped gracefully")
}

// buildAdapters wires one adapter per resource category. The facility and
// practitioner categories switch between the national gateway and the local
// replica (Elasticsearch index / Postgres directory) per configuration;
// services and equipment are only exposed through the gateway.
func buildAdapters(cfg *config.Config, gateway *fhir.Client, pg *database.PostgresClient,
	es *database.ElasticsearchClient, log logger.Logger) (adapters.Set, map[search.Category]string) {

	backends := map[search.Category]string{
		search.CategoryService:   "gateway",
		search.CategoryEquipment: "gateway",
	}
	list := []adapters.Adapter{
		fhir.NewHealthcareServiceAdapter(gateway),
		fhir.NewDeviceAdapter(gateway),
	}

	if cfg.Adapters.FacilityBackend == "elasticsearch" {
		list = append(list, esdirectory.NewFacilityAdapter(es, cfg.Adapters.FacilityIndex, log))
		backends[search.CategoryFacility] = "elasticsearch"
	} else {
		list = append(list, fhir.NewOrganizationAdapter(gateway))
		backends[search.CategoryFacility] = "gateway"
	}

	if cfg.Adapters.PractitionerBackend == "postgres" {
		list = append(list,
			pgdirectory.NewSpecialtyAdapter(pg, log),
			pgdirectory.NewNameAdapter(pg, log),
		)
		backends[search.CategoryPractitionerBySpecialty] = "postgres"
		backends[search.CategoryPractitionerByName] = "postgres"
	} else {
		list = append(list,
			fhir.NewPractitionerRoleAdapter(gateway),
			fhir.NewPractitionerAdapter(gateway),
		)
		backends[search.CategoryPractitionerBySpecialty] = "gateway"
		backends[search.CategoryPractitionerByName] = "gateway"
	}

	return adapters.NewSet(list...), backends
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
