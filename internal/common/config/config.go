// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Gateway  GatewayConfig           `mapstructure:"gateway"`
	Search   SearchConfig            `mapstructure:"search"`
	Adapters AdaptersConfig          `mapstructure:"adapters"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Domain Configuration Sections ---

// GatewayConfig holds settings for the national healthcare directory gateway (FHIR).
type GatewayConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	APIKeyHeader string `mapstructure:"api_key_header"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

// SearchConfig holds the injected vocabulary tables and interpretation tuning.
// The tables are loaded once and treated as immutable for the process lifetime.
type SearchConfig struct {
	FuzzyCutoff  float64           `mapstructure:"fuzzy_cutoff"`
	DefaultCount int               `mapstructure:"default_count"`
	MaxCount     int               `mapstructure:"max_count"`
	Specialties  map[string]string `mapstructure:"specialties"` // canonical term -> profession code
	Variants     map[string]string `mapstructure:"variants"`    // variant/misspelling -> canonical term
	Cities       []string          `mapstructure:"cities"`      // named-city allow-list
	Metropolis   MetropolisConfig  `mapstructure:"metropolis"`
}

// MetropolisConfig is the district-to-postal-code synthesis rule
// ("paris 17" -> prefix "750" + zero-padded district -> "75017").
type MetropolisConfig struct {
	Name         string `mapstructure:"name"`
	PostalPrefix string `mapstructure:"postal_prefix"`
	MinDistrict  int    `mapstructure:"min_district"`
	MaxDistrict  int    `mapstructure:"max_district"`
}

// AdaptersConfig selects which backend serves each resource category and
// carries the shared adapter runtime settings.
type AdaptersConfig struct {
	RegistryPath        string `mapstructure:"registry_path"`
	FacilityBackend     string `mapstructure:"facility_backend"`     // "gateway" or "elasticsearch"
	PractitionerBackend string `mapstructure:"practitioner_backend"` // "gateway" or "postgres"
	FacilityIndex       string `mapstructure:"facility_index"`
	Timeout             int    `mapstructure:"timeout"`        // milliseconds, per adapter call
	CacheTTL            int    `mapstructure:"cache_ttl"`      // seconds, organization address cache
	RefineWorkers       int    `mapstructure:"refine_workers"` // parallel address lookups per refinement pass
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
