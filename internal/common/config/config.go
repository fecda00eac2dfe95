// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Geo          GeoConfig               `mapstructure:"geo"`
	Backend      BackendConfig           `mapstructure:"backend"`
	Autocomplete AutocompleteConfig      `mapstructure:"autocomplete"`
	Filter       FilterConfig            `mapstructure:"filter"`
	Records      RecordsConfig           `mapstructure:"records"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Tracing      TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
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

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Domain Configuration ---

// GeoConfig holds settings for the geography lookup service.
type GeoConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	APIHost     string `mapstructure:"api_host"`
	CountryCode string `mapstructure:"country_code"`
	MaxResults  int    `mapstructure:"max_results"`
	Timeout     int    `mapstructure:"timeout"`     // milliseconds
	MaxRetries  int    `mapstructure:"max_retries"` // retries after a 429
	BaseDelay   int    `mapstructure:"base_delay"`  // milliseconds
	Cache       struct {
		Backend string `mapstructure:"backend"` // memory | redis
		TTL     int    `mapstructure:"ttl"`     // seconds, 0 = never expire
	} `mapstructure:"cache"`
}

// BackendConfig holds settings for the recruitment backend record API.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// AutocompleteConfig holds the debounce settings shared by all autocomplete fields.
type AutocompleteConfig struct {
	DebounceMS     int `mapstructure:"debounce_ms"`
	MinQueryLength int `mapstructure:"min_query_length"`
}

// FilterConfig holds record listing defaults.
type FilterConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// RecordsConfig selects where candidate records are read from.
type RecordsConfig struct {
	Source string `mapstructure:"source"` // backend | postgres | elasticsearch
	Limit  int    `mapstructure:"limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Trace exporters accepted by TracingConfig.Exporter.
const (
	TracingExporterNone   = "none"
	TracingExporterStdout = "stdout"
	TracingExporterOTLP   = "otlp"
)

// TracingConfig selects where spans are exported.
type TracingConfig struct {
	Exporter    string  `mapstructure:"exporter"` // none | stdout | otlp
	Endpoint    string  `mapstructure:"endpoint"` // otlp collector host:port
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}
