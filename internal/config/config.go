package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/b2bmart/search-service/pkg/config"
	"github.com/b2bmart/search-service/pkg/database"
	"github.com/b2bmart/search-service/pkg/tracing"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8010"`

	// Search engine selection (elasticsearch or memory)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"marketplace_listings"`

	// PostgreSQL, backing the category schema registry
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"marketplace"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"marketplace_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"marketplace"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Redis, caching resolved category schemas
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CategoryTTL   time.Duration `env:"CATEGORY_CACHE_TTL" envDefault:"5m"`

	// Catalog service, the source of truth for reindexing
	CatalogServiceURL string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8002"`
	ReindexBatchSize  int    `env:"REINDEX_BATCH_SIZE" envDefault:"500"`

	// Facet fan-out
	FacetConcurrency int `env:"FACET_CONCURRENCY" envDefault:"8"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"search-service"`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SearchEngine != "elasticsearch" && c.SearchEngine != "memory" {
		return fmt.Errorf("invalid search engine: %q", c.SearchEngine)
	}
	if c.FacetConcurrency < 1 {
		return fmt.Errorf("facet concurrency must be positive: %d", c.FacetConcurrency)
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("trace sample rate out of range: %f", c.TraceSampleRate)
	}
	return nil
}

// Postgres returns the pool configuration for the registry database.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPassword
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSLMode
	return pg
}

// Redis returns the client configuration for the category cache.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Tracing returns the OpenTelemetry configuration for the service.
func (c *Config) Tracing() tracing.Config {
	t := tracing.DefaultConfig("search-service")
	t.Environment = c.Environment
	t.OTLPEndpoint = c.OTLPEndpoint
	t.SampleRate = c.TraceSampleRate
	t.Enabled = c.TracingEnabled
	return t
}
