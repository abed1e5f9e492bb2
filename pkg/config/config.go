// Package config holds the settings shared by the crawler, indexer, searcher
// and analytics binaries. Values come from built-in defaults, then an optional
// YAML file, then SP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is one service's complete configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig is the searcher's HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// RateLimit is requests per minute per client; zero disables limiting.
	RateLimit   int      `yaml:"rateLimit"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// PostgresConfig locates the database backing the persistent frontier.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a postgres:// URL for lib/pq. Credentials are escaped, so
// passwords may contain any character.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	if p.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {p.SSLMode}}.Encode()
	}
	return u.String()
}

// KafkaConfig enables the event bus. With Enabled false every service runs
// without Kafka.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics names the topics the services exchange events on.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
	SearchEvents  string `yaml:"searchEvents"`
}

// RedisConfig locates the shared search result cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// CrawlerConfig controls the crawl scope, the frontier backend and where the
// crawl analytics are written.
type CrawlerConfig struct {
	SeedURLs      []string      `yaml:"seedURLs"`
	AllowedDomain string        `yaml:"allowedDomain"`
	CorpusDir     string        `yaml:"corpusDir"`
	AnalyticsDir  string        `yaml:"analyticsDir"`
	Frontier      string        `yaml:"frontier"`
	Live          bool          `yaml:"live"`
	UserAgent     string        `yaml:"userAgent"`
	FetchTimeout  time.Duration `yaml:"fetchTimeout"`
	FetchAttempts int           `yaml:"fetchAttempts"`
}

// IndexerConfig controls where the corpus is read from, where index
// artifacts are written and how pass 1 is parallelised.
type IndexerConfig struct {
	CorpusDir   string `yaml:"corpusDir"`
	DataDir     string `yaml:"dataDir"`
	Workers     int    `yaml:"workers"`
	StrictDedup bool   `yaml:"strictDedup"`
	WriteJSON   bool   `yaml:"writeJSON"`
}

// SearchConfig controls result paging and snippets.
type SearchConfig struct {
	PageSize      int  `yaml:"pageSize"`
	SnippetLength int  `yaml:"snippetLength"`
	CacheEnabled  bool `yaml:"cacheEnabled"`
}

// LoggingConfig selects the slog level and handler ("json" or "text").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig is the separate listener serving /metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load layers the YAML file at path (skipped when path is empty) and the
// environment over the defaults, then validates the result. Unknown keys in
// the file are an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the services cannot run with, reporting every
// problem at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.Crawler.Frontier == "memory" || c.Crawler.Frontier == "postgres",
		"crawler.frontier must be memory or postgres, got %q", c.Crawler.Frontier)
	check(c.Search.PageSize > 0, "search.pageSize must be positive, got %d", c.Search.PageSize)
	check(c.Search.SnippetLength > 0, "search.snippetLength must be positive, got %d", c.Search.SnippetLength)
	check(c.Server.RateLimit >= 0, "server.rateLimit must not be negative, got %d", c.Server.RateLimit)
	check(c.Indexer.Workers >= 0, "indexer.workers must not be negative, got %d", c.Indexer.Workers)
	check(!c.Kafka.Enabled || len(c.Kafka.Brokers) > 0, "kafka.brokers must not be empty when kafka is enabled")
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// defaultConfig matches configs/development.yaml, so the services start
// against a local stack with no file at all.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080, RateLimit: 600,
			ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host: "localhost", Port: 5432,
			Database: "icssearch", User: "icssearch", Password: "localdev",
			SSLMode:      "disable",
			MaxOpenConns: 10, MaxIdleConns: 2, ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "icssearch-searcher",
			Topics: KafkaTopics{
				IndexComplete: "index.complete",
				SearchEvents:  "search.events",
			},
		},
		Redis: RedisConfig{Addr: "localhost:6379", PoolSize: 10, CacheTTL: time.Minute},
		Crawler: CrawlerConfig{
			AllowedDomain: ".ics.uci.edu",
			CorpusDir:     "WEBPAGES_RAW",
			AnalyticsDir:  ".",
			Frontier:      "memory",
			UserAgent:     "IR ICS crawler",
			FetchTimeout:  10 * time.Second,
			FetchAttempts: 3,
		},
		Indexer: IndexerConfig{
			CorpusDir: "WEBPAGES_RAW",
			DataDir:   "data",
			Workers:   4,
		},
		Search: SearchConfig{
			PageSize:      20,
			SnippetLength: 300,
			CacheEnabled:  true,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Port: 9090},
	}
}

// envOverrides maps every SP_* variable onto the field it sets. Values that
// fail to parse are ignored and the file or default value stays.
var envOverrides = []struct {
	name  string
	apply func(cfg *Config, v string)
}{
	{"SP_SERVER_PORT", func(c *Config, v string) { setInt(&c.Server.Port, v) }},
	{"SP_SERVER_RATE_LIMIT", func(c *Config, v string) { setInt(&c.Server.RateLimit, v) }},
	{"SP_SERVER_CORS_ORIGINS", func(c *Config, v string) { c.Server.CORSOrigins = splitList(v) }},
	{"SP_POSTGRES_HOST", func(c *Config, v string) { c.Postgres.Host = v }},
	{"SP_POSTGRES_PORT", func(c *Config, v string) { setInt(&c.Postgres.Port, v) }},
	{"SP_POSTGRES_DATABASE", func(c *Config, v string) { c.Postgres.Database = v }},
	{"SP_POSTGRES_USER", func(c *Config, v string) { c.Postgres.User = v }},
	{"SP_POSTGRES_PASSWORD", func(c *Config, v string) { c.Postgres.Password = v }},
	{"SP_KAFKA_ENABLED", func(c *Config, v string) { setBool(&c.Kafka.Enabled, v) }},
	{"SP_KAFKA_BROKERS", func(c *Config, v string) { c.Kafka.Brokers = splitList(v) }},
	{"SP_KAFKA_CONSUMER_GROUP", func(c *Config, v string) { c.Kafka.ConsumerGroup = v }},
	{"SP_REDIS_ADDR", func(c *Config, v string) { c.Redis.Addr = v }},
	{"SP_REDIS_PASSWORD", func(c *Config, v string) { c.Redis.Password = v }},
	{"SP_SEARCH_CACHE_ENABLED", func(c *Config, v string) { setBool(&c.Search.CacheEnabled, v) }},
	{"SP_CRAWLER_SEEDS", func(c *Config, v string) { c.Crawler.SeedURLs = splitList(v) }},
	{"SP_CRAWLER_FRONTIER", func(c *Config, v string) { c.Crawler.Frontier = v }},
	{"SP_CRAWLER_CORPUS_DIR", func(c *Config, v string) { c.Crawler.CorpusDir = v }},
	{"SP_INDEXER_CORPUS_DIR", func(c *Config, v string) { c.Indexer.CorpusDir = v }},
	{"SP_INDEXER_DATA_DIR", func(c *Config, v string) { c.Indexer.DataDir = v }},
	{"SP_INDEXER_WORKERS", func(c *Config, v string) { setInt(&c.Indexer.Workers, v) }},
	{"SP_LOGGING_LEVEL", func(c *Config, v string) { c.Logging.Level = v }},
	{"SP_LOGGING_FORMAT", func(c *Config, v string) { c.Logging.Format = v }},
	{"SP_METRICS_ENABLED", func(c *Config, v string) { setBool(&c.Metrics.Enabled, v) }},
	{"SP_METRICS_PORT", func(c *Config, v string) { setInt(&c.Metrics.Port, v) }},
}

func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			o.apply(cfg, v)
		}
	}
}

func setInt(dst *int, v string) {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

func setBool(dst *bool, v string) {
	if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
		*dst = b
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
