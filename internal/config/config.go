package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	IGDB       IGDBConfig       `yaml:"igdb"`
	OpenCritic OpenCriticConfig `yaml:"opencritic"`
	Releases   ReleasesConfig   `yaml:"releases"`
	Feeds      FeedsConfig      `yaml:"feeds"`
	Image      ImageConfig      `yaml:"image"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	LogLevel   string           `yaml:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// IGDBConfig holds catalog API credentials and endpoints.
// Credentials are usually injected through ${IGDB_CLIENT_ID} style references.
type IGDBConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	TokenURL     string        `yaml:"token_url"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RequestsPerS int           `yaml:"requests_per_second"`
}

// OpenCriticConfig holds review API configuration
type OpenCriticConfig struct {
	APIKey  string        `yaml:"api_key"`
	Host    string        `yaml:"host"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReleasesConfig holds windowing rules for the release lists
type ReleasesConfig struct {
	DefaultPlatform    int64         `yaml:"default_platform"`
	UpcomingWindowDays int           `yaml:"upcoming_window_days"`
	RecentWindowDays   int           `yaml:"recent_window_days"`
	MaxResults         int           `yaml:"max_results"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
}

// FeedsConfig holds review feed caching rules
type FeedsConfig struct {
	ReviewedLimit        int           `yaml:"reviewed_limit"`
	TrendingLimit        int           `yaml:"trending_limit"`
	FreshFor             time.Duration `yaml:"fresh_for"`
	StaleFor             time.Duration `yaml:"stale_for"`
	RevalidateJitter     time.Duration `yaml:"revalidate_jitter"`
	RefreshInterval      time.Duration `yaml:"refresh_interval"`
	RefreshEnabled       bool          `yaml:"refresh_enabled"`
	StaleWhileRevalidate time.Duration `yaml:"stale_while_revalidate"`
}

// ImageConfig holds image proxy configuration
type ImageConfig struct {
	AllowedHosts []string      `yaml:"allowed_hosts"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	KeyPrefix    string        `yaml:"key_prefix"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	GroupID      string        `yaml:"group_id"`
	Enabled      bool          `yaml:"enabled"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// Load reads configuration from a YAML file.
// A .env file next to the binary is loaded first so secrets can stay out of the YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// IGDB defaults
	if c.IGDB.TokenURL == "" {
		c.IGDB.TokenURL = "https://id.twitch.tv/oauth2/token"
	}
	if c.IGDB.BaseURL == "" {
		c.IGDB.BaseURL = "https://api.igdb.com/v4"
	}
	if c.IGDB.Timeout == 0 {
		c.IGDB.Timeout = 15 * time.Second
	}
	if c.IGDB.RequestsPerS == 0 {
		c.IGDB.RequestsPerS = 4
	}

	// OpenCritic defaults
	if c.OpenCritic.Host == "" {
		c.OpenCritic.Host = "opencritic-api.p.rapidapi.com"
	}
	if c.OpenCritic.BaseURL == "" {
		c.OpenCritic.BaseURL = "https://" + c.OpenCritic.Host
	}
	if c.OpenCritic.Timeout == 0 {
		c.OpenCritic.Timeout = 15 * time.Second
	}

	// Release list defaults
	if c.Releases.DefaultPlatform == 0 {
		c.Releases.DefaultPlatform = 167
	}
	if c.Releases.UpcomingWindowDays == 0 {
		c.Releases.UpcomingWindowDays = 180
	}
	if c.Releases.RecentWindowDays == 0 {
		c.Releases.RecentWindowDays = 60
	}
	if c.Releases.MaxResults == 0 {
		c.Releases.MaxResults = 20
	}
	if c.Releases.CacheTTL == 0 {
		c.Releases.CacheTTL = 1 * time.Hour
	}

	// Feed defaults
	if c.Feeds.ReviewedLimit == 0 {
		c.Feeds.ReviewedLimit = 10
	}
	if c.Feeds.TrendingLimit == 0 {
		c.Feeds.TrendingLimit = 6
	}
	if c.Feeds.FreshFor == 0 {
		c.Feeds.FreshFor = 1 * time.Hour
	}
	if c.Feeds.StaleFor == 0 {
		c.Feeds.StaleFor = 7 * 24 * time.Hour
	}
	if c.Feeds.RevalidateJitter == 0 {
		c.Feeds.RevalidateJitter = 5 * time.Minute
	}
	if c.Feeds.RefreshInterval == 0 {
		c.Feeds.RefreshInterval = 30 * time.Minute
	}
	if c.Feeds.StaleWhileRevalidate == 0 {
		c.Feeds.StaleWhileRevalidate = 24 * time.Hour
	}

	// Image proxy defaults
	if len(c.Image.AllowedHosts) == 0 {
		c.Image.AllowedHosts = []string{"images.igdb.com"}
	}
	if c.Image.CacheTTL == 0 {
		c.Image.CacheTTL = 24 * time.Hour
	}
	if c.Image.Timeout == 0 {
		c.Image.Timeout = 10 * time.Second
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 20
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 2
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "gamestracker"
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 10
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 1
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "game-notes"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "gamestracker-notes"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 50
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 1 * time.Second
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Feeds.RefreshEnabled = true
	return cfg
}
