package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig contains the runtime wiring of the matchodds services.
// Prediction constants live with the engine, Elo constants with the rating store.
type AppConfig struct {
	// === STORAGE ===
	AssetsPath     string `yaml:"assetsPath"`     // base directory for local state
	DatabaseDriver string `yaml:"databaseDriver"` // "sqlite" or "postgres"
	DatabaseDSN    string `yaml:"databaseDsn"`    // file path for sqlite, connection url for postgres

	// === LOGGING ===
	LogLevel  string `yaml:"logLevel"`  // debug, info, warn, error
	LogPath   string `yaml:"logPath"`   // file used when logging to file
	LogOutput string `yaml:"logOutput"` // c(onsole), f(ile) or b(oth)

	// === LEAGUE DATA ===
	LeaguesFile string `yaml:"leaguesFile"` // optional yaml replacing the embedded league table

	// === HTTP MODE ===
	HTTPAddr           string        `yaml:"httpAddr"`
	CORSAllowedOrigins []string      `yaml:"corsAllowedOrigins"`
	RequestTimeout     time.Duration `yaml:"requestTimeout"`

	// === ENRICHMENT ===
	SignalsFile    string        `yaml:"signalsFile"`    // optional static signals document
	TeamPageURL    string        `yaml:"teamPageUrl"`    // printf template taking league id then team id
	HeadToHeadURL  string        `yaml:"headToHeadUrl"`  // printf template taking two team ids
	RedisURL       string        `yaml:"redisUrl"`       // empty disables the shared signal cache
	SignalCacheTTL time.Duration `yaml:"signalCacheTtl"`

	// === RESULTS FEED ===
	AMQPURL        string `yaml:"amqpUrl"`
	AMQPExchange   string `yaml:"amqpExchange"`
	AMQPQueue      string `yaml:"amqpQueue"`
	AMQPRoutingKey string `yaml:"amqpRoutingKey"`
	AMQPPrefetch   int    `yaml:"amqpPrefetch"`
}

// DefaultConfig returns the configuration used when no file or environment overrides exist
func DefaultConfig() *AppConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	assets := filepath.Join(home, ".matchodds")
	return &AppConfig{
		AssetsPath:     assets,
		DatabaseDriver: "sqlite",
		DatabaseDSN:    filepath.Join(assets, "matchodds.db"),

		LogLevel:  "info",
		LogPath:   "/tmp/matchodds.log",
		LogOutput: "f",

		HTTPAddr:           ":8087",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		RequestTimeout:     30 * time.Second,

		SignalCacheTTL: 6 * time.Hour,

		AMQPExchange:   "results",
		AMQPQueue:      "matchodds.results",
		AMQPRoutingKey: "fixture.settled",
		AMQPPrefetch:   50,
	}
}

// Global configuration instance
var Config *AppConfig

func init() {
	Config = DefaultConfig()
}

// UpdateConfig replaces the global configuration
func UpdateConfig(newConfig *AppConfig) {
	Config = newConfig
}

// Load reads an optional yaml file over the defaults then applies MATCHODDS_* environment overrides
func Load(path string) (*AppConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	applyEnv(cfg, os.LookupEnv)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup("MATCHODDS_" + key); ok && v != "" {
			*dst = v
		}
	}
	str("DB_DRIVER", &cfg.DatabaseDriver)
	str("DB_DSN", &cfg.DatabaseDSN)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_PATH", &cfg.LogPath)
	str("LOG_OUTPUT", &cfg.LogOutput)
	str("LEAGUES_FILE", &cfg.LeaguesFile)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("SIGNALS_FILE", &cfg.SignalsFile)
	str("TEAM_PAGE_URL", &cfg.TeamPageURL)
	str("H2H_URL", &cfg.HeadToHeadURL)
	str("REDIS_URL", &cfg.RedisURL)
	str("AMQP_URL", &cfg.AMQPURL)
	str("AMQP_EXCHANGE", &cfg.AMQPExchange)
	str("AMQP_QUEUE", &cfg.AMQPQueue)
	str("AMQP_ROUTING_KEY", &cfg.AMQPRoutingKey)

	if v, ok := lookup("MATCHODDS_CORS_ORIGINS"); ok && v != "" {
		cfg.CORSAllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := lookup("MATCHODDS_AMQP_PREFETCH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AMQPPrefetch = n
		}
	}
	if v, ok := lookup("MATCHODDS_SIGNAL_CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SignalCacheTTL = d
		}
	}
}

// === CONFIGURATION VALIDATION ===

// ValidateConfig ensures all configuration values are usable
func ValidateConfig(config *AppConfig) error {
	switch config.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DatabaseDriver must be sqlite or postgres, got: %s", config.DatabaseDriver)
	}
	if config.DatabaseDSN == "" {
		return fmt.Errorf("DatabaseDSN must not be empty")
	}
	switch config.LogOutput {
	case "c", "f", "b":
	default:
		return fmt.Errorf("LogOutput must be one of c, f or b, got: %s", config.LogOutput)
	}
	if config.SignalCacheTTL < 0 {
		return fmt.Errorf("SignalCacheTTL must not be negative, got: %s", config.SignalCacheTTL)
	}
	if config.AMQPPrefetch < 1 {
		return fmt.Errorf("AMQPPrefetch should be at least 1, got: %d", config.AMQPPrefetch)
	}
	if config.RequestTimeout <= 0 {
		return fmt.Errorf("RequestTimeout must be positive, got: %s", config.RequestTimeout)
	}
	return nil
}
