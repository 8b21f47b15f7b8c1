package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Retention anchors select the reference date the window is measured from.
const (
	AnchorToday  = "today"
	AnchorLatest = "latest"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Retention RetentionConfig `mapstructure:"retention"`
	World     WorldConfig     `mapstructure:"world"`
	VN        VNConfig        `mapstructure:"vn"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Cron      CronConfig      `mapstructure:"cron"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Addr string `mapstructure:"-"` // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level             string   `mapstructure:"level"`
	Encoding          string   `mapstructure:"encoding"`
	Development       bool     `mapstructure:"development"`
	DisableCaller     bool     `mapstructure:"disable_caller"`
	DisableStacktrace bool     `mapstructure:"disable_stacktrace"`
	OutputPaths       []string `mapstructure:"output_paths"`
}

// StorageConfig holds file locations for raw fetch output and prune archives.
type StorageConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	ArchiveDir   string `mapstructure:"archive_dir"`
	RawBasename  string `mapstructure:"raw_basename"`
	KeepRawFiles int    `mapstructure:"keep_raw_files"`
}

// RetentionConfig describes the rolling window.
type RetentionConfig struct {
	Days        int    `mapstructure:"days"`
	Anchor      string `mapstructure:"anchor"`
	ForwardFill bool   `mapstructure:"forward_fill"`
}

// WorldConfig configures the Yahoo Finance chart source.
type WorldConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	GoldSymbol   string `mapstructure:"gold_symbol"`
	FXSymbol     string `mapstructure:"fx_symbol"`
	LookbackDays int    `mapstructure:"lookback_days"`
	Source       string `mapstructure:"source"`
}

// VNConfig configures the CafeF retail gold scraper.
type VNConfig struct {
	// Endpoints is a list of "name=url" pairs; empty means the built-in CafeF set.
	Endpoints      []string `mapstructure:"endpoints"`
	Source         string   `mapstructure:"source"`
	ExpectedBrands []string `mapstructure:"expected_brands"`
	AllowPartial   bool     `mapstructure:"allow_partial"`
	Days           int      `mapstructure:"days"`
}

// HTTPConfig holds outbound HTTP settings shared by both fetchers.
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryWait  time.Duration `mapstructure:"retry_wait"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// CronConfig schedules the daily update inside the server process.
type CronConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// RedisConfig enables the cross-process pipeline lock when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// SecurityConfig holds the key guarding mutating endpoints.
type SecurityConfig struct {
	InternalAPIKey string `mapstructure:"internal_api_key"`
}

// Load reads configuration from environment variables and .env file.
// A YAML/TOML/JSON file named by CONFIG_FILE is merged in when present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	v := newViper()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names kept from earlier deployments.
	_ = v.BindEnv("security.internal_api_key", "INTERNAL_API_KEY", "SECURITY_INTERNAL_API_KEY")
	_ = v.BindEnv("db.path", "DB_PATH", "GOLD_DB")

	v.SetDefault("server.port", "5001")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("db.path", "./data/gold.db")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", true)
	v.SetDefault("log.output_paths", []string{"stdout"})

	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.archive_dir", "./data/archive")
	v.SetDefault("storage.raw_basename", "vn_raw")
	v.SetDefault("storage.keep_raw_files", 30)

	v.SetDefault("retention.days", 365)
	v.SetDefault("retention.anchor", AnchorToday)
	v.SetDefault("retention.forward_fill", false)

	v.SetDefault("world.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("world.gold_symbol", "GC=F")
	v.SetDefault("world.fx_symbol", "VND=X")
	v.SetDefault("world.lookback_days", 365)
	v.SetDefault("world.source", "yfinance")

	v.SetDefault("vn.endpoints", []string{})
	v.SetDefault("vn.source", "cafef")
	v.SetDefault("vn.expected_brands", []string{"SJC"})
	v.SetDefault("vn.allow_partial", true)
	v.SetDefault("vn.days", 365)

	v.SetDefault("http.timeout", "15s")
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.retry_wait", "2s")
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	v.SetDefault("cron.enabled", false)
	v.SetDefault("cron.schedule", "0 30 18 * * *")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "30m")

	v.SetDefault("security.internal_api_key", "")

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	config.CORS.AllowedOrigins = splitList(config.CORS.AllowedOrigins)
	config.Log.OutputPaths = splitList(config.Log.OutputPaths)
	config.VN.Endpoints = splitList(config.VN.Endpoints)
	config.VN.ExpectedBrands = splitList(config.VN.ExpectedBrands)

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the pipelines cannot run with.
func (c *Config) Validate() error {
	if c.Retention.Days < 1 {
		return fmt.Errorf("retention.days must be at least 1, got %d", c.Retention.Days)
	}
	if c.Retention.Anchor != AnchorToday && c.Retention.Anchor != AnchorLatest {
		return fmt.Errorf("retention.anchor must be %q or %q, got %q", AnchorToday, AnchorLatest, c.Retention.Anchor)
	}
	if c.World.LookbackDays < 1 {
		return fmt.Errorf("world.lookback_days must be at least 1, got %d", c.World.LookbackDays)
	}
	if c.VN.Days < 1 {
		return fmt.Errorf("vn.days must be at least 1, got %d", c.VN.Days)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries cannot be negative")
	}
	return nil
}

// splitList flattens comma separated entries coming from environment variables.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
