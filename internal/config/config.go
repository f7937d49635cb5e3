package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Maps     MapsConfig     `yaml:"maps" mapstructure:"maps"`
	Ares     AresConfig     `yaml:"ares" mapstructure:"ares"`
	OpenAI   OpenAIConfig   `yaml:"openai" mapstructure:"openai"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Dedup    DedupConfig    `yaml:"dedup" mapstructure:"dedup"`
	Campaign CampaignConfig `yaml:"campaign" mapstructure:"campaign"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the prospect store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MapsConfig holds Google Maps Web Service API settings.
type MapsConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	PageDelaySecs int    `yaml:"page_delay_secs" mapstructure:"page_delay_secs"`
}

// AresConfig holds Czech ARES registry settings.
type AresConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OpenAIConfig holds OpenAI chat-completion settings.
type OpenAIConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ScrapeConfig configures website analysis behavior.
type ScrapeConfig struct {
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int `yaml:"max_retries" mapstructure:"max_retries"`
	CacheTTLHours int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// DedupConfig configures the deduplication service.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// CampaignConfig configures campaign-run limits.
type CampaignConfig struct {
	MaxProspects     int `yaml:"max_prospects" mapstructure:"max_prospects"`
	DefaultRadius    int `yaml:"default_radius" mapstructure:"default_radius"`
	QualityThreshold int `yaml:"quality_threshold" mapstructure:"quality_threshold"`
	ErrorBudget      int `yaml:"error_budget" mapstructure:"error_budget"`
}

// EnrichConfig configures bulk enrichment batching.
type EnrichConfig struct {
	BatchSize      int `yaml:"batch_size" mapstructure:"batch_size"`
	BatchPauseSecs int `yaml:"batch_pause_secs" mapstructure:"batch_pause_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "prospector.db")
	v.SetDefault("maps.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("maps.page_delay_secs", 2)
	v.SetDefault("ares.base_url", "https://ares.gov.cz/ekonomicke-subjekty-v-be/rest")
	v.SetDefault("ares.timeout_secs", 10)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.rate_per_sec", 2)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.cache_ttl_hours", 24)
	v.SetDefault("dedup.similarity_threshold", 0.85)
	v.SetDefault("campaign.max_prospects", 100)
	v.SetDefault("campaign.default_radius", 5000)
	v.SetDefault("campaign.quality_threshold", 30)
	v.SetDefault("campaign.error_budget", 15)
	v.SetDefault("enrich.batch_size", 3)
	v.SetDefault("enrich.batch_pause_secs", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
