// Package config loads application configuration from file and environment.
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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Refresh RefreshConfig `yaml:"refresh" mapstructure:"refresh"`
	Query   QueryConfig   `yaml:"query" mapstructure:"query"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SourcesConfig configures the external indicator APIs.
type SourcesConfig struct {
	InseeURL      string `yaml:"insee_url" mapstructure:"insee_url"`
	PortailRseURL string `yaml:"portail_rse_url" mapstructure:"portail_rse_url"`
	AdemeURL      string `yaml:"ademe_url" mapstructure:"ademe_url"`
	DataGouvURL   string `yaml:"data_gouv_url" mapstructure:"data_gouv_url"`

	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`

	// RatePerSec applies per source host; bursts allow one request batch.
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst  int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// ScoringConfig holds the scoring constants. The values mirror the published
// RSE methodology and should not be tuned without re-validating ratings.
type ScoringConfig struct {
	BaseScore float64 `yaml:"base_score" mapstructure:"base_score"`
	MaxScore  float64 `yaml:"max_score" mapstructure:"max_score"`

	// Environmental bonuses.
	CarbonReportBonus    float64 `yaml:"carbon_report_bonus" mapstructure:"carbon_report_bonus"`
	ISO14001Bonus        float64 `yaml:"iso14001_bonus" mapstructure:"iso14001_bonus"`
	RenewableBonus       float64 `yaml:"renewable_bonus" mapstructure:"renewable_bonus"`
	RenewableThresholdPc float64 `yaml:"renewable_threshold_pct" mapstructure:"renewable_threshold_pct"`

	// Social bonuses.
	EqualityIndexBonus     float64 `yaml:"equality_index_bonus" mapstructure:"equality_index_bonus"`
	EqualityIndexThreshold float64 `yaml:"equality_index_threshold" mapstructure:"equality_index_threshold"`
	TrainingBonus          float64 `yaml:"training_bonus" mapstructure:"training_bonus"`
	DiversityBonus         float64 `yaml:"diversity_bonus" mapstructure:"diversity_bonus"`

	// Governance bonuses.
	AccountsPublicationBonus float64 `yaml:"accounts_publication_bonus" mapstructure:"accounts_publication_bonus"`
	CertificationBonus       float64 `yaml:"certification_bonus" mapstructure:"certification_bonus"`

	// Ethics bonuses.
	EthicsCodeBonus     float64 `yaml:"ethics_code_bonus" mapstructure:"ethics_code_bonus"`
	AntiCorruptionBonus float64 `yaml:"anti_corruption_bonus" mapstructure:"anti_corruption_bonus"`

	// RulesFile optionally points at a YAML file overriding the above.
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// RefreshConfig configures batch score refreshes.
type RefreshConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// QueryConfig configures listing behavior.
type QueryConfig struct {
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// ServerConfig configures the JSON API server.
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
	v.SetEnvPrefix("RSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "rse.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("refresh.concurrency", 5)
	v.SetDefault("query.page_size", 20)

	v.SetDefault("sources.insee_url", "https://api.insee.fr/api")
	v.SetDefault("sources.portail_rse_url", "https://portail-rse.beta.gouv.fr/api")
	v.SetDefault("sources.ademe_url", "https://data.ademe.fr/api")
	v.SetDefault("sources.data_gouv_url", "https://www.data.gouv.fr/api/1")
	v.SetDefault("sources.timeout_secs", 10)
	v.SetDefault("sources.max_retries", 3)
	v.SetDefault("sources.user_agent", "rse-cli/1.0")
	v.SetDefault("sources.rate_per_sec", 10)
	v.SetDefault("sources.rate_burst", 10)

	v.SetDefault("scoring.base_score", 50)
	v.SetDefault("scoring.max_score", 100)
	v.SetDefault("scoring.carbon_report_bonus", 20)
	v.SetDefault("scoring.iso14001_bonus", 15)
	v.SetDefault("scoring.renewable_bonus", 15)
	v.SetDefault("scoring.renewable_threshold_pct", 50)
	v.SetDefault("scoring.equality_index_bonus", 20)
	v.SetDefault("scoring.equality_index_threshold", 75)
	v.SetDefault("scoring.training_bonus", 15)
	v.SetDefault("scoring.diversity_bonus", 15)
	v.SetDefault("scoring.accounts_publication_bonus", 20)
	v.SetDefault("scoring.certification_bonus", 15)
	v.SetDefault("scoring.ethics_code_bonus", 25)
	v.SetDefault("scoring.anti_corruption_bonus", 25)

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
