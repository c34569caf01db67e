package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	CMS     CMSConfig     `yaml:"cms" mapstructure:"cms"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Import  ImportConfig  `yaml:"import" mapstructure:"import"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CMSConfig holds the headless CMS endpoint, OAuth2 client credentials and
// the ids of the vocabularies, folders and structures recipes are filed under.
type CMSConfig struct {
	BaseURL            string                  `yaml:"base_url" mapstructure:"base_url"`
	TokenURL           string                  `yaml:"token_url" mapstructure:"token_url"`
	ClientID           string                  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret       string                  `yaml:"client_secret" mapstructure:"client_secret"`
	TokenScope         string                  `yaml:"token_scope" mapstructure:"token_scope"`
	PageSize           int                     `yaml:"page_size" mapstructure:"page_size"`
	TimeoutSecs        int                     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Vocabularies       VocabularyConfig        `yaml:"vocabularies" mapstructure:"vocabularies"`
	DefaultTaxonomies  DefaultTaxonomiesConfig `yaml:"default_taxonomies" mapstructure:"default_taxonomies"`
	ContentStructureID int64                   `yaml:"content_structure_id" mapstructure:"content_structure_id"`
	Folders            FolderConfig            `yaml:"folders" mapstructure:"folders"`
	DefaultImage       DefaultImageConfig      `yaml:"default_image" mapstructure:"default_image"`
}

// VocabularyConfig holds the CMS vocabulary ids used by the connector.
type VocabularyConfig struct {
	License        int64 `yaml:"license" mapstructure:"license"`
	RecipeCategory int64 `yaml:"recipe_category" mapstructure:"recipe_category"`
	Geographic     int64 `yaml:"geographic" mapstructure:"geographic"`
	Theme          int64 `yaml:"theme" mapstructure:"theme"`
}

// DefaultTaxonomiesConfig lists category ids attached to every recipe.
type DefaultTaxonomiesConfig struct {
	LicenseID int64   `yaml:"license_id" mapstructure:"license_id"`
	ThemeIDs  []int64 `yaml:"theme_ids" mapstructure:"theme_ids"`
}

// FolderConfig holds the CMS folder ids for documents and structured content.
type FolderConfig struct {
	Documents         int64 `yaml:"documents" mapstructure:"documents"`
	StructuredContent int64 `yaml:"structured_content" mapstructure:"structured_content"`
}

// DefaultImageConfig is the document used when a recipe has no main image.
type DefaultImageConfig struct {
	ID  int64  `yaml:"id" mapstructure:"id"`
	URL string `yaml:"url" mapstructure:"url"`
}

// GeocodeConfig configures the Nominatim-style geocoder. BreakerThreshold
// consecutive availability failures pause lookups for BreakerCoolDownSecs.
type GeocodeConfig struct {
	BaseURL             string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent           string `yaml:"user_agent" mapstructure:"user_agent"`
	Region              string `yaml:"region" mapstructure:"region"`
	Country             string `yaml:"country" mapstructure:"country"`
	MinIntervalMs       int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	TimeoutSecs         int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BreakerThreshold    int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCoolDownSecs int    `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// RetryConfig configures retries of CMS reads.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// ImportConfig configures bulk recipe import.
type ImportConfig struct {
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	Delimiter   string `yaml:"delimiter" mapstructure:"delimiter"`
}

// StoreConfig configures the submission log database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("RECIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cms.token_scope", "ricetta")
	v.SetDefault("cms.page_size", 250)
	v.SetDefault("cms.timeout_secs", 30)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "recipe-connector/1.0")
	v.SetDefault("geocode.region", "Marche")
	v.SetDefault("geocode.country", "Italia")
	v.SetDefault("geocode.min_interval_ms", 3000)
	v.SetDefault("geocode.timeout_secs", 15)
	v.SetDefault("geocode.breaker_threshold", 5)
	v.SetDefault("geocode.breaker_cooldown_secs", 30)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("import.concurrency", 4)
	v.SetDefault("import.delimiter", ";")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "recipe-connector.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
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

// Validate checks that the settings required by mode are present. Modes:
// "resolve" (taxonomy + geocoding), "submit" (resolve plus CMS publishing)
// and "serve" (submit plus HTTP server).
func (c *Config) Validate(mode string) error {
	var problems []string

	requireCMS := func() {
		if c.CMS.BaseURL == "" {
			problems = append(problems, "cms.base_url is required")
		}
		if c.CMS.TokenURL == "" {
			problems = append(problems, "cms.token_url is required")
		}
		if c.CMS.ClientID == "" || c.CMS.ClientSecret == "" {
			problems = append(problems, "cms.client_id and cms.client_secret are required")
		}
		if c.CMS.Vocabularies.Geographic <= 0 {
			problems = append(problems, "cms.vocabularies.geographic is required")
		}
	}
	requireSubmit := func() {
		requireCMS()
		if c.CMS.ContentStructureID <= 0 {
			problems = append(problems, "cms.content_structure_id is required")
		}
		if c.CMS.Folders.StructuredContent <= 0 {
			problems = append(problems, "cms.folders.structured_content is required")
		}
		if c.Import.Concurrency < 1 || c.Import.Concurrency > 20 {
			problems = append(problems, "import.concurrency must be between 1 and 20")
		}
	}

	switch mode {
	case "resolve":
		requireCMS()
	case "submit":
		requireSubmit()
	case "serve":
		requireSubmit()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Geocode.MinIntervalMs < 0 {
		problems = append(problems, "geocode.min_interval_ms must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Redacted returns the configuration as YAML with credentials masked.
func (c Config) Redacted() ([]byte, error) {
	if c.CMS.ClientSecret != "" {
		c.CMS.ClientSecret = "****"
	}
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, eris.Wrap(err, "config: marshal yaml")
	}
	return out, nil
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
