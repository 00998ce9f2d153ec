package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rewired-gh/kitarb/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Backpack BackpackConfig `mapstructure:"backpack"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Report   ReportConfig   `mapstructure:"report"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BackpackConfig holds backpack.tf API configuration
type BackpackConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	Token          string        `mapstructure:"token"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	Throttle       time.Duration `mapstructure:"throttle"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	PriceMode      string        `mapstructure:"price_mode"` // first | avg23
	PageSize       int           `mapstructure:"page_size"`
}

// PricingConfig holds the key exchange rate and manual price overrides
type PricingConfig struct {
	KeyPriceRef        float64         `mapstructure:"key_price_ref"` // 0 = detect from listings
	AutoDetectKeyPrice bool            `mapstructure:"auto_detect_key_price"`
	Overrides          []PriceOverride `mapstructure:"overrides"`
}

// PriceOverride pins an item's price, e.g. {item: "Minigun", price: "1 key, 6.11 ref"}
type PriceOverride struct {
	Item  string `mapstructure:"item"`
	Price string `mapstructure:"price"`
}

// AnalysisConfig holds what to evaluate and how to surface it
type AnalysisConfig struct {
	Items        []string      `mapstructure:"items"`
	KitTypes     []string      `mapstructure:"kit_types"` // empty = all
	MinProfitRef float64       `mapstructure:"min_profit_ref"`
	MinROI       float64       `mapstructure:"min_roi"` // fraction, 0.05 = 5%
	TopN         int           `mapstructure:"top_n"`
	Workers      int           `mapstructure:"workers"`
	FailFast     bool          `mapstructure:"fail_fast"`
	Interval     time.Duration `mapstructure:"interval"` // 0 = run once
}

// ReportConfig holds output configuration
type ReportConfig struct {
	Format     string `mapstructure:"format"`      // text | json
	OutputPath string `mapstructure:"output_path"` // empty = stdout
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from a .env file (if present), the config file and
// environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("KITARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("backpack.api_url", "https://backpack.tf/api")
	v.SetDefault("backpack.token", "")
	v.SetDefault("backpack.timeout", "20s")
	v.SetDefault("backpack.max_retries", 3)
	v.SetDefault("backpack.retry_delay_base", "1s")
	v.SetDefault("backpack.throttle", "300ms")
	v.SetDefault("backpack.cache_ttl", "5m")
	v.SetDefault("backpack.price_mode", "avg23")
	v.SetDefault("backpack.page_size", 30)

	v.SetDefault("pricing.key_price_ref", 0.0)
	v.SetDefault("pricing.auto_detect_key_price", true)

	v.SetDefault("analysis.kit_types", []string{})
	v.SetDefault("analysis.min_profit_ref", 1.0) // 9 scrap
	v.SetDefault("analysis.min_roi", 0.05)
	v.SetDefault("analysis.top_n", 10)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.fail_fast", false)
	v.SetDefault("analysis.interval", "0s")

	v.SetDefault("report.format", "text")
	v.SetDefault("report.output_path", "")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// OverrideLabels returns price overrides keyed by item name.
func (c *Config) OverrideLabels() map[string]string {
	labels := make(map[string]string, len(c.Pricing.Overrides))
	for _, o := range c.Pricing.Overrides {
		labels[o.Item] = o.Price
	}
	return labels
}

// KitTypes returns the configured kit filter. Nil means every kit.
func (c *Config) KitTypes() ([]models.KitType, error) {
	var kits []models.KitType
	for _, s := range c.Analysis.KitTypes {
		k, err := models.ParseKitType(s)
		if err != nil {
			return nil, err
		}
		kits = append(kits, k)
	}
	return kits, nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Backpack
	if c.Backpack.APIURL == "" {
		return fmt.Errorf("backpack.api_url is required")
	}
	if c.Backpack.Token == "" && len(c.Pricing.Overrides) == 0 {
		return fmt.Errorf("backpack.token is required unless every price comes from pricing.overrides")
	}
	if c.Backpack.Timeout <= 0 {
		return fmt.Errorf("backpack.timeout must be positive")
	}
	if c.Backpack.MaxRetries < 1 {
		return fmt.Errorf("backpack.max_retries must be at least 1")
	}
	if c.Backpack.Throttle < 0 {
		return fmt.Errorf("backpack.throttle must not be negative")
	}
	if c.Backpack.CacheTTL < 0 {
		return fmt.Errorf("backpack.cache_ttl must not be negative")
	}
	validModes := map[string]bool{"first": true, "avg23": true}
	if !validModes[c.Backpack.PriceMode] {
		return fmt.Errorf("backpack.price_mode must be one of: first, avg23")
	}
	if c.Backpack.PageSize < 1 || c.Backpack.PageSize > 100 {
		return fmt.Errorf("backpack.page_size must be between 1 and 100")
	}

	// Pricing
	if math.IsNaN(c.Pricing.KeyPriceRef) || math.IsInf(c.Pricing.KeyPriceRef, 0) {
		return &models.ConfigurationError{Field: "pricing.key_price_ref", Reason: "must be a finite number"}
	}
	if c.Pricing.KeyPriceRef < 0 {
		return &models.ConfigurationError{Field: "pricing.key_price_ref", Reason: "must not be negative"}
	}
	for _, o := range c.Pricing.Overrides {
		if o.Item == "" || o.Price == "" {
			return fmt.Errorf("pricing.overrides entries need both item and price")
		}
	}
	if c.Pricing.KeyPriceRef == 0 && !c.Pricing.AutoDetectKeyPrice {
		return &models.ConfigurationError{Field: "pricing.key_price_ref", Reason: "required when auto_detect_key_price is disabled"}
	}

	// Analysis
	if len(c.Analysis.Items) == 0 {
		return fmt.Errorf("analysis.items must contain at least one item")
	}
	if _, err := c.KitTypes(); err != nil {
		return fmt.Errorf("analysis.kit_types: %w", err)
	}
	if c.Analysis.MinROI < 0 {
		return fmt.Errorf("analysis.min_roi must not be negative")
	}
	if c.Analysis.TopN < 1 {
		return fmt.Errorf("analysis.top_n must be at least 1")
	}
	if c.Analysis.Workers < 1 || c.Analysis.Workers > 64 {
		return fmt.Errorf("analysis.workers must be between 1 and 64")
	}
	if c.Analysis.Interval != 0 && c.Analysis.Interval < time.Minute {
		return fmt.Errorf("analysis.interval must be 0 or at least 1 minute")
	}

	// Report
	validReportFormats := map[string]bool{"text": true, "json": true}
	if !validReportFormats[c.Report.Format] {
		return fmt.Errorf("report.format must be one of: text, json")
	}

	// Telegram
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Logging
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
