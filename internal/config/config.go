// Package config loads tabfit settings from defaults, a YAML file and
// TABFIT_* environment variables.
package config

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// EnvPrefix is prepended to every environment variable, e.g. TABFIT_LOG_LEVEL.
const EnvPrefix = "TABFIT"

// Config holds all runtime settings.
type Config struct {
	LogLevel       string   `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	OrdinalColumn  string   `mapstructure:"ordinal_column" yaml:"ordinal_column"`
	MissingTokens  []string `mapstructure:"missing_tokens" yaml:"missing_tokens"`
	ServerAddr     string   `mapstructure:"server_addr" yaml:"server_addr" validate:"required"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`
	ChartWidthIn   float64  `mapstructure:"chart_width_in" yaml:"chart_width_in" validate:"gt=0"`
	ChartHeightIn  float64  `mapstructure:"chart_height_in" yaml:"chart_height_in" validate:"gt=0"`
	// 0 のときは eps*max(rows, cols) を使う
	Rcond float64 `mapstructure:"rcond" yaml:"rcond" validate:"gte=0"`
	// POST /api/dataset と /api/train の上限。0 で無制限
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst" validate:"gte=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		OrdinalColumn:  "size",
		MissingTokens:  nil,
		ServerAddr:     ":8051",
		MaxUploadBytes: 32 << 20,
		ChartWidthIn:   6,
		ChartHeightIn:  4,
		Rcond:          0,
		RateLimitRPS:   0,
		RateLimitBurst: 5,
	}
}

// DefaultPath returns ~/.tabfit/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home dir")
	}
	return filepath.Join(home, ".tabfit", "config.yaml"), nil
}

// Load reads configuration.
// Precedence: env > config file > defaults. An explicit cfgFile must exist;
// the default location is optional.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("ordinal_column", d.OrdinalColumn)
	v.SetDefault("missing_tokens", []string{})
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("chart_width_in", d.ChartWidthIn)
	v.SetDefault("chart_height_in", d.ChartHeightIn)
	v.SetDefault("rcond", d.Rcond)
	v.SetDefault("rate_limit_rps", d.RateLimitRPS)
	v.SetDefault("rate_limit_burst", d.RateLimitBurst)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".tabfit"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if len(c.MissingTokens) == 0 {
		c.MissingTokens = nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.WithHint(errors.Wrap(err, "invalid config"),
			"check the config file and TABFIT_* environment variables")
	}
	return nil
}

// Save writes c as YAML to path, or to DefaultPath when path is empty.
func Save(c *Config, path string) (string, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "mkdir config dir")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", errors.Wrap(err, "write config")
	}
	return path, nil
}
