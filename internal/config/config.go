// Package config loads CLI configuration from a config file, a .env file and
// S3TRANSFER_* environment variables.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "S3TRANSFER"

// Config is the CLI configuration.
type Config struct {
	Backend         string        `mapstructure:"backend"`
	Profile         string        `mapstructure:"profile"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	ForcePathStyle  bool          `mapstructure:"force_path_style"`
	DisableSSL      bool          `mapstructure:"disable_ssl"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ContinueOnError bool          `mapstructure:"continue_on_error"`
	MetricsTextfile string        `mapstructure:"metrics_textfile"`
	Log             LogConfig     `mapstructure:"log"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", string(s3types.BackendAWS))
	v.SetDefault("profile", "")
	v.SetDefault("region", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("access_key_id", "")
	v.SetDefault("secret_access_key", "")
	v.SetDefault("force_path_style", false)
	v.SetDefault("disable_ssl", false)
	v.SetDefault("max_retries", 3)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("continue_on_error", false)
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. When path is empty, an optional s3transfer.{yaml,toml,json}
// in the working directory is used; a missing file is not an error. A .env file in the
// working directory is loaded first when present. Environment variables override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return nil, errors.NewLocalIOError("loadConfig", ".env", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewLocalIOError("loadConfig", path, err)
		}
	} else {
		v.SetConfigName("s3transfer")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, errors.NewLocalIOError("loadConfig", "s3transfer", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewValidationError("loadConfig", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	switch s3types.Backend(c.Backend) {
	case s3types.BackendAWS:
	case s3types.BackendMinio:
		if c.Endpoint == "" {
			return errors.NewValidationError("validateConfig",
				fmt.Errorf("%w: the minio backend requires an endpoint", errors.ErrInvalidInput))
		}
	default:
		return errors.NewValidationError("validateConfig",
			fmt.Errorf("%w: unknown backend %q", errors.ErrInvalidInput, c.Backend))
	}

	if c.MaxRetries < 0 {
		return errors.NewValidationError("validateConfig",
			fmt.Errorf("%w: max_retries must not be negative", errors.ErrInvalidInput))
	}
	if c.Timeout < 0 {
		return errors.NewValidationError("validateConfig",
			fmt.Errorf("%w: timeout must not be negative", errors.ErrInvalidInput))
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.NewValidationError("validateConfig",
			fmt.Errorf("%w: access_key_id and secret_access_key must be set together", errors.ErrInvalidInput))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.NewValidationError("validateConfig",
			fmt.Errorf("%w: unknown log format %q", errors.ErrInvalidInput, c.Log.Format))
	}
	return nil
}
