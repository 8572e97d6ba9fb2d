package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. PHOTOSYNC_S3_BUCKET.
const EnvPrefix = "PHOTOSYNC"

// FlagKeys maps CLI flag names to configuration keys.
var FlagKeys = map[string]string{
	"log-level":         "log_level",
	"log-format":        "log_format",
	"endpoint":          "s3.endpoint",
	"region":            "s3.region",
	"bucket":            "s3.bucket",
	"access-key":        "s3.access_key",
	"secret-key":        "s3.secret_key",
	"use-ssl":           "s3.use_ssl",
	"prefix":            "s3.prefix",
	"disable-checksums": "s3.disable_checksums",
	"dry-run":           "upload.dry_run",
	"max-retries":       "upload.max_retries",
	"db":                "database.dsn",
	"geocode":           "geocode.enabled",
	"geocode-url":       "geocode.endpoint",
	"user-agent":        "geocode.user_agent",
	"language":          "geocode.language",
	"home-country":      "geocode.home_country",
	"user":              "sync.user_id",
	"library":           "sync.library_path",
	"journal":           "sync.journal_path",
	"time-zone":         "sync.time_zone",
}

// Load builds the configuration from defaults, an optional config file,
// PHOTOSYNC_* environment variables and explicitly set flags, in increasing
// order of precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, New())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("s3.access_key", d.S3.AccessKey)
	v.SetDefault("s3.secret_key", d.S3.SecretKey)
	v.SetDefault("s3.use_ssl", d.S3.UseSSL)
	v.SetDefault("s3.prefix", d.S3.Prefix)
	v.SetDefault("s3.disable_checksums", d.S3.DisableChecksums)

	v.SetDefault("upload.dry_run", d.Upload.DryRun)
	v.SetDefault("upload.max_retries", d.Upload.MaxRetries)
	v.SetDefault("upload.timeout", d.Upload.Timeout)

	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("geocode.enabled", d.Geocode.Enabled)
	v.SetDefault("geocode.endpoint", d.Geocode.Endpoint)
	v.SetDefault("geocode.user_agent", d.Geocode.UserAgent)
	v.SetDefault("geocode.language", d.Geocode.Language)
	v.SetDefault("geocode.home_country", d.Geocode.HomeCountry)
	v.SetDefault("geocode.interval", d.Geocode.Interval)
	v.SetDefault("geocode.timeout", d.Geocode.Timeout)

	v.SetDefault("sync.user_id", d.Sync.UserID)
	v.SetDefault("sync.library_path", d.Sync.LibraryPath)
	v.SetDefault("sync.journal_path", d.Sync.JournalPath)
	v.SetDefault("sync.time_zone", d.Sync.TimeZone)
}
