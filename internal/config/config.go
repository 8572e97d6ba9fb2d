package config

import (
	"time"

	"github.com/bstardust/photosync/pkg/common"
)

// Config represents the application configuration
type Config struct {
	LogLevel  string         `mapstructure:"log_level"`
	LogFormat string         `mapstructure:"log_format"`
	S3        S3Config       `mapstructure:"s3"`
	Upload    UploadConfig   `mapstructure:"upload"`
	Database  DatabaseConfig `mapstructure:"database"`
	Geocode   GeocodeConfig  `mapstructure:"geocode"`
	Sync      SyncConfig     `mapstructure:"sync"`
}

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// S3Config represents S3 connection configuration
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`

	// DisableChecksums is needed for providers that reject content
	// checksums, such as Backblaze B2.
	DisableChecksums bool `mapstructure:"disable_checksums"`
}

// UploadConfig represents upload configuration
type UploadConfig struct {
	DryRun     bool `mapstructure:"dry_run"`
	MaxRetries int  `mapstructure:"max_retries"`

	// Timeout bounds the upload of a single photo, retries included.
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig points at the photo and checkpoint store. A DSN starting
// with postgres:// or postgresql:// selects PostgreSQL, anything else is a
// SQLite file path.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// GeocodeConfig configures the reverse-geocoding provider.
type GeocodeConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoint    string        `mapstructure:"endpoint"`
	UserAgent   string        `mapstructure:"user_agent"`
	Language    string        `mapstructure:"language"`
	HomeCountry string        `mapstructure:"home_country"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SyncConfig configures one sync invocation.
type SyncConfig struct {
	UserID      string `mapstructure:"user_id"`
	LibraryPath string `mapstructure:"library_path"`
	// JournalPath selects the file-backed checkpoint store instead of the
	// database one.
	JournalPath string `mapstructure:"journal_path"`
	TimeZone    string `mapstructure:"time_zone"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: LogFormatText,
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Upload: UploadConfig{
			MaxRetries: 5,
			Timeout:    5 * time.Minute,
		},
		Database: DatabaseConfig{
			DSN: "photosync.db",
		},
		Geocode: GeocodeConfig{
			Enabled:     true,
			Endpoint:    "https://nominatim.openstreetmap.org",
			UserAgent:   "photosync/1.0",
			Language:    "ko,en",
			HomeCountry: "kr",
			Interval:    1100 * time.Millisecond,
			Timeout:     10 * time.Second,
		},
		Sync: SyncConfig{
			TimeZone: "Local",
		},
	}
}

// Location resolves the configured time zone used for naive EXIF timestamps.
func (c SyncConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, common.NewConfigError("invalid time zone " + c.TimeZone)
	}
	return loc, nil
}

// CheckLogFormat reports an unknown log format.
func (c *Config) CheckLogFormat() error {
	switch c.LogFormat {
	case "", LogFormatText, LogFormatJSON:
		return nil
	default:
		return common.NewConfigError("unknown log format " + c.LogFormat)
	}
}

// Validate checks the settings required to run a sync.
func (c *Config) Validate() error {
	if err := c.CheckLogFormat(); err != nil {
		return err
	}
	if c.Sync.UserID == "" {
		return common.NewConfigError("user id is required")
	}
	if c.Sync.LibraryPath == "" {
		return common.NewConfigError("library path is required")
	}
	if !c.Upload.DryRun {
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return common.NewConfigError("S3 endpoint and bucket are required")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return common.NewConfigError("S3 access key and secret key are required")
		}
	}
	if c.Sync.JournalPath == "" && c.Database.DSN == "" {
		return common.NewConfigError("either a database DSN or a journal path is required")
	}
	if c.Geocode.Enabled && c.Geocode.Interval < time.Second {
		return common.NewConfigError("geocode interval must be at least 1s")
	}
	if _, err := c.Sync.Location(); err != nil {
		return err
	}
	return nil
}
