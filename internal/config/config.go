// Package config loads the command-line configuration from a YAML file,
// S3PUBLISH_* environment variables and explicit overrides, in increasing
// order of precedence.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "S3PUBLISH"

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = ".s3publish"

// Config holds the publish configuration.
type Config struct {
	Bucket    string   `mapstructure:"bucket"`
	Region    string   `mapstructure:"region"`
	Files     []string `mapstructure:"files"`
	Exclude   []string `mapstructure:"exclude"`
	WorkDir   string   `mapstructure:"workdir"`
	Revision  string   `mapstructure:"revision"`
	Sync      bool     `mapstructure:"sync"`
	ParamsExt string   `mapstructure:"params_ext"`

	// Keys are Prefix + the local path with StripPrefix removed.
	Prefix      string `mapstructure:"prefix"`
	StripPrefix string `mapstructure:"strip_prefix"`

	Index     string `mapstructure:"index"`
	LinkLabel string `mapstructure:"link_label"`

	Backend        string        `mapstructure:"backend"`
	Endpoint       string        `mapstructure:"endpoint"`
	Proxy          string        `mapstructure:"proxy"`
	ForcePathStyle bool          `mapstructure:"force_path_style"`
	DisableSSL     bool          `mapstructure:"disable_ssl"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`

	CredentialsSecret string `mapstructure:"credentials_secret"`
	AccessKeyID       string `mapstructure:"access_key_id"`
	SecretAccessKey   string `mapstructure:"secret_access_key"`
	SessionToken      string `mapstructure:"session_token"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// LoadOptions control where Load reads from.
type LoadOptions struct {
	// File is an explicit config file; it must exist when set
	File string

	// SearchDir is where DefaultFileName is looked for when File is empty
	SearchDir string

	// DotEnv is a .env file loaded into the environment if it exists;
	// variables already set are kept
	DotEnv string

	// Overrides take precedence over every other source
	Overrides map[string]any
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bucket", "")
	v.SetDefault("region", "us-east-1")
	v.SetDefault("files", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("workdir", ".")
	v.SetDefault("revision", "")
	v.SetDefault("sync", false)
	v.SetDefault("params_ext", "")
	v.SetDefault("prefix", "")
	v.SetDefault("strip_prefix", "")
	v.SetDefault("index", "")
	v.SetDefault("link_label", "")
	v.SetDefault("backend", string(s3types.BackendAWS))
	v.SetDefault("endpoint", "")
	v.SetDefault("proxy", "")
	v.SetDefault("force_path_style", false)
	v.SetDefault("disable_ssl", false)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("max_retries", 0)
	v.SetDefault("credentials_secret", "")
	v.SetDefault("access_key_id", "")
	v.SetDefault("secret_access_key", "")
	v.SetDefault("session_token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. It does not validate it.
func Load(opts LoadOptions) (*Config, error) {
	if opts.DotEnv != "" {
		if err := godotenv.Load(opts.DotEnv); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", opts.DotEnv, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.File, err)
		}
	} else {
		searchDir := opts.SearchDir
		if searchDir == "" {
			searchDir = "."
		}
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(searchDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.NewValidationError("bucket is required")
	}
	if len(c.Files) == 0 {
		return errors.NewValidationError("at least one file pattern is required")
	}
	if c.ParamsExt != "" && !strings.HasPrefix(c.ParamsExt, ".") {
		return errors.NewValidationError("params_ext must start with '.'")
	}

	switch s3types.Backend(c.Backend) {
	case s3types.BackendAWS:
	case s3types.BackendMinio:
		if c.Endpoint == "" {
			return errors.NewValidationError("endpoint is required for the minio backend")
		}
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown backend %q", c.Backend))
	}

	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewValidationError(fmt.Sprintf("invalid proxy URL %q", c.Proxy))
		}
	}
	if c.Timeout < 0 {
		return errors.NewValidationError("timeout cannot be negative")
	}
	if c.MaxRetries < 0 {
		return errors.NewValidationError("max_retries cannot be negative")
	}

	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.NewValidationError("access_key_id and secret_access_key must be set together")
	}
	if c.CredentialsSecret != "" && c.AccessKeyID != "" {
		return errors.NewValidationError("credentials_secret cannot be combined with static keys")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	return nil
}

// Translator maps local paths to keys using Prefix and StripPrefix.
func (c *Config) Translator() s3types.PathTranslator {
	if c.Prefix == "" && c.StripPrefix == "" {
		return s3types.Identity
	}
	prefix, strip := c.Prefix, c.StripPrefix
	return func(localPath string) string {
		return prefix + strings.TrimPrefix(localPath, strip)
	}
}

// PublishConfig builds the run description for revision.
func (c *Config) PublishConfig(revision string) *s3types.PublishConfig {
	return &s3types.PublishConfig{
		Bucket:          c.Bucket,
		Region:          c.Region,
		FilesToPublish:  c.Files,
		Exclude:         c.Exclude,
		PathTranslation: c.Translator(),
		PathToIndex:     c.Index,
		LinkLabel:       c.LinkLabel,
		Sync:            c.Sync,
		ParamsExt:       c.ParamsExt,
		Revision:        revision,
	}
}
