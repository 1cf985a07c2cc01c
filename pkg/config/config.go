package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/logpress/logpress/pkg/store"
)

// ErrInvalid wraps configuration validation failures. They abort before
// any job is created.
var ErrInvalid = errors.New("invalid configuration")

// StoreConfig holds job store connection settings.
type StoreConfig struct {
	URI            string        `mapstructure:"uri" yaml:"uri"`
	Database       string        `mapstructure:"database" yaml:"database"`
	Collection     string        `mapstructure:"collection" yaml:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// Config is the client's deployment configuration.
type Config struct {
	Store        StoreConfig   `mapstructure:"store" yaml:"store"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
}

// Load reads configuration from the given file, or from
// $HOME/.logpress/config.yaml when path is empty, with LOGPRESS_* env
// overrides. Precedence: env > file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.uri", "")
	v.SetDefault("store.database", "")
	v.SetDefault("store.collection", store.DefaultCollection)
	v.SetDefault("store.connect_timeout", 5*time.Second)
	v.SetDefault("poll_interval", time.Second)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("LOGPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".logpress"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			// A missing default config file is fine; env vars may carry
			// everything required.
			var notFound viper.ConfigFileNotFoundError
			if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Store.URI == "" {
		return fmt.Errorf("%w: store.uri is required", ErrInvalid)
	}
	if c.Store.Database == "" {
		db, err := databaseFromURI(c.Store.URI)
		if err != nil {
			return err
		}
		c.Store.Database = db
	}
	if c.Store.Collection == "" {
		c.Store.Collection = store.DefaultCollection
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be greater than 0", ErrInvalid)
	}
	return nil
}

// databaseFromURI extracts the default database from a mongodb:// URI
// path, mirroring how the worker resolves its database.
func databaseFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: store.uri: %v", ErrInvalid, err)
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("%w: store.uri has no database path and store.database is unset", ErrInvalid)
	}
	return db, nil
}

// fileConfig mirrors Config with human-readable durations for the
// generated starter file.
type fileConfig struct {
	Store struct {
		URI            string `yaml:"uri"`
		Collection     string `yaml:"collection"`
		ConnectTimeout string `yaml:"connect_timeout"`
	} `yaml:"store"`
	PollInterval string `yaml:"poll_interval"`
	LogLevel     string `yaml:"log_level"`
}

// WriteDefault writes a starter configuration with every supported key at
// its default value.
func WriteDefault(w io.Writer) error {
	var fc fileConfig
	fc.Store.URI = "mongodb://localhost:27017/clp"
	fc.Store.Collection = store.DefaultCollection
	fc.Store.ConnectTimeout = (5 * time.Second).String()
	fc.PollInterval = time.Second.String()
	fc.LogLevel = "info"

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fc); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// StoreConfig converts to the store package's connection config.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		URI:            c.Store.URI,
		Database:       c.Store.Database,
		Collection:     c.Store.Collection,
		ConnectTimeout: c.Store.ConnectTimeout,
	}
}
