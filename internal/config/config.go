// Package config loads the layered application configuration: TOML
// defaults baked into the binary or shipped alongside it, a YAML
// project-local override file, and environment variables, composed
// through viper the way the teacher's CLI layers its own config surfaces.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix viper uses for environment variable overrides,
// e.g. NACSOS_DATABASE_HOST.
const EnvPrefix = "NACSOS"

// defaultsTOML holds the built-in defaults, decoded once via
// BurntSushi/toml and then fed into viper as its lowest-priority layer.
// Keeping a TOML decode path alongside viper's own YAML/JSON readers
// mirrors the teacher keeping both BurntSushi/toml and viper wired for
// distinct config surfaces rather than standardizing on one.
const defaultsTOML = `
[database]
scheme = "postgresql+asyncpg"
host = "localhost"
port = 5432
user = "nacsos"
password = ""
database = "nacsos_core"
schema = "public"

[server]
host = "0.0.0.0"
port = 8080

[dedupe]
max_slop = 0.02
candidates_k = 5
min_text_len = 10
`

// DatabaseConfig describes how to reach the relational store. Password is
// never logged; String redacts it.
type DatabaseConfig struct {
	Scheme   string `mapstructure:"scheme"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Schema   string `mapstructure:"schema"`
}

// DSN composes a connection string, URL-escaping User and Password so
// that special characters (common in generated passwords) cannot corrupt
// the URL structure.
func (d DatabaseConfig) DSN() string {
	userinfo := url.UserPassword(d.User, d.Password)
	return fmt.Sprintf("%s://%s@%s:%d/%s", d.Scheme, userinfo.String(), d.Host, d.Port, d.Database)
}

// String renders the DSN with the password redacted, safe for logging.
func (d DatabaseConfig) String() string {
	return fmt.Sprintf("%s://%s@%s:%d/%s (schema=%s)", d.Scheme, d.User, d.Host, d.Port, d.Database, d.Schema)
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DedupeConfig carries the C1 duplicate index's tunables (spec §5).
type DedupeConfig struct {
	MaxSlop      float64 `mapstructure:"max_slop"`
	CandidatesK  int     `mapstructure:"candidates_k"`
	MinTextLen   int     `mapstructure:"min_text_len"`
}

// Config is the fully resolved application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Dedupe   DedupeConfig   `mapstructure:"dedupe"`
}

// Load builds a Config from, in increasing priority order: the baked-in
// TOML defaults, an optional project-local config.yaml at configPath, and
// environment variables prefixed with NACSOS_ (nested keys joined with
// underscores, e.g. NACSOS_DATABASE_PASSWORD).
func Load(configPath string) (*Config, error) {
	var defaults map[string]any
	if _, err := toml.Decode(defaultsTOML, &defaults); err != nil {
		return nil, fmt.Errorf("config: decode defaults: %w", err)
	}

	v := viper.New()
	if err := v.MergeConfigMap(defaults); err != nil {
		return nil, fmt.Errorf("config: merge defaults: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// MustDefaults parses only the baked-in TOML defaults, for use in tests
// and tools that don't need the full layered load.
func MustDefaults() Config {
	var cfg Config
	if _, err := toml.NewDecoder(bytes.NewReader([]byte(defaultsTOML))).Decode(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return cfg
}
