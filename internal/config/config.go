// Package config loads daemon configuration from defaults, an optional
// YAML file, and REMEDYD_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides, e.g.
// REMEDYD_SERVER_ADDR=:9090 sets server.addr.
const envPrefix = "REMEDYD_"

// ErrInvalidConfig indicates configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full daemon configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	CaseStore   CaseStoreConfig   `koanf:"casestore"`
	Rules       RulesConfig       `koanf:"rules"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig mirrors the logging package's settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// EmbeddingsConfig points at the embedding backend.
type EmbeddingsConfig struct {
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// VectorStoreConfig configures the embedded vector database.
type VectorStoreConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
}

// CaseStoreConfig configures case record persistence.
type CaseStoreConfig struct {
	Path string `koanf:"path"`
}

// RulesConfig optionally points at a YAML ruleset overriding the
// built-in tables.
type RulesConfig struct {
	Path string `koanf:"path"`
}

// ApplyDefaults fills unset fields with working defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8420"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = "http://localhost:8080"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if c.Embeddings.Timeout == 0 {
		c.Embeddings.Timeout = 10 * time.Second
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = "~/.config/remedyd/vectorstore"
	}
	if c.VectorStore.Collection == "" {
		c.VectorStore.Collection = "remedyd_cases"
	}
	if c.VectorStore.VectorSize == 0 {
		c.VectorStore.VectorSize = 384
	}
	if c.CaseStore.Path == "" {
		c.CaseStore.Path = "~/.config/remedyd/cases.json"
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr required", ErrInvalidConfig)
	}
	if c.Embeddings.BaseURL == "" {
		return fmt.Errorf("%w: embeddings.base_url required", ErrInvalidConfig)
	}
	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("%w: vectorstore.vector_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// Load builds the configuration. The file path may be empty; a named
// file must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
