package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr           = ":8000"
	DefaultMaxUploadBytes = 1 << 20
	DefaultShift          = 3
	DefaultSeed           = 42
	DefaultKeyword        = "secret"
	DefaultJobs           = 4
)

type Config struct {
	Server       ServerConfig      `yaml:"server"`
	Defaults     DefaultsConfig    `yaml:"defaults"`
	StrictDecode bool              `yaml:"strict_decode"`
	Jobs         int               `yaml:"jobs"`
	Lexicon      LexiconConfig     `yaml:"lexicon"`
	Emoji        map[string]string `yaml:"emoji"`
	Plugins      []string          `yaml:"plugins"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	AllowOrigins   []string `yaml:"allow_origins"`
}

// DefaultsConfig holds the parameter values used when a request omits them.
type DefaultsConfig struct {
	Shift   *int    `yaml:"shift"`
	Seed    *int64  `yaml:"seed"`
	Keyword *string `yaml:"keyword"`
}

type LexiconConfig struct {
	Path string `yaml:"path"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"*"}
	}
	if c.Defaults.Shift == nil {
		v := DefaultShift
		c.Defaults.Shift = &v
	}
	if c.Defaults.Seed == nil {
		v := int64(DefaultSeed)
		c.Defaults.Seed = &v
	}
	if c.Defaults.Keyword == nil {
		v := DefaultKeyword
		c.Defaults.Keyword = &v
	}
	if c.Jobs == 0 {
		c.Jobs = DefaultJobs
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("invalid config: server.addr is empty")
	}
	if c.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("invalid config: server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("invalid config: jobs must be positive, got %d", c.Jobs)
	}
	for word := range c.Emoji {
		if strings.TrimSpace(word) == "" || strings.ContainsAny(word, " \t\n") {
			return fmt.Errorf("invalid config: emoji key %q must be a single word", word)
		}
	}
	return nil
}
