package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperledger-labs/yui-remote-signer/core"
	"github.com/hyperledger-labs/yui-remote-signer/otelcore"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/hyperledger-labs/yui-remote-signer/config")

type Config struct {
	Global GlobalConfig    `yaml:"global" json:"global"`
	Signer json.RawMessage `yaml:"signer" json:"signer,omitempty"`

	// ConfigPath is the path to the file this config was loaded from
	ConfigPath string `yaml:"-" json:"-"`

	// cache
	signerConfig core.SignerConfig `yaml:"-" json:"-"`
	signer       core.Signer       `yaml:"-" json:"-"`
}

type GlobalConfig struct {
	Timeout      string       `yaml:"timeout" json:"timeout"`
	LoggerConfig LoggerConfig `yaml:"logger" json:"logger"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

func DefaultConfig(configPath string) Config {
	return Config{
		Global:     newDefaultGlobalConfig(),
		ConfigPath: configPath,
	}
}

// newDefaultGlobalConfig returns a global config with defaults set
func newDefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Timeout: "10s",
		LoggerConfig: LoggerConfig{
			Level:  "INFO",
			Format: "json",
			Output: "stderr",
		},
	}
}

// GetTimeout returns the global timeout
func (c GlobalConfig) GetTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Timeout)
}

// InitSigner decodes the signer section into the concrete config registered
// for its type and validates it. A config without a signer section is left
// uninitialized.
func (c *Config) InitSigner(registry *core.SignerRegistry) error {
	if len(c.Signer) == 0 {
		return nil
	}
	signerConfig, err := registry.Unmarshal(c.Signer)
	if err != nil {
		return err
	}
	if err := signerConfig.Validate(); err != nil {
		return fmt.Errorf("invalid signer config: %v", err)
	}
	c.signerConfig = signerConfig
	return nil
}

// GetSignerConfig returns the cached signer config instance
func (c *Config) GetSignerConfig() (core.SignerConfig, error) {
	if c.signerConfig == nil {
		return nil, errors.New("signer is not configured")
	}
	return c.signerConfig, nil
}

// BuildSigner builds a signer from the config, wraps it with tracing and
// caches it for subsequent calls.
func (c *Config) BuildSigner(ctx context.Context) (core.Signer, error) {
	if c.signer != nil {
		return c.signer, nil
	}
	signerConfig, err := c.GetSignerConfig()
	if err != nil {
		return nil, err
	}
	signer, err := signerConfig.Build(ctx)
	if err != nil {
		return nil, err
	}
	c.signer = otelcore.NewSigner(signer, signerType(c.Signer), tracer)
	return c.signer, nil
}

// SetSigner replaces the signer section of the config and persists it.
func (c *Config) SetSigner(signerConfig core.SignerConfig) error {
	bz, err := json.Marshal(signerConfig)
	if err != nil {
		return err
	}
	c.Signer = bz
	c.signerConfig = signerConfig
	c.signer = nil
	return c.Save()
}

// Save writes the config to the file it was loaded from.
func (c *Config) Save() error {
	bz, err := MarshalJSON(*c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.ConfigPath), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(c.ConfigPath, bz, 0600)
}

func signerType(bz json.RawMessage) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(bz, &probe); err != nil {
		return ""
	}
	return probe.Type
}
