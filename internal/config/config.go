// Package config provides configuration loading for tern.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/ontoforge/tern/pkg/rdf"
)

// Config represents the complete tern configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Validation ValidationConfig `yaml:"validation"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP endpoint
type ServerConfig struct {
	// Addr is the listen address (default: localhost:8080)
	Addr string `yaml:"addr"`
}

// ValidationConfig configures the validator rule set
type ValidationConfig struct {
	// RequiredProperties is the predicate allow-list as absolute
	// IRIs (empty = built-in defaults)
	RequiredProperties []string `yaml:"required_properties"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
		Validation: ValidationConfig{
			RequiredProperties: nil, // built-in defaults
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("unknown log level %q", c.Log.Level)
	}
	for _, iri := range c.Validation.RequiredProperties {
		if !strings.Contains(iri, ":") {
			return errors.Newf("required property %q is not an absolute IRI", iri)
		}
	}
	return nil
}

// RequiredProperties returns the configured allow-list as terms
func (c *Config) RequiredProperties() []*rdf.NamedNode {
	props := make([]*rdf.NamedNode, 0, len(c.Validation.RequiredProperties))
	for _, iri := range c.Validation.RequiredProperties {
		props = append(props, rdf.NewNamedNode(iri))
	}
	return props
}

// LoadFromFile loads configuration from a YAML file, merged over the
// defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
