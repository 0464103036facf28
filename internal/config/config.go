// Package config loads the auditor's startup configuration: a YAML
// document overlaid with AKD_WATCH_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/bitwarden/akd-watch/internal/akdwatch"
)

// Config is the single top-level configuration document.
type Config struct {
	SleepSeconds     int               `yaml:"sleep_seconds" envconfig:"SLEEP_SECONDS"`
	Namespaces       []NamespaceConfig `yaml:"namespaces" ignored:"true"`
	NamespaceStorage StorageConfig     `yaml:"namespace_storage" envconfig:"NAMESPACE_STORAGE"`
	SignatureStorage StorageConfig     `yaml:"signature_storage" envconfig:"SIGNATURE_STORAGE"`
	Signing          SigningConfig     `yaml:"signing" envconfig:"SIGNING"`
}

// defaultConfig seeds every field envconfig or the YAML document may
// choose to leave unset. It is applied before YAML unmarshaling so that a
// partial document only overrides the keys it actually names; envconfig's
// own "default" tag is deliberately unused here; it would reapply the
// default over whatever YAML set whenever no env var is present.
func defaultConfig() Config {
	return Config{
		SleepSeconds: 30,
		NamespaceStorage: StorageConfig{
			Type: StorageTypeInMemory,
		},
		SignatureStorage: StorageConfig{
			Type: StorageTypeInMemory,
		},
		Signing: SigningConfig{
			KeyLifetimeSeconds: 2592000,
		},
	}
}

// NamespaceConfig describes one configured AKD namespace.
type NamespaceConfig struct {
	Name          string               `yaml:"name"`
	Configuration akdwatch.Configuration `yaml:"configuration_type"`
	LogDirectory  string               `yaml:"log_directory"`
	StartingEpoch akdwatch.Epoch       `yaml:"starting_epoch"`
	Status        akdwatch.Status      `yaml:"status"`
}

// StorageConfig selects one of a family's storage backends. Not every
// field applies to every Type: StateFile is for namespace_storage=File,
// Directory is for signature_storage=File, and Azure is reserved for a
// future backend, not implemented here.
type StorageConfig struct {
	Type      string `yaml:"type" envconfig:"TYPE"`
	StateFile string `yaml:"state_file" envconfig:"STATE_FILE"`
	Directory string `yaml:"directory" envconfig:"DIRECTORY"`
}

const (
	StorageTypeInMemory = "InMemory"
	StorageTypeFile     = "File"
	StorageTypeAzure    = "Azure"
)

// SigningConfig governs C3's key lifecycle.
type SigningConfig struct {
	KeyDir             string `yaml:"key_dir" envconfig:"KEY_DIR"`
	KeyLifetimeSeconds int    `yaml:"key_lifetime_seconds" envconfig:"KEY_LIFETIME_SECONDS"`
}

// KeyLifetime returns the configured key lifetime as a time.Duration.
func (s SigningConfig) KeyLifetime() time.Duration {
	return time.Duration(s.KeyLifetimeSeconds) * time.Second
}

// SleepDuration returns the configured inter-cycle sleep as a
// time.Duration.
func (c Config) SleepDuration() time.Duration {
	return time.Duration(c.SleepSeconds) * time.Second
}

// Load reads a YAML document from path, then overlays AKD_WATCH_-prefixed
// environment variables via envconfig's standard underscore-nesting
// convention.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := envconfig.Process("AKD_WATCH", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: apply environment overrides: %w", err)
	}
	if cfg.SleepSeconds <= 0 {
		return Config{}, fmt.Errorf("config: sleep_seconds must be positive, got %d", cfg.SleepSeconds)
	}
	for i, ns := range cfg.Namespaces {
		if ns.Name == "" {
			return Config{}, fmt.Errorf("config: namespaces[%d] missing name", i)
		}
		if ns.Configuration != akdwatch.ConfigurationWhatsAppV1 && ns.Configuration != akdwatch.ConfigurationBitwardenV1 {
			return Config{}, fmt.Errorf("config: namespace %s has unsupported configuration_type %q", ns.Name, ns.Configuration)
		}
		if ns.Status != akdwatch.StatusOnline && ns.Status != akdwatch.StatusDisabled && ns.Status != "" {
			return Config{}, fmt.Errorf("config: namespace %s has unsupported status %q", ns.Name, ns.Status)
		}
	}
	return cfg, nil
}
