package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dispatch-sim/dispatch-sim/sim/delivery"
)

// Preset is a named pair of interval distributions in defaults.yaml.
type Preset struct {
	OrderInterval   delivery.IntervalSpec `yaml:"order_interval"`
	CarrierInterval delivery.IntervalSpec `yaml:"carrier_interval"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version      string            `yaml:"version"`
	Strategy     string            `yaml:"strategy"`
	Acceleration float64           `yaml:"acceleration"`
	Preset       string            `yaml:"preset"` // preset used when --preset is not given
	Presets      map[string]Preset `yaml:"presets"`
}

// builtinDefaults mirrors the shipped defaults.yaml for runs without one.
func builtinDefaults() Config {
	return Config{
		Version:      "1",
		Strategy:     "matched",
		Acceleration: 1,
		Preset:       "default",
		Presets: map[string]Preset{
			"default": {OrderInterval: delivery.DefaultOrderInterval, CarrierInterval: delivery.DefaultCarrierInterval},
		},
	}
}

// loadDefaultsConfig parses defaults.yaml into a Config struct.
// Uses strict field checking: typos must cause errors.
func loadDefaultsConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read defaults file %s: %w", path, err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse defaults YAML %s: %w", path, err)
	}
	return cfg, nil
}

// lookupPreset returns the named preset, or the file's default preset when
// name is empty.
func (c Config) lookupPreset(name string) (Preset, error) {
	if name == "" {
		name = c.Preset
	}
	p, ok := c.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}
