package schema

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var defaultStandardSchema = mustLoadDefaults(defaultsYAML)

func mustLoadDefaults(data []byte) RawConfig {
	cfg, err := parseDefaults(data)
	if err != nil {
		panic(err)
	}
	return cfg
}

func parseDefaults(data []byte) (RawConfig, error) {
	var cfg RawConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse default schema: %w", err)
	}
	for _, k := range StandardKeys {
		if _, ok := cfg[k]; !ok {
			return nil, fmt.Errorf("default schema: missing standard key %q", k)
		}
	}
	for k := range cfg {
		if !IsStandardKey(k) {
			return nil, fmt.Errorf("default schema: unexpected key %q", k)
		}
	}
	return cfg, nil
}

// DefaultStandardSchema returns a copy of the built-in setting for every standard key.
func DefaultStandardSchema() RawConfig {
	return defaultStandardSchema.Clone()
}
