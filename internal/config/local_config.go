package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalOverrides is the subset of settings that may be parsed directly
// from a project-local config.yaml rather than through the viper
// singleton — useful for bootstrap checks (e.g. the CLI's --config flag
// resolution) that must run before viper is initialized.
type LocalOverrides struct {
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
}

// LoadLocalOverrides reads config.yaml directly from dir. It returns an
// empty (not nil) LocalOverrides if the file is missing or unparsable,
// since this is a best-effort bootstrap read, not the canonical config
// load path (see Load).
func LoadLocalOverrides(dir string) *LocalOverrides {
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml")) // #nosec G304 - dir is caller-controlled
	if err != nil {
		return &LocalOverrides{}
	}
	var cfg LocalOverrides
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalOverrides{}
	}
	return &cfg
}
