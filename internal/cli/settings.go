package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings represents the structure of listflow.yaml, the optional
// per-project settings file that sits next to the document store.
type Settings struct {
	LogLevel string `yaml:"log_level" json:"log_level"`

	HTTP struct {
		Port string `yaml:"port" json:"port"`
	} `yaml:"http" json:"http"`

	Redis struct {
		Addr   string `yaml:"addr" json:"addr"`
		Prefix string `yaml:"prefix" json:"prefix"`
	} `yaml:"redis" json:"redis"`

	Shell struct {
		Program string `yaml:"program" json:"program"`
	} `yaml:"shell" json:"shell"`
}

// DefaultSettingsFile is looked up relative to the store directory.
const DefaultSettingsFile = "listflow.yaml"

// LoadSettings reads a YAML settings file. A missing file is not an
// error; the zero Settings value stands for "all defaults".
func LoadSettings(path string) (Settings, error) {
	var st Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return st, nil
}
