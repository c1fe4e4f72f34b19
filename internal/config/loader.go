package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "vcol.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "vcol.yml"

// LoadFromDir loads a ProjectConfig from the given directory.
// Returns nil, nil if no config file is found (not an error condition).
func LoadFromDir(dir string) (*ProjectConfig, error) {
	configPath := FindConfigFile(dir)
	if configPath == "" {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, err
	}

	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if cfg.Source != nil {
		cfg.Source.ApplyDefaults()
	}

	return &cfg, nil
}

// FindConfigFile returns the config file in dir, or "" if there is none.
func FindConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}
