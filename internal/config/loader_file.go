package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// configFilePath returns the YAML file to load, flag first, then CONFIG_FILE.
func configFilePath() string {
	if *flags.configFile != "" {
		return *flags.configFile
	}
	return getEnvString("CONFIG_FILE")
}

// loadFromFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value. An empty path is a no-op.
func loadFromFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is operator supplied
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
