package config

import (
	"flag"
	"fmt"
)

// Load loads configuration with precedence: defaults → YAML file → environment variables → command line flags
// It performs validation and runtime transformations before returning the configuration.
func Load() (*Config, error) {
	// Parse command line flags if not already parsed
	if !flag.Parsed() {
		flag.Parse()
	}

	// Step 1: Start with defaults
	cfg := defaultConfig()

	// Step 2: Overlay the optional config file
	if err := loadFromFile(cfg, configFilePath()); err != nil {
		return nil, err
	}

	// Step 3: Apply environment variables
	loadDeviceFromEnv(&cfg.Device)
	loadActuatorFromEnv(&cfg.Actuator)
	loadMQTTFromEnv(&cfg.MQTT)
	loadRedisFromEnv(&cfg.Redis)
	loadAgentFromEnv(&cfg.Agent)

	// Step 4: Apply command line flags (highest precedence)
	applyDeviceFlags(&cfg.Device)
	applyActuatorFlags(&cfg.Actuator)
	applyMQTTFlags(&cfg.MQTT)
	applyRedisFlags(&cfg.Redis)
	applyAgentFlags(&cfg.Agent)

	// Step 5: Apply runtime validations and transformations
	if err := applyRuntimeValidation(cfg); err != nil {
		return nil, err
	}

	// Step 6: Validate the final configuration
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
