package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration constraints
func Validate(cfg *Config) error {
	if err := validateDevice(&cfg.Device); err != nil {
		return err
	}
	if err := validateActuator(&cfg.Actuator); err != nil {
		return err
	}
	if err := validateMQTT(&cfg.MQTT); err != nil {
		return err
	}
	if cfg.Actuator.Driver == DriverRedis {
		if err := validateRedis(&cfg.Redis); err != nil {
			return err
		}
	}
	return validateAgent(&cfg.Agent)
}

// validateDevice validates the device identity. Both id and keyword end up
// in topic names, so MQTT wildcards and separators are rejected.
func validateDevice(cfg *DeviceConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("device id cannot be empty")
	}
	if strings.ContainsAny(cfg.ID, "+#/") {
		return fmt.Errorf("device id %q must not contain '+', '#' or '/'", cfg.ID)
	}
	if cfg.Keyword == "" {
		return fmt.Errorf("telemetry keyword cannot be empty")
	}
	if strings.ContainsAny(cfg.Keyword, "+#/") {
		return fmt.Errorf("telemetry keyword %q must not contain '+', '#' or '/'", cfg.Keyword)
	}
	if cfg.Pin < 0 {
		return fmt.Errorf("device pin must not be negative")
	}
	return nil
}

// validateActuator validates the selected driver
func validateActuator(cfg *ActuatorConfig) error {
	switch cfg.Driver {
	case DriverLog, DriverRedis:
		if cfg.NativeMax < 1 {
			return fmt.Errorf("actuator native max must be positive")
		}
	case DriverSysfs:
		if cfg.SysfsRoot == "" {
			return fmt.Errorf("actuator sysfs root cannot be empty")
		}
		if cfg.SysfsChip < 0 || cfg.SysfsChannel < 0 {
			return fmt.Errorf("actuator sysfs chip and channel must not be negative")
		}
		if cfg.PeriodNs < 1 {
			return fmt.Errorf("actuator pwm period must be positive")
		}
	default:
		return fmt.Errorf("unknown actuator driver %q", cfg.Driver)
	}
	return nil
}

// validateMQTT validates MQTT configuration
func validateMQTT(cfg *MQTTConfig) error {
	if cfg.Broker == "" {
		return fmt.Errorf("mqtt broker cannot be empty")
	}
	if cfg.ClientID == "" {
		return fmt.Errorf("mqtt client ID cannot be empty")
	}
	if cfg.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	if cfg.ReconnectDelay <= 0 {
		return fmt.Errorf("mqtt reconnect delay must be positive")
	}
	if (cfg.ClientCert == "") != (cfg.ClientKey == "") {
		return fmt.Errorf("mqtt client cert and key must be set together")
	}
	return nil
}

// validateRedis validates Redis configuration
func validateRedis(cfg *RedisConfig) error {
	if cfg.Address == "" {
		return fmt.Errorf("redis address cannot be empty")
	}
	if cfg.Stream == "" {
		return fmt.Errorf("redis stream cannot be empty")
	}
	return nil
}

// validateAgent validates run loop configuration
func validateAgent(cfg *AgentConfig) error {
	if cfg.InboxCapacity < 1 {
		return fmt.Errorf("agent inbox capacity must be positive")
	}
	return nil
}
