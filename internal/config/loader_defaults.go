package config

import "time"

func defaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		ID:      "pico_test",
		Pin:     16,
		Keyword: "led",
	}
}

func defaultActuatorConfig() ActuatorConfig {
	return ActuatorConfig{
		Driver:        DriverLog,
		NativeMax:     65535,
		SysfsRoot:     "/sys/class/pwm",
		SysfsChip:     0,
		SysfsChannel:  0,
		PeriodNs:      1_000_000, // 1 kHz
		ExportTimeout: 1 * time.Second,
	}
}

// defaultMQTTConfig returns the default MQTT configuration
func defaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Broker:               "tcp://localhost:1883",
		ClientID:             "MC_Connect",
		ClientIDSuffix:       true,
		QoS:                  0,
		KeepAlive:            60 * time.Second,
		ConnectTimeout:       10 * time.Second,
		WriteTimeout:         5 * time.Second,
		SubscribeTimeout:     10 * time.Second,
		ReconnectDelay:       5 * time.Second,
		MaxReconnectInterval: 10 * time.Second,
		DisconnectTimeout:    1000,
	}
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{
		Address:      "localhost:6379",
		Stream:       "gpio-duty",
		MaxLen:       1000,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PingTimeout:  5 * time.Second,
	}
}

func defaultAgentConfig() AgentConfig {
	return AgentConfig{
		InboxCapacity:   16,
		PublishTimeout:  5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// defaultConfig returns a complete configuration with all default values
func defaultConfig() *Config {
	return &Config{
		Device:   defaultDeviceConfig(),
		Actuator: defaultActuatorConfig(),
		MQTT:     defaultMQTTConfig(),
		Redis:    defaultRedisConfig(),
		Agent:    defaultAgentConfig(),
	}
}
