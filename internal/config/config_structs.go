// Package config provides configuration loading and validation from a YAML file, environment variables and command line flags.
package config

import "time"

// Actuator drivers.
const (
	DriverLog   = "log"
	DriverSysfs = "sysfs"
	DriverRedis = "redis"
)

// Config holds the complete configuration
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Actuator ActuatorConfig `yaml:"actuator"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Redis    RedisConfig    `yaml:"redis"`
	Agent    AgentConfig    `yaml:"agent"`
}

// DeviceConfig identifies the device and its single output.
type DeviceConfig struct {
	ID      string `yaml:"id"`
	Pin     int    `yaml:"pin"`
	Keyword string `yaml:"telemetry_keyword"`
}

// ActuatorConfig selects and configures the PWM driver
type ActuatorConfig struct {
	Driver string `yaml:"driver"`
	// NativeMax is the duty range of the log and redis drivers.
	// The sysfs driver uses PeriodNs instead.
	NativeMax     int           `yaml:"native_max"`
	SysfsRoot     string        `yaml:"sysfs_root"`
	SysfsChip     int           `yaml:"sysfs_chip"`
	SysfsChannel  int           `yaml:"sysfs_channel"`
	PeriodNs      int           `yaml:"period_ns"`
	ExportTimeout time.Duration `yaml:"export_timeout"`
}

// MQTTConfig holds MQTT client configuration
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	// ClientIDSuffix appends the device id and a random suffix so that
	// restarts never collide with a stale session.
	ClientIDSuffix       bool          `yaml:"client_id_suffix"`
	Username             string        `yaml:"username"`
	Password             string        `yaml:"password"`
	QoS                  byte          `yaml:"qos"`
	KeepAlive            time.Duration `yaml:"keep_alive"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	SubscribeTimeout     time.Duration `yaml:"subscribe_timeout"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	MaxReconnectInterval time.Duration `yaml:"max_reconnect_interval"`
	DisconnectTimeout    uint          `yaml:"disconnect_timeout_ms"`
	WillEnabled          bool          `yaml:"will_enabled"`
	// TLS Configuration
	TLSEnabled   bool   `yaml:"tls_enabled"`
	CACert       string `yaml:"ca_cert"`
	ClientCert   string `yaml:"client_cert"`
	ClientKey    string `yaml:"client_key"`
	InsecureSkip bool   `yaml:"tls_insecure_skip"`
	// UseCertCNDeviceID takes the device id from the client certificate CN.
	UseCertCNDeviceID bool `yaml:"use_cert_cn_device_id"`
}

// RedisConfig holds the redis actuator driver configuration
type RedisConfig struct {
	Address      string        `yaml:"address"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Stream       string        `yaml:"stream"`
	MaxLen       int64         `yaml:"max_len"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
}

// AgentConfig holds run loop settings
type AgentConfig struct {
	InboxCapacity   int           `yaml:"inbox_capacity"`
	PublishTimeout  time.Duration `yaml:"publish_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}
