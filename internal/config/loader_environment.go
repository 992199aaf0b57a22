package config

import (
	"os"
	"strconv"
	"time"
)

func loadDeviceFromEnv(cfg *DeviceConfig) {
	if v := getEnvString("DEVICE_ID"); v != "" {
		cfg.ID = v
	}
	if v, ok := getEnvInt("DEVICE_PIN"); ok {
		cfg.Pin = v
	}
	if v := getEnvString("DEVICE_TELEMETRY_KEYWORD"); v != "" {
		cfg.Keyword = v
	}
}

func loadActuatorFromEnv(cfg *ActuatorConfig) {
	if v := getEnvString("ACTUATOR_DRIVER"); v != "" {
		cfg.Driver = v
	}
	if v, ok := getEnvInt("ACTUATOR_NATIVE_MAX"); ok {
		cfg.NativeMax = v
	}
	if v := getEnvString("ACTUATOR_SYSFS_ROOT"); v != "" {
		cfg.SysfsRoot = v
	}
	if v, ok := getEnvInt("ACTUATOR_SYSFS_CHIP"); ok {
		cfg.SysfsChip = v
	}
	if v, ok := getEnvInt("ACTUATOR_SYSFS_CHANNEL"); ok {
		cfg.SysfsChannel = v
	}
	if v, ok := getEnvInt("ACTUATOR_PWM_PERIOD_NS"); ok {
		cfg.PeriodNs = v
	}
	if v := getEnvDuration("ACTUATOR_EXPORT_TIMEOUT"); v != 0 {
		cfg.ExportTimeout = v
	}
}

// loadMQTTFromEnv loads MQTT configuration from environment variables
func loadMQTTFromEnv(cfg *MQTTConfig) {
	loadMQTTStrings(cfg)
	loadMQTTInts(cfg)
	loadMQTTTimeouts(cfg)
	loadMQTTTLS(cfg)
	loadMQTTBools(cfg)
}

func loadMQTTStrings(cfg *MQTTConfig) {
	if v := getEnvString("MQTT_BROKER"); v != "" {
		cfg.Broker = v
	}
	if v := getEnvString("MQTT_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := getEnvString("MQTT_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := getEnvString("MQTT_PASSWORD"); v != "" {
		cfg.Password = v
	}
}

func loadMQTTInts(cfg *MQTTConfig) {
	if v, ok := getEnvInt("MQTT_QOS"); ok && v >= 0 && v <= 2 {
		cfg.QoS = byte(v) // #nosec G115 - validated range 0-2
	}
	if v, ok := getEnvInt("MQTT_DISCONNECT_TIMEOUT"); ok && v >= 0 {
		cfg.DisconnectTimeout = uint(v) // #nosec G115 - validated non-negative
	}
}

func loadMQTTTimeouts(cfg *MQTTConfig) {
	if v := getEnvDuration("MQTT_KEEP_ALIVE"); v != 0 {
		cfg.KeepAlive = v
	}
	if v := getEnvDuration("MQTT_CONNECT_TIMEOUT"); v != 0 {
		cfg.ConnectTimeout = v
	}
	if v := getEnvDuration("MQTT_WRITE_TIMEOUT"); v != 0 {
		cfg.WriteTimeout = v
	}
	if v := getEnvDuration("MQTT_SUBSCRIBE_TIMEOUT"); v != 0 {
		cfg.SubscribeTimeout = v
	}
	if v := getEnvDuration("MQTT_RECONNECT_DELAY"); v != 0 {
		cfg.ReconnectDelay = v
	}
	if v := getEnvDuration("MQTT_MAX_RECONNECT_INTERVAL"); v != 0 {
		cfg.MaxReconnectInterval = v
	}
}

func loadMQTTTLS(cfg *MQTTConfig) {
	if v := getEnvString("MQTT_CA_CERT"); v != "" {
		cfg.CACert = v
	}
	if v := getEnvString("MQTT_CLIENT_CERT"); v != "" {
		cfg.ClientCert = v
	}
	if v := getEnvString("MQTT_CLIENT_KEY"); v != "" {
		cfg.ClientKey = v
	}
}

func loadMQTTBools(cfg *MQTTConfig) {
	if v, ok := getEnvBool("MQTT_CLIENT_ID_SUFFIX"); ok {
		cfg.ClientIDSuffix = v
	}
	if v, ok := getEnvBool("MQTT_WILL_ENABLED"); ok {
		cfg.WillEnabled = v
	}
	if v, ok := getEnvBool("MQTT_TLS_ENABLED"); ok {
		cfg.TLSEnabled = v
	}
	if v, ok := getEnvBool("MQTT_TLS_INSECURE_SKIP"); ok {
		cfg.InsecureSkip = v
	}
	if v, ok := getEnvBool("MQTT_USE_CERT_CN_DEVICE_ID"); ok {
		cfg.UseCertCNDeviceID = v
	}
}

func loadRedisFromEnv(cfg *RedisConfig) {
	if v := getEnvString("REDIS_ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v := getEnvString("REDIS_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		cfg.DB = v
	}
	if v := getEnvString("REDIS_STREAM"); v != "" {
		cfg.Stream = v
	}
	if v, ok := getEnvInt("REDIS_MAX_LEN"); ok {
		cfg.MaxLen = int64(v)
	}
	if v := getEnvDuration("REDIS_DIAL_TIMEOUT"); v != 0 {
		cfg.DialTimeout = v
	}
	if v := getEnvDuration("REDIS_READ_TIMEOUT"); v != 0 {
		cfg.ReadTimeout = v
	}
	if v := getEnvDuration("REDIS_WRITE_TIMEOUT"); v != 0 {
		cfg.WriteTimeout = v
	}
	if v := getEnvDuration("REDIS_PING_TIMEOUT"); v != 0 {
		cfg.PingTimeout = v
	}
}

func loadAgentFromEnv(cfg *AgentConfig) {
	if v, ok := getEnvInt("AGENT_INBOX_CAPACITY"); ok {
		cfg.InboxCapacity = v
	}
	if v := getEnvDuration("AGENT_PUBLISH_TIMEOUT"); v != 0 {
		cfg.PublishTimeout = v
	}
	if v := getEnvDuration("AGENT_SHUTDOWN_TIMEOUT"); v != 0 {
		cfg.ShutdownTimeout = v
	}
}

// Helper functions for reading environment variables

func getEnvString(key string) string {
	return os.Getenv(key)
}

// getEnvInt reports ok only for a set, parseable value, so that 0 can be
// configured explicitly.
func getEnvInt(key string) (int, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return intValue, true
}

func getEnvDuration(key string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return duration
}

func getEnvBool(key string) (bool, bool) {
	switch os.Getenv(key) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}
