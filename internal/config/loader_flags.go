package config

import (
	"flag"
	"time"
)

// unsetInt marks int flags where zero is a meaningful value.
const unsetInt = -1

// flagValues holds command line flags (precedence over environment variables).
type flagValues struct {
	fs *flag.FlagSet

	configFile *string

	// Device flags
	deviceID      *string
	devicePin     *int
	deviceKeyword *string

	// Actuator flags
	actuatorDriver        *string
	actuatorNativeMax     *int
	actuatorSysfsRoot     *string
	actuatorSysfsChip     *int
	actuatorSysfsChannel  *int
	actuatorPeriodNs      *int
	actuatorExportTimeout *time.Duration

	// MQTT flags
	mqttBroker            *string
	mqttClientID          *string
	mqttClientIDSuffix    *bool
	mqttUsername          *string
	mqttPassword          *string
	mqttQoS               *int
	mqttKeepAlive         *time.Duration
	mqttConnectTimeout    *time.Duration
	mqttWriteTimeout      *time.Duration
	mqttSubscribeTimeout  *time.Duration
	mqttReconnectDelay    *time.Duration
	mqttMaxReconnect      *time.Duration
	mqttDisconnectTimeout *int
	mqttWillEnabled       *bool
	mqttTLSEnabled        *bool
	mqttCACert            *string
	mqttClientCert        *string
	mqttClientKey         *string
	mqttTLSInsecureSkip   *bool
	mqttUseCertCNDeviceID *bool

	// Redis flags
	redisAddress      *string
	redisDB           *int
	redisStream       *string
	redisMaxLen       *int
	redisWriteTimeout *time.Duration

	// Agent flags
	agentInboxCapacity   *int
	agentPublishTimeout  *time.Duration
	agentShutdownTimeout *time.Duration
}

var flags = registerFlags(flag.CommandLine)

// registerFlags defines every configuration flag on fs.
func registerFlags(fs *flag.FlagSet) *flagValues {
	// Zero durations mean "not set".
	dur := func(name, usage string) *time.Duration {
		return fs.Duration(name, 0, usage)
	}

	return &flagValues{
		fs:         fs,
		configFile: fs.String("config", "", "Path to YAML configuration file"),

		deviceID:      fs.String("device-id", "", "Device identifier used in topic names"),
		devicePin:     fs.Int("device-pin", unsetInt, "GPIO pin of the PWM output"),
		deviceKeyword: fs.String("device-telemetry-keyword", "", "Telemetry keyword (widget name)"),

		actuatorDriver:        fs.String("actuator-driver", "", "Actuator driver: log, sysfs or redis"),
		actuatorNativeMax:     fs.Int("actuator-native-max", 0, "Native duty range of the log/redis drivers"),
		actuatorSysfsRoot:     fs.String("actuator-sysfs-root", "", "Linux PWM class directory"),
		actuatorSysfsChip:     fs.Int("actuator-sysfs-chip", unsetInt, "pwmchip index"),
		actuatorSysfsChannel:  fs.Int("actuator-sysfs-channel", unsetInt, "PWM channel index"),
		actuatorPeriodNs:      fs.Int("actuator-pwm-period-ns", 0, "PWM period in nanoseconds"),
		actuatorExportTimeout: dur("actuator-export-timeout", "Wait for sysfs channel export"),

		mqttBroker:            fs.String("mqtt-broker", "", "MQTT broker URL"),
		mqttClientID:          fs.String("mqtt-client-id", "", "MQTT client ID"),
		mqttClientIDSuffix:    fs.Bool("mqtt-client-id-suffix", false, "Append device id and random suffix to client ID"),
		mqttUsername:          fs.String("mqtt-username", "", "MQTT username"),
		mqttPassword:          fs.String("mqtt-password", "", "MQTT password"),
		mqttQoS:               fs.Int("mqtt-qos", unsetInt, "MQTT QoS (0, 1, or 2)"),
		mqttKeepAlive:         dur("mqtt-keep-alive", "MQTT keep alive"),
		mqttConnectTimeout:    dur("mqtt-connect-timeout", "MQTT connect timeout"),
		mqttWriteTimeout:      dur("mqtt-write-timeout", "MQTT write timeout"),
		mqttSubscribeTimeout:  dur("mqtt-subscribe-timeout", "MQTT subscribe timeout"),
		mqttReconnectDelay:    dur("mqtt-reconnect-delay", "Delay between initial connection attempts"),
		mqttMaxReconnect:      dur("mqtt-max-reconnect-interval", "MQTT max reconnect interval"),
		mqttDisconnectTimeout: fs.Int("mqtt-disconnect-timeout", unsetInt, "MQTT disconnect timeout (ms)"),
		mqttWillEnabled:       fs.Bool("mqtt-will-enabled", false, "Publish offline as last will on the status topic"),
		mqttTLSEnabled:        fs.Bool("mqtt-tls-enabled", false, "Enable MQTT TLS"),
		mqttCACert:            fs.String("mqtt-ca-cert", "", "MQTT CA certificate path"),
		mqttClientCert:        fs.String("mqtt-client-cert", "", "MQTT client certificate path"),
		mqttClientKey:         fs.String("mqtt-client-key", "", "MQTT client key path"),
		mqttTLSInsecureSkip:   fs.Bool("mqtt-tls-insecure-skip", false, "Skip MQTT TLS verification"),
		mqttUseCertCNDeviceID: fs.Bool("mqtt-use-cert-cn-device-id", false, "Use client cert CN as device id"),

		redisAddress:      fs.String("redis-address", "", "Redis address"),
		redisDB:           fs.Int("redis-db", unsetInt, "Redis database"),
		redisStream:       fs.String("redis-stream", "", "Redis stream receiving duty writes"),
		redisMaxLen:       fs.Int("redis-max-len", 0, "Approximate max length of the duty stream"),
		redisWriteTimeout: dur("redis-write-timeout", "Redis write timeout"),

		agentInboxCapacity:   fs.Int("agent-inbox-capacity", 0, "Inbound message buffer"),
		agentPublishTimeout:  dur("agent-publish-timeout", "Timeout for each outbound publish"),
		agentShutdownTimeout: dur("agent-shutdown-timeout", "Graceful shutdown timeout"),
	}
}

func applyDeviceFlags(cfg *DeviceConfig) {
	if *flags.deviceID != "" {
		cfg.ID = *flags.deviceID
	}
	if *flags.devicePin != unsetInt {
		cfg.Pin = *flags.devicePin
	}
	if *flags.deviceKeyword != "" {
		cfg.Keyword = *flags.deviceKeyword
	}
}

func applyActuatorFlags(cfg *ActuatorConfig) {
	if *flags.actuatorDriver != "" {
		cfg.Driver = *flags.actuatorDriver
	}
	if *flags.actuatorNativeMax != 0 {
		cfg.NativeMax = *flags.actuatorNativeMax
	}
	if *flags.actuatorSysfsRoot != "" {
		cfg.SysfsRoot = *flags.actuatorSysfsRoot
	}
	if *flags.actuatorSysfsChip != unsetInt {
		cfg.SysfsChip = *flags.actuatorSysfsChip
	}
	if *flags.actuatorSysfsChannel != unsetInt {
		cfg.SysfsChannel = *flags.actuatorSysfsChannel
	}
	if *flags.actuatorPeriodNs != 0 {
		cfg.PeriodNs = *flags.actuatorPeriodNs
	}
	applyDuration(flags.actuatorExportTimeout, &cfg.ExportTimeout)
}

// applyMQTTFlags applies command line flags to MQTT configuration
func applyMQTTFlags(cfg *MQTTConfig) {
	applyMQTTFlagStrings(cfg)
	applyMQTTFlagInts(cfg)
	applyMQTTFlagTimeouts(cfg)
	applyMQTTFlagBools(cfg)
}

func applyMQTTFlagStrings(cfg *MQTTConfig) {
	for _, f := range []struct {
		value *string
		dst   *string
	}{
		{flags.mqttBroker, &cfg.Broker},
		{flags.mqttClientID, &cfg.ClientID},
		{flags.mqttUsername, &cfg.Username},
		{flags.mqttPassword, &cfg.Password},
		{flags.mqttCACert, &cfg.CACert},
		{flags.mqttClientCert, &cfg.ClientCert},
		{flags.mqttClientKey, &cfg.ClientKey},
	} {
		if *f.value != "" {
			*f.dst = *f.value
		}
	}
}

func applyMQTTFlagInts(cfg *MQTTConfig) {
	if *flags.mqttQoS >= 0 && *flags.mqttQoS <= 2 {
		cfg.QoS = byte(*flags.mqttQoS) // #nosec G115 - validated range 0-2
	}
	if *flags.mqttDisconnectTimeout >= 0 {
		cfg.DisconnectTimeout = uint(*flags.mqttDisconnectTimeout) // #nosec G115 - validated non-negative
	}
}

func applyMQTTFlagTimeouts(cfg *MQTTConfig) {
	applyDuration(flags.mqttKeepAlive, &cfg.KeepAlive)
	applyDuration(flags.mqttConnectTimeout, &cfg.ConnectTimeout)
	applyDuration(flags.mqttWriteTimeout, &cfg.WriteTimeout)
	applyDuration(flags.mqttSubscribeTimeout, &cfg.SubscribeTimeout)
	applyDuration(flags.mqttReconnectDelay, &cfg.ReconnectDelay)
	applyDuration(flags.mqttMaxReconnect, &cfg.MaxReconnectInterval)
}

func applyMQTTFlagBools(cfg *MQTTConfig) {
	// Bool flags only override when explicitly set
	if isFlagSet("mqtt-client-id-suffix") {
		cfg.ClientIDSuffix = *flags.mqttClientIDSuffix
	}
	if isFlagSet("mqtt-will-enabled") {
		cfg.WillEnabled = *flags.mqttWillEnabled
	}
	if isFlagSet("mqtt-tls-enabled") {
		cfg.TLSEnabled = *flags.mqttTLSEnabled
	}
	if isFlagSet("mqtt-tls-insecure-skip") {
		cfg.InsecureSkip = *flags.mqttTLSInsecureSkip
	}
	if isFlagSet("mqtt-use-cert-cn-device-id") {
		cfg.UseCertCNDeviceID = *flags.mqttUseCertCNDeviceID
	}
}

func applyRedisFlags(cfg *RedisConfig) {
	if *flags.redisAddress != "" {
		cfg.Address = *flags.redisAddress
	}
	if *flags.redisDB != unsetInt {
		cfg.DB = *flags.redisDB
	}
	if *flags.redisStream != "" {
		cfg.Stream = *flags.redisStream
	}
	if *flags.redisMaxLen != 0 {
		cfg.MaxLen = int64(*flags.redisMaxLen)
	}
	applyDuration(flags.redisWriteTimeout, &cfg.WriteTimeout)
}

func applyAgentFlags(cfg *AgentConfig) {
	if *flags.agentInboxCapacity != 0 {
		cfg.InboxCapacity = *flags.agentInboxCapacity
	}
	applyDuration(flags.agentPublishTimeout, &cfg.PublishTimeout)
	applyDuration(flags.agentShutdownTimeout, &cfg.ShutdownTimeout)
}

func applyDuration(f *time.Duration, dst *time.Duration) {
	if *f != 0 {
		*dst = *f
	}
}

// isFlagSet checks if a flag was explicitly set on the command line
func isFlagSet(name string) bool {
	found := false
	flags.fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
