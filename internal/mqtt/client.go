// Package mqtt provides the MQTT transport: connection with retry, command subscription and publishing.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/ibs-source/gpio-agent/internal/config"
	"github.com/ibs-source/gpio-agent/internal/log"
	"github.com/ibs-source/gpio-agent/internal/message"
	"github.com/ibs-source/gpio-agent/internal/retry"
)

var (
	ErrNotConnected    = errors.New("mqtt not connected")
	ErrConnectTimeout  = errors.New("mqtt connection timeout")
	ErrPublishTimeout  = errors.New("mqtt publish timeout")
	ErrSubscribeFailed = errors.New("mqtt command subscription failed")
)

// ClientParams configures NewClient.
type ClientParams struct {
	Config   *config.MQTTConfig
	DeviceID string
	Topics   message.Topics
	Log      *log.Logger

	// NewClientFunc builds the paho client; defaults to mqtt.NewClient.
	NewClientFunc func(options *mqtt.ClientOptions) mqtt.Client
}

// Client manages the broker connection for a single device
type Client struct {
	client            mqtt.Client
	clientID          string
	topics            message.Topics
	qos               byte
	connectTimeout    time.Duration
	writeTimeout      time.Duration
	subscribeTimeout  time.Duration
	reconnectDelay    time.Duration
	disconnectTimeout uint
	connected         atomic.Bool

	mu        sync.RWMutex
	onMessage func(message.Payload)
	onConnect func()

	log *log.Logger
}

// NewClient creates a new MQTT client. It does not connect.
func NewClient(p ClientParams) (*Client, error) {
	if p.Config == nil || p.Log == nil {
		return nil, fmt.Errorf("mqtt client requires config and logger")
	}
	if p.NewClientFunc == nil {
		p.NewClientFunc = mqtt.NewClient
	}
	cfg := p.Config

	c := &Client{
		clientID:          buildClientID(cfg, p.DeviceID),
		topics:            p.Topics,
		qos:               cfg.QoS,
		connectTimeout:    cfg.ConnectTimeout,
		writeTimeout:      cfg.WriteTimeout,
		subscribeTimeout:  cfg.SubscribeTimeout,
		reconnectDelay:    cfg.ReconnectDelay,
		disconnectTimeout: cfg.DisconnectTimeout,
		log:               p.Log,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(c.clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetWriteTimeout(cfg.WriteTimeout)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(cfg.MaxReconnectInterval)
	opts.SetCleanSession(true)
	// Commands must reach the agent in arrival order
	opts.SetOrderMatters(true)

	if cfg.WillEnabled {
		opts.SetWill(c.topics.Status, message.StatusOffline, cfg.QoS, false)
	}

	opts.SetConnectionLostHandler(c.handleConnectionLost)
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		c.log.Info("MQTT reconnecting...")
	})
	opts.SetOnConnectHandler(c.handleConnect)

	// Configure TLS if enabled
	if cfg.TLSEnabled {
		tlsConfig, err := newTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts.SetTLSConfig(tlsConfig)
	}

	c.client = p.NewClientFunc(opts)
	return c, nil
}

// buildClientID appends the device id and a per-boot random suffix when configured.
func buildClientID(cfg *config.MQTTConfig, deviceID string) string {
	if !cfg.ClientIDSuffix {
		return cfg.ClientID
	}
	return fmt.Sprintf("%s_%s_%s", cfg.ClientID, deviceID, uuid.NewString()[:8])
}

// newTLSConfig creates a TLS configuration from MQTT config
func newTLSConfig(cfg *config.MQTTConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		// Note: Enabling InsecureSkipVerify weakens TLS security and should only be used for testing.
		InsecureSkipVerify: cfg.InsecureSkip, // #nosec G402 - configurable for testing environments
		MinVersion:         tls.VersionTLS12,
	}

	// Load CA certificate if provided
	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	// Load client certificate and key if provided
	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert/key: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// ClientID returns the client id presented to the broker.
func (c *Client) ClientID() string {
	return c.clientID
}

// SetHandlers registers the inbound command handler and the connect handler.
// Both run on paho goroutines and must not block.
func (c *Client) SetHandlers(onMessage func(message.Payload), onConnect func()) {
	c.mu.Lock()
	c.onMessage = onMessage
	c.onConnect = onConnect
	c.mu.Unlock()
}

// Connect establishes the first connection, retrying every reconnect delay
// until it succeeds or ctx is cancelled. Later reconnects are left to paho.
func (c *Client) Connect(ctx context.Context) error {
	c.log.Info("Connecting to MQTT broker as '%s'", c.clientID)

	policy := retry.Policy{Delay: c.reconnectDelay}
	return policy.Do(ctx, func() error {
		return c.connectOnce(ctx)
	}, func(attempt int, err error, next time.Duration) {
		c.log.Warn("MQTT connection attempt %d failed: %v; retrying in %s", attempt, err, next)
	})
}

func (c *Client) connectOnce(ctx context.Context) error {
	timer := time.NewTimer(c.connectTimeout)
	defer timer.Stop()

	token := c.client.Connect()
	select {
	case <-ctx.Done():
		return retry.Permanent(ctx.Err())
	case <-timer.C:
		return ErrConnectTimeout
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to connect to MQTT: %w", err)
		}
	}
	return nil
}

// handleConnect runs after every successful (re)connect: the command topic
// is subscribed again, then the connect handler is notified.
func (c *Client) handleConnect(client mqtt.Client) {
	c.connected.Store(true)
	c.log.Info("MQTT connected successfully")

	if err := c.subscribeCommands(client); err != nil {
		c.log.Error("%v", err)
		return
	}

	c.mu.RLock()
	handler := c.onConnect
	c.mu.RUnlock()
	if handler != nil {
		handler()
	}
}

func (c *Client) subscribeCommands(client mqtt.Client) error {
	token := client.Subscribe(c.topics.Command, c.qos, c.handleMessage)
	if !token.WaitTimeout(c.subscribeTimeout) {
		return fmt.Errorf("%w: timeout on %s", ErrSubscribeFailed, c.topics.Command)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrSubscribeFailed, err)
	}
	c.log.Info("Subscribed to '%s'", c.topics.Command)
	return nil
}

func (c *Client) handleConnectionLost(_ mqtt.Client, err error) {
	c.connected.Store(false)
	if err != nil {
		c.log.Error("MQTT connection lost: %v", err)
	}
}

// handleMessage hands a copy of the payload to the registered handler
func (c *Client) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	c.mu.RLock()
	handler := c.onMessage
	c.mu.RUnlock()

	if handler == nil {
		return
	}

	payload := make(message.Payload, len(msg.Payload()))
	copy(payload, msg.Payload())
	c.log.Trace("Received %d bytes on '%s'", len(payload), msg.Topic())
	handler(payload)
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Publish sends payload to topic, not retained, bounded by the write timeout
func (c *Client) Publish(ctx context.Context, topic string, payload message.Payload) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	timer := time.NewTimer(c.writeTimeout)
	defer timer.Stop()

	token := c.client.Publish(topic, c.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrPublishTimeout
	}
}

// Close disconnects from the MQTT broker
func (c *Client) Close() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(c.disconnectTimeout)
	}
	c.connected.Store(false)
	return nil
}
