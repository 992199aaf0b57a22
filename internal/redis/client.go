// Package redis provides an actuator that appends duty writes to a Redis stream.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ibs-source/gpio-agent/internal/actuator"
	"github.com/ibs-source/gpio-agent/internal/config"
	"github.com/ibs-source/gpio-agent/internal/log"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// streamWriter is the subset of the go-redis API the actuator uses.
type streamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Client is an actuator whose "hardware" is a Redis stream. Each Write
// appends one entry carrying the pin, the native duty and the native range,
// so a downstream driver process can apply it.
type Client struct {
	rdb          streamWriter
	stream       string
	maxLen       int64
	writeTimeout time.Duration
	pin          int
	nativeMax    int
	log          *log.Logger
}

// NewClient connects to Redis and returns a stream actuator for pin.
func NewClient(cfg *config.RedisConfig, pin, nativeMax int, logger *log.Logger) (*Client, error) {
	if nativeMax <= 0 {
		return nil, fmt.Errorf("native max must be positive, got %d", nativeMax)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis actuator writing pin %d to stream '%s'", pin, cfg.Stream)

	return newClient(rdb, cfg, pin, nativeMax, logger), nil
}

func newClient(rdb streamWriter, cfg *config.RedisConfig, pin, nativeMax int, logger *log.Logger) *Client {
	return &Client{
		rdb:          rdb,
		stream:       cfg.Stream,
		maxLen:       cfg.MaxLen,
		writeTimeout: cfg.WriteTimeout,
		pin:          pin,
		nativeMax:    nativeMax,
		log:          logger,
	}
}

// Write appends the duty to the stream with XADD.
func (c *Client) Write(duty int) error {
	if duty < 0 || duty > c.nativeMax {
		return fmt.Errorf("duty %d out of range [0, %d]", duty, c.nativeMax)
	}

	ctx := context.Background()
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}

	id, err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.stream,
		MaxLen: c.maxLen,
		Approx: c.maxLen > 0,
		Values: []string{
			"pin", strconv.Itoa(c.pin),
			"duty", strconv.Itoa(duty),
			"native_max", strconv.Itoa(c.nativeMax),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd failed for stream %s: %w", c.stream, err)
	}

	c.log.DebugWithFields(logrus.Fields{"pin": c.pin, "duty": duty, "id": id}, "PWM duty appended to stream")
	return nil
}

// NativeMax returns the configured native range.
func (c *Client) NativeMax() int {
	return c.nativeMax
}

// Close closes the Redis client connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

var _ actuator.Actuator = (*Client)(nil)
