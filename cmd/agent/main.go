// Package main starts the GPIO agent binary.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ibs-source/gpio-agent/internal/actuator"
	"github.com/ibs-source/gpio-agent/internal/agent"
	"github.com/ibs-source/gpio-agent/internal/config"
	"github.com/ibs-source/gpio-agent/internal/log"
	"github.com/ibs-source/gpio-agent/internal/message"
	"github.com/ibs-source/gpio-agent/internal/mqtt"
	"github.com/ibs-source/gpio-agent/internal/processor"
	"github.com/ibs-source/gpio-agent/internal/redis"
)

func run() int {
	logger := log.New()
	defer func() { _ = logger.Close() }()
	logger.Info("Starting GPIO agent")

	cfg, err := loadAndLogConfig(logger)
	if err != nil {
		return 1
	}

	a, err := initializeServices(cfg, logger)
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	return runMainLoop(a, cfg, logger)
}

func loadAndLogConfig(logger *log.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return nil, err
	}

	logger.Info("Configuration loaded successfully")
	logger.Info("Device: %s, Pin: %d, Telemetry keyword: %s", cfg.Device.ID, cfg.Device.Pin, cfg.Device.Keyword)
	logger.Info("Actuator: driver=%s", cfg.Actuator.Driver)
	logger.Info("MQTT: %s, QoS: %d, TLS: %t", cfg.MQTT.Broker, cfg.MQTT.QoS, cfg.MQTT.TLSEnabled)
	return cfg, nil
}

// newActuator opens the configured PWM driver
func newActuator(cfg *config.Config, logger *log.Logger) (actuator.Actuator, error) {
	switch cfg.Actuator.Driver {
	case config.DriverSysfs:
		return actuator.NewSysfs(actuator.SysfsParams{
			Root:          cfg.Actuator.SysfsRoot,
			Chip:          cfg.Actuator.SysfsChip,
			Channel:       cfg.Actuator.SysfsChannel,
			PeriodNs:      cfg.Actuator.PeriodNs,
			ExportTimeout: cfg.Actuator.ExportTimeout,
		})
	case config.DriverRedis:
		return redis.NewClient(&cfg.Redis, cfg.Device.Pin, cfg.Actuator.NativeMax, logger)
	case config.DriverLog:
		return actuator.NewLogger(cfg.Device.Pin, cfg.Actuator.NativeMax, logger)
	default:
		return nil, fmt.Errorf("unknown actuator driver %q", cfg.Actuator.Driver)
	}
}

func initializeServices(cfg *config.Config, logger *log.Logger) (*agent.Agent, error) {
	act, err := newActuator(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open actuator: %w", err)
	}
	logger.Info("Actuator ready on pin %d (native range 0-%d)", cfg.Device.Pin, act.NativeMax())

	proc, err := processor.New(processor.Params{
		Pin:      cfg.Device.Pin,
		Actuator: act,
		State:    &processor.State{},
		Log:      logger,
	})
	if err != nil {
		_ = act.Close()
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	topics := message.NewTopics(cfg.Device.ID, cfg.Device.Keyword)
	logger.Info("Topics: command=%s telemetry=%s ack=%s status=%s",
		topics.Command, topics.Telemetry, topics.Ack, topics.Status)

	client, err := mqtt.NewClient(mqtt.ClientParams{
		Config:   &cfg.MQTT,
		DeviceID: cfg.Device.ID,
		Topics:   topics,
		Log:      logger,
	})
	if err != nil {
		_ = act.Close()
		return nil, fmt.Errorf("failed to create MQTT client: %w", err)
	}

	return agent.New(client, proc, act, topics, &cfg.Agent, logger), nil
}

func runMainLoop(a *agent.Agent, cfg *config.Config, logger *log.Logger) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	runDone := make(chan error, 1)
	go func() {
		runDone <- a.Run(ctx)
	}()

	logger.Info("Agent started")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, initiating graceful shutdown", sig)
		cancel()
		return handleGracefulShutdown(a, runDone, cfg, logger)

	case err := <-runDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Agent error: %v", err)
			closeAgent(a, logger)
			return 1
		}
		closeAgent(a, logger)
		return 0
	}
}

// closer is the part of the agent used during shutdown.
type closer interface {
	Close() error
}

// handleGracefulShutdown waits for the run loop to stop, then turns the output off.
// The output is turned off on timeout as well.
func handleGracefulShutdown(a closer, runDone <-chan error, cfg *config.Config, logger *log.Logger) int {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Agent.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-runDone:
		closeAgent(a, logger)
		logger.Info("Graceful shutdown completed")
		logger.Info("Agent stopped")
		return 0
	case <-shutdownCtx.Done():
		logger.Error("Shutdown timeout exceeded")
		closeAgent(a, logger)
		return 1
	}
}

func closeAgent(a closer, logger *log.Logger) {
	if err := a.Close(); err != nil {
		logger.Error("Error closing agent: %v", err)
	}
}

func main() {
	// Keep main minimal to ensure defers in run() execute correctly.
	os.Exit(run())
}
