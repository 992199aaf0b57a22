// Package agent runs the device loop: broker connection events and inbound commands are handled one at a time.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ibs-source/gpio-agent/internal/actuator"
	"github.com/ibs-source/gpio-agent/internal/config"
	"github.com/ibs-source/gpio-agent/internal/log"
	"github.com/ibs-source/gpio-agent/internal/message"
	"github.com/ibs-source/gpio-agent/internal/mqtt"
	"github.com/ibs-source/gpio-agent/internal/processor"
	"github.com/sirupsen/logrus"
)

// ReasonBusy is the ack error sent for a command dropped on a full inbox.
const ReasonBusy = "agent busy: command dropped"

// Agent owns the processor and the actuator. Transport callbacks only
// enqueue; everything else happens on the Run goroutine.
type Agent struct {
	transport      mqtt.Transport
	processor      *processor.Processor
	actuator       actuator.Actuator
	topics         message.Topics
	inbox          chan message.Payload
	connected      chan struct{}
	busy           chan struct{}
	dropped        atomic.Int64
	publishTimeout time.Duration
	log            *log.Logger
}

// New creates a new agent
func New(
	transport mqtt.Transport,
	proc *processor.Processor,
	act actuator.Actuator,
	topics message.Topics,
	cfg *config.AgentConfig,
	logger *log.Logger,
) *Agent {
	return &Agent{
		transport:      transport,
		processor:      proc,
		actuator:       act,
		topics:         topics,
		inbox:          make(chan message.Payload, cfg.InboxCapacity),
		connected:      make(chan struct{}, 1),
		busy:           make(chan struct{}, 1),
		publishTimeout: cfg.PublishTimeout,
		log:            logger,
	}
}

// Run connects the transport and handles events until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Info("Starting agent")

	a.transport.SetHandlers(a.enqueue, a.notifyConnected)

	if err := a.transport.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect transport: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			a.log.Info("Shutting down agent")
			return ctx.Err()
		case <-a.connected:
			a.announce(ctx)
		case raw := <-a.inbox:
			a.handle(ctx, raw)
		case <-a.busy:
			a.rejectDropped(ctx)
		}
	}
}

// enqueue is the transport message handler. It never blocks; a full inbox
// drops the command and the loop later answers it with a busy ack.
func (a *Agent) enqueue(raw message.Payload) {
	select {
	case a.inbox <- raw:
	default:
		a.dropped.Add(1)
		a.log.WarnWithFields(logrus.Fields{"capacity": cap(a.inbox)}, "Inbox full, dropping command")
		select {
		case a.busy <- struct{}{}:
		default:
		}
	}
}

// notifyConnected coalesces connect events that arrive before the loop catches up.
func (a *Agent) notifyConnected() {
	select {
	case a.connected <- struct{}{}:
	default:
		a.log.Debug("Connect event already pending")
	}
}

// rejectDropped publishes one busy ack per command dropped since the last call.
func (a *Agent) rejectDropped(ctx context.Context) {
	n := a.dropped.Swap(0)
	if n == 0 {
		return
	}
	outs := make([]message.Outbound, n)
	for i := range outs {
		outs[i] = message.AckError{Reason: ReasonBusy}
	}
	a.publishAll(ctx, outs, logrus.Fields{"event": "busy", "dropped": n})
}

// announce publishes the online status and the current value
func (a *Agent) announce(ctx context.Context) {
	a.publishAll(ctx, []message.Outbound{
		message.Status{State: message.StatusOnline},
		a.processor.Current(),
	}, logrus.Fields{"event": "connect"})
}

// handle runs one command to completion and publishes its results in order
func (a *Agent) handle(ctx context.Context, raw message.Payload) {
	fields := logrus.Fields{"command_id": uuid.NewString()}
	a.log.DebugWithFields(fields, "Command received: %s", raw)

	a.publishAll(ctx, a.processor.Process(raw), fields)
}

func (a *Agent) publishAll(ctx context.Context, outs []message.Outbound, fields logrus.Fields) {
	for _, out := range outs {
		topic, payload := a.topics.Encode(out)
		if err := a.publish(ctx, topic, payload); err != nil {
			// Publish failures are not retried
			a.log.ErrorWithFields(fields, "Failed to publish to %s: %v", topic, err)
			continue
		}
		a.log.DebugWithFields(fields, "Published to %s: %s", topic, payload)
	}
}

func (a *Agent) publish(ctx context.Context, topic string, payload message.Payload) error {
	if a.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.publishTimeout)
		defer cancel()
	}
	return a.transport.Publish(ctx, topic, payload)
}

// Close drives the output to zero, then releases the transport and the actuator.
// Call it after Run returns, or after a shutdown timeout as a last resort.
func (a *Agent) Close() error {
	var errs []error
	if err := a.actuator.Write(0); err != nil {
		errs = append(errs, fmt.Errorf("failed to turn output off: %w", err))
	} else {
		a.log.Info("Output turned off")
	}
	if err := a.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
	}
	if err := a.actuator.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close actuator: %w", err))
	}
	return errors.Join(errs...)
}
