// Package processor validates inbound commands, drives the actuator and builds the resulting outbound messages.
package processor

import (
	"fmt"

	"github.com/ibs-source/gpio-agent/internal/actuator"
	"github.com/ibs-source/gpio-agent/internal/log"
	"github.com/ibs-source/gpio-agent/internal/message"
	"github.com/sirupsen/logrus"
)

// Rejection classifies why a command produced an AckError.
type Rejection string

const (
	RejectDecode         Rejection = "decode_error"
	RejectUnsupported    Rejection = "unsupported_command"
	RejectUnconfigured   Rejection = "unconfigured_target"
	RejectOutOfRange     Rejection = "out_of_range_value"
	RejectActuatorFailed Rejection = "actuator_failure"
)

// State is the process-wide actuator state. It holds the last applied
// canonical value and is only touched from the message handling path.
type State struct {
	CurrentValue int
}

// Params configures a Processor.
type Params struct {
	Pin      int
	Actuator actuator.Actuator
	State    *State
	Log      *log.Logger
}

// Processor handles one command at a time, run to completion.
type Processor struct {
	pin      int
	actuator actuator.Actuator
	state    *State
	log      *log.Logger
}

// New creates a processor. State must be non-nil and is shared by reference.
func New(p Params) (*Processor, error) {
	if p.Actuator == nil {
		return nil, fmt.Errorf("actuator is nil")
	}
	if p.State == nil {
		return nil, fmt.Errorf("state is nil")
	}
	if p.Log == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Processor{pin: p.Pin, actuator: p.Actuator, state: p.State, log: p.Log}, nil
}

// Process decodes and applies raw, returning the messages to publish in order.
// A rejected command yields exactly one AckError and leaves state untouched.
// An applied command yields Telemetry followed by AckSuccess.
func (p *Processor) Process(raw message.Payload) []message.Outbound {
	cmd, err := message.DecodeCommand(raw)
	if err != nil {
		return p.reject(RejectDecode, err.Error())
	}

	switch cmd.Kind {
	case message.KindGPIO:
		return p.applyGPIO(cmd)
	default:
		return p.reject(RejectUnsupported, fmt.Sprintf("unknown command type: %s", cmd.Type))
	}
}

func (p *Processor) applyGPIO(cmd message.Command) []message.Outbound {
	if cmd.Pin != p.pin {
		return p.reject(RejectUnconfigured, fmt.Sprintf("pin %d not configured", cmd.Pin))
	}
	if cmd.Value < 0 || cmd.Value > message.CanonicalMax {
		return p.reject(RejectOutOfRange,
			fmt.Sprintf("invalid value %d (must be 0-%d)", cmd.Value, message.CanonicalMax))
	}

	duty := actuator.MapToNative(cmd.Value, message.CanonicalMax, p.actuator.NativeMax())
	if err := p.actuator.Write(duty); err != nil {
		return p.reject(RejectActuatorFailed, fmt.Sprintf("actuator write failed: %v", err))
	}
	p.state.CurrentValue = cmd.Value

	p.log.InfoWithFields(logrus.Fields{
		"pin":   cmd.Pin,
		"value": cmd.Value,
		"duty":  duty,
		"mode":  cmd.Mode,
	}, "GPIO command applied")

	return []message.Outbound{
		message.Telemetry{Value: cmd.Value},
		message.AckSuccess{Pin: cmd.Pin, Value: cmd.Value},
	}
}

func (p *Processor) reject(code Rejection, reason string) []message.Outbound {
	p.log.WarnWithFields(logrus.Fields{"rejection": string(code)}, "Command rejected: %s", reason)
	return []message.Outbound{message.AckError{Reason: reason}}
}

// Current returns the telemetry message for the current state.
func (p *Processor) Current() message.Telemetry {
	return message.Telemetry{Value: p.state.CurrentValue}
}
