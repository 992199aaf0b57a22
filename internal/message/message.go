// Package message provides the command and outbound message model shared by the processor and the transport.
package message

// Payload is the canonical alias for raw message body
type Payload = []byte

// CanonicalMax is the upper bound of the value domain exposed on the wire.
const CanonicalMax = 1024

// DefaultMode is applied when a command carries no mode.
const DefaultMode = "output"

// Kind is the closed set of command families the agent understands.
type Kind int

const (
	// KindUnknown is the fallback for any unrecognized type tag.
	KindUnknown Kind = iota
	// KindGPIO drives the configured PWM output.
	KindGPIO
)

// ParseKind maps a wire type tag onto a Kind.
func ParseKind(tag string) Kind {
	switch tag {
	case "gpio":
		return KindGPIO
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindGPIO:
		return "gpio"
	default:
		return "unknown"
	}
}

// Command is a decoded inbound command with defaults applied.
// Pin and Value are -1 when absent so range checks reject them.
type Command struct {
	Type  string
	Kind  Kind
	Pin   int
	Value int
	Mode  string
}

// Outbound is one message emitted in response to a command or a connect.
// The set of implementations is closed to this package.
type Outbound interface {
	outbound()
}

// Telemetry reports the current canonical value.
type Telemetry struct {
	Value int
}

// AckSuccess acknowledges an applied command.
type AckSuccess struct {
	Pin   int
	Value int
}

// AckError rejects a command.
type AckError struct {
	Reason string
}

// Status announces device presence.
type Status struct {
	State string
}

// StatusOnline is published after every successful connect.
const StatusOnline = "online"

// StatusOffline is used as the optional last will.
const StatusOffline = "offline"

func (Telemetry) outbound()  {}
func (AckSuccess) outbound() {}
func (AckError) outbound()   {}
func (Status) outbound()     {}
