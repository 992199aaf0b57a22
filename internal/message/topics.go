package message

import (
	"fmt"

	"github.com/ibs-source/gpio-agent/pkg/jsonfast"
)

// Topics holds the per-device topic names. They are computed once at
// startup and never change.
type Topics struct {
	Command   string
	Telemetry string
	Ack       string
	Status    string
}

// NewTopics derives all topics from the device identifier and telemetry keyword.
func NewTopics(deviceID, keyword string) Topics {
	root := "device/" + deviceID
	return Topics{
		Command:   root + "/command",
		Telemetry: root + "/telemetry/" + keyword,
		Ack:       root + "/ack",
		Status:    root + "/status",
	}
}

// Encode returns the destination topic and wire payload for an outbound message.
func (t Topics) Encode(out Outbound) (string, Payload) {
	switch m := out.(type) {
	case Telemetry:
		b := jsonfast.New(32)
		b.BeginObject()
		b.AddIntField("value", m.Value)
		b.AddStringField("unit", "")
		b.EndObject()
		return t.Telemetry, b.Bytes()

	case AckSuccess:
		b := jsonfast.New(64)
		b.BeginObject()
		b.AddStringField("status", "success")
		b.BeginObjectField("data")
		b.AddIntField("pin", m.Pin)
		b.AddIntField("value", m.Value)
		b.EndObject()
		b.EndObject()
		return t.Ack, b.Bytes()

	case AckError:
		b := jsonfast.New(64 + len(m.Reason))
		b.BeginObject()
		b.AddStringField("status", "error")
		b.AddStringField("error", m.Reason)
		b.EndObject()
		return t.Ack, b.Bytes()

	case Status:
		// Status is a raw string, not JSON.
		return t.Status, []byte(m.State)

	default:
		panic(fmt.Sprintf("message: unhandled outbound type %T", out))
	}
}
