package mqtt

import (
	"context"

	"github.com/ibs-source/gpio-agent/internal/message"
)

// Transport is the broker-facing side of the agent
type Transport interface {
	SetHandlers(onMessage func(message.Payload), onConnect func())
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload message.Payload) error
	Close() error
}

// Ensure Client implements Transport
var _ Transport = (*Client)(nil)
