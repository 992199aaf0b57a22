package agent

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ibs-source/gpio-agent/internal/actuator"
	"github.com/ibs-source/gpio-agent/internal/config"
	"github.com/ibs-source/gpio-agent/internal/log"
	"github.com/ibs-source/gpio-agent/internal/message"
	"github.com/ibs-source/gpio-agent/internal/mqtt"
	"github.com/ibs-source/gpio-agent/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	payload string
}

// fakeTransport connects immediately and records every publish.
type fakeTransport struct {
	mu         sync.Mutex
	onMessage  func(message.Payload)
	onConnect  func()
	connectErr error
	// failTopic makes every publish to that topic fail
	failTopic string
	published  []published
	closed     bool
}

func (f *fakeTransport) SetHandlers(onMessage func(message.Payload), onConnect func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMessage = onMessage
	f.onConnect = onConnect
}

func (f *fakeTransport) Connect(_ context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.reconnect()
	return nil
}

func (f *fakeTransport) reconnect() {
	f.mu.Lock()
	handler := f.onConnect
	f.mu.Unlock()
	handler()
}

func (f *fakeTransport) deliver(raw string) {
	f.mu.Lock()
	handler := f.onMessage
	f.mu.Unlock()
	handler(message.Payload(raw))
}

func (f *fakeTransport) Publish(_ context.Context, topic string, payload message.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if topic == f.failTopic {
		return errors.New("mqtt publish failed: connection reset")
	}
	f.published = append(f.published, published{topic: topic, payload: string(payload)})
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) snapshot() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

var _ mqtt.Transport = (*fakeTransport)(nil)

const (
	telemetryTopic = "device/pico_test/telemetry/led"
	ackTopic       = "device/pico_test/ack"
	statusTopic    = "device/pico_test/status"
)

type harness struct {
	agent     *Agent
	transport *fakeTransport
	actuator  *actuator.Logger
	cancel    context.CancelFunc
	done      chan error
}

func newAgent(t *testing.T, transport *fakeTransport, capacity int) (*Agent, *actuator.Logger) {
	t.Helper()
	logger := log.NewWithWriter(&bytes.Buffer{})

	act, err := actuator.NewLogger(16, 255, logger)
	require.NoError(t, err)

	proc, err := processor.New(processor.Params{
		Pin:      16,
		Actuator: act,
		State:    &processor.State{},
		Log:      logger,
	})
	require.NoError(t, err)

	cfg := &config.AgentConfig{InboxCapacity: capacity, PublishTimeout: time.Second}
	return New(transport, proc, act, message.NewTopics("pico_test", "led"), cfg, logger), act
}

func startAgent(t *testing.T) *harness {
	t.Helper()
	transport := &fakeTransport{}
	a, act := newAgent(t, transport, 16)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{agent: a, transport: transport, actuator: act, cancel: cancel, done: make(chan error, 1)}
	go func() { h.done <- a.Run(ctx) }()
	t.Cleanup(func() { h.stop(t) })
	return h
}

// stop cancels Run and waits for it to return.
func (h *harness) stop(t *testing.T) error {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		h.done <- err
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop")
		return nil
	}
}

func (h *harness) waitPublished(t *testing.T, n int) []published {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.transport.snapshot()) >= n
	}, 2*time.Second, time.Millisecond)
	return h.transport.snapshot()
}

func TestAgent_AnnouncesOnConnect(t *testing.T) {
	h := startAgent(t)

	got := h.waitPublished(t, 2)
	assert.Equal(t, []published{
		{statusTopic, "online"},
		{telemetryTopic, `{"value":0,"unit":""}`},
	}, got)
}

func TestAgent_AppliesCommand(t *testing.T) {
	h := startAgent(t)
	h.waitPublished(t, 2)

	h.transport.deliver(`{"type":"gpio","pin":16,"value":512}`)

	got := h.waitPublished(t, 4)
	assert.Equal(t, []published{
		{telemetryTopic, `{"value":512,"unit":""}`},
		{ackTopic, `{"status":"success","data":{"pin":16,"value":512}}`},
	}, got[2:])

	require.ErrorIs(t, h.stop(t), context.Canceled)
	assert.Equal(t, 128, h.actuator.Last())
}

func TestAgent_RejectsCommand(t *testing.T) {
	h := startAgent(t)
	h.waitPublished(t, 2)

	h.transport.deliver(`{"type":"gpio","pin":99,"value":512}`)
	h.transport.deliver(`not json`)
	h.transport.deliver(`{"type":"gpio","pin":16,"value":2000}`)

	got := h.waitPublished(t, 5)
	require.Len(t, got, 5)
	assert.Equal(t, published{ackTopic, `{"status":"error","error":"pin 99 not configured"}`}, got[2])
	assert.Equal(t, ackTopic, got[3].topic)
	assert.Contains(t, got[3].payload, `"status":"error"`)
	assert.Contains(t, got[3].payload, "json parse error")
	assert.Equal(t, published{ackTopic, `{"status":"error","error":"invalid value 2000 (must be 0-1024)"}`}, got[4])

	require.ErrorIs(t, h.stop(t), context.Canceled)
	assert.Equal(t, 0, h.actuator.Last())
}

func TestAgent_ReconnectAnnouncesCurrentValue(t *testing.T) {
	h := startAgent(t)
	h.waitPublished(t, 2)

	h.transport.deliver(`{"type":"gpio","pin":16,"value":1024}`)
	h.waitPublished(t, 4)

	h.transport.reconnect()

	got := h.waitPublished(t, 6)
	assert.Equal(t, []published{
		{statusTopic, "online"},
		{telemetryTopic, `{"value":1024,"unit":""}`},
	}, got[4:])
}

func TestAgent_PublishFailureDoesNotStopLoop(t *testing.T) {
	transport := &fakeTransport{failTopic: telemetryTopic}
	a, act := newAgent(t, transport, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Status goes out, telemetry fails
	require.Eventually(t, func() bool { return len(transport.snapshot()) == 1 }, 2*time.Second, time.Millisecond)

	transport.deliver(`{"type":"gpio","pin":16,"value":256}`)
	require.Eventually(t, func() bool { return len(transport.snapshot()) == 2 }, 2*time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []published{
		{statusTopic, "online"},
		{ackTopic, `{"status":"success","data":{"pin":16,"value":256}}`},
	}, transport.snapshot())
	assert.Equal(t, 64, act.Last())
}

func TestAgent_ConnectError(t *testing.T) {
	transport := &fakeTransport{connectErr: context.Canceled}
	a, _ := newAgent(t, transport, 1)

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, transport.snapshot())
}

func TestAgent_InboxFullDrops(t *testing.T) {
	transport := &fakeTransport{}
	a, _ := newAgent(t, transport, 1)

	a.enqueue(message.Payload(`{"type":"gpio","pin":16,"value":1}`))
	a.enqueue(message.Payload(`{"type":"gpio","pin":16,"value":2}`))

	require.Len(t, a.inbox, 1)
	assert.Equal(t, `{"type":"gpio","pin":16,"value":1}`, string(<-a.inbox))
	assert.Equal(t, int64(1), a.dropped.Load())
	assert.Len(t, a.busy, 1)
}

func TestAgent_DroppedCommandsGetBusyAck(t *testing.T) {
	transport := &fakeTransport{}
	a, _ := newAgent(t, transport, 1)

	a.enqueue(message.Payload(`{"type":"gpio","pin":16,"value":1}`))
	a.enqueue(message.Payload(`{"type":"gpio","pin":16,"value":2}`))
	a.enqueue(message.Payload(`{"type":"gpio","pin":16,"value":3}`))
	require.Len(t, a.busy, 1)

	a.rejectDropped(context.Background())

	busyAck := published{ackTopic, `{"status":"error","error":"agent busy: command dropped"}`}
	assert.Equal(t, []published{busyAck, busyAck}, transport.snapshot())
	assert.Equal(t, int64(0), a.dropped.Load())

	a.rejectDropped(context.Background())
	assert.Len(t, transport.snapshot(), 2)
}

func TestAgent_RunAnswersDroppedCommands(t *testing.T) {
	h := startAgent(t)
	h.waitPublished(t, 2)

	h.agent.dropped.Add(1)
	h.agent.busy <- struct{}{}

	got := h.waitPublished(t, 3)
	assert.Equal(t, published{ackTopic, `{"status":"error","error":"agent busy: command dropped"}`}, got[2])
}

func TestAgent_ConnectEventsCoalesce(t *testing.T) {
	a, _ := newAgent(t, &fakeTransport{}, 1)

	a.notifyConnected()
	a.notifyConnected()

	assert.Len(t, a.connected, 1)
}

func TestAgent_Close(t *testing.T) {
	transport := &fakeTransport{}
	a, act := newAgent(t, transport, 1)
	require.NoError(t, act.Write(200))

	require.NoError(t, a.Close())

	assert.Equal(t, 0, act.Last())
	assert.True(t, transport.closed)
}

// failingActuator rejects every write.
type failingActuator struct{ closed bool }

func (f *failingActuator) Write(int) error { return errors.New("device busy") }
func (f *failingActuator) NativeMax() int  { return 255 }
func (f *failingActuator) Close() error {
	f.closed = true
	return nil
}

func TestAgent_Close_ActuatorFailure(t *testing.T) {
	logger := log.NewWithWriter(&bytes.Buffer{})
	act := &failingActuator{}
	proc, err := processor.New(processor.Params{Pin: 16, Actuator: act, State: &processor.State{}, Log: logger})
	require.NoError(t, err)

	transport := &fakeTransport{}
	a := New(transport, proc, act, message.NewTopics("pico_test", "led"),
		&config.AgentConfig{InboxCapacity: 1}, logger)

	err = a.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device busy")
	assert.True(t, transport.closed)
	assert.True(t, act.closed)
}
