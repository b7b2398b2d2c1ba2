package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/oasis-home/oasis-control/internal/device"
	"github.com/oasis-home/oasis-control/internal/infrastructure/config"
	"github.com/oasis-home/oasis-control/internal/protocol"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// deviceEntry bundles a registered device with its readiness signals.
type deviceEntry struct {
	dev *device.Device

	// initialized fires once the device has reported serial, MAC and
	// software version over this connection.
	initialized *signal

	// macKnown fires as soon as the MAC address topic arrives.
	macKnown *signal
}

// Client is the persistent MQTT transport shared by every registered
// device.
//
// It wraps paho.mqtt.golang with Oasis-specific functionality: per-device
// status subscriptions, wire-protocol decoding into device state, a
// bounded offline command queue, and readiness synchronization.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are automatically restored on reconnection.
type Client struct {
	cfg     config.MQTTConfig
	options *pahomqtt.ClientOptions
	client  pahomqtt.Client

	// devices maps serial number to the registered device and its signals.
	devices map[string]*deviceEntry
	// subscribed tracks topics held on the current connection; cleared on drop.
	subscribed map[string]bool
	mu         sync.RWMutex

	connected *signal
	queue     *commandQueue

	connectedAt time.Time
	started     bool

	logger   Logger
	loggerMu sync.RWMutex
}

// NewClient creates an MQTT transport from the daemon configuration.
// No connection is made until Start.
func NewClient(cfg config.MQTTConfig) *Client {
	c := &Client{
		cfg:        cfg,
		devices:    make(map[string]*deviceEntry),
		subscribed: make(map[string]bool),
		connected:  newSignal(),
		queue:      newCommandQueue(cfg.QueueSize),
		logger:     noopLogger{},
	}

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})
	c.options = opts

	return c
}

// SetLogger sets a logger for connection and routing events.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Start begins the connection. The paho retry loop keeps attempting the
// broker indefinitely, so a broker outage at startup is not an error; only
// a definitive rejection (bad credentials, TLS failure) is.
func (c *Client) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.client = pahomqtt.NewClient(c.options)
	c.mu.Unlock()

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		c.getLogger().Warn("broker not reachable yet, retrying in background",
			"host", c.cfg.Broker.Host)
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// Stop disconnects from the broker and discards the pending command queue.
// Queued commands are not flushed; they were stale intent for a session
// that no longer exists.
func (c *Client) Stop() {
	c.mu.Lock()
	started := c.started
	c.started = false
	client := c.client
	c.mu.Unlock()

	if !started || client == nil {
		return
	}

	client.Disconnect(defaultDisconnectQuiesce)
	c.connected.Clear()

	if discarded := len(c.queue.Drain()); discarded > 0 {
		c.getLogger().Debug("discarded queued commands on shutdown", "count", discarded)
	}
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	return c.connected.IsSet() && client != nil && client.IsConnected()
}

// ConnectedAt returns when the current connection was established, or the
// zero time if never connected.
func (c *Client) ConnectedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connectedAt
}

// ===== Registration =====

// RegisterDevice adds a device to the transport.
//
// The device must have a serial number. The client attaches itself as the
// device's transport if it has none, creates the readiness signals, and,
// when already connected, subscribes to the device's status topics without
// blocking the caller.
func (c *Client) RegisterDevice(dev *device.Device) error {
	serial := dev.Serial()
	if serial == "" {
		return device.ErrNoSerial
	}

	c.mu.Lock()
	if _, exists := c.devices[serial]; exists {
		c.mu.Unlock()
		return nil
	}
	c.devices[serial] = &deviceEntry{
		dev:         dev,
		initialized: newSignal(),
		macKnown:    newSignal(),
	}
	c.mu.Unlock()

	if !dev.HasTransport() {
		dev.AttachTransport(c)
	}

	if c.IsConnected() {
		go c.subscribeDevice(serial)
	}

	c.getLogger().Info("device registered", "serial", serial)
	return nil
}

// UnregisterDevice removes a device and drops its subscription.
func (c *Client) UnregisterDevice(dev *device.Device) {
	serial := dev.Serial()

	c.mu.Lock()
	_, exists := c.devices[serial]
	delete(c.devices, serial)
	topic := protocol.StatusTopic(serial)
	wasSubscribed := c.subscribed[topic]
	delete(c.subscribed, topic)
	client := c.client
	c.mu.Unlock()

	if !exists {
		return
	}
	if wasSubscribed && client != nil && client.IsConnected() {
		client.Unsubscribe(topic)
	}
	c.getLogger().Info("device unregistered", "serial", serial)
}

// Devices returns the registered devices.
func (c *Client) Devices() []*device.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	devices := make([]*device.Device, 0, len(c.devices))
	for _, entry := range c.devices {
		devices = append(devices, entry.dev)
	}
	return devices
}

// ===== Connection lifecycle =====

// handleConnect runs on every successful connect, initial or after a drop:
// restore every device subscription, then flush commands queued while
// offline.
func (c *Client) handleConnect() {
	c.mu.Lock()
	c.connectedAt = time.Now()
	serials := make([]string, 0, len(c.devices))
	for serial := range c.devices {
		serials = append(serials, serial)
	}
	c.mu.Unlock()

	c.connected.Set()
	c.getLogger().Info("connected to broker", "host", c.cfg.Broker.Host, "devices", len(serials))

	for _, serial := range serials {
		c.subscribeDevice(serial)
	}

	c.flushQueue()
}

// handleDisconnect runs when the connection drops. The subscribed set is
// cleared because the broker forgot it with the clean session.
func (c *Client) handleDisconnect(err error) {
	c.connected.Clear()

	c.mu.Lock()
	c.subscribed = make(map[string]bool)
	c.mu.Unlock()

	c.getLogger().Warn("connection lost, reconnecting", "error", err)
}

// subscribeDevice subscribes to one device's status topic pattern.
func (c *Client) subscribeDevice(serial string) {
	topic := protocol.StatusTopic(serial)

	c.mu.RLock()
	client := c.client
	already := c.subscribed[topic]
	c.mu.RUnlock()

	if already || client == nil {
		return
	}

	token := client.Subscribe(topic, 0, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.handleMessage(msg.Topic(), string(msg.Payload()))
	})
	if !token.WaitTimeout(defaultPublishTimeout) || token.Error() != nil {
		c.getLogger().Warn("subscribe failed", "topic", topic, "error", token.Error())
		return
	}

	c.mu.Lock()
	c.subscribed[topic] = true
	c.mu.Unlock()

	c.getLogger().Debug("subscribed", "topic", topic)
}

// ===== Message routing =====

// handleMessage routes one status message through the codec into the
// matching device. Parse failures and unknown topics are logged and the
// update skipped; nothing in this path can take the receive loop down.
func (c *Client) handleMessage(topic, payload string) {
	defer func() {
		if r := recover(); r != nil {
			c.getLogger().Error("message handler panic recovered", "topic", topic, "panic", r)
		}
	}()

	serial, suffix, ok := protocol.SplitStatusTopic(topic)
	if !ok {
		c.getLogger().Debug("ignoring non-status topic", "topic", topic)
		return
	}

	c.mu.RLock()
	entry := c.devices[serial]
	c.mu.RUnlock()

	if entry == nil {
		c.getLogger().Debug("message for unknown device", "serial", serial)
		return
	}

	fields, err := protocol.ParseTopicValue(suffix, payload)
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrUnknownTopic):
			c.getLogger().Debug("unknown status topic", "serial", serial, "suffix", suffix)
		default:
			c.getLogger().Warn("discarding unparseable update", "serial", serial, "suffix", suffix, "error", err)
		}
		return
	}

	entry.dev.Apply(fields)

	if entry.dev.MACAddress() != "" {
		entry.macKnown.Set()
	}
	if entry.dev.IsInitialized() {
		entry.initialized.Set()
	}
}

// ===== Command dispatch =====

// publish sends one command to a device's command topic.
//
// A wake-hinted command targeting a sleeping device is preceded by a
// full-state refresh request, which the firmware treats as a wake. When
// disconnected, or when a connected publish fails, the command is queued
// for the next flush instead of surfacing an error; callers treat sends as
// fire-and-forget state-setters.
func (c *Client) publish(dev *device.Device, cmd protocol.Command) error {
	serial := dev.Serial()
	if serial == "" {
		return device.ErrNoSerial
	}

	c.mu.RLock()
	_, registered := c.devices[serial]
	c.mu.RUnlock()
	if !registered {
		return fmt.Errorf("%w: %s", ErrDeviceNotRegistered, serial)
	}

	if cmd.Wake && dev.IsSleeping() {
		c.publishPayload(serial, protocol.GetAllCommand().Payload())
	}

	c.publishPayload(serial, cmd.Payload())
	return nil
}

// publishPayload delivers one payload now or queues it.
func (c *Client) publishPayload(serial, payload string) {
	if !c.IsConnected() {
		c.enqueue(serial, payload)
		return
	}

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	token := client.Publish(protocol.CommandTopic(serial), 0, false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) || token.Error() != nil {
		c.getLogger().Warn("publish failed, queueing for retry",
			"serial", serial, "command", payload, "error", token.Error())
		c.enqueue(serial, payload)
	}
}

func (c *Client) enqueue(serial, payload string) {
	if dropped, didDrop := c.queue.Push(queuedCommand{serial: serial, payload: payload}); didDrop {
		c.getLogger().Warn("command queue full, dropped oldest",
			"dropped_serial", dropped.serial, "dropped_command", dropped.payload)
	}
	c.getLogger().Debug("command queued", "serial", serial, "command", payload, "pending", c.queue.Len())
}

// flushQueue publishes everything queued while offline. If the connection
// drops mid-flush the remainder is requeued in order.
func (c *Client) flushQueue() {
	pending := c.queue.Drain()
	if len(pending) == 0 {
		return
	}

	c.getLogger().Info("flushing queued commands", "count", len(pending))

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	for i, cmd := range pending {
		c.mu.RLock()
		_, registered := c.devices[cmd.serial]
		c.mu.RUnlock()
		if !registered {
			c.getLogger().Debug("dropping queued command for unregistered device",
				"serial", cmd.serial, "command", cmd.payload)
			continue
		}

		token := client.Publish(protocol.CommandTopic(cmd.serial), 0, false, cmd.payload)
		if !token.WaitTimeout(defaultPublishTimeout) || token.Error() != nil {
			c.queue.Requeue(pending[i:])
			c.getLogger().Warn("flush interrupted, requeued remainder", "remaining", len(pending)-i)
			return
		}
	}
}

// ===== Readiness =====

// WaitUntilReady blocks until the device has reported its identity over
// the active connection.
//
// It first waits (bounded by timeout) for the connection, then optionally
// issues a status request, then waits (bounded by timeout again) for the
// device's initialized signal. Returns false on either timeout; callers
// treat false as "try again later", never as a hard failure.
func (c *Client) WaitUntilReady(ctx context.Context, dev *device.Device, timeout time.Duration, requestStatus bool) bool {
	if !c.connected.Wait(ctx, timeout) {
		return false
	}

	c.mu.RLock()
	entry := c.devices[dev.Serial()]
	c.mu.RUnlock()
	if entry == nil {
		return false
	}

	if requestStatus {
		c.publishPayload(dev.Serial(), protocol.GetStatusCommand().Payload())
	}

	return entry.initialized.Wait(ctx, timeout)
}
