package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oasis-home/oasis-control/internal/device"
	"github.com/oasis-home/oasis-control/internal/infrastructure/config"
	"github.com/oasis-home/oasis-control/internal/protocol"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.Default().MQTT
	return NewClient(cfg)
}

// ===== Registration Tests =====

func TestRegisterDeviceRequiresSerial(t *testing.T) {
	c := testClient(t)

	err := c.RegisterDevice(device.New("", "", ""))
	if !errors.Is(err, device.ErrNoSerial) {
		t.Errorf("RegisterDevice() error = %v, want ErrNoSerial", err)
	}
}

func TestRegisterDeviceAttachesTransport(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")

	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	if !d.HasTransport() {
		t.Error("device has no transport after registration")
	}
	if got := len(c.Devices()); got != 1 {
		t.Errorf("Devices() len = %d, want 1", got)
	}

	// Idempotent.
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("second RegisterDevice() error = %v", err)
	}
	if got := len(c.Devices()); got != 1 {
		t.Errorf("Devices() len after re-register = %d, want 1", got)
	}
}

func TestUnregisterDevice(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")

	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	c.UnregisterDevice(d)

	if got := len(c.Devices()); got != 0 {
		t.Errorf("Devices() len = %d, want 0", got)
	}

	// Commands to an unregistered device fail fast.
	err := c.SendPlay(context.Background(), d)
	if !errors.Is(err, ErrDeviceNotRegistered) {
		t.Errorf("SendPlay() error = %v, want ErrDeviceNotRegistered", err)
	}
}

// ===== Message Routing Tests =====

func TestHandleMessageRoutesToDevice(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	c.handleMessage("OAS123/STATUS/OASIS_SPEEED", "250")
	if d.BallSpeed() != 250 {
		t.Errorf("BallSpeed() = %d, want 250", d.BallSpeed())
	}

	c.handleMessage("OAS123/STATUS/OASIS_STATUS", "6")
	if !d.IsSleeping() {
		t.Error("IsSleeping() = false after status 6")
	}
}

func TestHandleMessageIgnoresUnknownDevice(t *testing.T) {
	c := testClient(t)

	// Must not panic or register anything.
	c.handleMessage("UNKNOWN/STATUS/OASIS_SPEEED", "200")
	if got := len(c.Devices()); got != 0 {
		t.Errorf("Devices() len = %d, want 0", got)
	}
}

func TestHandleMessageSkipsBadPayload(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	c.handleMessage("OAS123/STATUS/OASIS_SPEEED", "not-a-number")
	if d.BallSpeed() != 0 {
		t.Errorf("BallSpeed() = %d after bad payload, want 0", d.BallSpeed())
	}

	// Unknown suffixes are logged and ignored, never fatal.
	c.handleMessage("OAS123/STATUS/BRAND_NEW_TOPIC", "1")
}

func TestHandleMessageSetsReadinessSignals(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	c.mu.RLock()
	entry := c.devices["OAS123"]
	c.mu.RUnlock()

	if entry.macKnown.IsSet() {
		t.Fatal("macKnown set before MAC reported")
	}

	c.handleMessage("OAS123/STATUS/MAC_ADDRESS", "aa:bb:cc:dd:ee:ff")
	if !entry.macKnown.IsSet() {
		t.Error("macKnown not set after MAC topic")
	}
	if entry.initialized.IsSet() {
		t.Error("initialized set without software version")
	}

	c.handleMessage("OAS123/STATUS/SOFTWARE_VER", "1.2.3")
	if !entry.initialized.IsSet() {
		t.Error("initialized not set after full identity")
	}
}

// ===== Command Dispatch Tests =====

func TestPublishQueuesWhileDisconnected(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	if err := c.SendBallSpeed(context.Background(), d, 200); err != nil {
		t.Fatalf("SendBallSpeed() error = %v", err)
	}

	items := c.queue.Drain()
	if len(items) != 1 {
		t.Fatalf("queue len = %d, want 1", len(items))
	}
	if items[0].serial != "OAS123" || items[0].payload != "WRIOASISSPEED=200" {
		t.Errorf("queued = %+v", items[0])
	}
}

func TestWakeCommandPrependsRefreshRequest(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	d.Apply(protocol.FieldMap{protocol.FieldStatusCode: protocol.StatusSleeping})

	if err := c.SendPlay(context.Background(), d); err != nil {
		t.Fatalf("SendPlay() error = %v", err)
	}

	items := c.queue.Drain()
	if len(items) != 2 {
		t.Fatalf("queue len = %d, want wake request plus command", len(items))
	}
	if items[0].payload != "GETALL" || items[1].payload != "CMDPLAY" {
		t.Errorf("queued = %q then %q, want GETALL then CMDPLAY", items[0].payload, items[1].payload)
	}
}

func TestQueueOverflowDropsOldest(t *testing.T) {
	cfg := config.Default().MQTT
	cfg.QueueSize = 2
	c := NewClient(cfg)

	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	ctx := context.Background()
	for _, speed := range []int{100, 200, 300} {
		if err := c.SendBallSpeed(ctx, d, speed); err != nil {
			t.Fatalf("SendBallSpeed(%d) error = %v", speed, err)
		}
	}

	items := c.queue.Drain()
	if len(items) != 2 {
		t.Fatalf("queue len = %d, want 2", len(items))
	}
	if items[0].payload != "WRIOASISSPEED=200" || items[1].payload != "WRIOASISSPEED=300" {
		t.Errorf("queue kept %q,%q, want the two newest", items[0].payload, items[1].payload)
	}
}

// ===== Readiness Tests =====

func TestWaitUntilReadyTimesOutDisconnected(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	if c.WaitUntilReady(context.Background(), d, 20*time.Millisecond, false) {
		t.Error("WaitUntilReady() = true while disconnected")
	}
}

func TestWaitUntilReadyAfterIdentity(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	// Simulate an established connection and an identity report.
	c.connected.Set()
	c.handleMessage("OAS123/STATUS/MAC_ADDRESS", "aa:bb:cc:dd:ee:ff")
	c.handleMessage("OAS123/STATUS/SOFTWARE_VER", "1.2.3")

	if !c.WaitUntilReady(context.Background(), d, 100*time.Millisecond, false) {
		t.Error("WaitUntilReady() = false with identity reported")
	}
}

func TestGetMACAddressReturnsKnownImmediately(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	d.Apply(protocol.FieldMap{protocol.FieldMACAddress: "aa:bb:cc:dd:ee:ff"})

	mac, err := c.GetMACAddress(context.Background(), d)
	if err != nil {
		t.Fatalf("GetMACAddress() error = %v", err)
	}
	if mac != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("GetMACAddress() = %q", mac)
	}
}

func TestFlushDropsCommandsForUnregisteredDevices(t *testing.T) {
	c := testClient(t)
	d := device.New("OAS123", "", "")
	if err := c.RegisterDevice(d); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}

	if err := c.SendBallSpeed(context.Background(), d, 200); err != nil {
		t.Fatalf("SendBallSpeed() error = %v", err)
	}
	c.UnregisterDevice(d)

	c.flushQueue()

	if got := c.queue.Len(); got != 0 {
		t.Errorf("queue len after flush = %d, want 0 (stale commands dropped)", got)
	}
}
