package mqtt

import (
	"context"

	"github.com/oasis-home/oasis-control/internal/device"
	"github.com/oasis-home/oasis-control/internal/protocol"
)

// Client implements the device transport contract.
var _ device.Transport = (*Client)(nil)

// GetStatus asks the device to republish its status topics. The reply
// arrives asynchronously through the subscription.
func (c *Client) GetStatus(_ context.Context, d *device.Device) error {
	return c.publish(d, protocol.GetStatusCommand())
}

// GetAll asks the device for the compact full snapshot including the
// schedule.
func (c *Client) GetAll(_ context.Context, d *device.Device) error {
	return c.publish(d, protocol.GetAllCommand())
}

// GetMACAddress returns the device MAC. If unknown it requests a status
// refresh and waits a short fixed time for the MAC topic, then returns
// whatever is known, possibly still empty.
func (c *Client) GetMACAddress(ctx context.Context, d *device.Device) (string, error) {
	if mac := d.MACAddress(); mac != "" {
		return mac, nil
	}

	c.mu.RLock()
	entry := c.devices[d.Serial()]
	c.mu.RUnlock()
	if entry == nil {
		return "", ErrDeviceNotRegistered
	}

	if err := c.publish(d, protocol.GetStatusCommand()); err != nil {
		return "", err
	}

	entry.macKnown.Wait(ctx, macWaitTimeout)
	return d.MACAddress(), nil
}

func (c *Client) SendBallSpeed(_ context.Context, d *device.Device, speed int) error {
	return c.publish(d, protocol.BallSpeedCommand(speed))
}

func (c *Client) SendLED(_ context.Context, d *device.Device, effect, color string, speed, brightness int) error {
	return c.publish(d, protocol.LEDCommand(effect, color, speed, brightness))
}

func (c *Client) SendMoveJob(_ context.Context, d *device.Device, from, to int) error {
	return c.publish(d, protocol.MoveJobCommand(from, to))
}

func (c *Client) SendChangeTrack(_ context.Context, d *device.Device, index int) error {
	return c.publish(d, protocol.ChangeTrackCommand(index))
}

func (c *Client) SendAddToPlaylist(_ context.Context, d *device.Device, tracks []int) error {
	return c.publish(d, protocol.AddJobListCommand(tracks))
}

func (c *Client) SendSetPlaylist(_ context.Context, d *device.Device, playlist []int) error {
	return c.publish(d, protocol.SetJobListCommand(playlist))
}

func (c *Client) SendRepeatPlaylist(_ context.Context, d *device.Device, repeat bool) error {
	return c.publish(d, protocol.RepeatJobCommand(repeat))
}

func (c *Client) SendAutoplay(_ context.Context, d *device.Device, option string) error {
	return c.publish(d, protocol.WaitAfterCommand(option))
}

func (c *Client) SendAutoClean(_ context.Context, d *device.Device, on bool) error {
	return c.publish(d, protocol.AutoCleanCommand(on))
}

func (c *Client) SendUpgrade(_ context.Context, d *device.Device, beta bool) error {
	return c.publish(d, protocol.UpgradeCommand(beta))
}

func (c *Client) SendPlay(_ context.Context, d *device.Device) error {
	return c.publish(d, protocol.PlayCommand())
}

func (c *Client) SendPause(_ context.Context, d *device.Device) error {
	return c.publish(d, protocol.PauseCommand())
}

func (c *Client) SendStop(_ context.Context, d *device.Device) error {
	return c.publish(d, protocol.StopCommand())
}

func (c *Client) SendSleep(_ context.Context, d *device.Device) error {
	return c.publish(d, protocol.SleepCommand())
}

func (c *Client) SendReboot(_ context.Context, d *device.Device) error {
	return c.publish(d, protocol.RebootCommand())
}
