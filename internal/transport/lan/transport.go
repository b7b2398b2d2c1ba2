package lan

import (
	"context"
	"net/url"
	"strings"

	"github.com/oasis-home/oasis-control/internal/device"
	"github.com/oasis-home/oasis-control/internal/protocol"
)

// Client implements the device transport contract.
var _ device.Transport = (*Client)(nil)

// send encodes one command as a query parameter and issues it, waking the
// device first when the command asks for it.
func (c *Client) send(ctx context.Context, d *device.Device, cmd protocol.Command) (any, error) {
	if cmd.Wake && d.IsSleeping() {
		if _, err := c.sendCommand(ctx, commandParams(protocol.GetAllCommand())); err != nil {
			return nil, err
		}
	}
	return c.sendCommand(ctx, commandParams(cmd))
}

func commandParams(cmd protocol.Command) url.Values {
	params := url.Values{}
	params.Set(cmd.Key, cmd.Value)
	return params
}

// GetStatus fetches the full-status snapshot and applies it before
// returning; over HTTP there is no push channel to deliver it later.
func (c *Client) GetStatus(ctx context.Context, d *device.Device) error {
	resp, err := c.send(ctx, d, protocol.GetStatusCommand())
	if err != nil {
		return err
	}
	return c.applySnapshot(d, resp)
}

// GetAll fetches the compact snapshot including the schedule and applies
// it.
func (c *Client) GetAll(ctx context.Context, d *device.Device) error {
	resp, err := c.send(ctx, d, protocol.GetAllCommand())
	if err != nil {
		return err
	}
	return c.applySnapshot(d, resp)
}

func (c *Client) applySnapshot(d *device.Device, resp any) error {
	raw, ok := resp.(string)
	if !ok {
		c.logger.Warn("device returned no status text", "serial", d.Serial())
		return nil
	}
	if _, err := d.ApplyStatusString(strings.TrimSpace(raw)); err != nil {
		c.logger.Warn("discarding malformed status snapshot", "serial", d.Serial(), "error", err)
	}
	return nil
}

// GetMACAddress asks the device for its MAC directly; the firmware
// answers this synchronously over HTTP.
func (c *Client) GetMACAddress(ctx context.Context, d *device.Device) (string, error) {
	resp, err := c.send(ctx, d, protocol.GetMACCommand())
	if err != nil {
		return "", err
	}
	mac, ok := resp.(string)
	if !ok {
		return "", nil
	}
	mac = strings.TrimSpace(mac)
	if mac != "" {
		d.Apply(protocol.FieldMap{protocol.FieldMACAddress: mac})
	}
	return mac, nil
}

func (c *Client) SendBallSpeed(ctx context.Context, d *device.Device, speed int) error {
	_, err := c.send(ctx, d, protocol.BallSpeedCommand(speed))
	return err
}

func (c *Client) SendLED(ctx context.Context, d *device.Device, effect, color string, speed, brightness int) error {
	_, err := c.send(ctx, d, protocol.LEDCommand(effect, color, speed, brightness))
	return err
}

func (c *Client) SendMoveJob(ctx context.Context, d *device.Device, from, to int) error {
	_, err := c.send(ctx, d, protocol.MoveJobCommand(from, to))
	return err
}

func (c *Client) SendChangeTrack(ctx context.Context, d *device.Device, index int) error {
	_, err := c.send(ctx, d, protocol.ChangeTrackCommand(index))
	return err
}

func (c *Client) SendAddToPlaylist(ctx context.Context, d *device.Device, tracks []int) error {
	_, err := c.send(ctx, d, protocol.AddJobListCommand(tracks))
	return err
}

func (c *Client) SendSetPlaylist(ctx context.Context, d *device.Device, playlist []int) error {
	_, err := c.send(ctx, d, protocol.SetJobListCommand(playlist))
	return err
}

func (c *Client) SendRepeatPlaylist(ctx context.Context, d *device.Device, repeat bool) error {
	_, err := c.send(ctx, d, protocol.RepeatJobCommand(repeat))
	return err
}

func (c *Client) SendAutoplay(ctx context.Context, d *device.Device, option string) error {
	_, err := c.send(ctx, d, protocol.WaitAfterCommand(option))
	return err
}

func (c *Client) SendAutoClean(ctx context.Context, d *device.Device, on bool) error {
	_, err := c.send(ctx, d, protocol.AutoCleanCommand(on))
	return err
}

func (c *Client) SendUpgrade(ctx context.Context, d *device.Device, beta bool) error {
	_, err := c.send(ctx, d, protocol.UpgradeCommand(beta))
	return err
}

func (c *Client) SendPlay(ctx context.Context, d *device.Device) error {
	_, err := c.send(ctx, d, protocol.PlayCommand())
	return err
}

func (c *Client) SendPause(ctx context.Context, d *device.Device) error {
	_, err := c.send(ctx, d, protocol.PauseCommand())
	return err
}

func (c *Client) SendStop(ctx context.Context, d *device.Device) error {
	_, err := c.send(ctx, d, protocol.StopCommand())
	return err
}

func (c *Client) SendSleep(ctx context.Context, d *device.Device) error {
	_, err := c.send(ctx, d, protocol.SleepCommand())
	return err
}

func (c *Client) SendReboot(ctx context.Context, d *device.Device) error {
	_, err := c.send(ctx, d, protocol.RebootCommand())
	return err
}
