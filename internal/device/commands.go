package device

import (
	"context"
	"fmt"

	"github.com/oasis-home/oasis-control/internal/protocol"
)

// Validation limits enforced before any command reaches a transport.
const (
	// BallSpeedMin is the slowest ball speed the firmware accepts.
	BallSpeedMin = 100

	// BallSpeedMax is the fastest ball speed the firmware accepts.
	BallSpeedMax = 400

	// LEDSpeedMin is the lowest LED animation speed (negative reverses).
	LEDSpeedMin = -90

	// LEDSpeedMax is the highest LED animation speed.
	LEDSpeedMax = 90
)

// LEDOptions selects which LED settings to change. Nil fields keep the
// device's current value, so a caller can adjust brightness without
// knowing the active effect.
type LEDOptions struct {
	Effect     *string
	Color      *string
	Speed      *int
	Brightness *int
}

// transportOrErr returns the attached transport or ErrNoTransport.
func (d *Device) transportOrErr() (Transport, error) {
	d.mu.RLock()
	t := d.transport
	d.mu.RUnlock()
	if t == nil {
		return nil, ErrNoTransport
	}
	return t, nil
}

// SetBallSpeed sets the ball movement speed.
//
// Parameters:
//   - ctx: Context for the send
//   - speed: Target speed, must be within [BallSpeedMin, BallSpeedMax]
//
// Returns:
//   - error: ErrValidation if out of range, ErrNoTransport if unattached,
//     otherwise the transport's send error
func (d *Device) SetBallSpeed(ctx context.Context, speed int) error {
	if speed < BallSpeedMin || speed > BallSpeedMax {
		return fmt.Errorf("%w: ball speed %d outside [%d, %d]", ErrValidation, speed, BallSpeedMin, BallSpeedMax)
	}
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendBallSpeed(ctx, d, speed)
}

// SetLED changes the LED ring settings. Unset options fall back to the
// device's current values; the raw brightness is used as the default so a
// sleeping device resumes at its prior level.
func (d *Device) SetLED(ctx context.Context, opts LEDOptions) error {
	d.mu.RLock()
	effect := d.ledEffect
	color := d.color
	speed := d.ledSpeed
	brightness := d.brightness
	max := d.brightnessMax
	d.mu.RUnlock()

	if opts.Effect != nil {
		effect = *opts.Effect
	}
	if opts.Color != nil {
		color = *opts.Color
	}
	if opts.Speed != nil {
		speed = *opts.Speed
	}
	if opts.Brightness != nil {
		brightness = *opts.Brightness
	}

	if _, ok := protocol.LEDEffects[effect]; !ok {
		return fmt.Errorf("%w: unknown LED effect %q", ErrValidation, effect)
	}
	if speed < LEDSpeedMin || speed > LEDSpeedMax {
		return fmt.Errorf("%w: LED speed %d outside [%d, %d]", ErrValidation, speed, LEDSpeedMin, LEDSpeedMax)
	}
	if brightness < 0 {
		return fmt.Errorf("%w: brightness %d negative", ErrValidation, brightness)
	}
	// The ceiling is firmware-reported; 0 means not yet known.
	if max > 0 && brightness > max {
		return fmt.Errorf("%w: brightness %d above maximum %d", ErrValidation, brightness, max)
	}

	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendLED(ctx, d, effect, color, speed, brightness)
}

// SetRepeatPlaylist enables or disables playlist repeat.
func (d *Device) SetRepeatPlaylist(ctx context.Context, repeat bool) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendRepeatPlaylist(ctx, d, repeat)
}

// SetAutoplay sets the wait-after-track option. The option must be one of
// the enumerated codes in protocol.AutoplayOptions.
func (d *Device) SetAutoplay(ctx context.Context, option string) error {
	if _, ok := protocol.AutoplayOptions[option]; !ok {
		return fmt.Errorf("%w: unknown autoplay option %q", ErrValidation, option)
	}
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendAutoplay(ctx, d, option)
}

// SetAutoClean enables or disables the automatic cleaning pass between
// tracks.
func (d *Device) SetAutoClean(ctx context.Context, on bool) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendAutoClean(ctx, d, on)
}

// MoveTrack moves a playlist entry from one position to another. Both
// positions must be within the current playlist.
func (d *Device) MoveTrack(ctx context.Context, from, to int) error {
	length := len(d.Playlist())
	if from < 0 || from >= length || to < 0 || to >= length {
		return fmt.Errorf("%w: move %d -> %d outside playlist of %d", ErrValidation, from, to, length)
	}
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendMoveJob(ctx, d, from, to)
}

// ChangeTrack jumps playback to the playlist entry at index.
func (d *Device) ChangeTrack(ctx context.Context, index int) error {
	if length := len(d.Playlist()); index < 0 || index >= length {
		return fmt.Errorf("%w: track index %d outside playlist of %d", ErrValidation, index, length)
	}
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendChangeTrack(ctx, d, index)
}

// AddTrackToPlaylist appends tracks to the end of the playlist.
func (d *Device) AddTrackToPlaylist(ctx context.Context, tracks []int) error {
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no tracks to add", ErrValidation)
	}
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendAddToPlaylist(ctx, d, tracks)
}

// SetPlaylist replaces the playlist. The firmware requires playback to be
// stopped before the list is replaced, so this always stops first.
// A nil startPlaying restores the prior playing state; an explicit value
// overrides it either way. Playback never restarts onto an empty list.
// The local playlist is updated optimistically so the UI does not wait
// for the next status round-trip.
func (d *Device) SetPlaylist(ctx context.Context, tracks []int, startPlaying *bool) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}

	wasPlaying := d.Status() == protocol.StatusPlaying

	if err := t.SendStop(ctx, d); err != nil {
		return err
	}
	if err := t.SendSetPlaylist(ctx, d, tracks); err != nil {
		return err
	}

	d.Apply(protocol.FieldMap{
		protocol.FieldPlaylist:      tracks,
		protocol.FieldPlaylistIndex: 0,
	})

	// An explicit choice always wins; the prior playing state is only the
	// default when the caller leaves it up to the device.
	resume := wasPlaying
	if startPlaying != nil {
		resume = *startPlaying
	}
	if resume && len(tracks) > 0 {
		return t.SendPlay(ctx, d)
	}
	return nil
}

// ClearPlaylist removes every entry from the playlist.
func (d *Device) ClearPlaylist(ctx context.Context) error {
	return d.SetPlaylist(ctx, []int{}, nil)
}

// Play resumes playback, waking the device if asleep.
func (d *Device) Play(ctx context.Context) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendPlay(ctx, d)
}

// Pause pauses playback in place.
func (d *Device) Pause(ctx context.Context) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendPause(ctx, d)
}

// Stop stops playback and returns the ball to the rim.
func (d *Device) Stop(ctx context.Context) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendStop(ctx, d)
}

// Sleep puts the device into sleep mode.
func (d *Device) Sleep(ctx context.Context) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendSleep(ctx, d)
}

// Reboot restarts the device firmware.
func (d *Device) Reboot(ctx context.Context) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendReboot(ctx, d)
}

// Upgrade starts a firmware upgrade, optionally from the beta channel.
func (d *Device) Upgrade(ctx context.Context, beta bool) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.SendUpgrade(ctx, d, beta)
}

// RequestStatus asks the transport to refresh the device's state.
func (d *Device) RequestStatus(ctx context.Context) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.GetStatus(ctx, d)
}

// RequestAll asks the transport for the compact full snapshot.
func (d *Device) RequestAll(ctx context.Context) error {
	t, err := d.transportOrErr()
	if err != nil {
		return err
	}
	return t.GetAll(ctx, d)
}

// FetchMACAddress returns the device MAC, asking the transport to resolve
// it if unknown.
func (d *Device) FetchMACAddress(ctx context.Context) (string, error) {
	t, err := d.transportOrErr()
	if err != nil {
		return "", err
	}
	return t.GetMACAddress(ctx, d)
}
