package device

import (
	"context"

	"github.com/oasis-home/oasis-control/internal/catalog"
)

// Logger defines the logging interface used by the device package.
// This allows different logging implementations to be used.
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

// Transport is the contract every device transport implements: status
// retrieval, MAC retrieval, and one send method per command type.
//
// Every method takes the target device because one transport instance may
// serve many devices (the MQTT client) or exactly one (the local HTTP
// client). Implementations serialize their own I/O internally; callers may
// issue commands from any goroutine and must not assume ordering between
// commands issued by different callers.
type Transport interface {
	// GetStatus asks the device to report its current state. Over MQTT
	// the reply arrives asynchronously on the status topics; over HTTP
	// the snapshot is applied before the call returns.
	GetStatus(ctx context.Context, d *Device) error

	// GetMACAddress returns the device's MAC address, requesting it from
	// the device if not already known. An empty string with a nil error
	// means the device did not answer in time.
	GetMACAddress(ctx context.Context, d *Device) (string, error)

	// GetAll asks the device for a compact snapshot of every field,
	// including the schedule. Also serves as the wake request.
	GetAll(ctx context.Context, d *Device) error

	SendBallSpeed(ctx context.Context, d *Device, speed int) error
	SendLED(ctx context.Context, d *Device, effect, color string, speed, brightness int) error
	SendMoveJob(ctx context.Context, d *Device, from, to int) error
	SendChangeTrack(ctx context.Context, d *Device, index int) error
	SendAddToPlaylist(ctx context.Context, d *Device, tracks []int) error
	SendSetPlaylist(ctx context.Context, d *Device, playlist []int) error
	SendRepeatPlaylist(ctx context.Context, d *Device, repeat bool) error
	SendAutoplay(ctx context.Context, d *Device, option string) error
	SendAutoClean(ctx context.Context, d *Device, on bool) error
	SendUpgrade(ctx context.Context, d *Device, beta bool) error
	SendPlay(ctx context.Context, d *Device) error
	SendPause(ctx context.Context, d *Device) error
	SendStop(ctx context.Context, d *Device) error
	SendSleep(ctx context.Context, d *Device) error
	SendReboot(ctx context.Context, d *Device) error
}

// TrackFetcher resolves track ids to catalog metadata. The cloud client
// implements this; a Device uses it to name the entries of its playlist.
// Implementations return a placeholder record for unknown ids rather than
// an error, since missing tracks are expected.
type TrackFetcher interface {
	TrackInfo(ctx context.Context, id int) (catalog.Track, error)
}
