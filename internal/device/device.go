package device

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/oasis-home/oasis-control/internal/catalog"
	"github.com/oasis-home/oasis-control/internal/protocol"
)

// Device is the in-memory state model for one Oasis table.
//
// Fields are only written through Apply (wire updates) or the optimistic
// paths of a few command methods; everything else reads through getters.
// The brightness field keeps the raw wire value even while the device
// sleeps so playback can resume at the prior level, but the Brightness
// getter reports 0 during sleep to match what the user sees.
//
// All public methods are thread-safe.
type Device struct {
	mu sync.RWMutex

	serial string
	name   string
	model  string

	transport Transport
	fetcher   TrackFetcher
	logger    Logger

	statusCode       protocol.StatusCode
	errorCode        int
	ballSpeed        int
	playlist         []int
	playlistIndex    int
	progress         int
	ledEffect        string
	ledColorID       string
	ledSpeed         int
	brightness       int // raw wire value, preserved during sleep
	brightnessOn     int // last nonzero brightness
	color            string
	busy             bool
	downloadProgress int
	brightnessMax    int
	wifiConnected    bool
	repeatPlaylist   bool
	autoplay         int
	autoClean        bool
	softwareVersion  string
	macAddress       string
	wifiSSID         string
	wifiIP           string
	wifiPDNS         string
	wifiSDNS         string
	wifiGateway      string
	wifiSubnet       string
	schedule         string
	environment      string

	listeners    map[int]func()
	nextListener int

	tracks        map[int]catalog.Track // fetched metadata by track id
	refreshCancel context.CancelFunc    // cancels the in-flight metadata refresh
}

// New creates a device state model for the given serial number.
// Name and model are display metadata from the cloud device listing and
// may be empty for locally discovered devices.
func New(serial, name, model string) *Device {
	return &Device{
		serial:    serial,
		name:      name,
		model:     model,
		logger:    noopLogger{},
		listeners: make(map[int]func()),
		tracks:    make(map[int]catalog.Track),
	}
}

// SetLogger sets the logger for the device.
func (d *Device) SetLogger(logger Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// SetTrackFetcher sets the resolver used to look up track metadata when
// the playlist changes. A nil fetcher disables metadata refresh.
func (d *Device) SetTrackFetcher(fetcher TrackFetcher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetcher = fetcher
}

// AttachTransport attaches a transport to the device. A device holds at
// most one transport; attaching replaces any previous one. The device does
// not own the transport's connection lifecycle.
func (d *Device) AttachTransport(t Transport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transport = t
}

// HasTransport reports whether a transport is attached.
func (d *Device) HasTransport() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.transport != nil
}

// ===== Update path =====

// Apply assigns a batch of parsed wire fields to the device and reports
// whether anything changed.
//
// Unknown keys are logged and ignored, never an error. If the playlist or
// playlist index changed, a cancelable background refresh of track
// metadata is started (canceling any refresh already in flight). If any
// field changed, every registered listener is invoked synchronously; a
// panicking listener is logged and does not block the others.
func (d *Device) Apply(updates protocol.FieldMap) bool {
	d.mu.Lock()

	changed := false
	playlistChanged := false

	for key, value := range updates {
		switch key {
		case protocol.FieldStatusCode:
			assign(&d.statusCode, value, &changed)
		case protocol.FieldError:
			assign(&d.errorCode, value, &changed)
		case protocol.FieldBallSpeed:
			assign(&d.ballSpeed, value, &changed)
		case protocol.FieldPlaylist:
			if v, ok := value.([]int); ok && !slices.Equal(d.playlist, v) {
				d.playlist = slices.Clone(v)
				changed = true
				playlistChanged = true
			}
		case protocol.FieldPlaylistIndex:
			before := d.playlistIndex
			assign(&d.playlistIndex, value, &changed)
			if d.playlistIndex != before {
				playlistChanged = true
			}
		case protocol.FieldProgress:
			assign(&d.progress, value, &changed)
		case protocol.FieldLEDEffect:
			assign(&d.ledEffect, value, &changed)
		case protocol.FieldLEDColorID:
			assign(&d.ledColorID, value, &changed)
		case protocol.FieldLEDSpeed:
			assign(&d.ledSpeed, value, &changed)
		case protocol.FieldBrightness:
			assign(&d.brightness, value, &changed)
			if d.brightness > 0 {
				d.brightnessOn = d.brightness
			}
		case protocol.FieldColor:
			assign(&d.color, value, &changed)
		case protocol.FieldBusy:
			assign(&d.busy, value, &changed)
		case protocol.FieldDownloadProgress:
			assign(&d.downloadProgress, value, &changed)
		case protocol.FieldBrightnessMax:
			assign(&d.brightnessMax, value, &changed)
		case protocol.FieldWifiConnected:
			assign(&d.wifiConnected, value, &changed)
		case protocol.FieldRepeatPlaylist:
			assign(&d.repeatPlaylist, value, &changed)
		case protocol.FieldAutoplay:
			assign(&d.autoplay, value, &changed)
		case protocol.FieldAutoClean:
			assign(&d.autoClean, value, &changed)
		case protocol.FieldSoftwareVersion:
			assign(&d.softwareVersion, value, &changed)
		case protocol.FieldMACAddress:
			assign(&d.macAddress, value, &changed)
		case protocol.FieldWifiSSID:
			assign(&d.wifiSSID, value, &changed)
		case protocol.FieldWifiIP:
			assign(&d.wifiIP, value, &changed)
		case protocol.FieldWifiPDNS:
			assign(&d.wifiPDNS, value, &changed)
		case protocol.FieldWifiSDNS:
			assign(&d.wifiSDNS, value, &changed)
		case protocol.FieldWifiGateway:
			assign(&d.wifiGateway, value, &changed)
		case protocol.FieldWifiSubnet:
			assign(&d.wifiSubnet, value, &changed)
		case protocol.FieldSchedule:
			assign(&d.schedule, value, &changed)
		case protocol.FieldEnvironment:
			assign(&d.environment, value, &changed)
		default:
			d.logger.Debug("ignoring unknown field", "device", d.serial, "field", key)
		}
	}

	// Per-topic updates arrive unclamped; the index must stay inside
	// [0, len(playlist)] whatever order the fields landed in.
	if d.playlistIndex < 0 {
		d.playlistIndex = 0
	}
	if d.playlistIndex > len(d.playlist) {
		d.playlistIndex = len(d.playlist)
	}

	if playlistChanged {
		d.scheduleTrackRefreshLocked()
	}

	listeners := d.snapshotListenersLocked()
	d.mu.Unlock()

	if changed {
		d.notify(listeners)
	}
	return changed
}

// assign sets *dst to value when the dynamic type matches and the value
// differs. A type mismatch is silently skipped; the codec controls the
// types and a mismatch means a field was rewired, not a runtime condition.
func assign[T comparable](dst *T, value any, changed *bool) {
	v, ok := value.(T)
	if !ok {
		return
	}
	if *dst != v {
		*dst = v
		*changed = true
	}
}

// ApplyStatusString parses a full-status snapshot and applies it.
// Used by the HTTP transport and the MQTT FULLSTATUS topic.
func (d *Device) ApplyStatusString(raw string) (bool, error) {
	fields, err := protocol.ParseStatus(raw)
	if err != nil {
		return false, err
	}
	return d.Apply(fields), nil
}

// AddUpdateListener registers fn to be called after every applied change.
// The returned function removes the listener.
func (d *Device) AddUpdateListener(fn func()) func() {
	d.mu.Lock()
	id := d.nextListener
	d.nextListener++
	d.listeners[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

func (d *Device) snapshotListenersLocked() []func() {
	listeners := make([]func(), 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

// notify invokes listeners outside the lock so they can read device state.
func (d *Device) notify(listeners []func()) {
	for _, fn := range listeners {
		d.safeInvoke(fn)
	}
}

func (d *Device) safeInvoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.mu.RLock()
			logger := d.logger
			d.mu.RUnlock()
			logger.Error("update listener panicked", "device", d.serial, "panic", r)
		}
	}()
	fn()
}

// ===== Track metadata refresh =====

// scheduleTrackRefreshLocked starts a background fetch for playlist
// entries without cached metadata. Caller holds the write lock.
func (d *Device) scheduleTrackRefreshLocked() {
	if d.refreshCancel != nil {
		d.refreshCancel()
		d.refreshCancel = nil
	}
	if d.fetcher == nil {
		return
	}

	var missing []int
	for _, id := range d.playlist {
		if _, ok := d.tracks[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.refreshCancel = cancel
	go d.refreshTracks(ctx, d.fetcher, missing)
}

// refreshTracks resolves metadata for the given track ids. Best-effort: a
// failed lookup is logged and skipped. Listeners are notified once at the
// end if anything was fetched so display names become visible.
func (d *Device) refreshTracks(ctx context.Context, fetcher TrackFetcher, ids []int) {
	fetched := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		track, err := fetcher.TrackInfo(ctx, id)
		if err != nil {
			d.mu.RLock()
			logger := d.logger
			d.mu.RUnlock()
			logger.Warn("track metadata fetch failed", "device", d.serial, "track_id", id, "error", err)
			continue
		}
		d.mu.Lock()
		d.tracks[id] = track
		d.mu.Unlock()
		fetched++
	}

	if fetched > 0 {
		d.mu.RLock()
		listeners := d.snapshotListenersLocked()
		d.mu.RUnlock()
		d.notify(listeners)
	}
}

// ===== Getters =====

// Serial returns the device serial number.
func (d *Device) Serial() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.serial
}

// Name returns the display name from the cloud listing.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// Model returns the hardware model from the cloud listing.
func (d *Device) Model() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.model
}

// Status returns the last reported playback status code.
func (d *Device) Status() protocol.StatusCode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.statusCode
}

// ErrorCode returns the last reported firmware error code.
func (d *Device) ErrorCode() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.errorCode
}

// ErrorMessage returns the human-readable text for the current error code,
// or "" while the device is not in the error state.
func (d *Device) ErrorMessage() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.statusCode != protocol.StatusError {
		return ""
	}
	if msg, ok := protocol.ErrorMessages[d.errorCode]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown (%d)", d.errorCode)
}

// BallSpeed returns the current ball speed.
func (d *Device) BallSpeed() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ballSpeed
}

// Playlist returns a copy of the current playlist of track ids.
func (d *Device) Playlist() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.playlist)
}

// PlaylistIndex returns the current playlist position.
func (d *Device) PlaylistIndex() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.playlistIndex
}

// Progress returns the drawing progress of the current track in percent.
func (d *Device) Progress() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.progress
}

// LEDEffect returns the active LED effect code.
func (d *Device) LEDEffect() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ledEffect
}

// LEDEffectName returns the display name of the active LED effect.
func (d *Device) LEDEffectName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := protocol.LEDEffects[d.ledEffect]; ok {
		return name
	}
	return d.ledEffect
}

// LEDColorID returns the selected LED color preset id.
func (d *Device) LEDColorID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ledColorID
}

// LEDSpeed returns the LED animation speed.
func (d *Device) LEDSpeed() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ledSpeed
}

// Brightness returns the observed LED brightness: 0 while the device
// sleeps, the raw reported value otherwise.
func (d *Device) Brightness() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.statusCode == protocol.StatusSleeping {
		return 0
	}
	return d.brightness
}

// BrightnessOn returns the last nonzero brightness, used to restore the
// prior level when waking.
func (d *Device) BrightnessOn() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.brightnessOn
}

// BrightnessMax returns the firmware-reported brightness ceiling, or 0 if
// not yet known.
func (d *Device) BrightnessMax() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.brightnessMax
}

// Color returns the LED color as a "#rrggbb" string, or "" when the
// device reports no color.
func (d *Device) Color() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.color
}

// Busy reports whether the firmware is busy with an internal operation.
func (d *Device) Busy() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.busy
}

// DownloadProgress returns the firmware download progress in percent.
func (d *Device) DownloadProgress() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.downloadProgress
}

// WifiConnected reports whether the device considers its Wi-Fi link up.
func (d *Device) WifiConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.wifiConnected
}

// RepeatPlaylist reports whether playlist repeat is enabled.
func (d *Device) RepeatPlaylist() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.repeatPlaylist
}

// Autoplay returns the wait-after-track option code.
func (d *Device) Autoplay() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.autoplay
}

// AutoClean reports whether auto-clean is enabled.
func (d *Device) AutoClean() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.autoClean
}

// SoftwareVersion returns the reported firmware version, or "" if the
// device has not reported one yet.
func (d *Device) SoftwareVersion() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.softwareVersion
}

// MACAddress returns the reported MAC address, or "" if unknown.
func (d *Device) MACAddress() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.macAddress
}

// WifiDetails returns SSID, IP, gateway and subnet of the device's
// network link.
func (d *Device) WifiDetails() (ssid, ip, gateway, subnet string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.wifiSSID, d.wifiIP, d.wifiGateway, d.wifiSubnet
}

// Schedule returns the raw schedule string reported by the device.
func (d *Device) Schedule() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.schedule
}

// Environment returns the firmware environment label ("prod", "beta").
func (d *Device) Environment() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.environment
}

// ===== Derived properties =====

// IsSleeping reports whether the device is in sleep mode.
func (d *Device) IsSleeping() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.statusCode == protocol.StatusSleeping
}

// IsInitialized reports whether the device has reported its full identity:
// serial number, MAC address and software version.
func (d *Device) IsInitialized() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.serial != "" && d.macAddress != "" && d.softwareVersion != ""
}

// TrackID returns the id of the track the device is drawing. When the
// reported index points past the playlist the first entry is assumed; an
// empty playlist has no current track and ok is false.
func (d *Device) TrackID() (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.playlist) == 0 {
		return 0, false
	}
	if d.playlistIndex >= len(d.playlist) {
		return d.playlist[0], true
	}
	return d.playlist[d.playlistIndex], true
}

// TrackName returns the display name for a track id, falling back to a
// placeholder when no metadata has been fetched.
func (d *Device) TrackName(id int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if track, ok := d.tracks[id]; ok {
		return track.Name
	}
	return catalog.Placeholder(id).Name
}

// PlaylistDetails returns catalog metadata for every playlist entry, with
// placeholders for tracks whose metadata is not yet known.
func (d *Device) PlaylistDetails() []catalog.Track {
	d.mu.RLock()
	defer d.mu.RUnlock()
	details := make([]catalog.Track, 0, len(d.playlist))
	for _, id := range d.playlist {
		if track, ok := d.tracks[id]; ok {
			details = append(details, track)
		} else {
			details = append(details, catalog.Placeholder(id))
		}
	}
	return details
}
