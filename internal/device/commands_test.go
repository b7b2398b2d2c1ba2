package device

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/oasis-home/oasis-control/internal/protocol"
)

// fakeTransport records every send in order.
type fakeTransport struct {
	mu    sync.Mutex
	sends []string
	fail  error
}

func (f *fakeTransport) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, name)
	return f.fail
}

func (f *fakeTransport) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sends))
	copy(out, f.sends)
	return out
}

func (f *fakeTransport) GetStatus(context.Context, *Device) error { return f.record("GetStatus") }
func (f *fakeTransport) GetMACAddress(context.Context, *Device) (string, error) {
	return "aa:bb:cc:dd:ee:ff", f.record("GetMACAddress")
}
func (f *fakeTransport) GetAll(context.Context, *Device) error { return f.record("GetAll") }
func (f *fakeTransport) SendBallSpeed(_ context.Context, _ *Device, _ int) error {
	return f.record("SendBallSpeed")
}
func (f *fakeTransport) SendLED(_ context.Context, _ *Device, _, _ string, _, _ int) error {
	return f.record("SendLED")
}
func (f *fakeTransport) SendMoveJob(_ context.Context, _ *Device, _, _ int) error {
	return f.record("SendMoveJob")
}
func (f *fakeTransport) SendChangeTrack(_ context.Context, _ *Device, _ int) error {
	return f.record("SendChangeTrack")
}
func (f *fakeTransport) SendAddToPlaylist(_ context.Context, _ *Device, _ []int) error {
	return f.record("SendAddToPlaylist")
}
func (f *fakeTransport) SendSetPlaylist(_ context.Context, _ *Device, _ []int) error {
	return f.record("SendSetPlaylist")
}
func (f *fakeTransport) SendRepeatPlaylist(_ context.Context, _ *Device, _ bool) error {
	return f.record("SendRepeatPlaylist")
}
func (f *fakeTransport) SendAutoplay(_ context.Context, _ *Device, _ string) error {
	return f.record("SendAutoplay")
}
func (f *fakeTransport) SendAutoClean(_ context.Context, _ *Device, _ bool) error {
	return f.record("SendAutoClean")
}
func (f *fakeTransport) SendUpgrade(_ context.Context, _ *Device, _ bool) error {
	return f.record("SendUpgrade")
}
func (f *fakeTransport) SendPlay(context.Context, *Device) error   { return f.record("SendPlay") }
func (f *fakeTransport) SendPause(context.Context, *Device) error  { return f.record("SendPause") }
func (f *fakeTransport) SendStop(context.Context, *Device) error   { return f.record("SendStop") }
func (f *fakeTransport) SendSleep(context.Context, *Device) error  { return f.record("SendSleep") }
func (f *fakeTransport) SendReboot(context.Context, *Device) error { return f.record("SendReboot") }

func attachedDevice(t *testing.T) (*Device, *fakeTransport) {
	t.Helper()
	d := New("OAS123", "", "")
	tr := &fakeTransport{}
	d.AttachTransport(tr)
	return d, tr
}

// ===== Validation Tests =====

func TestCommandsRequireTransport(t *testing.T) {
	d := New("OAS123", "", "")
	ctx := context.Background()

	if err := d.Play(ctx); !errors.Is(err, ErrNoTransport) {
		t.Errorf("Play() error = %v, want ErrNoTransport", err)
	}
	if err := d.SetBallSpeed(ctx, 200); !errors.Is(err, ErrNoTransport) {
		t.Errorf("SetBallSpeed() error = %v, want ErrNoTransport", err)
	}
	if _, err := d.FetchMACAddress(ctx); !errors.Is(err, ErrNoTransport) {
		t.Errorf("FetchMACAddress() error = %v, want ErrNoTransport", err)
	}
}

func TestSetBallSpeedValidation(t *testing.T) {
	d, tr := attachedDevice(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		speed   int
		wantErr bool
	}{
		{"minimum", 100, false},
		{"maximum", 400, false},
		{"below minimum", 99, true},
		{"above maximum", 401, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.SetBallSpeed(ctx, tt.speed)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("SetBallSpeed(%d) error = %v, want ErrValidation", tt.speed, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("SetBallSpeed(%d) error = %v", tt.speed, err)
			}
		})
	}

	// Two valid calls reached the transport, no invalid ones did.
	if got := len(tr.sent()); got != 2 {
		t.Errorf("transport sends = %d, want 2", got)
	}
}

func TestSetLEDValidation(t *testing.T) {
	d, tr := attachedDevice(t)
	ctx := context.Background()

	d.Apply(protocol.FieldMap{
		protocol.FieldLEDEffect:     "1",
		protocol.FieldBrightnessMax: 200,
	})

	strPtr := func(s string) *string { return &s }
	intPtr := func(n int) *int { return &n }

	tests := []struct {
		name    string
		opts    LEDOptions
		wantErr bool
	}{
		{"defaults from current state", LEDOptions{}, false},
		{"valid full set", LEDOptions{Effect: strPtr("5"), Speed: intPtr(50), Brightness: intPtr(150)}, false},
		{"unknown effect", LEDOptions{Effect: strPtr("999")}, true},
		{"speed too low", LEDOptions{Speed: intPtr(-91)}, true},
		{"speed too high", LEDOptions{Speed: intPtr(91)}, true},
		{"brightness above max", LEDOptions{Brightness: intPtr(201)}, true},
		{"negative brightness", LEDOptions{Brightness: intPtr(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.SetLED(ctx, tt.opts)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("SetLED() error = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("SetLED() error = %v", err)
			}
		})
	}

	if got := len(tr.sent()); got != 2 {
		t.Errorf("transport sends = %d, want 2", got)
	}
}

func TestSetAutoplayValidation(t *testing.T) {
	d, _ := attachedDevice(t)
	ctx := context.Background()

	if err := d.SetAutoplay(ctx, "2"); err != nil {
		t.Errorf("SetAutoplay(2) error = %v", err)
	}
	if err := d.SetAutoplay(ctx, "9"); !errors.Is(err, ErrValidation) {
		t.Errorf("SetAutoplay(9) error = %v, want ErrValidation", err)
	}
}

func TestPlaylistIndexValidation(t *testing.T) {
	d, _ := attachedDevice(t)
	ctx := context.Background()

	d.Apply(protocol.FieldMap{protocol.FieldPlaylist: []int{10, 20, 30}})

	if err := d.ChangeTrack(ctx, 2); err != nil {
		t.Errorf("ChangeTrack(2) error = %v", err)
	}
	if err := d.ChangeTrack(ctx, 3); !errors.Is(err, ErrValidation) {
		t.Errorf("ChangeTrack(3) error = %v, want ErrValidation", err)
	}
	if err := d.MoveTrack(ctx, 0, 2); err != nil {
		t.Errorf("MoveTrack(0,2) error = %v", err)
	}
	if err := d.MoveTrack(ctx, 0, 5); !errors.Is(err, ErrValidation) {
		t.Errorf("MoveTrack(0,5) error = %v, want ErrValidation", err)
	}
}

// ===== SetPlaylist Tests =====

func TestSetPlaylistStopsBeforeReplacing(t *testing.T) {
	d, tr := attachedDevice(t)
	ctx := context.Background()

	d.Apply(protocol.FieldMap{protocol.FieldStatusCode: protocol.StatusPlaying})

	if err := d.SetPlaylist(ctx, []int{1, 2, 3}, nil); err != nil {
		t.Fatalf("SetPlaylist() error = %v", err)
	}

	want := []string{"SendStop", "SendSetPlaylist", "SendPlay"}
	got := tr.sent()
	if len(got) != len(want) {
		t.Fatalf("sends = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sends = %v, want %v", got, want)
		}
	}

	// Optimistic local update.
	if playlist := d.Playlist(); len(playlist) != 3 || playlist[0] != 1 {
		t.Errorf("Playlist() = %v, want [1 2 3]", playlist)
	}
	if d.PlaylistIndex() != 0 {
		t.Errorf("PlaylistIndex() = %d, want 0", d.PlaylistIndex())
	}
}

func TestSetPlaylistNoResumeWhenStopped(t *testing.T) {
	d, tr := attachedDevice(t)
	ctx := context.Background()

	d.Apply(protocol.FieldMap{protocol.FieldStatusCode: protocol.StatusStopped})

	if err := d.SetPlaylist(ctx, []int{1, 2}, nil); err != nil {
		t.Fatalf("SetPlaylist() error = %v", err)
	}

	for _, send := range tr.sent() {
		if send == "SendPlay" {
			t.Error("SetPlaylist() sent play on a stopped device without request")
		}
	}
}

func TestSetPlaylistExplicitStart(t *testing.T) {
	d, tr := attachedDevice(t)
	ctx := context.Background()

	start := true
	if err := d.SetPlaylist(ctx, []int{1}, &start); err != nil {
		t.Fatalf("SetPlaylist() error = %v", err)
	}

	got := tr.sent()
	if got[len(got)-1] != "SendPlay" {
		t.Errorf("sends = %v, want final SendPlay", got)
	}
}

func TestSetPlaylistExplicitFalseSuppressesResume(t *testing.T) {
	d, tr := attachedDevice(t)
	ctx := context.Background()

	d.Apply(protocol.FieldMap{protocol.FieldStatusCode: protocol.StatusPlaying})

	start := false
	if err := d.SetPlaylist(ctx, []int{1, 2}, &start); err != nil {
		t.Fatalf("SetPlaylist() error = %v", err)
	}

	for _, send := range tr.sent() {
		if send == "SendPlay" {
			t.Error("explicit startPlaying=false must suppress the restart")
		}
	}
}

func TestSetPlaylistEmptyNeverPlays(t *testing.T) {
	d, tr := attachedDevice(t)
	ctx := context.Background()

	d.Apply(protocol.FieldMap{protocol.FieldStatusCode: protocol.StatusPlaying})

	if err := d.ClearPlaylist(ctx); err != nil {
		t.Fatalf("ClearPlaylist() error = %v", err)
	}

	for _, send := range tr.sent() {
		if send == "SendPlay" {
			t.Error("empty playlist must not restart playback")
		}
	}
	if got := d.Playlist(); len(got) != 0 {
		t.Errorf("Playlist() = %v, want empty", got)
	}
}

func TestSetPlaylistPropagatesSendError(t *testing.T) {
	d, tr := attachedDevice(t)
	tr.fail = errors.New("network down")

	err := d.SetPlaylist(context.Background(), []int{1}, nil)
	if err == nil {
		t.Fatal("SetPlaylist() error = nil, want transport error")
	}
}

// ===== Delegation Tests =====

func TestSimpleCommandsDelegate(t *testing.T) {
	d, tr := attachedDevice(t)
	ctx := context.Background()

	calls := []struct {
		name string
		fn   func() error
	}{
		{"SendPlay", func() error { return d.Play(ctx) }},
		{"SendPause", func() error { return d.Pause(ctx) }},
		{"SendStop", func() error { return d.Stop(ctx) }},
		{"SendSleep", func() error { return d.Sleep(ctx) }},
		{"SendReboot", func() error { return d.Reboot(ctx) }},
		{"SendUpgrade", func() error { return d.Upgrade(ctx, false) }},
		{"SendRepeatPlaylist", func() error { return d.SetRepeatPlaylist(ctx, true) }},
		{"SendAutoClean", func() error { return d.SetAutoClean(ctx, true) }},
		{"GetStatus", func() error { return d.RequestStatus(ctx) }},
		{"GetAll", func() error { return d.RequestAll(ctx) }},
	}

	for _, c := range calls {
		if err := c.fn(); err != nil {
			t.Fatalf("%s error = %v", c.name, err)
		}
	}

	got := tr.sent()
	if len(got) != len(calls) {
		t.Fatalf("sends = %v, want %d entries", got, len(calls))
	}
	for i, c := range calls {
		if got[i] != c.name {
			t.Errorf("send[%d] = %s, want %s", i, got[i], c.name)
		}
	}
}

func TestFetchMACAddress(t *testing.T) {
	d, _ := attachedDevice(t)

	mac, err := d.FetchMACAddress(context.Background())
	if err != nil {
		t.Fatalf("FetchMACAddress() error = %v", err)
	}
	if mac != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("FetchMACAddress() = %q", mac)
	}
}
