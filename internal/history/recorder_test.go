package history

import (
	"errors"
	"testing"

	"github.com/oasis-home/oasis-control/internal/device"
	"github.com/oasis-home/oasis-control/internal/infrastructure/config"
	"github.com/oasis-home/oasis-control/internal/protocol"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestSnapshotFields(t *testing.T) {
	d := device.New("OAS123", "", "")
	d.Apply(protocol.FieldMap{
		protocol.FieldStatusCode:    protocol.StatusPlaying,
		protocol.FieldBallSpeed:     250,
		protocol.FieldPlaylist:      []int{10, 20},
		protocol.FieldPlaylistIndex: 1,
		protocol.FieldProgress:      75,
		protocol.FieldBrightness:    120,
		protocol.FieldBusy:          true,
	})

	fields := snapshotFields(d)

	if fields["status_code"] != int(protocol.StatusPlaying) {
		t.Errorf("status_code = %v", fields["status_code"])
	}
	if fields["ball_speed"] != 250 {
		t.Errorf("ball_speed = %v", fields["ball_speed"])
	}
	if fields["track_id"] != 20 {
		t.Errorf("track_id = %v, want 20", fields["track_id"])
	}
	if fields["playlist_len"] != 2 {
		t.Errorf("playlist_len = %v, want 2", fields["playlist_len"])
	}
	if fields["busy"] != true {
		t.Errorf("busy = %v, want true", fields["busy"])
	}
}

func TestSnapshotFieldsEmptyPlaylistOmitsTrack(t *testing.T) {
	d := device.New("OAS123", "", "")

	fields := snapshotFields(d)
	if _, ok := fields["track_id"]; ok {
		t.Error("track_id present with empty playlist")
	}
}

func TestRecorderDisconnectedWriteIsNoop(t *testing.T) {
	r := &Recorder{}
	d := device.New("OAS123", "", "")

	// Must not panic without a client.
	r.RecordSnapshot(d)
	r.Flush()
	r.Close()
}
