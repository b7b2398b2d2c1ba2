package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseTopicValue(t *testing.T) {
	tests := []struct {
		name    string
		suffix  string
		payload string
		want    FieldMap
	}{
		{
			name:    "status code",
			suffix:  TopicStatus,
			payload: "6",
			want:    FieldMap{FieldStatusCode: StatusSleeping},
		},
		{
			name:    "ball speed",
			suffix:  TopicBallSpeed,
			payload: "250",
			want:    FieldMap{FieldBallSpeed: 250},
		},
		{
			name:    "job list",
			suffix:  TopicJobList,
			payload: "5,6,7",
			want:    FieldMap{FieldPlaylist: []int{5, 6, 7}},
		},
		{
			name:    "current job",
			suffix:  TopicCurrentJob,
			payload: "2",
			want:    FieldMap{FieldPlaylistIndex: 2},
		},
		{
			name:    "led effect param with color",
			suffix:  TopicLEDEffectParam,
			payload: "#00ff00",
			want:    FieldMap{FieldColor: "#00ff00"},
		},
		{
			name:    "led effect param without color",
			suffix:  TopicLEDEffectParam,
			payload: "0",
			want:    FieldMap{FieldColor: ""},
		},
		{
			name:    "busy true spelling",
			suffix:  TopicSystemBusy,
			payload: "True",
			want:    FieldMap{FieldBusy: true},
		},
		{
			name:    "repeat off",
			suffix:  TopicRepeatJob,
			payload: "0",
			want:    FieldMap{FieldRepeatPlaylist: false},
		},
		{
			name:    "autoplay best effort",
			suffix:  TopicWaitAfterJob,
			payload: "junk",
			want:    FieldMap{FieldAutoplay: 0},
		},
		{
			name:    "software version",
			suffix:  TopicSoftwareVer,
			payload: "1.6.40",
			want:    FieldMap{FieldSoftwareVersion: "1.6.40"},
		},
		{
			name:    "mac address",
			suffix:  TopicMACAddress,
			payload: "aa:bb:cc:dd:ee:ff",
			want:    FieldMap{FieldMACAddress: "aa:bb:cc:dd:ee:ff"},
		},
		{
			name:    "wifi status",
			suffix:  TopicWifiStatus,
			payload: "1",
			want:    FieldMap{FieldWifiConnected: true},
		},
		{
			name:    "schedule passthrough",
			suffix:  TopicSchedule,
			payload: `{"days":[]}`,
			want:    FieldMap{FieldSchedule: `{"days":[]}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopicValue(tt.suffix, tt.payload)
			if err != nil {
				t.Fatalf("ParseTopicValue(%s) error = %v", tt.suffix, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTopicValue(%s) = %v, want %v", tt.suffix, got, tt.want)
			}
		})
	}
}

func TestParseTopicValue_UnknownTopic(t *testing.T) {
	_, err := ParseTopicValue("SOME_NEW_TOPIC", "1")
	if !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("error = %v, want ErrUnknownTopic", err)
	}
}

func TestParseTopicValue_BadNumericPayload(t *testing.T) {
	_, err := ParseTopicValue(TopicStatus, "not-a-number")
	if !errors.Is(err, ErrPayload) {
		t.Errorf("error = %v, want ErrPayload", err)
	}
}

func TestParseTopicValue_FullStatusRecurses(t *testing.T) {
	raw := "4;0;150;10,20,30;1;42;0;0;0;120;#ff0000;0;0;200;1;0;1;0"

	fields, err := ParseTopicValue(TopicFullStatus, raw)
	if err != nil {
		t.Fatalf("ParseTopicValue(FULLSTATUS) error = %v", err)
	}

	if got := fields[FieldStatusCode]; got != StatusPlaying {
		t.Errorf("status_code = %v, want %v", got, StatusPlaying)
	}
}

func TestSplitStatusTopic(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		wantSerial string
		wantSuffix string
		wantOK     bool
	}{
		{name: "valid", topic: "OA123/STATUS/OASIS_STATUS", wantSerial: "OA123", wantSuffix: "OASIS_STATUS", wantOK: true},
		{name: "command topic", topic: "OA123/COMMAND/CMD", wantOK: false},
		{name: "too short", topic: "OA123/STATUS", wantOK: false},
		{name: "empty", topic: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serial, suffix, ok := SplitStatusTopic(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("SplitStatusTopic(%q) ok = %v, want %v", tt.topic, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if serial != tt.wantSerial || suffix != tt.wantSuffix {
				t.Errorf("SplitStatusTopic(%q) = (%q, %q), want (%q, %q)",
					tt.topic, serial, suffix, tt.wantSerial, tt.wantSuffix)
			}
		})
	}
}
