package protocol

// FieldMap is a parsed set of device state updates keyed by field name.
// Values are one of: int, string, bool, []int, StatusCode.
type FieldMap map[string]any

// Field names used in FieldMap keys. These form the closed vocabulary the
// device state model understands; anything outside this set is logged and
// ignored when applied.
const (
	FieldStatusCode       = "status_code"
	FieldError            = "error"
	FieldBallSpeed        = "ball_speed"
	FieldPlaylist         = "playlist"
	FieldPlaylistIndex    = "playlist_index"
	FieldProgress         = "progress"
	FieldLEDEffect        = "led_effect"
	FieldLEDColorID       = "led_color_id"
	FieldLEDSpeed         = "led_speed"
	FieldBrightness       = "brightness"
	FieldColor            = "color"
	FieldBusy             = "busy"
	FieldDownloadProgress = "download_progress"
	FieldBrightnessMax    = "brightness_max"
	FieldWifiConnected    = "wifi_connected"
	FieldRepeatPlaylist   = "repeat_playlist"
	FieldAutoplay         = "autoplay"
	FieldAutoClean        = "auto_clean"
	FieldSoftwareVersion  = "software_version"
	FieldMACAddress       = "mac_address"
	FieldWifiSSID         = "wifi_ssid"
	FieldWifiIP           = "wifi_ip"
	FieldWifiPDNS         = "wifi_pdns"
	FieldWifiSDNS         = "wifi_sdns"
	FieldWifiGateway      = "wifi_gate"
	FieldWifiSubnet       = "wifi_sub"
	FieldSchedule         = "schedule"
	FieldEnvironment      = "environment"
)
