package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// minStatusFields is the number of fields a full-status snapshot must carry.
//
// Two layouts exist in the wild. Early firmware emitted 17 fields ending at
// autoplay; current firmware appends auto_clean as field 18 and optionally
// the software version as field 19. The field count is the version
// discriminator: anything under 18 is rejected as the legacy layout is no
// longer produced by supported firmware, 18 fields is the current layout,
// and a 19th field carries the software version.
const minStatusFields = 18

// Fixed field positions within a full-status snapshot.
const (
	posStatusCode = iota
	posError
	posBallSpeed
	posPlaylist
	posPlaylistIndex
	posProgress
	posLEDEffect
	posLEDColorID
	posLEDSpeed
	posBrightness
	posColor
	posBusy
	posDownloadProgress
	posBrightnessMax
	posWifiConnected
	posRepeatPlaylist
	posAutoplay
	posAutoClean
	posSoftwareVersion
)

// ParseStatus parses a semicolon-delimited full-status snapshot into a
// FieldMap.
//
// Numeric fields parse best-effort (malformed values become 0). Boolean
// fields are the literal "1"; anything else is false. The playlist is a
// comma-separated list of track ids; empty and non-numeric entries are
// skipped. The playlist index is clamped to [0, len(playlist)] within the
// same parse so a torn snapshot can never point past the list.
//
// Returns ErrStatusFormat for empty input or fewer than 18 fields. Callers
// must log and discard; a bad snapshot never reaches the device layer.
func ParseStatus(raw string) (FieldMap, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty status", ErrStatusFormat)
	}

	values := strings.Split(raw, ";")
	if len(values) < minStatusFields {
		return nil, fmt.Errorf("%w: got %d fields, need %d", ErrStatusFormat, len(values), minStatusFields)
	}

	playlist := parsePlaylist(values[posPlaylist])

	index := parseInt(values[posPlaylistIndex])
	if index > len(playlist) {
		index = len(playlist)
	}
	if index < 0 {
		index = 0
	}

	fields := FieldMap{
		FieldStatusCode:       StatusCode(parseInt(values[posStatusCode])),
		FieldError:            parseInt(values[posError]),
		FieldBallSpeed:        parseInt(values[posBallSpeed]),
		FieldPlaylist:         playlist,
		FieldPlaylistIndex:    index,
		FieldProgress:         parseInt(values[posProgress]),
		FieldLEDEffect:        values[posLEDEffect],
		FieldLEDColorID:       values[posLEDColorID],
		FieldLEDSpeed:         parseInt(values[posLEDSpeed]),
		FieldBrightness:       parseInt(values[posBrightness]),
		FieldColor:            parseColor(values[posColor]),
		FieldBusy:             bitToBool(values[posBusy]),
		FieldDownloadProgress: parseInt(values[posDownloadProgress]),
		FieldBrightnessMax:    parseInt(values[posBrightnessMax]),
		FieldWifiConnected:    bitToBool(values[posWifiConnected]),
		FieldRepeatPlaylist:   bitToBool(values[posRepeatPlaylist]),
		FieldAutoplay:         parseInt(values[posAutoplay]),
		FieldAutoClean:        bitToBool(values[posAutoClean]),
	}

	if len(values) > posSoftwareVersion {
		fields[FieldSoftwareVersion] = values[posSoftwareVersion]
	}

	return fields, nil
}

// parsePlaylist parses a comma-separated track id list. Tokens that are
// empty or fail to parse are skipped; the firmware pads with blanks.
func parsePlaylist(csv string) []int {
	playlist := []int{}
	for _, token := range strings.Split(csv, ",") {
		if id := parseInt(token); id != 0 {
			playlist = append(playlist, id)
		}
	}
	return playlist
}

// parseColor returns the hex color from the wire field, or "" when the
// device reports no color (it sends a bare "0" in that case).
func parseColor(value string) string {
	if strings.Contains(value, "#") {
		return value
	}
	return ""
}

// parseInt converts a wire field to an int, substituting 0 on failure.
func parseInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

// bitToBool interprets the protocol's "1"/"0" boolean encoding.
func bitToBool(value string) bool {
	return value == "1"
}
