package protocol

import "strconv"

// StatusCode is the device's reported operating state.
type StatusCode int

// Known device status codes.
const (
	StatusBooting     StatusCode = 0
	StatusStopped     StatusCode = 2
	StatusCentering   StatusCode = 3
	StatusPlaying     StatusCode = 4
	StatusPaused      StatusCode = 5
	StatusSleeping    StatusCode = 6
	StatusError       StatusCode = 9
	StatusUpdating    StatusCode = 11
	StatusDownloading StatusCode = 13
	StatusBusy        StatusCode = 14
	StatusLive        StatusCode = 15
)

var statusNames = map[StatusCode]string{
	StatusBooting:     "booting",
	StatusStopped:     "stopped",
	StatusCentering:   "centering",
	StatusPlaying:     "playing",
	StatusPaused:      "paused",
	StatusSleeping:    "sleeping",
	StatusError:       "error",
	StatusUpdating:    "updating",
	StatusDownloading: "downloading",
	StatusBusy:        "busy",
	StatusLive:        "live",
}

// String returns the human-readable name for the status code, or
// "unknown (<code>)" for codes the firmware has not documented.
func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown (" + strconv.Itoa(int(s)) + ")"
}

// ErrorMessages maps device error codes to human-readable descriptions.
// The texts match what the official app displays.
var ErrorMessages = map[int]string{
	0:  "None",
	1:  "Error has occurred while reading the flash memory",
	2:  "Error while starting the Wifi",
	3:  "Error when starting DNS settings for your machine",
	4:  "Failed to open the file to write",
	5:  "Not enough memory to perform the upgrade",
	6:  "Error while trying to upgrade your system",
	7:  "Error while trying to download the new version of the software",
	8:  "Error while reading the upgrading file",
	9:  "Failed to start downloading the upgrade file",
	10: "Error while starting downloading the job file",
	11: "Error while opening the file folder",
	12: "Failed to delete a file",
	13: "Error while opening the job file",
	14: "You have wrong power adapter",
	15: "Failed to update the device IP on Oasis Server",
	16: "Your device failed centering itself",
	17: "There appears to be an issue with your Oasis Device",
	18: "Error while downloading the job file",
}

// LEDEffects maps LED effect codes to display names. The code (map key) is
// what travels on the wire; commands carrying a code outside this set are
// rejected before any network I/O.
var LEDEffects = map[string]string{
	"0":  "Solid",
	"1":  "Rainbow",
	"2":  "Glitter",
	"3":  "Confetti",
	"4":  "Sinelon",
	"5":  "BPM",
	"6":  "Juggle",
	"7":  "Theater",
	"8":  "Color Wipe",
	"9":  "Sparkle",
	"10": "Comet",
	"11": "Follow Ball",
	"12": "Follow Rainbow",
	"13": "Chasing Comet",
	"14": "Gradient Follow",
	"15": "Cumulative Fill",
	"16": "Multi Comets A",
	"17": "Rainbow Chaser",
	"18": "Twinkle Lights",
	"19": "Tennis Game",
	"20": "Breathing Exercise 4-7-8",
	"21": "Cylon Scanner",
	"22": "Palette Mode",
	"23": "Aurora Flow",
	"24": "Colorful Drops",
	"25": "Color Snake",
	"26": "Flickering Candles",
	"27": "Digital Rain",
	"28": "Center Explosion",
	"29": "Rainbow Plasma",
	"30": "Comet Race",
	"31": "Color Waves",
	"32": "Meteor Storm",
	"33": "Firefly Flicker",
	"34": "Ripple",
	"35": "Jelly Bean",
	"36": "Forest Rain",
	"37": "Multi Comets",
	"38": "Multi Comets with Background",
	"39": "Rainbow Fill",
	"40": "White Red Comet",
	"41": "Color Comets",
}

// AutoplayOptions maps wait-after-job codes to display names. "1" disables
// autoplay; the remaining codes select how long the device waits after a
// track finishes before starting the next one.
var AutoplayOptions = map[string]string{
	"1": "Off",
	"0": "Immediately",
	"2": "After 5 minutes",
	"3": "After 10 minutes",
	"4": "After 30 minutes",
	"6": "After 1 hour",
	"7": "After 6 hours",
	"8": "After 12 hours",
	"5": "After 24 hours",
}
