package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a single outbound device command: a key, an optional value,
// and a hint that the command should wake a sleeping device first.
//
// The HTTP transport sends the pair as a query parameter; the MQTT
// transport publishes Payload() to the device's command topic.
type Command struct {
	Key   string
	Value string

	// Wake indicates the device must be brought out of sleep for the
	// command to take visible effect. Transports issue a full-state
	// refresh request first when the target is sleeping.
	Wake bool
}

// Payload returns the MQTT body encoding: "KEY=VALUE", or the bare key for
// parameterless commands.
func (c Command) Payload() string {
	if c.Value == "" {
		return c.Key
	}
	return c.Key + "=" + c.Value
}

// BallSpeedCommand sets the ball speed.
func BallSpeedCommand(speed int) Command {
	return Command{Key: "WRIOASISSPEED", Value: strconv.Itoa(speed)}
}

// LEDCommand sets effect, color, animation speed and brightness in one
// write. The second wire field is reserved and always 0. A nonzero
// brightness implies the user expects to see the result, so it wakes.
func LEDCommand(effect, color string, speed, brightness int) Command {
	return Command{
		Key:   "WRILED",
		Value: fmt.Sprintf("%s;0;%s;%d;%d", effect, color, speed, brightness),
		Wake:  brightness > 0,
	}
}

// MoveJobCommand moves a playlist entry from one index to another.
func MoveJobCommand(from, to int) Command {
	return Command{Key: "MOVEJOB", Value: fmt.Sprintf("%d;%d", from, to)}
}

// ChangeTrackCommand selects the playlist entry at index.
func ChangeTrackCommand(index int) Command {
	return Command{Key: "CMDCHANGETRACK", Value: strconv.Itoa(index)}
}

// AddJobListCommand appends tracks to the playlist.
func AddJobListCommand(tracks []int) Command {
	return Command{Key: "ADDJOBLIST", Value: joinInts(tracks)}
}

// SetJobListCommand replaces the playlist.
func SetJobListCommand(playlist []int) Command {
	return Command{Key: "WRIJOBLIST", Value: joinInts(playlist)}
}

// RepeatJobCommand enables or disables playlist repeat.
func RepeatJobCommand(repeat bool) Command {
	return Command{Key: "WRIREPEATJOB", Value: boolBit(repeat)}
}

// WaitAfterCommand sets the autoplay (wait-after-job) option.
func WaitAfterCommand(option string) Command {
	return Command{Key: "WRIWAITAFTER", Value: option}
}

// AutoCleanCommand enables or disables auto-clean.
func AutoCleanCommand(on bool) Command {
	return Command{Key: "WRIAUTOCLEAN", Value: boolBit(on)}
}

// UpgradeCommand starts a firmware upgrade, optionally from the beta channel.
func UpgradeCommand(beta bool) Command {
	return Command{Key: "CMDUPGRADE", Value: boolBit(beta)}
}

// PlayCommand resumes playback. Playing implies waking the device.
func PlayCommand() Command { return Command{Key: "CMDPLAY", Wake: true} }

// PauseCommand pauses playback.
func PauseCommand() Command { return Command{Key: "CMDPAUSE"} }

// StopCommand stops playback. Firmware requires a stop before the playlist
// is replaced.
func StopCommand() Command { return Command{Key: "CMDSTOP"} }

// SleepCommand puts the device to sleep.
func SleepCommand() Command { return Command{Key: "CMDSLEEP"} }

// RebootCommand reboots the device.
func RebootCommand() Command { return Command{Key: "CMDBOOT"} }

// GetStatusCommand asks the device to publish its status topics (MQTT) or
// return the full-status snapshot (HTTP).
func GetStatusCommand() Command { return Command{Key: "GETSTATUS"} }

// GetAllCommand asks the device for a compact snapshot: FULLSTATUS plus
// SCHEDULE. Also used as the wake request.
func GetAllCommand() Command { return Command{Key: "GETALL"} }

// GetMACCommand asks the device for its MAC address (HTTP only; over MQTT
// the MAC arrives as a status topic in response to GETSTATUS).
func GetMACCommand() Command { return Command{Key: "GETMAC"} }

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func boolBit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
