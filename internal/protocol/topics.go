package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Status topic suffixes published by the device under <serial>/STATUS/.
// OASIS_SPEEED is spelled the way the firmware spells it.
const (
	TopicStatus           = "OASIS_STATUS"
	TopicError            = "OASIS_ERROR"
	TopicBallSpeed        = "OASIS_SPEEED"
	TopicJobList          = "JOBLIST"
	TopicCurrentJob       = "CURRENTJOB"
	TopicCurrentLine      = "CURRENTLINE"
	TopicLEDEffect        = "LED_EFFECT"
	TopicLEDEffectColor   = "LED_EFFECT_COLOR"
	TopicLEDEffectParam   = "LED_EFFECT_PARAM"
	TopicLEDSpeed         = "LED_SPEED"
	TopicLEDBrightness    = "LED_BRIGHTNESS"
	TopicLEDMax           = "LED_MAX"
	TopicSystemBusy       = "SYSTEM_BUSY"
	TopicDownloadProgress = "DOWNLOAD_PROGRESS"
	TopicRepeatJob        = "REPEAT_JOB"
	TopicWaitAfterJob     = "WAIT_AFTER_JOB"
	TopicAutoClean        = "AUTO_CLEAN"
	TopicSoftwareVer      = "SOFTWARE_VER"
	TopicMACAddress       = "MAC_ADDRESS"
	TopicWifiSSID         = "WIFI_SSID"
	TopicWifiIP           = "WIFI_IP"
	TopicWifiPDNS         = "WIFI_PDNS"
	TopicWifiSDNS         = "WIFI_SDNS"
	TopicWifiGate         = "WIFI_GATE"
	TopicWifiSub          = "WIFI_SUB"
	TopicWifiStatus       = "WIFI_STATUS"
	TopicSchedule         = "SCHEDULE"
	TopicEnvironment      = "ENVIRONMENT"
	TopicFullStatus       = "FULLSTATUS"
)

// StatusTopic returns the subscription pattern covering every status topic
// for one device.
func StatusTopic(serial string) string {
	return serial + "/STATUS/#"
}

// CommandTopic returns the topic commands for one device are published to.
func CommandTopic(serial string) string {
	return serial + "/COMMAND/CMD"
}

// SplitStatusTopic extracts the serial and status suffix from a full topic
// path of the form "<serial>/STATUS/<NAME>". ok is false for anything else.
func SplitStatusTopic(topic string) (serial, suffix string, ok bool) {
	parts := strings.SplitN(topic, "/", 3)
	if len(parts) < 3 || parts[1] != "STATUS" {
		return "", "", false
	}
	return parts[0], parts[2], true
}

// ParseTopicValue maps a status topic suffix and its payload to a FieldMap
// update.
//
// The suffix set is closed: anything outside it returns ErrUnknownTopic,
// which callers log and ignore (firmware adds topics faster than clients
// learn them). A payload that fails to parse for a numeric topic returns
// ErrPayload and the update is skipped. The FULLSTATUS suffix recurses into
// ParseStatus.
func ParseTopicValue(suffix, payload string) (FieldMap, error) {
	switch suffix {
	case TopicStatus:
		code, err := strictInt(suffix, payload)
		if err != nil {
			return nil, err
		}
		return FieldMap{FieldStatusCode: StatusCode(code)}, nil
	case TopicError:
		return strictIntField(FieldError, suffix, payload)
	case TopicBallSpeed:
		return strictIntField(FieldBallSpeed, suffix, payload)
	case TopicJobList:
		return FieldMap{FieldPlaylist: parsePlaylist(payload)}, nil
	case TopicCurrentJob:
		return strictIntField(FieldPlaylistIndex, suffix, payload)
	case TopicCurrentLine:
		return strictIntField(FieldProgress, suffix, payload)
	case TopicLEDEffect:
		return FieldMap{FieldLEDEffect: payload}, nil
	case TopicLEDEffectColor:
		return FieldMap{FieldLEDColorID: payload}, nil
	case TopicLEDEffectParam:
		color := ""
		if strings.HasPrefix(payload, "#") {
			color = payload
		}
		return FieldMap{FieldColor: color}, nil
	case TopicLEDSpeed:
		return strictIntField(FieldLEDSpeed, suffix, payload)
	case TopicLEDBrightness:
		return strictIntField(FieldBrightness, suffix, payload)
	case TopicLEDMax:
		return strictIntField(FieldBrightnessMax, suffix, payload)
	case TopicSystemBusy:
		return FieldMap{FieldBusy: truthy(payload)}, nil
	case TopicDownloadProgress:
		return strictIntField(FieldDownloadProgress, suffix, payload)
	case TopicRepeatJob:
		return FieldMap{FieldRepeatPlaylist: truthy(payload)}, nil
	case TopicWaitAfterJob:
		return FieldMap{FieldAutoplay: parseInt(payload)}, nil
	case TopicAutoClean:
		return FieldMap{FieldAutoClean: truthy(payload)}, nil
	case TopicSoftwareVer:
		return FieldMap{FieldSoftwareVersion: payload}, nil
	case TopicMACAddress:
		return FieldMap{FieldMACAddress: payload}, nil
	case TopicWifiSSID:
		return FieldMap{FieldWifiSSID: payload}, nil
	case TopicWifiIP:
		return FieldMap{FieldWifiIP: payload}, nil
	case TopicWifiPDNS:
		return FieldMap{FieldWifiPDNS: payload}, nil
	case TopicWifiSDNS:
		return FieldMap{FieldWifiSDNS: payload}, nil
	case TopicWifiGate:
		return FieldMap{FieldWifiGateway: payload}, nil
	case TopicWifiSub:
		return FieldMap{FieldWifiSubnet: payload}, nil
	case TopicWifiStatus:
		return FieldMap{FieldWifiConnected: bitToBool(payload)}, nil
	case TopicSchedule:
		return FieldMap{FieldSchedule: payload}, nil
	case TopicEnvironment:
		return FieldMap{FieldEnvironment: payload}, nil
	case TopicFullStatus:
		return ParseStatus(payload)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, suffix)
	}
}

// strictInt parses a payload that must be an integer.
func strictInt(suffix, payload string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrPayload, suffix, payload)
	}
	return n, nil
}

func strictIntField(field, suffix, payload string) (FieldMap, error) {
	n, err := strictInt(suffix, payload)
	if err != nil {
		return nil, err
	}
	return FieldMap{field: n}, nil
}

// truthy covers the firmware's three spellings of true.
func truthy(payload string) bool {
	return payload == "1" || payload == "true" || payload == "True"
}
