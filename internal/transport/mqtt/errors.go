package mqtt

import "errors"

// Domain-specific errors for the MQTT transport.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConnectionFailed is returned when the initial connection attempt
	// fails outright (bad credentials, TLS failure).
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrDeviceNotRegistered is returned when a command targets a device
	// that was never registered with the client.
	ErrDeviceNotRegistered = errors.New("mqtt: device not registered")
)
