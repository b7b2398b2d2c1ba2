package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrValidation) {
//	    // reject the caller's parameters, nothing was sent
//	}
var (
	// ErrValidation is returned when a command parameter is out of range.
	// The command is never sent to the device.
	ErrValidation = errors.New("device: validation failed")

	// ErrNoTransport is returned when a command method is called on a
	// device with no attached transport. This is a programmer error.
	ErrNoTransport = errors.New("device: no transport attached")

	// ErrNoSerial is returned when a device is created or registered
	// without a serial number.
	ErrNoSerial = errors.New("device: serial number required")
)
