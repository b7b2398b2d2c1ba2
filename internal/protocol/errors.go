package protocol

import "errors"

// Domain-specific errors for wire-protocol parsing.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrStatusFormat is returned when a full-status string is empty or has
	// fewer fields than the protocol requires. Callers log and discard.
	ErrStatusFormat = errors.New("protocol: unexpected status format")

	// ErrUnknownTopic is returned by ParseTopicValue for a status topic
	// suffix outside the enumerated set. Informational only; callers log
	// and ignore.
	ErrUnknownTopic = errors.New("protocol: unknown status topic")

	// ErrPayload is returned when a per-topic payload cannot be parsed as
	// the type the topic requires. The update is skipped.
	ErrPayload = errors.New("protocol: invalid payload")
)
