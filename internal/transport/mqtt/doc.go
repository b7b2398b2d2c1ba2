// Package mqtt implements the persistent device transport over the Oasis
// cloud MQTT broker.
//
// The broker is reached over TLS websockets. One Client serves every
// registered device: it subscribes to each device's status topic pattern,
// routes incoming retained and live messages through the protocol codec
// into the matching device state model, and publishes commands to the
// per-device command topic.
//
// Connection handling is fully automatic. On connect (initial or after a
// drop) the client re-subscribes every registered device and flushes the
// pending command queue. While disconnected, commands are enqueued in a
// bounded FIFO; on overflow the oldest entry is dropped and logged, which
// bounds memory during prolonged outages at the cost of losing stale
// commands. Commands are absolute state-setters, so dropping an old one in
// favour of a newer one is safe.
//
// Readiness is exposed through WaitUntilReady and per-device signals: a
// device is ready once it has reported serial, MAC address and software
// version over the active connection.
//
// All public methods are safe for concurrent use.
package mqtt
