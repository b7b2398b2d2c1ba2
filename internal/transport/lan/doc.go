// Package lan implements the direct HTTP transport for an Oasis device on
// the local network.
//
// Each Client is bound to a single device address. Commands are issued as
// GET requests with the command encoded as a query parameter; the firmware
// answers with plain text (status snapshots, the MAC address) or JSON.
// Unlike the MQTT transport there is no push channel, so state refreshes
// are synchronous: GetStatus fetches the full-status snapshot and applies
// it before returning.
//
// The underlying http.Client may be supplied by the caller (shared pool)
// or created by the Client; only an owned client is torn down on Close.
package lan
