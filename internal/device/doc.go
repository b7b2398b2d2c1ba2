// Package device provides the transport-agnostic state model for an Oasis
// kinetic sand table.
//
// A Device holds the last known snapshot of every firmware-reported field
// (playback status, ball speed, playlist, LED settings, network details)
// plus derived properties such as the current track id and the
// initialization state. Transports push partial updates into the model via
// Apply; callers issue commands through the Device's command methods, which
// validate parameters and delegate to the attached Transport.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│                          Device State Model                          │
//	│                                                                      │
//	│  ┌──────────────────┐    ┌──────────────────┐   ┌─────────────────┐  │
//	│  │      Device      │    │    Transport     │   │  TrackFetcher   │  │
//	│  │   (device.go)    │───▶│  (transport.go)  │   │ (transport.go)  │  │
//	│  │                  │    │                  │   │                 │  │
//	│  │ • Field snapshot │    │ • One send per   │   │ • Track names   │  │
//	│  │ • Apply updates  │    │   command type   │   │   for playlist  │  │
//	│  │ • Listeners      │    │ • MQTT or HTTP   │   │   display       │  │
//	│  └──────────────────┘    └──────────────────┘   └─────────────────┘  │
//	└──────────────────────────────────────────────────────────────────────┘
//
// Updates flow one way: a transport parses wire payloads into a
// protocol.FieldMap and calls Apply, which assigns changed fields and
// notifies registered listeners. Commands flow the other way: a command
// method validates its parameters, then calls the matching Transport send
// method. The Device never reverts to defaults on a transport failure; the
// last applied update always stands.
//
// All public methods are safe for concurrent use.
package device
