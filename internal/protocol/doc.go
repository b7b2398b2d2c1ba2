// Package protocol implements the Oasis device wire protocol.
//
// Oasis sand tables speak a small text protocol over two surfaces that share
// the same vocabulary:
//
//   - A semicolon-delimited full-status snapshot, returned by the device's
//     local HTTP endpoint (GETSTATUS) and published on the FULLSTATUS topic.
//   - Per-field status topics (<serial>/STATUS/<NAME>) carrying a single
//     scalar payload each.
//   - Outbound commands encoded as KEY or KEY=VALUE pairs, sent as HTTP
//     query parameters or as the body of <serial>/COMMAND/CMD messages.
//
// This package is pure parsing and encoding; it performs no I/O. Parsed
// updates are returned as a FieldMap which the device package applies to
// its in-memory state.
//
// Device firmware is known to emit malformed numeric fields; numeric
// parsing is therefore best-effort and substitutes 0 rather than failing
// a whole snapshot.
package protocol
