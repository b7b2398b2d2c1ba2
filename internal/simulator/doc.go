// Package simulator emulates the local HTTP interface of an Oasis device.
//
// It implements the firmware's query-parameter command surface (GETSTATUS,
// GETMAC, WRIOASISSPEED, CMDPLAY and the rest) against an in-memory state
// machine, answering with the same semicolon-delimited snapshots real
// hardware produces. Useful for developing against no hardware and for
// exercising the LAN transport end to end.
//
// A /state route exposes the simulated state as JSON for inspection; real
// firmware has no such route.
package simulator
