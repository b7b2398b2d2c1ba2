// Package cloud implements the client for the Oasis cloud REST API.
//
// The cloud is the source of account data (login, device listing) and
// track/playlist/software metadata. Requests carry a bearer token; an
// expired or rejected token surfaces as ErrUnauthenticated so callers can
// re-authenticate. Token expiry is checked locally before each request to
// avoid a guaranteed round-trip failure.
//
// Playlist and software metadata are cached with independent TTLs behind
// a double-checked per-key lock, so concurrent callers trigger at most one
// refresh per key. Single-track lookups that 404 resolve to a placeholder
// record rather than an error; tracks disappear from the cloud catalog
// routinely and callers only want a display name.
package cloud
