// Package catalog provides the built-in track catalog for Oasis devices.
//
// Devices refer to tracks by numeric id only; names, authorship and artwork
// live in the cloud. The catalog is a local SQLite-backed copy of that
// metadata so track names resolve without a network round trip (and keep
// resolving when the cloud is unreachable).
//
// The in-memory Catalog is a read-only table loaded once at startup and
// passed by reference to the components that need it. The Store behind it
// supports refreshing rows from the cloud listing.
package catalog
