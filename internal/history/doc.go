// Package history records device state changes to InfluxDB.
//
// A Recorder subscribes to device update notifications and writes one
// point per change with the numeric playback fields (status, speed,
// progress, brightness). Writes are non-blocking and batched by the
// InfluxDB client; a broken history backend never slows down or fails the
// transport path. The recorder is optional and enabled via configuration.
package history
