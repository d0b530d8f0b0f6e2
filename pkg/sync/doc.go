// Package sync implements the snapshot and diff engine used to mirror a
// local project directory onto a MicroPython board's filesystem, and the
// orchestrator that drives the transfers.
//
// Both sides of a comparison are reduced to a Snapshot: a map from
// posix-relative path to file metadata. File equality is decided by content
// sha256 -- the local side hashes file contents while walking, and the device
// control tool computes the same digest on-device for its listing. Modified
// is never decided by mtime, since board clocks reset on every power cycle.
package sync
