// Package storage writes exported calendars to disk and keeps the small
// state file used by the watch loop.
//
// A FileDeliverer saves each calendar under its output directory and returns
// the full path. The state file (state.json in the data directory) records
// the fingerprint of the last delivered schedule so unchanged scrapes are not
// written again. Paths starting with ~/ are expanded to the home directory.
package storage
