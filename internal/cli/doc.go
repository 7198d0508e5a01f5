// Package cli implements the command-line interface for webschedule.
//
// The cli package provides the Cobra-based commands: export (page to .ics),
// inspect and preview (read an exported calendar back), professor and
// building (rating cards and campus map lookups), watch (cron re-export on
// change) and config init. It wires the scraper, calendar, storage and
// notifier packages together and maps outcomes to exit codes.
package cli
