// Package notifier tells the user and the host about export outcomes.
//
// A Notifier shows user-facing alerts: the "no schedule data" hint when the
// page has nothing to export, and the generic failure message when the
// pipeline errors. A Messenger signals the host that a calendar was
// exported; its failures never affect the export itself.
package notifier
