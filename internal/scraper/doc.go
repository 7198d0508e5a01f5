// Package scraper extracts meeting records from a rendered schedule list view.
//
// The parsing rules live in Extract and operate on the CourseWrapper and
// MeetingBlock interfaces, so they can be exercised against synthetic
// fixtures. FromDocument adapts a goquery document of the portal page to
// those interfaces.
package scraper
