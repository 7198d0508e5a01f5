// Package schedule defines the meeting records scraped from a rendered
// schedule list view.
//
// A MeetingEvent is one recurring meeting pattern of a course ("Lecture,
// MWF, 9:00 AM - 9:50 AM"). Fields that cannot be read from the page hold
// fixed sentinel strings instead of empty values, so the calendar encoder can
// skip them without guessing.
//
// Filter narrows an extracted schedule before export, and Diff reports how
// two scrapes of the same page differ.
package schedule
