package main

import (
	"fmt"
	"os"

	"github.com/webscheduleplus/webschedule/internal/calendar"
	"github.com/webscheduleplus/webschedule/internal/schedule"
)

func main() {
	// A sample term: a TR lecture, a Friday lab and an online section
	events := []schedule.MeetingEvent{
		{
			CourseName: "CS 101 - Intro to Programming",
			Type:       "Lecture",
			Days:       "TR",
			Time:       "9:00 AM - 9:50 AM",
			StartDate:  "01/06/2026",
			EndDate:    "05/22/2026",
			Location:   "SKY Bldg 10",
		},
		{
			CourseName: "CS 101 - Intro to Programming",
			Type:       "Lab",
			Days:       "F",
			Time:       "1:00 PM - 3:50 PM",
			StartDate:  "01/06/2026",
			EndDate:    "05/22/2026",
		},
		{
			CourseName: "MATH 200 - Calculus",
			Type:       "Online",
			Days:       schedule.NoDays,
			Time:       schedule.NoTime,
			StartDate:  "01/06/2026",
			EndDate:    "05/22/2026",
		},
	}

	icsContent, report := calendar.NewEncoder(calendar.WithUIDs(calendar.SeededUIDs("test-calendar"))).EncodeReport(events)

	// Write to file (owner read/write only for security)
	filename := "test-schedule.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s (%d events, %d skipped)\n\n", filename, report.Blocks, report.Skipped)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("3. Or read it back: webschedule inspect " + filename)
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
