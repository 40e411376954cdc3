// Package ical renders an item's blocked days as an iCalendar feed for owners who sync
// their rentals into an external calendar.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"shareit/internal/domain/calendar"
)

const productID = "-//shareit//blocked dates//EN"

// Span is an inclusive run of consecutive days.
type Span struct {
	First calendar.Day
	Last  calendar.Day
}

// Spans groups days into consecutive runs. Input order and duplicates do not matter.
func Spans(days []calendar.Day) []Span {
	sorted := calendar.Normalize(days)
	var out []Span
	for _, d := range sorted {
		if n := len(out); n > 0 && out[n-1].Last.AddDays(1) == d {
			out[n-1].Last = d
			continue
		}
		out = append(out, Span{First: d, Last: d})
	}
	return out
}

// BlockedCalendar returns one all-day event per run of blocked days. Event UIDs are stable
// for a given item and run, so repeated imports update rather than duplicate.
func BlockedCalendar(itemID, title string, days []calendar.Day, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(title)
	for _, span := range Spans(days) {
		event := cal.AddEvent(fmt.Sprintf("%s-%s@shareit", itemID, span.First))
		event.SetDtStampTime(stamp.UTC())
		event.SetSummary(fmt.Sprintf("Booked: %s", title))
		event.SetAllDayStartAt(span.First.Time())
		// DTEND of an all-day event is exclusive.
		event.SetAllDayEndAt(span.Last.AddDays(1).Time())
	}
	return cal.Serialize()
}
