// Package icalfeed projects portal calendar events into an iCalendar
// document for external calendar clients.
package icalfeed

import (
	"bytes"
	"strings"
	"time"

	"cyucal-backend/lib/celcat"

	ical "github.com/emersion/go-ical"
)

const (
	CalendarName = "CYU Calendar"
	uidSuffix    = "@cyu-calendar"
	productId    = "-//cyucal//calendar feed//EN"

	dateLayout     = "20060102"
	dateTimeLayout = "20060102T150405"
)

// Generate serializes events into an iCalendar document. Timed events
// with no end are left out: the format cannot represent an open-ended
// timed event, so dropping them is policy, not an error.
func Generate(events []celcat.CalendarEvent) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productId)
	cal.Props.SetText("X-WR-CALNAME", CalendarName)

	now := time.Now().UTC()

	for _, event := range events {
		vevent, ok := buildEvent(event, now)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, vevent)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", err
	}

	// compatibility fix-up for clients that choke on the uppercase
	// newline escape
	return strings.ReplaceAll(buf.String(), `\N`, `\n`), nil
}

func buildEvent(event celcat.CalendarEvent, stamp time.Time) (*ical.Component, bool) {
	description := event.PlainDescription()

	vevent := ical.NewComponent(ical.CompEvent)
	vevent.Props.SetText(ical.PropUID, event.ID+uidSuffix)
	vevent.Props.SetText(ical.PropDescription, description)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	switch {
	case event.AllDay:
		// date-only, dropping any time component the portal sent
		dtstart := ical.NewProp(ical.PropDateTimeStart)
		dtstart.SetDate(event.Start.Time)
		vevent.Props.Set(dtstart)
	case event.End != nil:
		// floating local times, matching the portal's naive datetimes
		dtstart := ical.NewProp(ical.PropDateTimeStart)
		dtstart.SetValueType(ical.ValueDateTime)
		dtstart.Value = event.Start.Format(dateTimeLayout)
		vevent.Props.Set(dtstart)

		dtend := ical.NewProp(ical.PropDateTimeEnd)
		dtend.SetValueType(ical.ValueDateTime)
		dtend.Value = event.End.Format(dateTimeLayout)
		vevent.Props.Set(dtend)
	default:
		return nil, false
	}

	vevent.Props.SetText(ical.PropSummary, summarize(event.EventCategory, description))
	return vevent, true
}

// summarize derives the event title. For exactly two category codes
// the portal buries a more specific label in the description body, on
// the third-from-last line; the indexing is tied to the portal's
// current text layout and is kept as-is for output compatibility.
func summarize(category, description string) string {
	switch category {
	case "CM", "TD":
		lines := strings.Split(description, "\n")
		var label string
		if len(lines) >= 3 {
			label = lines[len(lines)-3]
		}
		return category + " " + strings.ReplaceAll(label, category, "")
	default:
		return category
	}
}
