package icalfeed

import (
	"strings"
	"testing"
	"time"

	"cyucal-backend/lib/celcat"

	ical "github.com/emersion/go-ical"
	"github.com/stretchr/testify/require"
)

func datetime(year int, month time.Month, day, hour, min int) celcat.DateTime {
	return celcat.DateTime{Time: time.Date(year, month, day, hour, min, 0, 0, time.UTC)}
}

func datetimePtr(year int, month time.Month, day, hour, min int) *celcat.DateTime {
	d := datetime(year, month, day, hour, min)
	return &d
}

func decode(t testing.TB, document string) *ical.Calendar {
	cal, err := ical.NewDecoder(strings.NewReader(document)).Decode()
	if err != nil {
		t.Fatal(err)
	}
	return cal
}

func vevents(cal *ical.Calendar) []*ical.Component {
	var out []*ical.Component
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			out = append(out, child)
		}
	}
	return out
}

func TestGenerateEmpty(t *testing.T) {
	document, err := Generate(nil)
	if err != nil {
		t.Fatal(err)
	}

	cal := decode(t, document)
	require.Equal(t, CalendarName, cal.Props.Get("X-WR-CALNAME").Value)
	require.Empty(t, vevents(cal))
}

func TestAllDayEvent(t *testing.T) {
	event := celcat.CalendarEvent{
		ID: "-100",
		// the portal sometimes attaches a time and an end to all-day
		// events; both are dropped
		Start:         datetime(2024, time.September, 3, 8, 30),
		End:           datetimePtr(2024, time.September, 3, 18, 0),
		AllDay:        true,
		Description:   "JOURNEE D&#39;INTEGRATION",
		EventCategory: "Divers",
	}

	document, err := Generate([]celcat.CalendarEvent{event})
	if err != nil {
		t.Fatal(err)
	}

	events := vevents(decode(t, document))
	require.Len(t, events, 1)

	dtstart := events[0].Props.Get(ical.PropDateTimeStart)
	require.NotNil(t, dtstart)
	require.Equal(t, "20240903", dtstart.Value)
	require.Equal(t, "DATE", dtstart.Params.Get(ical.ParamValue))
	require.Nil(t, events[0].Props.Get(ical.PropDateTimeEnd))
}

func TestTimedEvent(t *testing.T) {
	event := celcat.CalendarEvent{
		ID:            "-1511919",
		Start:         datetime(2024, time.September, 2, 8, 0),
		End:           datetimePtr(2024, time.September, 2, 10, 0),
		Description:   "ANALYSE CM\r\nAMPHI A\r\nM. MARTIN",
		EventCategory: "CM",
	}

	document, err := Generate([]celcat.CalendarEvent{event})
	if err != nil {
		t.Fatal(err)
	}

	events := vevents(decode(t, document))
	require.Len(t, events, 1)

	require.Equal(t, "-1511919@cyu-calendar", events[0].Props.Get(ical.PropUID).Value)
	require.Equal(t, "20240902T080000", events[0].Props.Get(ical.PropDateTimeStart).Value)
	require.Equal(t, "20240902T100000", events[0].Props.Get(ical.PropDateTimeEnd).Value)

	description, err := events[0].Props.Get(ical.PropDescription).Text()
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "ANALYSE CM\nAMPHI A\nM. MARTIN", description)
}

func TestOpenEndedEventExcluded(t *testing.T) {
	openEnded := celcat.CalendarEvent{
		ID:            "-200",
		Start:         datetime(2024, time.September, 2, 8, 0),
		EventCategory: "TP",
	}

	document, err := Generate([]celcat.CalendarEvent{openEnded})
	if err != nil {
		t.Fatal(err)
	}
	require.Empty(t, vevents(decode(t, document)))

	// the same event with an end is serialized
	closed := openEnded
	closed.End = datetimePtr(2024, time.September, 2, 10, 0)

	document, err = Generate([]celcat.CalendarEvent{closed})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, vevents(decode(t, document)), 1)
}

func TestSummaries(t *testing.T) {
	cases := []struct {
		category    string
		description string
		expected    string
	}{
		// CM and TD rebuild the summary from the third-from-last
		// description line, category substring removed
		{"CM", "ANALYSE CM\r\nAMPHI A\r\nM. MARTIN", "CM ANALYSE "},
		{"TD", "ALGEBRE TD\r\nSALLE 101\r\nMME BERNARD", "TD ALGEBRE "},
		// fewer than three lines leaves only the category prefix
		{"CM", "ANALYSE CM\r\nAMPHI A", "CM "},
		// every other category is used verbatim
		{"Divers", "JOURNEE D'INTEGRATION\r\nHALL\r\nEQUIPE", "Divers"},
		{"EXAMEN", "PARTIEL\r\nAMPHI B\r\nSURVEILLANT", "EXAMEN"},
	}

	for _, c := range cases {
		event := celcat.CalendarEvent{
			ID:            "-300",
			Start:         datetime(2024, time.September, 2, 8, 0),
			End:           datetimePtr(2024, time.September, 2, 10, 0),
			Description:   c.description,
			EventCategory: c.category,
		}

		document, err := Generate([]celcat.CalendarEvent{event})
		if err != nil {
			t.Fatal(err)
		}

		events := vevents(decode(t, document))
		require.Len(t, events, 1)
		require.Equal(t, c.expected, events[0].Props.Get(ical.PropSummary).Value, c.category)
	}
}

func TestMixedEvents(t *testing.T) {
	events := []celcat.CalendarEvent{
		{
			ID:            "-1",
			Start:         datetime(2024, time.September, 2, 8, 0),
			End:           datetimePtr(2024, time.September, 2, 10, 0),
			EventCategory: "CM",
			Description:   "ANALYSE CM\r\nAMPHI A\r\nM. MARTIN",
		},
		{
			ID:            "-2",
			Start:         datetime(2024, time.September, 3, 0, 0),
			AllDay:        true,
			EventCategory: "Divers",
		},
		{
			// open-ended, dropped
			ID:            "-3",
			Start:         datetime(2024, time.September, 4, 8, 0),
			EventCategory: "TP",
		},
	}

	document, err := Generate(events)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, vevents(decode(t, document)), 2)
}
