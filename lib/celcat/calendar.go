package celcat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cyucal-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// CalendarView hints the display shape the portal should assume for a
// query. It does not change which events come back, only how the
// portal expects to render them.
type CalendarView string

const (
	ViewDay   CalendarView = "agendaDay"
	ViewWeek  CalendarView = "week"
	ViewMonth CalendarView = "month"
)

// ColorBy selects the portal's coloring scheme. The values are fixed
// upstream integer codes and mean nothing to anyone else.
type ColorBy int

const (
	ColorByEventCategory ColorBy = 3
	ColorBySubject       ColorBy = 6
)

// Coordinates of the campus sites the portal names in events.
var siteCoords = map[string][2]float64{
	"PARC":         {49.0350203, 2.0695627},
	"CHENES":       {49.03899, 2.0749315},
	"SAINT MARTIN": {49.043664, 2.0844198},
	"PORT":         {49.0326943, 2.0665439},
}

type CalendarEvent struct {
	ID    string    `json:"id"`
	Start DateTime  `json:"start"`
	End   *DateTime `json:"end"`
	// AllDay events never consult End. A timed event without an End is
	// open-ended, which is a distinct case from all-day.
	AllDay bool `json:"allDay"`
	// Description is stored verbatim as the portal sends it:
	// HTML-escaped, with CRLF or literal <br /> line breaks. Use
	// PlainDescription for readable text.
	Description     string   `json:"description"`
	BackgroundColor string   `json:"backgroundColor"`
	Department      string   `json:"department"`
	Faculty         string   `json:"faculty"`
	EventCategory   string   `json:"eventCategory"`
	Sites           []string `json:"sites"`
	Modules         []string `json:"modules"`
}

var linebreaksRegex = regexp.MustCompile(`(\r\n|<br />)+`)

// PlainDescription decodes the raw description into plain text:
// linebreak runs collapse to a single newline, surrounding whitespace
// is trimmed and HTML entities are resolved. Pure and repeatable, so
// decoding happens at read time rather than at fetch time.
func (e CalendarEvent) PlainDescription() string {
	collapsed := linebreaksRegex.ReplaceAllString(e.Description, "\n")
	return html.UnescapeString(strings.TrimSpace(collapsed))
}

// Coords returns the latitude/longitude of the event's first site, if
// it is one of the known campuses.
func (e CalendarEvent) Coords() (lat, lng float64, ok bool) {
	if len(e.Sites) == 0 {
		return 0, 0, false
	}
	coords, ok := siteCoords[e.Sites[0]]
	if !ok {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

type GetCalendarQuery struct {
	Session      Session
	FederationID string
	Start        time.Time
	End          time.Time
	View         CalendarView
	ColorBy      ColorBy
}

// GetCalendar fetches the account's events over a date range, both
// ends inclusive.
func (c *Client) GetCalendar(ctx context.Context, query GetCalendarQuery) ([]CalendarEvent, error) {
	ctx, span := tracer.Start(ctx, "celcat:GetCalendar")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"federationIds[]": query.FederationID,
			"resType":         "104",
			"start":           query.Start.Format(DateLayout),
			"end":             query.End.Format(DateLayout),
			"calView":         string(query.View),
			"colourScheme":    strconv.Itoa(int(query.ColorBy)),
		}).
		SetHeader("Cookie", string(query.Session)).
		Post("/Home/GetCalendarData")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch calendar data")
		return nil, fmt.Errorf("%w: fetch calendar data: %v", ErrRemote, err)
	}

	// an expired session comes back as a 200 with an empty or non-JSON
	// body instead of an error status
	body := bytes.TrimSpace(res.Body())
	if res.IsSuccess() && (len(body) == 0 || (body[0] != '[' && body[0] != '{')) {
		span.SetStatus(codes.Error, "session expired")
		return nil, ErrUnauthorized
	}

	var events []CalendarEvent
	if err := json.Unmarshal(body, &events); err != nil {
		span.SetStatus(codes.Error, "failed to decode calendar data")
		return nil, fmt.Errorf("%w: decode calendar data: %v", ErrRemote, err)
	}
	return events, nil
}

// The \r?\n is deliberate: the portal emits CRLF, but html parsing
// normalizes line endings inside script text.
var dateExtentsRegex = regexp.MustCompile(`(?m)var dateExtents = \{\r?\n *earliest: new Date\(([0-9]+), ([0-9]+) - 1, ([0-9]+)\),\r?\n *latest: new Date\(([0-9]+), ([0-9]+) - 1, ([0-9]+)\)\r?\n *\};`)

// GetLimits discovers the account's enrollment window. The portal
// silently returns empty or partial data for queries outside it, so
// whole-calendar fetches must resolve these bounds first rather than
// guess.
func (c *Client) GetLimits(ctx context.Context, session Session, federationID string) (DateRange, error) {
	ctx, span := tracer.Start(ctx, "celcat:GetLimits")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", string(session)).
		SetQueryParams(map[string]string{
			"CalendarViewType":          "Month",
			"CalendarDate":              "09/29/2024 00:00:00",
			"EntityType":                "Student",
			"FederationIds":             federationID,
			"CalendarViewStr":           "month",
			"EntityTypeAsIntegerString": "104",
			"IsValid":                   "True",
			"NotAllowedToBrowse":        "False",
		}).
		Get("/")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch month view")
		return DateRange{}, fmt.Errorf("%w: fetch month view: %v", ErrRemote, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse month view html")
		return DateRange{}, fmt.Errorf("%w: parse month view: %v", ErrRemote, err)
	}

	var groups []string
	for _, script := range htmlutil.InlineScripts(doc) {
		if m := dateExtentsRegex.FindStringSubmatch(script); m != nil {
			groups = m
			break
		}
	}
	if groups == nil {
		span.SetStatus(codes.Error, "missing date extents")
		return DateRange{}, fmt.Errorf("%w: missing date extents", ErrRemote)
	}

	start, err := parseExtentDate(groups[1], groups[2], groups[3])
	if err != nil {
		span.SetStatus(codes.Error, "invalid earliest date")
		return DateRange{}, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	end, err := parseExtentDate(groups[4], groups[5], groups[6])
	if err != nil {
		span.SetStatus(codes.Error, "invalid latest date")
		return DateRange{}, fmt.Errorf("%w: %v", ErrRemote, err)
	}

	return DateRange{Start: start, End: end}, nil
}

func parseExtentDate(year, month, day string) (time.Time, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, err
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, err
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, err
	}

	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components instead of failing
	if date.Year() != y || date.Month() != time.Month(m) || date.Day() != d {
		return time.Time{}, fmt.Errorf("invalid date %s-%s-%s", year, month, day)
	}
	return date, nil
}

// GetAllCalendar returns the account's events over its whole
// enrollment window.
func (c *Client) GetAllCalendar(ctx context.Context, session Session, federationID string, colorBy ColorBy) ([]CalendarEvent, error) {
	ctx, span := tracer.Start(ctx, "celcat:GetAllCalendar")
	defer span.End()

	limits, err := c.GetLimits(ctx, session, federationID)
	if err != nil {
		return nil, err
	}

	return c.GetCalendar(ctx, GetCalendarQuery{
		Session:      session,
		FederationID: federationID,
		Start:        limits.Start,
		End:          limits.End,
		View:         ViewMonth,
		ColorBy:      colorBy,
	})
}
