package celcat

import (
	"strconv"
	"time"
)

// Wire formats exchanged with the portal.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// DateTime is a timezone-naive timestamp as the portal emits it.
type DateTime struct {
	time.Time
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Format(DateTimeLayout))), nil
}

func (d *DateTime) UnmarshalJSON(raw []byte) error {
	s, err := strconv.Unquote(string(raw))
	if err != nil {
		return err
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// DateRange is an inclusive date window.
type DateRange struct {
	Start time.Time
	End   time.Time
}
