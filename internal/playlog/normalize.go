package playlog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source timestamps arrive in UTC with or without sub-second precision,
// e.g. "2019-08-04T08:40:30.880Z" or "2019-08-04T08:40:30Z".
const (
	sourceLayout     = "2006-01-02T15:04:05Z"
	sourceLayoutFrac = "2006-01-02T15:04:05.999999999Z"
	localLayout      = "2006-01-02T15:04:05-0700"
	localLayoutFrac  = "2006-01-02T15:04:05.000000-0700"
)

// ErrMalformedTimestamp is returned when a timestamp or date matches none
// of the supported formats.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// LocalTime is a timezone-qualified play time. Its calendar date is the
// single authority for which day bucket the play belongs to. The
// fractional-seconds style of the source timestamp is preserved when
// rendering.
type LocalTime struct {
	t        time.Time
	withFrac bool
}

// NormalizeTimestamp converts a source timestamp plus a fixed hour offset
// from UTC into a LocalTime in that zone. The wall clock shifts by
// offsetHours; the instant is unchanged.
//
// The fractional style is decided by inspecting the value, not by trying
// layouts in turn: time.Parse accepts a fractional second even when the
// layout has none, so parse order cannot tell the two apart.
func NormalizeTimestamp(raw string, offsetHours int) (LocalTime, error) {
	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)

	withFrac := strings.Contains(raw, ".")
	layout := sourceLayout
	if withFrac {
		layout = sourceLayoutFrac
	}

	t, err := time.Parse(layout, raw)
	if err != nil {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}
	return LocalTime{t: t.In(zone), withFrac: withFrac}, nil
}

// ParseLocalTime parses a string previously produced by LocalTime.String.
// The fractional style is detected the same way as in NormalizeTimestamp
// so fractional values round-trip byte for byte.
func ParseLocalTime(s string) (LocalTime, error) {
	withFrac := strings.Contains(s, ".")
	layout := localLayout
	if withFrac {
		layout = localLayoutFrac
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return LocalTime{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	return LocalTime{t: t, withFrac: withFrac}, nil
}

// Time returns the underlying instant in the local zone.
func (lt LocalTime) Time() time.Time {
	return lt.t
}

// Date returns the local calendar date as an ISO day key (YYYY-MM-DD).
func (lt LocalTime) Date() string {
	return lt.t.Format(time.DateOnly)
}

// String renders the local timestamp, keeping fractional seconds only when
// the source had them.
func (lt LocalTime) String() string {
	if lt.withFrac {
		return lt.t.Format(localLayoutFrac)
	}
	return lt.t.Format(localLayout)
}

// ParseDate validates an ISO day key.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, date)
	}
	return t, nil
}
