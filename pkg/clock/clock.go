// Package clock parses wall-clock times and compares half-open time intervals within a day.
package clock

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

// MinutesPerDay bounds a valid minute-of-day value.
const MinutesPerDay = 24 * 60

// ToMinutes converts "HH:MM" (24-hour) into minutes since midnight.
func ToMinutes(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, invalidFormat(value)
	}
	hours, ok := parseComponent(parts[0], 1)
	if !ok || hours > 23 {
		return 0, invalidFormat(value)
	}
	minutes, ok := parseComponent(parts[1], 2)
	if !ok || minutes > 59 {
		return 0, invalidFormat(value)
	}
	return hours*60 + minutes, nil
}

// parseComponent accepts minDigits..2 ASCII digits.
func parseComponent(raw string, minDigits int) (int, bool) {
	if len(raw) < minDigits || len(raw) > 2 {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func invalidFormat(value string) error {
	return appErrors.Clone(appErrors.ErrInvalidFormat, fmt.Sprintf("invalid time %q: expected HH:MM", value))
}

// FormatMinutes renders minutes since midnight as "HH:MM".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) share any instant.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// Interval is a half-open range of minutes within a single day.
type Interval struct {
	Start int
	End   int
}

// ParseInterval parses start and end times and requires start < end.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start time %s must be before end time %s", start, end))
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps reports whether two intervals overlap.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Contains reports whether minute falls inside the interval.
func (i Interval) Contains(minute int) bool {
	return minute >= i.Start && minute < i.End
}

// Duration returns the interval length in minutes.
func (i Interval) Duration() int {
	return i.End - i.Start
}

func (i Interval) String() string {
	return FormatMinutes(i.Start) + "-" + FormatMinutes(i.End)
}
