package models

import (
	"fmt"
	"strings"

	"github.com/noah-isme/course-registration-api/pkg/clock"
)

// Weekday is a teaching day of the fixed five-day week.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
)

// Weekdays lists the teaching days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// ParseWeekday resolves a day name case-insensitively.
func ParseWeekday(raw string) (Weekday, bool) {
	for _, d := range Weekdays {
		if strings.EqualFold(string(d), strings.TrimSpace(raw)) {
			return d, true
		}
	}
	return "", false
}

// Valid reports whether the day belongs to the teaching week.
func (d Weekday) Valid() bool {
	_, ok := ParseWeekday(string(d))
	return ok
}

// Course is a catalog offering meeting once a week.
type Course struct {
	ID         int64   `json:"id" yaml:"id"`
	Code       string  `json:"code" yaml:"code"`
	Name       string  `json:"name" yaml:"name"`
	Instructor string  `json:"instructor" yaml:"instructor"`
	Credits    int     `json:"credits" yaml:"credits"`
	Day        Weekday `json:"day" yaml:"day"`
	StartTime  string  `json:"startTime" yaml:"startTime"`
	EndTime    string  `json:"endTime" yaml:"endTime"`
}

// Interval returns the parsed meeting time.
func (c Course) Interval() (clock.Interval, error) {
	return clock.ParseInterval(c.StartTime, c.EndTime)
}

// Label renders a short human readable description such as "CS101 on Monday".
func (c Course) Label() string {
	return fmt.Sprintf("%s on %s", c.Code, c.Day)
}

// TotalCredits sums the credits of the provided courses.
func TotalCredits(courses []Course) int {
	total := 0
	for _, c := range courses {
		total += c.Credits
	}
	return total
}

// CatalogFilter narrows catalog listings.
type CatalogFilter struct {
	Search   string
	Day      Weekday
	Page     int
	PageSize int
}

// Matches applies search and day filters to a course.
func (f CatalogFilter) Matches(c Course) bool {
	if f.Day != "" && c.Day != f.Day {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Code), term) ||
		strings.Contains(strings.ToLower(c.Instructor), term)
}

// CatalogEntry annotates a course with the viewing student's registration state.
type CatalogEntry struct {
	Course
	Registered    bool    `json:"registered"`
	Conflict      bool    `json:"conflict"`
	ConflictsWith *Course `json:"conflictsWith,omitempty"`
}

// ConflictResult reports the outcome of a conflict check.
type ConflictResult struct {
	HasConflict       bool    `json:"hasConflict"`
	ConflictingCourse *Course `json:"conflictingCourse,omitempty"`
}

// TimeConflictError is returned when a candidate course overlaps a registered one.
type TimeConflictError struct {
	Candidate   Course `json:"candidate"`
	Conflicting Course `json:"conflicting"`
}

// Error implements the error interface.
func (e *TimeConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s conflicts with %s %s-%s", e.Candidate.Code, e.Conflicting.Label(), e.Conflicting.StartTime, e.Conflicting.EndTime)
}
