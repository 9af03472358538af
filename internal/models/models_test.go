package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	d, ok := ParseWeekday("wednesday")
	require.True(t, ok)
	assert.Equal(t, Wednesday, d)

	_, ok = ParseWeekday("Saturday")
	assert.False(t, ok)
	assert.False(t, Weekday("Sunday").Valid())
}

func TestCatalogFilterMatches(t *testing.T) {
	course := Course{ID: 1, Code: "CS101", Name: "Introduction to Programming", Instructor: "Dr. Sarah Johnson", Day: Monday}

	assert.True(t, CatalogFilter{}.Matches(course))
	assert.True(t, CatalogFilter{Search: "cs1"}.Matches(course))
	assert.True(t, CatalogFilter{Search: "programming"}.Matches(course))
	assert.True(t, CatalogFilter{Search: "johnson", Day: Monday}.Matches(course))
	assert.False(t, CatalogFilter{Day: Tuesday}.Matches(course))
	assert.False(t, CatalogFilter{Search: "physics"}.Matches(course))
}

func TestDropRequestJSONShape(t *testing.T) {
	resolved := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	req := DropRequest{
		ID:          "req-1",
		Course:      Course{ID: 1, Code: "CS101", Credits: 3, Day: Monday, StartTime: "09:00", EndTime: "10:30"},
		StudentID:   "stu-1",
		StudentName: "Student",
		RequestedAt: resolved.Add(-time.Hour),
		Status:      DropRequestApproved,
		ResolvedAt:  &resolved,
		ResolvedBy:  "admin-1",
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"id", "course", "studentId", "studentName", "requestedAt", "status", "resolvedAt"} {
		assert.Contains(t, fields, key)
	}
	course := fields["course"].(map[string]interface{})
	for _, key := range []string{"id", "code", "name", "instructor", "credits", "day", "startTime", "endTime"} {
		assert.Contains(t, course, key)
	}
}

func TestDropRequestFilterMatches(t *testing.T) {
	req := DropRequest{StudentID: "s1", Course: Course{ID: 4}, Status: DropRequestPending}
	assert.True(t, DropRequestFilter{StudentID: "s1"}.Matches(req))
	assert.True(t, DropRequestFilter{CourseID: 4, Status: []DropRequestStatus{DropRequestPending}}.Matches(req))
	assert.False(t, DropRequestFilter{Status: []DropRequestStatus{DropRequestApproved, DropRequestRejected}}.Matches(req))
	assert.False(t, DropRequestFilter{StudentID: "s2"}.Matches(req))
	assert.False(t, DropRequestPending.Terminal())
	assert.True(t, DropRequestCancelled.Terminal())
}

func TestCourseLoadAggregates(t *testing.T) {
	courses := []Course{
		{Code: "CS101", Instructor: "Dr. Smith", Credits: 3, Day: Monday, StartTime: "09:00", EndTime: "10:30"},
		{Code: "CS102", Instructor: "Dr. Smith", Credits: 4, Day: Monday, StartTime: "13:00", EndTime: "15:00"},
		{Code: "MATH201", Instructor: "Dr. Lee", Credits: 3, Day: Thursday, StartTime: "08:00", EndTime: "09:00"},
	}

	assert.Equal(t, map[Weekday]int{Monday: 2, Tuesday: 0, Wednesday: 0, Thursday: 1, Friday: 0}, CoursesByDay(courses))
	assert.Equal(t, 90+120+60, WeeklyMinutes(courses))
	assert.Equal(t, 2, DistinctInstructors(courses))

	assert.Len(t, CoursesByDay(nil), len(Weekdays))
	assert.Zero(t, WeeklyMinutes([]Course{{StartTime: "9am", EndTime: "10am"}}))
}
