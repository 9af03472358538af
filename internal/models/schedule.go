package models

// ScheduleSummary is a student's registered courses with their credit total.
type ScheduleSummary struct {
	StudentID    string   `json:"studentId"`
	Courses      []Course `json:"courses"`
	TotalCredits int      `json:"totalCredits"`
}

// Timetable is a weekly grid of hourly slots.
type Timetable struct {
	Days         []Weekday      `json:"days"`
	Rows         []TimetableRow `json:"rows"`
	TotalCredits int            `json:"totalCredits"`
}

// TimetableRow holds one time slot across the week.
type TimetableRow struct {
	Time  string          `json:"time"`
	Cells []TimetableCell `json:"cells"`
}

// TimetableCell is the course occupying a day at a slot, if any.
type TimetableCell struct {
	Day    Weekday `json:"day"`
	Course *Course `json:"course,omitempty"`
}

// Dashboard summarises the catalog and drop request counts for administrators.
type Dashboard struct {
	TotalCourses   int             `json:"totalCourses"`
	TotalCredits   int             `json:"totalCredits"`
	Instructors    int             `json:"instructors"`
	CoursesByDay   map[Weekday]int `json:"coursesByDay"`
	PendingDrops   int             `json:"pendingDrops"`
	ApprovedDrops  int             `json:"approvedDrops"`
	RejectedDrops  int             `json:"rejectedDrops"`
	CancelledDrops int             `json:"cancelledDrops"`
}

// StudentDashboard summarises a student's registered load.
type StudentDashboard struct {
	TotalCourses     int             `json:"totalCourses"`
	TotalCredits     int             `json:"totalCredits"`
	WeeklyMinutes    int             `json:"weeklyMinutes"`
	AvailableCourses int             `json:"availableCourses"`
	CoursesByDay     map[Weekday]int `json:"coursesByDay"`
	PendingDrops     int             `json:"pendingDrops"`
}

// CoursesByDay counts courses per teaching day. Every weekday is present, with zero when free.
func CoursesByDay(courses []Course) map[Weekday]int {
	counts := make(map[Weekday]int, len(Weekdays))
	for _, d := range Weekdays {
		counts[d] = 0
	}
	for _, c := range courses {
		counts[c.Day]++
	}
	return counts
}

// WeeklyMinutes sums the meeting time of courses. Courses with unparseable times count as zero.
func WeeklyMinutes(courses []Course) int {
	total := 0
	for _, c := range courses {
		if interval, err := c.Interval(); err == nil {
			total += interval.Duration()
		}
	}
	return total
}

// DistinctInstructors counts instructors teaching at least one course.
func DistinctInstructors(courses []Course) int {
	seen := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		seen[c.Instructor] = struct{}{}
	}
	return len(seen)
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
