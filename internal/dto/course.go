package dto

import "github.com/noah-isme/course-registration-api/internal/models"

// CourseDraft is the admin payload for creating or editing a catalog course.
type CourseDraft struct {
	Code       string `json:"code" validate:"required,max=16"`
	Name       string `json:"name" validate:"required,max=128"`
	Instructor string `json:"instructor" validate:"required,max=128"`
	Credits    int    `json:"credits" validate:"required,min=1,max=6"`
	Day        string `json:"day" validate:"required,weekday"`
	StartTime  string `json:"startTime" validate:"required"`
	EndTime    string `json:"endTime" validate:"required"`
}

// ToCourse builds a course with the provided id.
func (d CourseDraft) ToCourse(id int64) models.Course {
	day, _ := models.ParseWeekday(d.Day)
	return models.Course{
		ID:         id,
		Code:       d.Code,
		Name:       d.Name,
		Instructor: d.Instructor,
		Credits:    d.Credits,
		Day:        day,
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
	}
}

// RegisterCourseRequest asks to register the caller for a catalog course.
type RegisterCourseRequest struct {
	CourseID int64 `json:"courseId" validate:"required,min=1"`
}

// DropCourseRequest asks an administrator to drop a registered course.
type DropCourseRequest struct {
	CourseID int64 `json:"courseId" validate:"required,min=1"`
}

// CreateSessionRequest starts a stub session for a role.
type CreateSessionRequest struct {
	Role   string `json:"role" validate:"required,oneof=STUDENT ADMIN student admin"`
	Name   string `json:"name" validate:"omitempty,max=128"`
	UserID string `json:"userId" validate:"omitempty,max=64"`
}
