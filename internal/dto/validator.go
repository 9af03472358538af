package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// NewValidator returns a validator with the course-specific rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseWeekday(fl.Field().String())
		return ok
	})
	return v
}
