package validator

import (
	"time"

	"medlink-booking/internal/domain/entity"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterValidation("date", layoutValidator(entity.DateLayout))
	v.RegisterValidation("slot", layoutValidator(entity.SlotLayout))
	v.RegisterValidation("specialty", func(fl validator.FieldLevel) bool {
		return entity.IsKnownSpecialty(fl.Field().String())
	})
	return &CustomValidator{
		validator: v,
	}
}

// layoutValidator accepts strings that round-trip through the time layout,
// so "9:00" or "2025-6-1" are rejected.
func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		t, err := time.Parse(layout, value)
		return err == nil && t.Format(layout) == value
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "date":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			case "slot":
				errors[field] = field + " must be a time in HH:mm format"
			case "specialty":
				errors[field] = field + " must be one of the hospital specialties"
			case "dive":
				errors[field] = field + " contains an invalid entry"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
