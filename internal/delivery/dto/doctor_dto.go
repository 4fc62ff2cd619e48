package dto

import (
	"github.com/google/uuid"
)

// Request DTOs

// UpdateDoctorProfileRequest is the doctor's self-service profile edit.
// Changing the password requires the current one.
type UpdateDoctorProfileRequest struct {
	Bio             string `json:"bio" validate:"omitempty,max=2000"`
	ExperienceYears *int   `json:"experience_years" validate:"omitempty,gte=0,lte=70"`
	Password        string `json:"password" validate:"omitempty,min=6"`
	OldPassword     string `json:"old_password" validate:"required_with=Password"`
}

// Response DTOs

type DoctorProfileResponse struct {
	Specialty       string `json:"specialty"`
	Bio             string `json:"bio,omitempty"`
	ExperienceYears int    `json:"experience_years"`
}

type DoctorResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	Specialty       string    `json:"specialty"`
	Bio             string    `json:"bio,omitempty"`
	ExperienceYears int       `json:"experience_years"`
	IsActive        *bool     `json:"is_active"`
}

type DoctorListResponse struct {
	Doctors     []DoctorResponse `json:"doctors"`
	Specialties []string         `json:"specialties"`
	Total       int              `json:"total"`
}
