package dto

import (
	"time"

	"medlink-booking/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

type AvailabilityWindowRequest struct {
	Weekday     *int   `json:"weekday" validate:"required,gte=0,lte=6"`
	StartTime   string `json:"start_time" validate:"required,slot"` // Format: HH:mm
	EndTime     string `json:"end_time" validate:"required,slot"`   // Format: HH:mm
	SlotMinutes int    `json:"slot_minutes" validate:"required,gte=5,lte=240"`
}

// ReplaceAvailabilityRequest publishes the whole weekly template. An empty
// list falls back to the hospital default hours.
type ReplaceAvailabilityRequest struct {
	Windows []AvailabilityWindowRequest `json:"windows" validate:"omitempty,dive"`
}

// Response DTOs

type AvailabilityWindowResponse struct {
	ID          uuid.UUID `json:"id"`
	Weekday     int       `json:"weekday"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	SlotMinutes int       `json:"slot_minutes"`
	CreatedAt   time.Time `json:"created_at"`
}

type AvailabilityResponse struct {
	DoctorID uuid.UUID                    `json:"doctor_id"`
	Windows  []AvailabilityWindowResponse `json:"windows"`
	// UsesDefault is true when the doctor has not published a template.
	UsesDefault bool `json:"uses_default"`
}

type SlotListResponse struct {
	DoctorID uuid.UUID         `json:"doctor_id"`
	Date     string            `json:"date"`
	Slots    []entity.TimeSlot `json:"slots"`
}

type WaitTimeResponse struct {
	DoctorID          uuid.UUID `json:"doctor_id"`
	Date              string    `json:"date"`
	PatientsAhead     int64     `json:"patients_ahead"`
	EstimatedMinutes  int64     `json:"estimated_minutes"`
	MinutesPerPatient int       `json:"minutes_per_patient"`
	ComputedAt        time.Time `json:"computed_at"`
}
