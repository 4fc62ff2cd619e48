package entity

import (
	"time"

	"github.com/google/uuid"
)

// WaitTimeEstimate is the aggregate read model exposed to the assistant.
type WaitTimeEstimate struct {
	DoctorID          uuid.UUID `json:"doctor_id"`
	Date              string    `json:"date"`
	PatientsAhead     int64     `json:"patients_ahead"`
	EstimatedMinutes  int64     `json:"estimated_minutes"`
	MinutesPerPatient int       `json:"minutes_per_patient"`
	ComputedAt        time.Time `json:"computed_at"`
}
