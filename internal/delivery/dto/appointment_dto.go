package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type ClaimSlotRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	Date     string    `json:"date" validate:"required,date"` // Format: YYYY-MM-DD
	Slot     string    `json:"slot" validate:"required,slot"` // Format: HH:mm
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              uuid.UUID       `json:"id"`
	PatientID       uuid.UUID       `json:"patient_id"`
	DoctorID        uuid.UUID       `json:"doctor_id"`
	PatientName     string          `json:"patient_name"`
	DoctorName      string          `json:"doctor_name"`
	Specialty       string          `json:"specialty"`
	AppointmentDate string          `json:"appointment_date"`
	SlotTime        string          `json:"slot_time"`
	Status          string          `json:"status"`
	Fee             decimal.Decimal `json:"fee"`
	HoldExpiresAt   *time.Time      `json:"hold_expires_at,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
