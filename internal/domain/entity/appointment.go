package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPendingPayment AppointmentStatus = "PENDING_PAYMENT"
	StatusConfirmed      AppointmentStatus = "CONFIRMED"
	StatusCancelled      AppointmentStatus = "CANCELLED"
	StatusCompleted      AppointmentStatus = "COMPLETED"
)

// Cancel reasons stored on the appointment row.
const (
	CancelReasonHoldExpired     = "hold_expired"
	CancelReasonPaymentDeclined = "payment_declined"
	CancelReasonByPatient       = "cancelled_by_patient"
	CancelReasonByDoctor        = "cancelled_by_doctor"
)

const (
	DateLayout = "2006-01-02"
	SlotLayout = "15:04"
)

// Appointment is a claim on a (doctor, date, slot) tuple.
// The partial unique index allows one PENDING_PAYMENT or CONFIRMED row per tuple.
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uq_appointments_active_slot,where:status <> 'CANCELLED' AND status <> 'COMPLETED';index:idx_appointments_doctor_date" json:"doctor_id"`
	AppointmentDate string            `gorm:"type:varchar(10);not null;uniqueIndex:uq_appointments_active_slot;index:idx_appointments_doctor_date" json:"appointment_date"`
	SlotTime        string            `gorm:"type:varchar(5);not null;uniqueIndex:uq_appointments_active_slot" json:"slot_time"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Fee             decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"fee"`
	HoldExpiresAt   *time.Time        `gorm:"index" json:"hold_expires_at,omitempty"`
	CancelReason    string            `gorm:"type:varchar(50)" json:"cancel_reason,omitempty"`
	PatientName     string            `gorm:"type:varchar(255);not null" json:"patient_name"`
	DoctorName      string            `gorm:"type:varchar(255);not null" json:"doctor_name"`
	Specialty       string            `gorm:"type:varchar(100);not null" json:"specialty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	// Relationships
	Payments []Payment `gorm:"foreignKey:AppointmentID" json:"payments,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// HoldExpired reports whether a pending claim has outlived its hold window.
func (a *Appointment) HoldExpired(now time.Time) bool {
	return a.Status == StatusPendingPayment && a.HoldExpiresAt != nil && !now.Before(*a.HoldExpiresAt)
}

// OccupiesSlot reports whether the appointment currently blocks its slot.
// An expired pending claim never occupies, even before the sweeper cancels it.
func (a *Appointment) OccupiesSlot(now time.Time) bool {
	switch a.Status {
	case StatusConfirmed:
		return true
	case StatusPendingPayment:
		return !a.HoldExpired(now)
	default:
		return false
	}
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type transitionKey struct {
	from AppointmentStatus
	to   AppointmentStatus
}

// allowedTransitions is the complete lifecycle. Any pair not listed is invalid.
var allowedTransitions = map[transitionKey][]string{
	{StatusPendingPayment, StatusConfirmed}: {RoleSystem},
	{StatusPendingPayment, StatusCancelled}: {RoleSystem},
	{StatusConfirmed, StatusCancelled}:      {RolePatient, RoleDoctor},
	{StatusConfirmed, StatusCompleted}:      {RoleDoctor},
}

// IsTransitionAllowed reports whether from -> to appears in the lifecycle table.
func IsTransitionAllowed(from, to AppointmentStatus) bool {
	_, ok := allowedTransitions[transitionKey{from, to}]
	return ok
}

// CanActorTransition reports whether role may perform from -> to.
// Ownership of the appointment is checked separately.
func CanActorTransition(role string, from, to AppointmentStatus) bool {
	for _, r := range allowedTransitions[transitionKey{from, to}] {
		if r == role {
			return true
		}
	}
	return false
}

// IsOwnedBy reports whether the actor is the appointment's patient or assigned doctor.
// The system actor owns every appointment.
func (a *Appointment) IsOwnedBy(actor Actor) bool {
	switch actor.Role {
	case RoleSystem:
		return true
	case RolePatient:
		return a.PatientID == actor.UserID
	case RoleDoctor:
		return a.DoctorID == actor.UserID
	default:
		return false
	}
}
