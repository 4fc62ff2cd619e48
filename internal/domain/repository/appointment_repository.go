package repository

import (
	"time"

	"medlink-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	// FindActiveBySlot returns the PENDING_PAYMENT or CONFIRMED row holding the
	// tuple, including a pending row whose hold already lapsed.
	FindActiveBySlot(db *gorm.DB, doctorID uuid.UUID, date, slot string) (*entity.Appointment, error)
	FindActiveByDoctorAndDate(db *gorm.DB, doctorID uuid.UUID, date string) ([]entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	// FindByDoctorID lists the doctor's appointments, restricted to date when non-empty.
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID, date string) ([]entity.Appointment, error)
	// UpdateStatus moves the row from -> to only if it is still in from.
	// Returns affected rows: 1 = moved, 0 = lost the race.
	UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus, cancelReason string, now time.Time) (int64, error)
	// ConfirmHold moves a pending row to CONFIRMED only while its hold is still valid at now.
	ConfirmHold(db *gorm.DB, id uuid.UUID, now time.Time) (int64, error)
	FindExpiredHolds(db *gorm.DB, now time.Time, limit int) ([]entity.Appointment, error)
	CountConfirmedFrom(db *gorm.DB, doctorID uuid.UUID, date, fromSlot string) (int64, error)
}
