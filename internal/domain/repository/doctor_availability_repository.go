package repository

import (
	"medlink-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorAvailabilityRepository interface {
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorAvailability, error)
	FindByDoctorAndWeekday(db *gorm.DB, doctorID uuid.UUID, weekday int) ([]entity.DoctorAvailability, error)
	CountByDoctorID(db *gorm.DB, doctorID uuid.UUID) (int64, error)
	// ReplaceAll swaps the doctor's whole weekly template. Callers run it in a transaction.
	ReplaceAll(db *gorm.DB, doctorID uuid.UUID, windows []entity.DoctorAvailability) error
}
