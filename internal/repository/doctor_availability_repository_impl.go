package repository

import (
	"medlink-booking/internal/domain/entity"
	domainRepo "medlink-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorAvailabilityRepository struct{}

func NewDoctorAvailabilityRepository() domainRepo.DoctorAvailabilityRepository {
	return &doctorAvailabilityRepository{}
}

func (r *doctorAvailabilityRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorAvailability, error) {
	var windows []entity.DoctorAvailability
	err := db.Where("doctor_id = ?", doctorID).
		Order("weekday ASC, start_time ASC").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *doctorAvailabilityRepository) FindByDoctorAndWeekday(db *gorm.DB, doctorID uuid.UUID, weekday int) ([]entity.DoctorAvailability, error) {
	var windows []entity.DoctorAvailability
	err := db.Where("doctor_id = ? AND weekday = ?", doctorID, weekday).
		Order("start_time ASC").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *doctorAvailabilityRepository) CountByDoctorID(db *gorm.DB, doctorID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&entity.DoctorAvailability{}).Where("doctor_id = ?", doctorID).Count(&count).Error
	return count, err
}

func (r *doctorAvailabilityRepository) ReplaceAll(db *gorm.DB, doctorID uuid.UUID, windows []entity.DoctorAvailability) error {
	if err := db.Where("doctor_id = ?", doctorID).Delete(&entity.DoctorAvailability{}).Error; err != nil {
		return err
	}
	if len(windows) == 0 {
		return nil
	}
	for i := range windows {
		windows[i].DoctorID = doctorID
	}
	return db.Create(&windows).Error
}
