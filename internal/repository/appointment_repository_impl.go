package repository

import (
	"errors"
	"time"

	"medlink-booking/internal/domain/entity"
	domainRepo "medlink-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

var activeStatuses = []entity.AppointmentStatus{entity.StatusPendingPayment, entity.StatusConfirmed}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindActiveBySlot(db *gorm.DB, doctorID uuid.UUID, date, slot string) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("doctor_id = ? AND appointment_date = ? AND slot_time = ? AND status IN ?",
		doctorID, date, slot, activeStatuses).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindActiveByDoctorAndDate(db *gorm.DB, doctorID uuid.UUID, date string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("doctor_id = ? AND appointment_date = ? AND status IN ?", doctorID, date, activeStatuses).
		Order("slot_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("patient_id = ?", patientID).
		Order("appointment_date DESC, slot_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID, date string) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.Where("doctor_id = ?", doctorID)
	if date != "" {
		query = query.Where("appointment_date = ?", date)
	}
	err := query.Order("appointment_date ASC, slot_time ASC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus, cancelReason string, now time.Time) (int64, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	if cancelReason != "" {
		updates["cancel_reason"] = cancelReason
	}
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) ConfirmHold(db *gorm.DB, id uuid.UUID, now time.Time) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ? AND hold_expires_at > ?", id, entity.StatusPendingPayment, now).
		Updates(map[string]interface{}{
			"status":     entity.StatusConfirmed,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) FindExpiredHolds(db *gorm.DB, now time.Time, limit int) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("status = ? AND hold_expires_at <= ?", entity.StatusPendingPayment, now).
		Order("hold_expires_at ASC").
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) CountConfirmedFrom(db *gorm.DB, doctorID uuid.UUID, date, fromSlot string) (int64, error) {
	var count int64
	err := db.Model(&entity.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND slot_time >= ? AND status = ?",
			doctorID, date, fromSlot, entity.StatusConfirmed).
		Count(&count).Error
	return count, err
}
