package usecase

import (
	"context"
	"fmt"

	"medlink-booking/internal/converter"
	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/domain/repository"
	"medlink-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type WaitTimeUsecase interface {
	EstimateWaitTime(ctx context.Context, doctorID uuid.UUID, date string) (*dto.WaitTimeResponse, error)
}

type waitTimeUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	doctorProfileRepo repository.DoctorProfileRepository
	appointmentRepo   repository.AppointmentRepository
	cache             service.WaitTimeCache
	bookingManager    *service.BookingManager
	minutesPerPatient int
}

func NewWaitTimeUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorProfileRepo repository.DoctorProfileRepository,
	appointmentRepo repository.AppointmentRepository,
	cache service.WaitTimeCache,
	bookingManager *service.BookingManager,
	minutesPerPatient int,
) WaitTimeUsecase {
	if minutesPerPatient <= 0 {
		minutesPerPatient = 15
	}
	return &waitTimeUsecase{
		db:                db,
		log:               log,
		doctorProfileRepo: doctorProfileRepo,
		appointmentRepo:   appointmentRepo,
		cache:             cache,
		bookingManager:    bookingManager,
		minutesPerPatient: minutesPerPatient,
	}
}

// EstimateWaitTime counts the confirmed visits still ahead on date (today when
// empty) and multiplies by the average consultation length. Read only; the
// result is cached briefly.
func (u *waitTimeUsecase) EstimateWaitTime(ctx context.Context, doctorID uuid.UUID, date string) (*dto.WaitTimeResponse, error) {
	now := u.bookingManager.LocalNow()
	today := now.Format(entity.DateLayout)
	if date == "" {
		date = today
	}
	if _, err := parseDate(date); err != nil {
		return nil, err
	}

	if cached, err := u.cache.Get(ctx, doctorID, date); err != nil {
		u.log.Warnf("Failed to read wait time cache: %+v", err)
	} else if cached != nil {
		return converter.WaitTimeToResponse(cached), nil
	}

	db := u.db.WithContext(ctx)

	doctor, err := u.doctorProfileRepo.FindByUserID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	var ahead int64
	switch {
	case date < today:
		// The day is over.
	case date == today:
		ahead, err = u.appointmentRepo.CountConfirmedFrom(db, doctorID, date, now.Format(entity.SlotLayout))
	default:
		ahead, err = u.appointmentRepo.CountConfirmedFrom(db, doctorID, date, "00:00")
	}
	if err != nil {
		u.log.Warnf("Failed to count confirmed appointments: %+v", err)
		return nil, fmt.Errorf("count confirmed appointments: %w", err)
	}

	estimate := &entity.WaitTimeEstimate{
		DoctorID:          doctorID,
		Date:              date,
		PatientsAhead:     ahead,
		EstimatedMinutes:  ahead * int64(u.minutesPerPatient),
		MinutesPerPatient: u.minutesPerPatient,
		ComputedAt:        now.UTC(),
	}

	if err := u.cache.Set(ctx, estimate); err != nil {
		u.log.Warnf("Failed to cache wait time: %+v", err)
	}

	return converter.WaitTimeToResponse(estimate), nil
}
