package usecase

import (
	"context"
	"fmt"

	"medlink-booking/internal/converter"
	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/domain/repository"
	"medlink-booking/internal/service"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type BookingUsecase interface {
	ClaimSlot(ctx context.Context, actor entity.Actor, req *dto.ClaimSlotRequest) (*dto.AppointmentResponse, error)
}

type bookingUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	userRepo          repository.UserRepository
	doctorProfileRepo repository.DoctorProfileRepository
	bookingManager    *service.BookingManager
	template          *slotTemplate
	fee               decimal.Decimal
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	availabilityRepo repository.DoctorAvailabilityRepository,
	bookingManager *service.BookingManager,
	defaultSlots []string,
	fee decimal.Decimal,
) BookingUsecase {
	return &bookingUsecase{
		db:                db,
		log:               log,
		userRepo:          userRepo,
		doctorProfileRepo: doctorProfileRepo,
		bookingManager:    bookingManager,
		template:          newSlotTemplate(availabilityRepo, defaultSlots),
		fee:               fee,
	}
}

// ClaimSlot validates the request against the doctor's calendar and hands the
// claim to the booking manager. The fee is fixed on the appointment here.
func (u *bookingUsecase) ClaimSlot(ctx context.Context, actor entity.Actor, req *dto.ClaimSlotRequest) (*dto.AppointmentResponse, error) {
	if !actor.IsPatient() {
		return nil, service.ErrNotAuthorized
	}

	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := validateSlot(req.Slot); err != nil {
		return nil, err
	}

	db := u.db.WithContext(ctx)

	doctor, err := u.doctorProfileRepo.FindByUserID(db, req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if doctor == nil || !doctor.User.Active() {
		return nil, ErrDoctorNotFound
	}

	patient, err := u.userRepo.FindByID(db, actor.UserID)
	if err != nil {
		u.log.Warnf("Failed to find patient: %+v", err)
		return nil, err
	}
	if patient == nil || patient.RoleID != entity.RoleIDPatient {
		return nil, ErrPatientNotFound
	}

	inTemplate, err := u.template.contains(db, req.DoctorID, day, req.Slot)
	if err != nil {
		u.log.Warnf("Failed to load slot template: %+v", err)
		return nil, fmt.Errorf("load slot template: %w", err)
	}
	if !inTemplate {
		return nil, service.ErrSlotUnavailable
	}

	appointment, err := u.bookingManager.ClaimSlot(ctx, actor, service.ClaimRequest{
		DoctorID:    req.DoctorID,
		PatientID:   actor.UserID,
		Date:        req.Date,
		Slot:        req.Slot,
		Fee:         u.fee,
		PatientName: patient.FullName,
		DoctorName:  doctor.User.FullName,
		Specialty:   doctor.Specialty,
	})
	if err != nil {
		return nil, err
	}

	return converter.AppointmentToResponse(appointment), nil
}
