package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"medlink-booking/internal/converter"
	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/domain/repository"
	"medlink-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidAvailability = errors.New("availability window is invalid")
	ErrAvailabilityOverlap = errors.New("availability windows overlap on the same weekday")
)

type SlotCalendarUsecase interface {
	ListSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.SlotListResponse, error)
	GetAvailability(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityResponse, error)
	ReplaceAvailability(ctx context.Context, actor entity.Actor, req *dto.ReplaceAvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type slotCalendarUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	doctorProfileRepo repository.DoctorProfileRepository
	appointmentRepo   repository.AppointmentRepository
	availabilityRepo  repository.DoctorAvailabilityRepository
	auditService      service.AuditService
	bookingManager    *service.BookingManager
	template          *slotTemplate
}

func NewSlotCalendarUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorProfileRepo repository.DoctorProfileRepository,
	appointmentRepo repository.AppointmentRepository,
	availabilityRepo repository.DoctorAvailabilityRepository,
	auditService service.AuditService,
	bookingManager *service.BookingManager,
	defaultSlots []string,
) SlotCalendarUsecase {
	return &slotCalendarUsecase{
		db:                db,
		log:               log,
		doctorProfileRepo: doctorProfileRepo,
		appointmentRepo:   appointmentRepo,
		availabilityRepo:  availabilityRepo,
		auditService:      auditService,
		bookingManager:    bookingManager,
		template:          newSlotTemplate(availabilityRepo, defaultSlots),
	}
}

// ListSlots returns the doctor's template slots for date, ordered by time.
// A slot is unavailable while a confirmed appointment or a pending one with a
// live hold sits on it. Nothing is written.
func (u *slotCalendarUsecase) ListSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.SlotListResponse, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	db := u.db.WithContext(ctx)

	doctor, err := u.doctorProfileRepo.FindByUserID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if doctor == nil || !doctor.User.Active() {
		return nil, ErrDoctorNotFound
	}

	times, err := u.template.slotsFor(db, doctorID, day)
	if err != nil {
		u.log.Warnf("Failed to load slot template: %+v", err)
		return nil, fmt.Errorf("load slot template: %w", err)
	}

	active, err := u.appointmentRepo.FindActiveByDoctorAndDate(db, doctorID, date)
	if err != nil {
		u.log.Warnf("Failed to find active appointments: %+v", err)
		return nil, fmt.Errorf("find active appointments: %w", err)
	}

	now := u.bookingManager.Now()
	occupied := make(map[string]struct{}, len(active))
	for i := range active {
		if active[i].OccupiesSlot(now) {
			occupied[active[i].SlotTime] = struct{}{}
		}
	}

	slots := make([]entity.TimeSlot, 0, len(times))
	for _, t := range times {
		_, taken := occupied[t]
		slots = append(slots, entity.TimeSlot{Time: t, IsAvailable: !taken})
	}

	return &dto.SlotListResponse{
		DoctorID: doctorID,
		Date:     date,
		Slots:    slots,
	}, nil
}

func (u *slotCalendarUsecase) GetAvailability(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityResponse, error) {
	db := u.db.WithContext(ctx)

	doctor, err := u.doctorProfileRepo.FindByUserID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	windows, err := u.availabilityRepo.FindByDoctorID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find availability: %+v", err)
		return nil, err
	}

	return &dto.AvailabilityResponse{
		DoctorID:    doctorID,
		Windows:     converter.AvailabilitiesToResponses(windows),
		UsesDefault: len(windows) == 0,
	}, nil
}

// ReplaceAvailability swaps the calling doctor's weekly template in one
// transaction. Existing appointments are left untouched.
func (u *slotCalendarUsecase) ReplaceAvailability(ctx context.Context, actor entity.Actor, req *dto.ReplaceAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	if !actor.IsDoctor() {
		return nil, service.ErrNotAuthorized
	}

	windows := converter.AvailabilityRequestsToEntities(req.Windows)
	if err := validateAvailability(windows); err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	doctor, err := u.doctorProfileRepo.FindByUserID(tx, actor.UserID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	previous, err := u.availabilityRepo.FindByDoctorID(tx, actor.UserID)
	if err != nil {
		u.log.Warnf("Failed to find availability: %+v", err)
		return nil, err
	}

	if err := u.availabilityRepo.ReplaceAll(tx, actor.UserID, windows); err != nil {
		u.log.Warnf("Failed to replace availability: %+v", err)
		return nil, fmt.Errorf("replace availability: %w", err)
	}

	if err := u.auditService.LogUpdate(ctx, tx, actor, entity.AuditActionAvailabilityReplace, entity.AuditEntityAvailability, actor.UserID.String(),
		converter.AvailabilitiesToResponses(previous),
		converter.AvailabilitiesToResponses(windows),
	); err != nil {
		return nil, fmt.Errorf("audit availability: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Availability replaced: doctor=%s, windows=%d", actor.UserID, len(windows))

	return &dto.AvailabilityResponse{
		DoctorID:    actor.UserID,
		Windows:     converter.AvailabilitiesToResponses(windows),
		UsesDefault: len(windows) == 0,
	}, nil
}

// validateAvailability checks every window on its own and then looks for
// overlaps between windows of the same weekday.
func validateAvailability(windows []entity.DoctorAvailability) error {
	type span struct{ start, end int }
	byWeekday := make(map[int][]span)

	for i := range windows {
		w := &windows[i]
		if w.Weekday < 0 || w.Weekday > 6 {
			return ErrInvalidAvailability
		}
		if w.SlotMinutes < entity.MinSlotMinutes || w.SlotMinutes > entity.MaxSlotMinutes {
			return ErrInvalidAvailability
		}
		if validateSlot(w.StartTime) != nil || validateSlot(w.EndTime) != nil {
			return ErrInvalidAvailability
		}
		start, end, ok := w.Minutes()
		if !ok || start >= end || end-start < w.SlotMinutes {
			return ErrInvalidAvailability
		}
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], span{start, end})
	}

	for _, spans := range byWeekday {
		slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })
		for i := 1; i < len(spans); i++ {
			if spans[i].start < spans[i-1].end {
				return ErrAvailabilityOverlap
			}
		}
	}
	return nil
}
