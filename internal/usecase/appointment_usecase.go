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

type AppointmentUsecase interface {
	UpdateAppointmentStatus(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	ListForPatient(ctx context.Context, actor entity.Actor) (*dto.AppointmentListResponse, error)
	ListForDoctor(ctx context.Context, actor entity.Actor, date string) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	bookingManager  *service.BookingManager
	dispatcher      *service.NotificationDispatcher
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	bookingManager *service.BookingManager,
	dispatcher *service.NotificationDispatcher,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		bookingManager:  bookingManager,
		dispatcher:      dispatcher,
	}
}

// UpdateAppointmentStatus applies a patient or doctor driven transition
// (cancel a confirmed visit, complete a visit). Unknown statuses are invalid
// transitions.
func (u *appointmentUsecase) UpdateAppointmentStatus(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	to := entity.AppointmentStatus(req.Status)

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.FindByID(tx, appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	if appointment == nil {
		return nil, service.ErrAppointmentNotFound
	}
	if err := u.bookingManager.Transition(ctx, tx, actor, appointment, to, cancelReasonFor(actor, to)); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Appointment %s moved to %s by %s %s", appointment.ID, to, actor.Role, actor.UserID)

	eventType := service.EventAppointmentCancelled
	if to == entity.StatusCompleted {
		eventType = service.EventAppointmentCompleted
	}
	u.dispatcher.Dispatch(service.NewAppointmentEvent(eventType, appointment, actor, appointment.UpdatedAt))

	return converter.AppointmentToResponse(appointment), nil
}

func cancelReasonFor(actor entity.Actor, to entity.AppointmentStatus) string {
	if to != entity.StatusCancelled {
		return ""
	}
	if actor.IsDoctor() {
		return entity.CancelReasonByDoctor
	}
	return entity.CancelReasonByPatient
}

// GetAppointment returns an appointment to its patient or assigned doctor.
func (u *appointmentUsecase) GetAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, service.ErrAppointmentNotFound
	}
	if !appointment.IsOwnedBy(actor) {
		return nil, service.ErrNotAuthorized
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) ListForPatient(ctx context.Context, actor entity.Actor) (*dto.AppointmentListResponse, error) {
	if !actor.IsPatient() {
		return nil, service.ErrNotAuthorized
	}

	appointments, err := u.appointmentRepo.FindByPatientID(u.db.WithContext(ctx), actor.UserID)
	if err != nil {
		u.log.Warnf("Failed to find appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// ListForDoctor lists the doctor's own appointments, restricted to date when given.
func (u *appointmentUsecase) ListForDoctor(ctx context.Context, actor entity.Actor, date string) (*dto.AppointmentListResponse, error) {
	if !actor.IsDoctor() {
		return nil, service.ErrNotAuthorized
	}
	if date != "" {
		if _, err := parseDate(date); err != nil {
			return nil, err
		}
	}

	appointments, err := u.appointmentRepo.FindByDoctorID(u.db.WithContext(ctx), actor.UserID, date)
	if err != nil {
		u.log.Warnf("Failed to find appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}
