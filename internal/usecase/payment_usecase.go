package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medlink-booking/internal/converter"
	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/domain/repository"
	"medlink-booking/internal/infrastructure/database"
	"medlink-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrPaymentDeclined accompanies a result carrying the FAILED payment.
	ErrPaymentDeclined = errors.New("payment declined")
	ErrPaymentNotFound = errors.New("payment not found")
)

const successPaymentConstraint = "uq_payments_success_appointment"

type PaymentUsecase interface {
	ConfirmPayment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.ConfirmPaymentRequest) (*dto.PaymentResultResponse, error)
	ListPayments(ctx context.Context, actor entity.Actor) (*dto.PaymentListResponse, error)
	GetReceipt(ctx context.Context, actor entity.Actor, paymentID uuid.UUID) ([]byte, error)
}

type paymentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	paymentRepo     repository.PaymentRepository
	auditService    service.AuditService
	bookingManager  *service.BookingManager
	processor       service.PaymentProcessor
	dispatcher      *service.NotificationDispatcher
}

func NewPaymentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	paymentRepo repository.PaymentRepository,
	auditService service.AuditService,
	bookingManager *service.BookingManager,
	processor service.PaymentProcessor,
	dispatcher *service.NotificationDispatcher,
) PaymentUsecase {
	return &paymentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		paymentRepo:     paymentRepo,
		auditService:    auditService,
		bookingManager:  bookingManager,
		processor:       processor,
		dispatcher:      dispatcher,
	}
}

// ConfirmPayment charges the patient for a pending appointment.
//
// Approved: the SUCCESS payment and the CONFIRMED status commit together; if
// that fails the charge is refunded. Declined: the FAILED payment and the
// cancellation commit together and the result is returned with ErrPaymentDeclined.
func (u *paymentUsecase) ConfirmPayment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.ConfirmPaymentRequest) (*dto.PaymentResultResponse, error) {
	if !actor.IsPatient() {
		return nil, service.ErrNotAuthorized
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	if appointment == nil {
		return nil, service.ErrAppointmentNotFound
	}
	if appointment.PatientID != actor.UserID {
		return nil, service.ErrNotAuthorized
	}
	if appointment.Status != entity.StatusPendingPayment {
		return nil, service.ErrAlreadyConfirmed
	}
	if appointment.HoldExpired(u.bookingManager.Now()) {
		if err := u.bookingManager.ExpireHold(ctx, appointment); err != nil {
			u.log.Warnf("Failed to release expired hold %s: %+v", appointment.ID, err)
		}
		return nil, service.ErrAppointmentExpired
	}
	if !req.Amount.IsPositive() || !req.Amount.Equal(appointment.Fee) {
		return nil, service.ErrInvalidAmount
	}

	method := strings.TrimSpace(req.Method)
	charge, err := u.processor.Charge(ctx, service.ChargeRequest{
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		Amount:        appointment.Fee,
		Method:        method,
	})
	if err != nil {
		u.log.Warnf("Failed to charge appointment %s: %+v", appointment.ID, err)
		return nil, fmt.Errorf("charge payment: %w", err)
	}

	payment := &entity.Payment{
		AppointmentID:    appointment.ID,
		PatientID:        appointment.PatientID,
		Amount:           appointment.Fee,
		Method:           method,
		GatewayReference: charge.Reference,
		TransactionDate:  u.bookingManager.Now(),
	}

	if !charge.Approved {
		payment.Status = entity.PaymentStatusFailed
		if err := u.recordDecline(ctx, actor, appointment, payment); err != nil {
			return nil, err
		}
		u.dispatcher.Dispatch(service.NewAppointmentEvent(service.EventPaymentDeclined, appointment, entity.SystemActor, payment.TransactionDate))
		return &dto.PaymentResultResponse{
			Payment:       *converter.PaymentToResponse(payment),
			Appointment:   *converter.AppointmentToResponse(appointment),
			DeclineReason: charge.DeclineReason,
		}, ErrPaymentDeclined
	}

	payment.Status = entity.PaymentStatusSuccess
	if err := u.recordSuccess(ctx, actor, appointment, payment); err != nil {
		if refundErr := u.processor.Refund(ctx, charge.Reference, appointment.Fee); refundErr != nil {
			u.log.Errorf("Failed to refund charge %s for appointment %s: %+v", charge.Reference, appointment.ID, refundErr)
		}
		if errors.Is(err, service.ErrAppointmentExpired) {
			if expireErr := u.bookingManager.ExpireHold(ctx, appointment); expireErr != nil {
				u.log.Warnf("Failed to release expired hold %s: %+v", appointment.ID, expireErr)
			}
		}
		return nil, err
	}

	u.dispatcher.Dispatch(service.NewAppointmentEvent(service.EventAppointmentConfirmed, appointment, entity.SystemActor, payment.TransactionDate))
	u.log.Infof("Payment confirmed: appointment=%s, payment=%s, ref=%s", appointment.ID, payment.ID, payment.GatewayReference)

	return &dto.PaymentResultResponse{
		Payment:     *converter.PaymentToResponse(payment),
		Appointment: *converter.AppointmentToResponse(appointment),
	}, nil
}

// recordSuccess confirms the appointment and stores the SUCCESS payment in one
// transaction. The appointment is restored to its pending state in memory when
// the transaction does not commit.
func (u *paymentUsecase) recordSuccess(ctx context.Context, actor entity.Actor, appointment *entity.Appointment, payment *entity.Payment) error {
	before := *appointment

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	err := u.writePayment(ctx, tx, actor, appointment, payment, entity.StatusConfirmed, "")
	if err == nil {
		if err = tx.Commit().Error; err != nil {
			u.log.Warnf("Failed commit transaction: %+v", err)
			err = fmt.Errorf("commit payment: %w", err)
		}
	}
	if err != nil {
		*appointment = before
		if database.IsUniqueViolation(err, successPaymentConstraint) {
			return service.ErrAlreadyConfirmed
		}
		return err
	}
	return nil
}

// recordDecline cancels the appointment and stores the FAILED payment in one transaction.
func (u *paymentUsecase) recordDecline(ctx context.Context, actor entity.Actor, appointment *entity.Appointment, payment *entity.Payment) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.writePayment(ctx, tx, actor, appointment, payment, entity.StatusCancelled, entity.CancelReasonPaymentDeclined); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			// Someone else moved the appointment between the checks and the charge.
			return u.explainMovedAppointment(tx, appointment.ID)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return fmt.Errorf("commit payment: %w", err)
	}
	return nil
}

func (u *paymentUsecase) writePayment(ctx context.Context, tx *gorm.DB, actor entity.Actor, appointment *entity.Appointment, payment *entity.Payment, to entity.AppointmentStatus, reason string) error {
	if err := u.bookingManager.Transition(ctx, tx, entity.SystemActor, appointment, to, reason); err != nil {
		return err
	}

	if err := u.paymentRepo.Create(tx, payment); err != nil {
		u.log.Warnf("Failed to create payment: %+v", err)
		return fmt.Errorf("create payment: %w", err)
	}

	if err := u.auditService.LogCreate(ctx, tx, actor, entity.AuditActionPaymentCreate, entity.AuditEntityPayment, payment.ID.String(), converter.PaymentToResponse(payment)); err != nil {
		return fmt.Errorf("audit payment: %w", err)
	}
	return nil
}

func (u *paymentUsecase) explainMovedAppointment(tx *gorm.DB, id uuid.UUID) error {
	current, err := u.appointmentRepo.FindByID(tx, id)
	if err != nil {
		return fmt.Errorf("reload appointment: %w", err)
	}
	if current == nil {
		return service.ErrAppointmentNotFound
	}
	if current.Status == entity.StatusCancelled && current.CancelReason == entity.CancelReasonHoldExpired {
		return service.ErrAppointmentExpired
	}
	return service.ErrAlreadyConfirmed
}

func (u *paymentUsecase) ListPayments(ctx context.Context, actor entity.Actor) (*dto.PaymentListResponse, error) {
	if !actor.IsPatient() {
		return nil, service.ErrNotAuthorized
	}

	payments, err := u.paymentRepo.FindByPatientID(u.db.WithContext(ctx), actor.UserID)
	if err != nil {
		u.log.Warnf("Failed to find payments: %+v", err)
		return nil, err
	}

	return &dto.PaymentListResponse{
		Payments: converter.PaymentsToResponses(payments),
		Total:    len(payments),
	}, nil
}

// GetReceipt renders the PDF receipt of one of the patient's own payments.
// Payments of other patients are reported as not found.
func (u *paymentUsecase) GetReceipt(ctx context.Context, actor entity.Actor, paymentID uuid.UUID) ([]byte, error) {
	db := u.db.WithContext(ctx)

	payment, err := u.paymentRepo.FindByID(db, paymentID)
	if err != nil {
		u.log.Warnf("Failed to find payment: %+v", err)
		return nil, err
	}
	if payment == nil || payment.PatientID != actor.UserID {
		return nil, ErrPaymentNotFound
	}

	appointment, err := u.appointmentRepo.FindByID(db, payment.AppointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, err
	}
	if appointment == nil {
		return nil, service.ErrAppointmentNotFound
	}

	return service.RenderPaymentReceipt(payment, appointment)
}
