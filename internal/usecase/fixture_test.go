package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
	domainRepo "medlink-booking/internal/domain/repository"
	"medlink-booking/internal/repository"
	"medlink-booking/internal/service"
	"medlink-booking/internal/testsupport"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testDate     = "2025-06-01"
	declinedCard = "declined-card"
)

var (
	testFee          = decimal.RequireFromString("52.50")
	testDefaultSlots = []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []service.AppointmentEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, event service.AppointmentEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

// recordingProcessor is the simulated gateway plus a log of refunds.
type recordingProcessor struct {
	service.PaymentProcessor

	mu      sync.Mutex
	charges int
	refunds []string
}

func (p *recordingProcessor) Charge(ctx context.Context, req service.ChargeRequest) (*service.ChargeResult, error) {
	p.mu.Lock()
	p.charges++
	p.mu.Unlock()
	return p.PaymentProcessor.Charge(ctx, req)
}

func (p *recordingProcessor) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	p.mu.Lock()
	p.refunds = append(p.refunds, reference)
	p.mu.Unlock()
	return p.PaymentProcessor.Refund(ctx, reference, amount)
}

type usecaseFixture struct {
	db              *gorm.DB
	log             *logrus.Logger
	clock           *testsupport.Clock
	manager         *service.BookingManager
	auditService    service.AuditService
	appointmentRepo domainRepo.AppointmentRepository
	paymentRepo     domainRepo.PaymentRepository
	notifier        *recordingNotifier
	dispatcher      *service.NotificationDispatcher
	processor       *recordingProcessor
	doctor          *entity.User

	slots        SlotCalendarUsecase
	booking      BookingUsecase
	payments     PaymentUsecase
	appointments AppointmentUsecase
}

func newUsecaseFixture(t *testing.T) *usecaseFixture {
	t.Helper()

	db := testsupport.NewTestDB(t)
	log := testsupport.NewTestLogger()
	clock := testsupport.NewClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))

	locker := service.NewLocalSlotLocker(log)
	t.Cleanup(locker.Stop)

	appointmentRepo := repository.NewAppointmentRepository()
	paymentRepo := repository.NewPaymentRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	availabilityRepo := repository.NewDoctorAvailabilityRepository()
	auditService := service.NewAuditService(log, repository.NewAuditLogRepository())

	manager := service.NewBookingManager(db, log, appointmentRepo, auditService, locker, service.BookingOptions{
		HoldWindow:    15 * time.Minute,
		SweepInterval: time.Hour,
	}).WithClock(clock.Now)
	t.Cleanup(manager.Stop)

	notifier := &recordingNotifier{}
	dispatcher := service.NewNotificationDispatcher(notifier, log)
	t.Cleanup(dispatcher.Close)
	processor := &recordingProcessor{PaymentProcessor: service.NewSimulatedGateway(log, []string{declinedCard})}

	f := &usecaseFixture{
		db:              db,
		log:             log,
		clock:           clock,
		manager:         manager,
		auditService:    auditService,
		appointmentRepo: appointmentRepo,
		paymentRepo:     paymentRepo,
		notifier:        notifier,
		dispatcher:      dispatcher,
		processor:       processor,
		doctor:          testsupport.SeedDoctor(t, db, "Dr House", entity.SpecialtyGeneralPractice),
	}

	f.slots = NewSlotCalendarUsecase(db, log, doctorProfileRepo, appointmentRepo, availabilityRepo, auditService, manager, testDefaultSlots)
	f.booking = NewBookingUsecase(db, log, repository.NewUserRepository(), doctorProfileRepo, availabilityRepo, manager, testDefaultSlots, testFee)
	f.payments = NewPaymentUsecase(db, log, appointmentRepo, paymentRepo, auditService, manager, processor, dispatcher)
	f.appointments = NewAppointmentUsecase(db, log, appointmentRepo, manager, dispatcher)

	return f
}

func (f *usecaseFixture) claim(t *testing.T, patient *entity.User, slot string) *dto.AppointmentResponse {
	t.Helper()
	appt, err := f.booking.ClaimSlot(context.Background(), testsupport.PatientActor(patient), &dto.ClaimSlotRequest{
		DoctorID: f.doctor.ID,
		Date:     testDate,
		Slot:     slot,
	})
	require.NoError(t, err)
	return appt
}

func (f *usecaseFixture) pay(patient *entity.User, appointmentID uuid.UUID, method string, amount decimal.Decimal) (*dto.PaymentResultResponse, error) {
	return f.payments.ConfirmPayment(context.Background(), testsupport.PatientActor(patient), appointmentID, &dto.ConfirmPaymentRequest{
		Method: method,
		Amount: amount,
	})
}

// insertAppointment stores an appointment in any status without going through the engine.
func (f *usecaseFixture) insertAppointment(t *testing.T, patient *entity.User, slot string, status entity.AppointmentStatus) *entity.Appointment {
	t.Helper()
	now := f.clock.Now().UTC()
	hold := now.Add(15 * time.Minute)
	a := &entity.Appointment{
		PatientID:       patient.ID,
		DoctorID:        f.doctor.ID,
		AppointmentDate: testDate,
		SlotTime:        slot,
		Status:          status,
		Fee:             testFee,
		HoldExpiresAt:   &hold,
		PatientName:     patient.FullName,
		DoctorName:      f.doctor.FullName,
		Specialty:       entity.SpecialtyGeneralPractice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, f.db.Create(a).Error)
	return a
}

func (f *usecaseFixture) reload(t *testing.T, id uuid.UUID) *entity.Appointment {
	t.Helper()
	var a entity.Appointment
	require.NoError(t, f.db.First(&a, "id = ?", id).Error)
	return &a
}

func (f *usecaseFixture) slotAvailable(t *testing.T, slot string) bool {
	t.Helper()
	list, err := f.slots.ListSlots(context.Background(), f.doctor.ID, testDate)
	require.NoError(t, err)
	for _, s := range list.Slots {
		if s.Time == slot {
			return s.IsAvailable
		}
	}
	t.Fatalf("slot %s not in calendar", slot)
	return false
}

func (f *usecaseFixture) paymentsFor(t *testing.T, appointmentID uuid.UUID) []entity.Payment {
	t.Helper()
	var payments []entity.Payment
	require.NoError(t, f.db.Where("appointment_id = ?", appointmentID).Find(&payments).Error)
	return payments
}
