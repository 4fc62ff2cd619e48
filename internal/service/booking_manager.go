package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/domain/repository"
	"medlink-booking/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// Batch size for the expiry sweep
	sweepBatchSize = 500

	// Upper bound for one sweep pass
	sweepTimeout = 30 * time.Second

	activeSlotConstraint = "uq_appointments_active_slot"
)

// ClaimRequest carries everything needed to insert a pending appointment.
// Display names are denormalized onto the row at claim time.
type ClaimRequest struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	Date        string
	Slot        string
	Fee         decimal.Decimal
	PatientName string
	DoctorName  string
	Specialty   string
}

type BookingOptions struct {
	HoldWindow    time.Duration
	SweepInterval time.Duration
	// Location is the hospital's time zone; appointment dates and slot
	// times are wall-clock values in it. Defaults to UTC.
	Location *time.Location
}

// BookingManager is the only writer of Appointment.status.
//
// Double booking is prevented at three levels:
// 1. SlotLocker serializes claims of the same tuple (contended = ErrSlotUnavailable)
// 2. Inside one DB transaction: expire a lapsed holder, check for a live one, insert
// 3. The partial unique index uq_appointments_active_slot rejects anything that slips through
//
// Every status write is conditional on the current status, so concurrent
// transitions of one appointment resolve to a single winner.
type BookingManager struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	auditService    AuditService
	locker          SlotLocker
	holdWindow      time.Duration
	sweepInterval   time.Duration
	location        *time.Location
	clock           func() time.Time

	// Sweeper lifecycle
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool
	stopped  atomic.Bool
}

func NewBookingManager(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	auditService AuditService,
	locker SlotLocker,
	opts BookingOptions,
) *BookingManager {
	if opts.HoldWindow <= 0 {
		opts.HoldWindow = 15 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &BookingManager{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		locker:          locker,
		holdWindow:      opts.HoldWindow,
		sweepInterval:   opts.SweepInterval,
		location:        opts.Location,
		clock:           time.Now,
		stopChan:        make(chan struct{}),
	}
}

// WithClock replaces the time source. Used by tests to move past the hold window.
func (m *BookingManager) WithClock(clock func() time.Time) *BookingManager {
	m.clock = clock
	return m
}

// Now is the engine's notion of the current instant, in UTC at second precision.
func (m *BookingManager) Now() time.Time {
	return m.clock().UTC().Truncate(time.Second)
}

// LocalNow is Now on the hospital's wall clock, comparable with
// appointment dates and slot times.
func (m *BookingManager) LocalNow() time.Time {
	return m.Now().In(m.location)
}

func (m *BookingManager) HoldWindow() time.Duration {
	return m.holdWindow
}

// ClaimSlot atomically reserves the tuple for the patient and creates a
// PENDING_PAYMENT appointment whose hold lapses after the hold window.
func (m *BookingManager) ClaimSlot(ctx context.Context, actor entity.Actor, req ClaimRequest) (*entity.Appointment, error) {
	if !actor.IsPatient() || actor.UserID != req.PatientID {
		return nil, ErrNotAuthorized
	}

	key := SlotKey(req.DoctorID, req.Date, req.Slot)
	release, acquired, err := m.locker.TryLock(ctx, key)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrSlotUnavailable
	}
	defer release()

	now := m.Now()

	tx := m.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	holder, err := m.appointmentRepo.FindActiveBySlot(tx, req.DoctorID, req.Date, req.Slot)
	if err != nil {
		m.log.Warnf("Failed to check slot holder for %s: %+v", key, err)
		return nil, fmt.Errorf("find slot holder: %w", err)
	}
	if holder != nil {
		if !holder.HoldExpired(now) {
			return nil, ErrSlotUnavailable
		}
		// Lazy release of a lapsed hold the sweeper has not reached yet.
		if err := m.Transition(ctx, tx, entity.SystemActor, holder, entity.StatusCancelled, entity.CancelReasonHoldExpired); err != nil && !errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		holder, err = m.appointmentRepo.FindActiveBySlot(tx, req.DoctorID, req.Date, req.Slot)
		if err != nil {
			m.log.Warnf("Failed to re-check slot holder for %s: %+v", key, err)
			return nil, fmt.Errorf("find slot holder: %w", err)
		}
		if holder != nil {
			return nil, ErrSlotUnavailable
		}
	}

	holdExpiresAt := now.Add(m.holdWindow)
	appointment := &entity.Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.Date,
		SlotTime:        req.Slot,
		Status:          entity.StatusPendingPayment,
		Fee:             req.Fee,
		HoldExpiresAt:   &holdExpiresAt,
		PatientName:     req.PatientName,
		DoctorName:      req.DoctorName,
		Specialty:       req.Specialty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.appointmentRepo.Create(tx, appointment); err != nil {
		if database.IsUniqueViolation(err, activeSlotConstraint) {
			return nil, ErrSlotUnavailable
		}
		m.log.Warnf("Failed to insert appointment for %s: %+v", key, err)
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	if err := m.auditService.LogCreate(ctx, tx, actor, entity.AuditActionAppointmentClaim, entity.AuditEntityAppointment, appointment.ID.String(), statusSnapshot(appointment)); err != nil {
		return nil, fmt.Errorf("audit claim: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		if database.IsUniqueViolation(err, activeSlotConstraint) {
			return nil, ErrSlotUnavailable
		}
		m.log.Warnf("Failed commit transaction: %+v", err)
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	m.log.Infof("Slot claimed: appointment=%s, doctor=%s, date=%s, slot=%s, hold_until=%s",
		appointment.ID, req.DoctorID, req.Date, req.Slot, holdExpiresAt.Format(time.RFC3339))
	return appointment, nil
}

// Transition moves the appointment to status to inside tx. The caller owns the
// transaction. On success the in-memory appointment reflects the new state.
//
// Checks, in order: actor owns the appointment (ErrNotAuthorized), the pair is
// in the lifecycle table (ErrInvalidTransition), the actor's role may perform it
// (ErrNotAuthorized). Confirmation additionally requires a live hold.
func (m *BookingManager) Transition(ctx context.Context, tx *gorm.DB, actor entity.Actor, appointment *entity.Appointment, to entity.AppointmentStatus, reason string) error {
	from := appointment.Status

	if !appointment.IsOwnedBy(actor) {
		return ErrNotAuthorized
	}
	if !entity.IsTransitionAllowed(from, to) {
		return ErrInvalidTransition
	}
	if !entity.CanActorTransition(actor.Role, from, to) {
		return ErrNotAuthorized
	}

	now := m.Now()

	var affected int64
	var err error
	if to == entity.StatusConfirmed {
		if appointment.HoldExpired(now) {
			return ErrAppointmentExpired
		}
		affected, err = m.appointmentRepo.ConfirmHold(tx, appointment.ID, now)
	} else {
		affected, err = m.appointmentRepo.UpdateStatus(tx, appointment.ID, from, to, reason, now)
	}
	if err != nil {
		m.log.Warnf("Failed to update appointment %s %s -> %s: %+v", appointment.ID, from, to, err)
		return fmt.Errorf("update appointment status: %w", err)
	}
	if affected == 0 {
		return m.explainLostUpdate(tx, appointment.ID, to, now)
	}

	if err := m.auditService.LogUpdate(ctx, tx, actor, auditActionFor(to, reason), entity.AuditEntityAppointment, appointment.ID.String(),
		map[string]interface{}{"status": from},
		map[string]interface{}{"status": to, "cancel_reason": reason},
	); err != nil {
		return fmt.Errorf("audit transition: %w", err)
	}

	appointment.Status = to
	appointment.UpdatedAt = now
	if reason != "" {
		appointment.CancelReason = reason
	}
	return nil
}

// explainLostUpdate maps a conditional update that matched no row to the
// error describing the state the appointment is actually in.
func (m *BookingManager) explainLostUpdate(tx *gorm.DB, id uuid.UUID, to entity.AppointmentStatus, now time.Time) error {
	current, err := m.appointmentRepo.FindByID(tx, id)
	if err != nil {
		return fmt.Errorf("reload appointment: %w", err)
	}
	if current == nil {
		return ErrAppointmentNotFound
	}
	if to == entity.StatusConfirmed {
		if current.Status != entity.StatusPendingPayment {
			return ErrAlreadyConfirmed
		}
		if current.HoldExpired(now) {
			return ErrAppointmentExpired
		}
	}
	return ErrInvalidTransition
}

// ExpireHold cancels a lapsed pending appointment in its own transaction.
// It is a no-op for anything that is not an expired hold.
func (m *BookingManager) ExpireHold(ctx context.Context, appointment *entity.Appointment) error {
	if !appointment.HoldExpired(m.Now()) {
		return nil
	}

	tx := m.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := m.Transition(ctx, tx, entity.SystemActor, appointment, entity.StatusCancelled, entity.CancelReasonHoldExpired); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// Already moved by someone else.
			return nil
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		m.log.Warnf("Failed commit transaction: %+v", err)
		return fmt.Errorf("commit expiry: %w", err)
	}

	m.log.Infof("Hold expired: appointment=%s, doctor=%s, date=%s, slot=%s",
		appointment.ID, appointment.DoctorID, appointment.AppointmentDate, appointment.SlotTime)
	return nil
}

// ReleaseExpiredHolds cancels every PENDING_PAYMENT appointment whose hold has
// lapsed, in batches. Returns the number of appointments released.
func (m *BookingManager) ReleaseExpiredHolds(ctx context.Context) (int, error) {
	released := 0

	for {
		expired, err := m.appointmentRepo.FindExpiredHolds(m.db.WithContext(ctx), m.Now(), sweepBatchSize)
		if err != nil {
			m.log.Warnf("Failed to query expired holds: %+v", err)
			return released, fmt.Errorf("find expired holds: %w", err)
		}
		if len(expired) == 0 {
			break
		}

		for i := range expired {
			if err := m.ExpireHold(ctx, &expired[i]); err != nil {
				return released, err
			}
			if expired[i].Status == entity.StatusCancelled {
				released++
			}
		}

		if len(expired) < sweepBatchSize {
			break
		}

		select {
		case <-ctx.Done():
			return released, ctx.Err()
		default:
		}
	}

	if released > 0 {
		m.log.Infof("Sweeper released %d expired hold(s)", released)
	}
	return released, nil
}

// Start launches the background expiry sweeper. Call Stop() during graceful shutdown.
func (m *BookingManager) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	m.wg.Add(1)
	go m.sweepLoop()
	m.log.Infof("Hold sweeper started: interval=%v, hold_window=%v", m.sweepInterval, m.holdWindow)
}

// Stop gracefully shuts down the sweeper.
// Safe to call multiple times.
func (m *BookingManager) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.stopChan)
		m.wg.Wait()
		m.log.Info("BookingManager stopped")
	}
}

func (m *BookingManager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			m.log.Debug("Hold sweeper stopping")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if _, err := m.ReleaseExpiredHolds(ctx); err != nil {
				m.log.Warnf("Failed hold sweep: %+v", err)
			}
			cancel()
		}
	}
}

func auditActionFor(to entity.AppointmentStatus, reason string) string {
	switch to {
	case entity.StatusConfirmed:
		return entity.AuditActionAppointmentConfirm
	case entity.StatusCompleted:
		return entity.AuditActionAppointmentComplete
	default:
		if reason == entity.CancelReasonHoldExpired {
			return entity.AuditActionAppointmentExpire
		}
		return entity.AuditActionAppointmentCancel
	}
}

func statusSnapshot(a *entity.Appointment) map[string]interface{} {
	return map[string]interface{}{
		"doctor_id":        a.DoctorID.String(),
		"patient_id":       a.PatientID.String(),
		"appointment_date": a.AppointmentDate,
		"slot_time":        a.SlotTime,
		"status":           a.Status,
		"fee":              a.Fee.StringFixed(2),
	}
}
