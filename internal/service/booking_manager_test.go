package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"medlink-booking/internal/domain/entity"
	domainRepo "medlink-booking/internal/domain/repository"
	"medlink-booking/internal/repository"
	"medlink-booking/internal/testsupport"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testFee = decimal.RequireFromString("52.50")

type bookingFixture struct {
	db      *gorm.DB
	manager *BookingManager
	clock   *testsupport.Clock
	locker  *LocalSlotLocker
	doctor  *entity.User
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	db := testsupport.NewTestDB(t)
	log := testsupport.NewTestLogger()
	clock := testsupport.NewClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	locker := NewLocalSlotLocker(log)
	t.Cleanup(locker.Stop)

	manager := NewBookingManager(
		db,
		log,
		repository.NewAppointmentRepository(),
		NewAuditService(log, repository.NewAuditLogRepository()),
		locker,
		BookingOptions{HoldWindow: 15 * time.Minute, SweepInterval: time.Hour},
	).WithClock(clock.Now)
	t.Cleanup(manager.Stop)

	return &bookingFixture{
		db:      db,
		manager: manager,
		clock:   clock,
		locker:  locker,
		doctor:  testsupport.SeedDoctor(t, db, "Dr Strange", entity.SpecialtyNeurology),
	}
}

func (f *bookingFixture) claimRequest(patient *entity.User, slot string) ClaimRequest {
	return ClaimRequest{
		DoctorID:    f.doctor.ID,
		PatientID:   patient.ID,
		Date:        "2025-06-01",
		Slot:        slot,
		Fee:         testFee,
		PatientName: patient.FullName,
		DoctorName:  f.doctor.FullName,
		Specialty:   entity.SpecialtyNeurology,
	}
}

func (f *bookingFixture) reload(t *testing.T, id uuid.UUID) *entity.Appointment {
	t.Helper()
	var a entity.Appointment
	require.NoError(t, f.db.First(&a, "id = ?", id).Error)
	return &a
}

func (f *bookingFixture) activeCount(t *testing.T, slot string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&entity.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ? AND slot_time = ? AND status IN ?",
			f.doctor.ID, "2025-06-01", slot, []string{"PENDING_PAYMENT", "CONFIRMED"}).
		Count(&n).Error)
	return n
}

func (f *bookingFixture) confirm(t *testing.T, a *entity.Appointment) error {
	t.Helper()
	tx := f.db.Begin()
	defer tx.Rollback()
	if err := f.manager.Transition(context.Background(), tx, entity.SystemActor, a, entity.StatusConfirmed, ""); err != nil {
		return err
	}
	return tx.Commit().Error
}

func TestClaimSlot_CreatesPendingAppointmentWithHold(t *testing.T) {
	f := newBookingFixture(t)
	patient := testsupport.SeedPatient(t, f.db, "Alice")

	appt, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(patient), f.claimRequest(patient, "10:00"))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPendingPayment, appt.Status)
	require.NotNil(t, appt.HoldExpiresAt)
	assert.WithinDuration(t, f.clock.Now().Add(15*time.Minute), *appt.HoldExpiresAt, 0)
	assert.Equal(t, "Alice", appt.PatientName)
	assert.Equal(t, "Dr Strange", appt.DoctorName)

	stored := f.reload(t, appt.ID)
	assert.Equal(t, entity.StatusPendingPayment, stored.Status)
	assert.True(t, stored.Fee.Equal(testFee))

	var audits int64
	require.NoError(t, f.db.Model(&entity.AuditLog{}).Where("action = ?", entity.AuditActionAppointmentClaim).Count(&audits).Error)
	assert.Equal(t, int64(1), audits)
}

func TestClaimSlot_RejectsNonPatientActor(t *testing.T) {
	f := newBookingFixture(t)
	patient := testsupport.SeedPatient(t, f.db, "Alice")
	other := testsupport.SeedPatient(t, f.db, "Mallory")

	_, err := f.manager.ClaimSlot(context.Background(), testsupport.DoctorActor(f.doctor), f.claimRequest(patient, "10:00"))
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(other), f.claimRequest(patient, "10:00"))
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestClaimSlot_ConcurrentClaimsExactlyOneWins(t *testing.T) {
	f := newBookingFixture(t)

	const contenders = 20
	patients := make([]*entity.User, contenders)
	for i := range patients {
		patients[i] = testsupport.SeedPatient(t, f.db, fmt.Sprintf("Patient %d", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	start := make(chan struct{})
	for _, p := range patients {
		wg.Add(1)
		go func(p *entity.User) {
			defer wg.Done()
			<-start
			_, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(p), f.claimRequest(p, "10:00"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}(p)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, contenders-1)
	for _, err := range failures {
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	}
	assert.Equal(t, int64(1), f.activeCount(t, "10:00"))
}

func TestClaimSlot_DifferentSlotsDoNotContend(t *testing.T) {
	f := newBookingFixture(t)
	a := testsupport.SeedPatient(t, f.db, "Alice")
	b := testsupport.SeedPatient(t, f.db, "Bob")

	_, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(a), f.claimRequest(a, "10:00"))
	require.NoError(t, err)
	_, err = f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(b), f.claimRequest(b, "10:30"))
	require.NoError(t, err)
}

func TestClaimSlot_HeldLockIsUnavailable(t *testing.T) {
	f := newBookingFixture(t)
	patient := testsupport.SeedPatient(t, f.db, "Alice")

	release, ok, err := f.locker.TryLock(context.Background(), SlotKey(f.doctor.ID, "2025-06-01", "10:00"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(patient), f.claimRequest(patient, "10:00"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	release()
	_, err = f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(patient), f.claimRequest(patient, "10:00"))
	assert.NoError(t, err)
}

// blindAppointmentRepository never sees an existing holder, leaving the
// unique index as the only guard.
type blindAppointmentRepository struct {
	domainRepo.AppointmentRepository
}

func (blindAppointmentRepository) FindActiveBySlot(*gorm.DB, uuid.UUID, string, string) (*entity.Appointment, error) {
	return nil, nil
}

func TestClaimSlot_UniqueIndexRejectsSecondActiveClaim(t *testing.T) {
	f := newBookingFixture(t)
	log := testsupport.NewTestLogger()
	f.manager = NewBookingManager(
		f.db,
		log,
		blindAppointmentRepository{repository.NewAppointmentRepository()},
		NewAuditService(log, repository.NewAuditLogRepository()),
		f.locker,
		BookingOptions{HoldWindow: 15 * time.Minute},
	).WithClock(f.clock.Now)

	a := testsupport.SeedPatient(t, f.db, "Alice")
	b := testsupport.SeedPatient(t, f.db, "Bob")

	_, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(a), f.claimRequest(a, "10:00"))
	require.NoError(t, err)

	_, err = f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(b), f.claimRequest(b, "10:00"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, int64(1), f.activeCount(t, "10:00"))
}

func TestClaimSlot_ExpiredHoldIsReleasedOnClaim(t *testing.T) {
	f := newBookingFixture(t)
	a := testsupport.SeedPatient(t, f.db, "Alice")
	b := testsupport.SeedPatient(t, f.db, "Bob")

	first, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(a), f.claimRequest(a, "10:00"))
	require.NoError(t, err)

	f.clock.Advance(14 * time.Minute)
	_, err = f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(b), f.claimRequest(b, "10:00"))
	assert.ErrorIs(t, err, ErrSlotUnavailable, "hold still live")

	f.clock.Advance(time.Minute)
	second, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(b), f.claimRequest(b, "10:00"))
	require.NoError(t, err)
	assert.Equal(t, b.ID, second.PatientID)

	expired := f.reload(t, first.ID)
	assert.Equal(t, entity.StatusCancelled, expired.Status)
	assert.Equal(t, entity.CancelReasonHoldExpired, expired.CancelReason)
	assert.Equal(t, int64(1), f.activeCount(t, "10:00"))
}

func TestTransition_ConfirmByPaymentGate(t *testing.T) {
	f := newBookingFixture(t)
	patient := testsupport.SeedPatient(t, f.db, "Alice")

	appt, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(patient), f.claimRequest(patient, "10:00"))
	require.NoError(t, err)

	require.NoError(t, f.confirm(t, appt))
	assert.Equal(t, entity.StatusConfirmed, appt.Status)
	assert.Equal(t, entity.StatusConfirmed, f.reload(t, appt.ID).Status)

	// A second confirmation loses: the row is no longer pending.
	stale := *appt
	stale.Status = entity.StatusPendingPayment
	assert.ErrorIs(t, f.confirm(t, &stale), ErrAlreadyConfirmed)
}

func TestTransition_ConfirmAfterHoldLapsed(t *testing.T) {
	f := newBookingFixture(t)
	patient := testsupport.SeedPatient(t, f.db, "Alice")

	appt, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(patient), f.claimRequest(patient, "10:00"))
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)
	assert.ErrorIs(t, f.confirm(t, appt), ErrAppointmentExpired)
	assert.Equal(t, entity.StatusPendingPayment, f.reload(t, appt.ID).Status)
}

func TestTransition_ActorRules(t *testing.T) {
	f := newBookingFixture(t)
	patient := testsupport.SeedPatient(t, f.db, "Alice")
	otherDoctor := testsupport.SeedDoctor(t, f.db, "Dr Who", entity.SpecialtyCardiology)

	appt, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(patient), f.claimRequest(patient, "10:00"))
	require.NoError(t, err)

	run := func(actor entity.Actor, to entity.AppointmentStatus) error {
		tx := f.db.Begin()
		defer tx.Rollback()
		if err := f.manager.Transition(context.Background(), tx, actor, appt, to, ""); err != nil {
			return err
		}
		return tx.Commit().Error
	}

	// Pending: only the system may move it.
	assert.ErrorIs(t, run(testsupport.PatientActor(patient), entity.StatusConfirmed), ErrNotAuthorized)
	assert.ErrorIs(t, run(testsupport.PatientActor(patient), entity.StatusCancelled), ErrNotAuthorized)
	assert.ErrorIs(t, run(testsupport.DoctorActor(f.doctor), entity.StatusCompleted), ErrInvalidTransition)

	require.NoError(t, f.confirm(t, appt))

	assert.ErrorIs(t, run(testsupport.DoctorActor(otherDoctor), entity.StatusCompleted), ErrNotAuthorized)
	assert.ErrorIs(t, run(testsupport.PatientActor(patient), entity.StatusCompleted), ErrNotAuthorized)
	assert.ErrorIs(t, run(testsupport.DoctorActor(f.doctor), entity.StatusPendingPayment), ErrInvalidTransition)
	assert.Equal(t, entity.StatusConfirmed, f.reload(t, appt.ID).Status)

	require.NoError(t, run(testsupport.DoctorActor(f.doctor), entity.StatusCompleted))
	assert.Equal(t, entity.StatusCompleted, f.reload(t, appt.ID).Status)

	assert.ErrorIs(t, run(testsupport.DoctorActor(f.doctor), entity.StatusCancelled), ErrInvalidTransition)
}

func TestTransition_StaleStatusLosesRace(t *testing.T) {
	f := newBookingFixture(t)
	patient := testsupport.SeedPatient(t, f.db, "Alice")

	appt, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(patient), f.claimRequest(patient, "10:00"))
	require.NoError(t, err)
	require.NoError(t, f.confirm(t, appt))

	doctorCopy := *appt
	patientCopy := *appt

	tx := f.db.Begin()
	require.NoError(t, f.manager.Transition(context.Background(), tx, testsupport.DoctorActor(f.doctor), &doctorCopy, entity.StatusCompleted, ""))
	require.NoError(t, tx.Commit().Error)

	tx = f.db.Begin()
	defer tx.Rollback()
	err = f.manager.Transition(context.Background(), tx, testsupport.PatientActor(patient), &patientCopy, entity.StatusCancelled, entity.CancelReasonByPatient)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReleaseExpiredHolds(t *testing.T) {
	f := newBookingFixture(t)
	slots := []string{"09:00", "09:30", "10:00"}
	var ids []uuid.UUID
	for i, slot := range slots {
		p := testsupport.SeedPatient(t, f.db, fmt.Sprintf("Patient %d", i))
		appt, err := f.manager.ClaimSlot(context.Background(), testsupport.PatientActor(p), f.claimRequest(p, slot))
		require.NoError(t, err)
		ids = append(ids, appt.ID)
	}

	// One of them pays in time.
	paid := f.reload(t, ids[0])
	require.NoError(t, f.confirm(t, paid))

	released, err := f.manager.ReleaseExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	f.clock.Advance(16 * time.Minute)
	released, err = f.manager.ReleaseExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	assert.Equal(t, entity.StatusConfirmed, f.reload(t, ids[0]).Status)
	for _, id := range ids[1:] {
		a := f.reload(t, id)
		assert.Equal(t, entity.StatusCancelled, a.Status)
		assert.Equal(t, entity.CancelReasonHoldExpired, a.CancelReason)
	}

	var audits int64
	require.NoError(t, f.db.Model(&entity.AuditLog{}).Where("action = ?", entity.AuditActionAppointmentExpire).Count(&audits).Error)
	assert.Equal(t, int64(2), audits)

	released, err = f.manager.ReleaseExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, released)
}

func TestBookingManager_StartStopIsIdempotent(t *testing.T) {
	f := newBookingFixture(t)
	f.manager.Start()
	f.manager.Start()
	f.manager.Stop()
	f.manager.Stop()
}
