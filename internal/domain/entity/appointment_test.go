package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var allStatuses = []AppointmentStatus{
	StatusPendingPayment,
	StatusConfirmed,
	StatusCancelled,
	StatusCompleted,
}

func TestIsTransitionAllowed_OnlyLifecyclePairs(t *testing.T) {
	allowed := map[[2]AppointmentStatus]bool{
		{StatusPendingPayment, StatusConfirmed}: true,
		{StatusPendingPayment, StatusCancelled}: true,
		{StatusConfirmed, StatusCancelled}:      true,
		{StatusConfirmed, StatusCompleted}:      true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			got := IsTransitionAllowed(from, to)
			assert.Equal(t, allowed[[2]AppointmentStatus{from, to}], got, "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoOutgoingTransitions(t *testing.T) {
	for _, from := range []AppointmentStatus{StatusCancelled, StatusCompleted} {
		assert.True(t, from.IsTerminal())
		for _, to := range allStatuses {
			assert.False(t, IsTransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanActorTransition(t *testing.T) {
	tests := []struct {
		name string
		role string
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{"system confirms pending", RoleSystem, StatusPendingPayment, StatusConfirmed, true},
		{"patient cannot confirm", RolePatient, StatusPendingPayment, StatusConfirmed, false},
		{"system releases pending", RoleSystem, StatusPendingPayment, StatusCancelled, true},
		{"patient cannot cancel pending", RolePatient, StatusPendingPayment, StatusCancelled, false},
		{"patient cancels confirmed", RolePatient, StatusConfirmed, StatusCancelled, true},
		{"doctor cancels confirmed", RoleDoctor, StatusConfirmed, StatusCancelled, true},
		{"doctor completes", RoleDoctor, StatusConfirmed, StatusCompleted, true},
		{"patient cannot complete", RolePatient, StatusConfirmed, StatusCompleted, false},
		{"admin cannot complete", RoleAdmin, StatusConfirmed, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanActorTransition(tt.role, tt.from, tt.to))
		})
	}
}

func TestOccupiesSlot(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.True(t, (&Appointment{Status: StatusConfirmed}).OccupiesSlot(now))
	assert.True(t, (&Appointment{Status: StatusPendingPayment, HoldExpiresAt: &future}).OccupiesSlot(now))
	assert.False(t, (&Appointment{Status: StatusPendingPayment, HoldExpiresAt: &past}).OccupiesSlot(now))
	assert.False(t, (&Appointment{Status: StatusPendingPayment, HoldExpiresAt: &now}).OccupiesSlot(now), "hold lapses at its expiry instant")
	assert.False(t, (&Appointment{Status: StatusCancelled}).OccupiesSlot(now))
	assert.False(t, (&Appointment{Status: StatusCompleted}).OccupiesSlot(now))
}

func TestIsOwnedBy(t *testing.T) {
	patient := uuid.New()
	doctor := uuid.New()
	appt := &Appointment{PatientID: patient, DoctorID: doctor}

	assert.True(t, appt.IsOwnedBy(Actor{UserID: patient, Role: RolePatient}))
	assert.True(t, appt.IsOwnedBy(Actor{UserID: doctor, Role: RoleDoctor}))
	assert.True(t, appt.IsOwnedBy(SystemActor))
	assert.False(t, appt.IsOwnedBy(Actor{UserID: uuid.New(), Role: RoleDoctor}))
	assert.False(t, appt.IsOwnedBy(Actor{UserID: doctor, Role: RolePatient}))
	assert.False(t, appt.IsOwnedBy(Actor{UserID: patient, Role: RoleAdmin}))
}
