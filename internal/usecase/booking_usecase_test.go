package usecase

import (
	"context"
	"testing"
	"time"

	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/service"
	"medlink-booking/internal/testsupport"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimSlot_HoldsSlotForPatient(t *testing.T) {
	f := newUsecaseFixture(t)
	alice := testsupport.SeedPatient(t, f.db, "Alice")

	appt := f.claim(t, alice, "09:30")
	assert.Equal(t, string(entity.StatusPendingPayment), appt.Status)
	assert.True(t, testFee.Equal(appt.Fee))
	assert.Equal(t, "Alice", appt.PatientName)
	assert.Equal(t, "Dr House", appt.DoctorName)
	assert.Equal(t, entity.SpecialtyGeneralPractice, appt.Specialty)
	require.NotNil(t, appt.HoldExpiresAt)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), appt.HoldExpiresAt.UTC())

	assert.False(t, f.slotAvailable(t, "09:30"))
}

func TestClaimSlot_Rejections(t *testing.T) {
	f := newUsecaseFixture(t)
	alice := testsupport.SeedPatient(t, f.db, "Alice")
	bob := testsupport.SeedPatient(t, f.db, "Bob")
	f.claim(t, bob, "11:00")

	tests := []struct {
		name    string
		actor   entity.Actor
		req     dto.ClaimSlotRequest
		wantErr error
	}{
		{"doctor cannot claim", testsupport.DoctorActor(f.doctor),
			dto.ClaimSlotRequest{DoctorID: f.doctor.ID, Date: testDate, Slot: "09:00"}, service.ErrNotAuthorized},
		{"malformed date", testsupport.PatientActor(alice),
			dto.ClaimSlotRequest{DoctorID: f.doctor.ID, Date: "2025/06/01", Slot: "09:00"}, ErrInvalidDate},
		{"malformed slot", testsupport.PatientActor(alice),
			dto.ClaimSlotRequest{DoctorID: f.doctor.ID, Date: testDate, Slot: "9am"}, ErrInvalidSlot},
		{"unknown doctor", testsupport.PatientActor(alice),
			dto.ClaimSlotRequest{DoctorID: uuid.New(), Date: testDate, Slot: "09:00"}, ErrDoctorNotFound},
		{"slot outside the calendar", testsupport.PatientActor(alice),
			dto.ClaimSlotRequest{DoctorID: f.doctor.ID, Date: testDate, Slot: "09:15"}, service.ErrSlotUnavailable},
		{"slot already held", testsupport.PatientActor(alice),
			dto.ClaimSlotRequest{DoctorID: f.doctor.ID, Date: testDate, Slot: "11:00"}, service.ErrSlotUnavailable},
		{"unknown patient", entity.Actor{UserID: uuid.New(), Role: entity.RolePatient},
			dto.ClaimSlotRequest{DoctorID: f.doctor.ID, Date: testDate, Slot: "09:00"}, ErrPatientNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.booking.ClaimSlot(context.Background(), tt.actor, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&entity.Appointment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
