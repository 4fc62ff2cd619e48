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

func intPtr(v int) *int { return &v }

func slotTimes(slots []entity.TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func TestListSlots_DefaultHours(t *testing.T) {
	f := newUsecaseFixture(t)

	list, err := f.slots.ListSlots(context.Background(), f.doctor.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, testDefaultSlots, slotTimes(list.Slots))
	for _, s := range list.Slots {
		assert.True(t, s.IsAvailable, s.Time)
	}
}

func TestListSlots_MarksOccupiedSlots(t *testing.T) {
	f := newUsecaseFixture(t)
	alice := testsupport.SeedPatient(t, f.db, "Alice")
	f.insertAppointment(t, alice, "09:00", entity.StatusConfirmed)
	f.insertAppointment(t, alice, "09:30", entity.StatusCancelled)
	f.insertAppointment(t, alice, "10:00", entity.StatusCompleted)
	f.claim(t, alice, "10:30")

	list, err := f.slots.ListSlots(context.Background(), f.doctor.ID, testDate)
	require.NoError(t, err)

	available := map[string]bool{}
	for _, s := range list.Slots {
		available[s.Time] = s.IsAvailable
	}
	assert.False(t, available["09:00"])
	assert.True(t, available["09:30"])
	assert.True(t, available["10:00"])
	assert.False(t, available["10:30"])

	// a lapsed hold stops occupying before the sweeper runs
	f.clock.Advance(15 * time.Minute)
	assert.True(t, f.slotAvailable(t, "10:30"))
}

func TestListSlots_Errors(t *testing.T) {
	f := newUsecaseFixture(t)

	for _, date := range []string{"", "2025-6-1", "2025-02-30", "01/06/2025"} {
		_, err := f.slots.ListSlots(context.Background(), f.doctor.ID, date)
		assert.ErrorIs(t, err, ErrInvalidDate, date)
	}

	_, err := f.slots.ListSlots(context.Background(), uuid.New(), testDate)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	require.NoError(t, f.db.Model(&entity.User{}).Where("id = ?", f.doctor.ID).Update("is_active", false).Error)
	_, err = f.slots.ListSlots(context.Background(), f.doctor.ID, testDate)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestReplaceAvailability_PublishedTemplate(t *testing.T) {
	f := newUsecaseFixture(t)
	doctor := testsupport.DoctorActor(f.doctor)

	// 2025-06-01 is a Sunday
	res, err := f.slots.ReplaceAvailability(context.Background(), doctor, &dto.ReplaceAvailabilityRequest{
		Windows: []dto.AvailabilityWindowRequest{
			{Weekday: intPtr(0), StartTime: "13:00", EndTime: "14:00", SlotMinutes: 20},
			{Weekday: intPtr(0), StartTime: "08:00", EndTime: "09:00", SlotMinutes: 45},
			{Weekday: intPtr(1), StartTime: "09:00", EndTime: "12:00", SlotMinutes: 30},
		},
	})
	require.NoError(t, err)
	assert.False(t, res.UsesDefault)
	assert.Len(t, res.Windows, 3)

	list, err := f.slots.ListSlots(context.Background(), f.doctor.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "13:00", "13:20", "13:40"}, slotTimes(list.Slots))

	// a weekday without windows is a day off
	saturday, err := f.slots.ListSlots(context.Background(), f.doctor.ID, "2025-06-07")
	require.NoError(t, err)
	assert.Empty(t, saturday.Slots)

	stored, err := f.slots.GetAvailability(context.Background(), f.doctor.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Windows, 3)

	var audits int64
	require.NoError(t, f.db.Model(&entity.AuditLog{}).
		Where("action = ? AND entity_id = ?", entity.AuditActionAvailabilityReplace, f.doctor.ID.String()).
		Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	// publishing an empty template returns to the default hours
	res, err = f.slots.ReplaceAvailability(context.Background(), doctor, &dto.ReplaceAvailabilityRequest{})
	require.NoError(t, err)
	assert.True(t, res.UsesDefault)

	list, err = f.slots.ListSlots(context.Background(), f.doctor.ID, testDate)
	require.NoError(t, err)
	assert.Equal(t, testDefaultSlots, slotTimes(list.Slots))
}

func TestReplaceAvailability_Validation(t *testing.T) {
	f := newUsecaseFixture(t)
	doctor := testsupport.DoctorActor(f.doctor)

	tests := []struct {
		name    string
		windows []dto.AvailabilityWindowRequest
		wantErr error
	}{
		{"weekday out of range", []dto.AvailabilityWindowRequest{
			{Weekday: intPtr(7), StartTime: "09:00", EndTime: "10:00", SlotMinutes: 30},
		}, ErrInvalidAvailability},
		{"end before start", []dto.AvailabilityWindowRequest{
			{Weekday: intPtr(1), StartTime: "10:00", EndTime: "09:00", SlotMinutes: 30},
		}, ErrInvalidAvailability},
		{"shorter than one slot", []dto.AvailabilityWindowRequest{
			{Weekday: intPtr(1), StartTime: "09:00", EndTime: "09:20", SlotMinutes: 30},
		}, ErrInvalidAvailability},
		{"slot length too small", []dto.AvailabilityWindowRequest{
			{Weekday: intPtr(1), StartTime: "09:00", EndTime: "10:00", SlotMinutes: 1},
		}, ErrInvalidAvailability},
		{"bad time format", []dto.AvailabilityWindowRequest{
			{Weekday: intPtr(1), StartTime: "9:00", EndTime: "10:00", SlotMinutes: 30},
		}, ErrInvalidAvailability},
		{"overlap on one weekday", []dto.AvailabilityWindowRequest{
			{Weekday: intPtr(1), StartTime: "09:00", EndTime: "11:00", SlotMinutes: 30},
			{Weekday: intPtr(1), StartTime: "10:30", EndTime: "12:00", SlotMinutes: 30},
		}, ErrAvailabilityOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.slots.ReplaceAvailability(context.Background(), doctor, &dto.ReplaceAvailabilityRequest{Windows: tt.windows})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// touching windows and the same hours on different days are fine
	_, err := f.slots.ReplaceAvailability(context.Background(), doctor, &dto.ReplaceAvailabilityRequest{
		Windows: []dto.AvailabilityWindowRequest{
			{Weekday: intPtr(1), StartTime: "09:00", EndTime: "10:00", SlotMinutes: 30},
			{Weekday: intPtr(1), StartTime: "10:00", EndTime: "11:00", SlotMinutes: 30},
			{Weekday: intPtr(2), StartTime: "09:00", EndTime: "10:00", SlotMinutes: 30},
		},
	})
	assert.NoError(t, err)

	alice := testsupport.SeedPatient(t, f.db, "Alice")
	_, err = f.slots.ReplaceAvailability(context.Background(), testsupport.PatientActor(alice), &dto.ReplaceAvailabilityRequest{})
	assert.ErrorIs(t, err, service.ErrNotAuthorized)
}
