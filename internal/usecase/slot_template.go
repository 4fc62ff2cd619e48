package usecase

import (
	"errors"
	"slices"
	"time"

	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidSlot = errors.New("invalid slot format, use HH:mm")
)

// slotTemplate derives the bookable slot times of a doctor's day from the
// published weekly template. A doctor without any template row works the
// hospital default hours every day; a doctor with rows but none for the
// weekday is off that day.
type slotTemplate struct {
	availabilityRepo repository.DoctorAvailabilityRepository
	defaultSlots     []string
}

func newSlotTemplate(availabilityRepo repository.DoctorAvailabilityRepository, defaultSlots []string) *slotTemplate {
	defaults := slices.Clone(defaultSlots)
	slices.Sort(defaults)
	return &slotTemplate{
		availabilityRepo: availabilityRepo,
		defaultSlots:     slices.Compact(defaults),
	}
}

func (t *slotTemplate) slotsFor(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]string, error) {
	count, err := t.availabilityRepo.CountByDoctorID(db, doctorID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return slices.Clone(t.defaultSlots), nil
	}

	windows, err := t.availabilityRepo.FindByDoctorAndWeekday(db, doctorID, int(date.Weekday()))
	if err != nil {
		return nil, err
	}

	var slots []string
	for i := range windows {
		slots = append(slots, windows[i].Slots()...)
	}
	slices.Sort(slots)
	return slices.Compact(slots), nil
}

func (t *slotTemplate) contains(db *gorm.DB, doctorID uuid.UUID, date time.Time, slot string) (bool, error) {
	slots, err := t.slotsFor(db, doctorID, date)
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(slots, slot)
	return found, nil
}

// parseDate accepts only canonical YYYY-MM-DD dates.
func parseDate(value string) (time.Time, error) {
	d, err := time.Parse(entity.DateLayout, value)
	if err != nil || d.Format(entity.DateLayout) != value {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func validateSlot(value string) error {
	s, err := time.Parse(entity.SlotLayout, value)
	if err != nil || s.Format(entity.SlotLayout) != value {
		return ErrInvalidSlot
	}
	return nil
}
