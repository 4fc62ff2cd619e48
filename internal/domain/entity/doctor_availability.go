package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoctorAvailability is one recurring working window of a doctor's weekly template.
type DoctorAvailability struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorID    uuid.UUID `gorm:"type:uuid;not null;index:idx_availability_doctor_weekday" json:"doctor_id"`
	Weekday     int       `gorm:"not null;index:idx_availability_doctor_weekday" json:"weekday"`
	StartTime   string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime     string    `gorm:"type:varchar(5);not null" json:"end_time"`
	SlotMinutes int       `gorm:"not null" json:"slot_minutes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DoctorAvailability) TableName() string {
	return "doctor_availabilities"
}

func (d *DoctorAvailability) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

const (
	MinSlotMinutes = 5
	MaxSlotMinutes = 240
)

// Slots returns the slot start times of the window. A slot is emitted only
// when it fits entirely before EndTime.
func (d *DoctorAvailability) Slots() []string {
	start, err := time.Parse(SlotLayout, d.StartTime)
	if err != nil {
		return nil
	}
	end, err := time.Parse(SlotLayout, d.EndTime)
	if err != nil || d.SlotMinutes <= 0 {
		return nil
	}

	step := time.Duration(d.SlotMinutes) * time.Minute
	var slots []string
	for t := start; !t.Add(step).After(end); t = t.Add(step) {
		slots = append(slots, t.Format(SlotLayout))
	}
	return slots
}

// Minutes returns the window as minutes since midnight.
func (d *DoctorAvailability) Minutes() (start, end int, ok bool) {
	s, err := time.Parse(SlotLayout, d.StartTime)
	if err != nil {
		return 0, 0, false
	}
	e, err := time.Parse(SlotLayout, d.EndTime)
	if err != nil {
		return 0, 0, false
	}
	return s.Hour()*60 + s.Minute(), e.Hour()*60 + e.Minute(), true
}
