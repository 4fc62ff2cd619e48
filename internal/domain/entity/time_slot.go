package entity

// TimeSlot is a derived view of one slot of a doctor's day. It is never stored.
type TimeSlot struct {
	Time        string `json:"time"`
	IsAvailable bool   `json:"is_available"`
}
