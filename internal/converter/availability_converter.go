package converter

import (
	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
)

func AvailabilityToResponse(a *entity.DoctorAvailability) dto.AvailabilityWindowResponse {
	return dto.AvailabilityWindowResponse{
		ID:          a.ID,
		Weekday:     a.Weekday,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		SlotMinutes: a.SlotMinutes,
		CreatedAt:   a.CreatedAt,
	}
}

func AvailabilitiesToResponses(windows []entity.DoctorAvailability) []dto.AvailabilityWindowResponse {
	responses := make([]dto.AvailabilityWindowResponse, len(windows))
	for i := range windows {
		responses[i] = AvailabilityToResponse(&windows[i])
	}
	return responses
}

// AvailabilityRequestsToEntities maps validated request windows to template rows.
func AvailabilityRequestsToEntities(windows []dto.AvailabilityWindowRequest) []entity.DoctorAvailability {
	rows := make([]entity.DoctorAvailability, 0, len(windows))
	for _, w := range windows {
		weekday := 0
		if w.Weekday != nil {
			weekday = *w.Weekday
		}
		rows = append(rows, entity.DoctorAvailability{
			Weekday:     weekday,
			StartTime:   w.StartTime,
			EndTime:     w.EndTime,
			SlotMinutes: w.SlotMinutes,
		})
	}
	return rows
}

func WaitTimeToResponse(e *entity.WaitTimeEstimate) *dto.WaitTimeResponse {
	if e == nil {
		return nil
	}

	return &dto.WaitTimeResponse{
		DoctorID:          e.DoctorID,
		Date:              e.Date,
		PatientsAhead:     e.PatientsAhead,
		EstimatedMinutes:  e.EstimatedMinutes,
		MinutesPerPatient: e.MinutesPerPatient,
		ComputedAt:        e.ComputedAt,
	}
}
