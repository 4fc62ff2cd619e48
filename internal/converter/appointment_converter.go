package converter

import (
	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(a *entity.Appointment) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		PatientName:     a.PatientName,
		DoctorName:      a.DoctorName,
		Specialty:       a.Specialty,
		AppointmentDate: a.AppointmentDate,
		SlotTime:        a.SlotTime,
		Status:          string(a.Status),
		Fee:             a.Fee,
		CancelReason:    a.CancelReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}

	// The hold is only meaningful while payment is outstanding
	if a.Status == entity.StatusPendingPayment {
		response.HoldExpiresAt = a.HoldExpiresAt
	}

	return response
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
