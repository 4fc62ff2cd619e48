package converter

import (
	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/domain/entity"
)

func PaymentToResponse(p *entity.Payment) *dto.PaymentResponse {
	if p == nil {
		return nil
	}

	return &dto.PaymentResponse{
		ID:               p.ID,
		AppointmentID:    p.AppointmentID,
		PatientID:        p.PatientID,
		Amount:           p.Amount,
		Status:           string(p.Status),
		Method:           p.Method,
		GatewayReference: p.GatewayReference,
		TransactionDate:  p.TransactionDate,
	}
}

func PaymentsToResponses(payments []entity.Payment) []dto.PaymentResponse {
	responses := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *PaymentToResponse(&payments[i])
	}
	return responses
}
