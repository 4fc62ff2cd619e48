package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type ConfirmPaymentRequest struct {
	Method string          `json:"method" validate:"required,max=50"`
	Amount decimal.Decimal `json:"amount"`
}

// Response DTOs

type PaymentResponse struct {
	ID               uuid.UUID       `json:"id"`
	AppointmentID    uuid.UUID       `json:"appointment_id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	Method           string          `json:"method"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	TransactionDate  time.Time       `json:"transaction_date"`
}

// PaymentResultResponse is returned by the pay endpoint for both outcomes.
type PaymentResultResponse struct {
	Payment       PaymentResponse     `json:"payment"`
	Appointment   AppointmentResponse `json:"appointment"`
	DeclineReason string              `json:"decline_reason,omitempty"`
}

type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Total    int               `json:"total"`
}
