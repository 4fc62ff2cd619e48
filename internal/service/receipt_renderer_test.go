package service

import (
	"bytes"
	"testing"
	"time"

	"medlink-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPaymentReceipt(t *testing.T) {
	payment := &entity.Payment{
		ID:               uuid.New(),
		AppointmentID:    uuid.New(),
		Amount:           decimal.RequireFromString("52.50"),
		Status:           entity.PaymentStatusSuccess,
		Method:           "Credit Card",
		GatewayReference: "SIM-ABCDEF12",
		TransactionDate:  time.Date(2025, 6, 1, 9, 5, 0, 0, time.UTC),
	}
	appt := &entity.Appointment{
		PatientName:     "Alice",
		DoctorName:      "Dr Strange",
		Specialty:       entity.SpecialtyNeurology,
		AppointmentDate: "2025-06-01",
		SlotTime:        "10:00",
	}

	pdf, err := RenderPaymentReceipt(payment, appt)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Greater(t, len(pdf), 500)
}
