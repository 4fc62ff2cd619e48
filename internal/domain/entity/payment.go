package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Payment is insert-only. A retry after a failure creates a new row.
type Payment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uq_payments_success_appointment,where:status = 'SUCCESS'" json:"appointment_id"`
	PatientID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status           PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	Method           string          `gorm:"type:varchar(50);not null" json:"method"`
	GatewayReference string          `gorm:"type:varchar(100)" json:"gateway_reference,omitempty"`
	TransactionDate  time.Time       `gorm:"not null;index" json:"transaction_date"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
