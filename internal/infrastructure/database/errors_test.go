package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	activeSlot := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_appointments_active_slot"}
	successPayment := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_payments_success_appointment"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "", false},
		{"matching constraint", activeSlot, "uq_appointments_active_slot", true},
		{"wrapped matching constraint", fmt.Errorf("insert appointment: %w", activeSlot), "uq_appointments_active_slot", true},
		{"other unique index", successPayment, "uq_appointments_active_slot", false},
		{"any constraint", successPayment, "", true},
		{"email constraint by fragment", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq_users_email"}, "email", true},
		{"not a unique violation", &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "uq_appointments_active_slot"}, "uq_appointments_active_slot", false},
		{"translated sentinel", gorm.ErrDuplicatedKey, "uq_appointments_active_slot", true},
		{"sqlite message", errors.New("UNIQUE constraint failed: appointments.doctor_id"), "uq_appointments_active_slot", true},
		{"unrelated error", errors.New("connection reset"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err, tt.constraint))
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	roleFK := &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "users_role_id_fkey"}

	assert.True(t, IsForeignKeyViolation(fmt.Errorf("create user: %w", roleFK), "role"))
	assert.False(t, IsForeignKeyViolation(roleFK, "doctor"))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_role_id_fkey"}, "role"))
	assert.True(t, IsForeignKeyViolation(gorm.ErrForeignKeyViolated, "role"))
	assert.False(t, IsForeignKeyViolation(nil, "role"))
}
