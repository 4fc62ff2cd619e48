package dto

import (
	"medlink-booking/internal/domain/entity"
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type AuditLogQuery struct {
	EntityName string
	EntityID   string
	Action     string
	Page       int
	Limit      int
}

// Response DTOs

type AuditLogResponse struct {
	ID         int64         `json:"id"`
	UserID     *uuid.UUID    `json:"user_id,omitempty"`
	User       *UserResponse `json:"user,omitempty"`
	ActorRole  string        `json:"actor_role"`
	Action     string        `json:"action"`
	EntityName string        `json:"entity_name"`
	EntityID   string        `json:"entity_id"`
	Metadata   entity.JSON   `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
