package repository

import (
	"medlink-booking/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogFilter struct {
	EntityName string
	EntityID   string
	Action     string
	Limit      int
	Offset     int
}

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindAll(db *gorm.DB, filter AuditLogFilter) ([]entity.AuditLog, int64, error)
	FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error)
}
