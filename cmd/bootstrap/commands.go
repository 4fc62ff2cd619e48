package bootstrap

import (
	"context"
	"fmt"

	"medlink-booking/config"
	"medlink-booking/internal/infrastructure/database"
	"medlink-booking/internal/repository"
	"medlink-booking/internal/service"
)

// WithMigrator opens the embedded migration set against the configured
// database and runs fn.
func WithMigrator(fn func(m *database.Migrator) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg.App.LogLevel)

	migrator, err := database.NewMigrator(database.MigrationURL(cfg.DB), log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return fn(migrator)
}

// SweepOnce releases every lapsed hold and exits. Meant for cron style
// deployments that run the API without the in-process sweeper.
func SweepOnce(ctx context.Context) (int, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return 0, fmt.Errorf("failed to load config: %w", err)
	}
	log := setupLogger(cfg.App.LogLevel)

	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return 0, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Expiry never takes the claim lock, so the local backend is enough here.
	locker := service.NewLocalSlotLocker(log)
	defer locker.Stop()

	manager := service.NewBookingManager(db, log,
		repository.NewAppointmentRepository(),
		service.NewAuditService(log, repository.NewAuditLogRepository()),
		locker,
		service.BookingOptions{HoldWindow: cfg.Booking.HoldWindow},
	)
	return manager.ReleaseExpiredHolds(ctx)
}
