// Package testsupport holds fixtures shared by package tests: an in-memory
// database with the production schema, a quiet logger, a controllable clock
// and seeded users.
package testsupport

import (
	"io"
	"sync"
	"testing"
	"time"

	"medlink-booking/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database, migrates every table
// and seeds the roles. A single connection keeps the memory database alive and
// serializes access, so a transaction must never be mixed with queries on the
// root handle.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.DoctorProfile{},
		&entity.PatientProfile{},
		&entity.DoctorAvailability{},
		&entity.Appointment{},
		&entity.Payment{},
		&entity.AuditLog{},
	))

	roles := []entity.Role{
		{ID: entity.RoleIDAdmin, RoleName: entity.RoleAdmin},
		{ID: entity.RoleIDDoctor, RoleName: entity.RoleDoctor},
		{ID: entity.RoleIDPatient, RoleName: entity.RolePatient},
	}
	require.NoError(t, db.Create(&roles).Error)

	return db
}

func NewTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// NewTestRedis starts an in-process Redis server that is shut down with the test.
func NewTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestPassword is the plain password of every seeded user.
const TestPassword = "secret123"

var (
	hashOnce   sync.Once
	hashedPass string
)

func passwordHash(t testing.TB) string {
	hashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		require.NoError(t, err)
		hashedPass = string(h)
	})
	return hashedPass
}

func SeedDoctor(t testing.TB, db *gorm.DB, fullName, specialty string) *entity.User {
	t.Helper()

	user := &entity.User{
		RoleID:   entity.RoleIDDoctor,
		Email:    emailFor(fullName),
		Password: passwordHash(t),
		FullName: fullName,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&entity.DoctorProfile{
		UserID:          user.ID,
		Specialty:       specialty,
		Bio:             "Consultant",
		ExperienceYears: 10,
	}).Error)
	return user
}

func SeedPatient(t testing.TB, db *gorm.DB, fullName string) *entity.User {
	t.Helper()

	user := &entity.User{
		RoleID:   entity.RoleIDPatient,
		Email:    emailFor(fullName),
		Password: passwordHash(t),
		FullName: fullName,
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&entity.PatientProfile{
		UserID:      user.ID,
		PhoneNumber: "555-0100",
	}).Error)
	return user
}

func SeedAdmin(t testing.TB, db *gorm.DB, fullName string) *entity.User {
	t.Helper()

	user := &entity.User{
		RoleID:   entity.RoleIDAdmin,
		Email:    emailFor(fullName),
		Password: passwordHash(t),
		FullName: fullName,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func PatientActor(u *entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, Role: entity.RolePatient}
}

func DoctorActor(u *entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, Role: entity.RoleDoctor}
}

func AdminActor(u *entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, Role: entity.RoleAdmin}
}

func emailFor(fullName string) string {
	b := make([]byte, 0, len(fullName))
	for _, r := range fullName {
		switch {
		case r >= 'A' && r <= 'Z':
			b = append(b, byte(r-'A'+'a'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b = append(b, byte(r))
		case r == ' ':
			b = append(b, '.')
		}
	}
	return string(b) + "@medlink.test"
}
