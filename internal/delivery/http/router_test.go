package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medlink-booking/config"
	deliveryhttp "medlink-booking/internal/delivery/http"
	"medlink-booking/internal/delivery/dto"
	"medlink-booking/internal/delivery/http/handler"
	"medlink-booking/internal/delivery/http/middleware"
	"medlink-booking/internal/domain/entity"
	"medlink-booking/internal/repository"
	"medlink-booking/internal/service"
	"medlink-booking/internal/testsupport"
	"medlink-booking/internal/usecase"
	"medlink-booking/pkg/jwt"
	"medlink-booking/pkg/validator"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const apiDate = "2025-06-01"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiFixture struct {
	db     *gorm.DB
	clock  *testsupport.Clock
	router http.Handler
	doctor *entity.User
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db := testsupport.NewTestDB(t)
	log := testsupport.NewTestLogger()
	_, redisClient := testsupport.NewTestRedis(t)
	clock := testsupport.NewClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "api-secret", AccessExpiry: time.Hour, RefreshExpiry: 24 * time.Hour})
	customValidator := validator.NewValidator()

	userRepo := repository.NewUserRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	patientProfileRepo := repository.NewPatientProfileRepository()
	availabilityRepo := repository.NewDoctorAvailabilityRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	paymentRepo := repository.NewPaymentRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	auditService := service.NewAuditService(log, auditLogRepo)

	locker := service.NewLocalSlotLocker(log)
	t.Cleanup(locker.Stop)
	manager := service.NewBookingManager(db, log, appointmentRepo, auditService, locker, service.BookingOptions{
		HoldWindow:    15 * time.Minute,
		SweepInterval: time.Hour,
	}).WithClock(clock.Now)
	t.Cleanup(manager.Stop)

	dispatcher := service.NewNotificationDispatcher(service.NewLogNotifier(log), log)
	t.Cleanup(dispatcher.Close)

	slots := []string{"09:00", "09:30", "10:00"}
	fee := decimal.RequireFromString("52.50")

	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, doctorProfileRepo, patientProfileRepo, auditService, jwtService, redisClient)
	doctorUsecase := usecase.NewDoctorProfileUsecase(db, log, userRepo, doctorProfileRepo, auditService)
	patientUsecase := usecase.NewPatientProfileUsecase(db, log, userRepo, patientProfileRepo, auditService)
	slotUsecase := usecase.NewSlotCalendarUsecase(db, log, doctorProfileRepo, appointmentRepo, availabilityRepo, auditService, manager, slots)
	bookingUsecase := usecase.NewBookingUsecase(db, log, userRepo, doctorProfileRepo, availabilityRepo, manager, slots, fee)
	paymentUsecase := usecase.NewPaymentUsecase(db, log, appointmentRepo, paymentRepo, auditService, manager,
		service.NewSimulatedGateway(log, []string{"declined-card"}), dispatcher)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, appointmentRepo, manager, dispatcher)
	waitTimeUsecase := usecase.NewWaitTimeUsecase(db, log, doctorProfileRepo, appointmentRepo,
		service.NewRedisWaitTimeCache(redisClient, log, time.Minute), manager, 15)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	router := deliveryhttp.NewRouter(
		handler.NewAuthHandler(authUsecase, customValidator, jwtService),
		handler.NewDoctorHandler(doctorUsecase, slotUsecase, waitTimeUsecase, appointmentUsecase, customValidator),
		handler.NewAppointmentHandler(bookingUsecase, paymentUsecase, appointmentUsecase, customValidator),
		handler.NewPatientHandler(patientUsecase, appointmentUsecase, paymentUsecase, customValidator),
		handler.NewAuditLogHandler(auditLogUsecase),
		middleware.NewAuthMiddleware(jwtService, redisClient),
		middleware.NewCORSMiddleware(nil),
		middleware.NewLoggingMiddleware(log),
		middleware.NewRateLimiter(1000, 1000),
	)

	return &apiFixture{
		db:     db,
		clock:  clock,
		router: router.Setup(),
		doctor: testsupport.SeedDoctor(t, db, "Dr House", entity.SpecialtyGeneralPractice),
	}
}

func TestAPI_CORSPreflight(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/appointments", nil)
	req.Header.Set("Origin", "https://portal.medlink.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = f.do(t, http.MethodGet, "/doctors", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(t, http.MethodGet, "/no-such-route", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func (f *apiFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tokens dto.TokenResponse
	decodeData(t, rec, &tokens)
	return tokens.AccessToken
}

func (f *apiFixture) registerPatient(t *testing.T, name, email string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/register/patient", "", dto.RegisterPatientRequest{
		Email:    email,
		Password: "patient-pass",
		FullName: name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return f.login(t, email, "patient-pass")
}

func (f *apiFixture) claim(t *testing.T, token, slot string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/appointments", token, map[string]string{
		"doctor_id": f.doctor.ID.String(),
		"date":      apiDate,
		"slot":      slot,
	})
}

func (f *apiFixture) pay(t *testing.T, token, appointmentID, method, amount string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/appointments/"+appointmentID+"/pay", token, map[string]string{
		"method": method,
		"amount": amount,
	})
}

func TestAPI_BookPayAndComplete(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.registerPatient(t, "Alice", "alice@example.com")
	doctor := f.login(t, f.doctor.Email, testsupport.TestPassword)

	rec := f.do(t, http.MethodGet, "/doctors?specialty=General%20Practice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var directory dto.DoctorListResponse
	decodeData(t, rec, &directory)
	require.Equal(t, 1, directory.Total)
	assert.Equal(t, f.doctor.ID, directory.Doctors[0].ID)

	rec = f.claim(t, alice, "09:30")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var appt dto.AppointmentResponse
	decodeData(t, rec, &appt)
	assert.Equal(t, string(entity.StatusPendingPayment), appt.Status)
	require.NotNil(t, appt.HoldExpiresAt)

	rec = f.do(t, http.MethodGet, "/doctors/"+f.doctor.ID.String()+"/slots?date="+apiDate, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slots dto.SlotListResponse
	decodeData(t, rec, &slots)
	require.Len(t, slots.Slots, 3)
	assert.False(t, slots.Slots[1].IsAvailable)

	rec = f.pay(t, alice, appt.ID.String(), "card", "50.00")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.pay(t, alice, appt.ID.String(), "card", "52.50")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid dto.PaymentResultResponse
	decodeData(t, rec, &paid)
	assert.Equal(t, string(entity.StatusConfirmed), paid.Appointment.Status)
	assert.Equal(t, string(entity.PaymentStatusSuccess), paid.Payment.Status)

	rec = f.pay(t, alice, appt.ID.String(), "card", "52.50")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/patient/payments/"+paid.Payment.ID.String()+"/receipt", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = f.do(t, http.MethodPatch, "/appointments/"+appt.ID.String()+"/status", alice, dto.UpdateAppointmentStatusRequest{Status: "COMPLETED"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPatch, "/appointments/"+appt.ID.String()+"/status", doctor, dto.UpdateAppointmentStatusRequest{Status: "COMPLETED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPatch, "/appointments/"+appt.ID.String()+"/status", doctor, dto.UpdateAppointmentStatusRequest{Status: "CANCELLED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/doctor/appointments?date="+apiDate, doctor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var agenda dto.AppointmentListResponse
	decodeData(t, rec, &agenda)
	require.Equal(t, 1, agenda.Total)
	assert.Equal(t, string(entity.StatusCompleted), agenda.Appointments[0].Status)
}

func TestAPI_ExpiredAndDeclinedPayments(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.registerPatient(t, "Alice", "alice@example.com")

	rec := f.claim(t, alice, "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)
	var held dto.AppointmentResponse
	decodeData(t, rec, &held)

	rec = f.claim(t, alice, "10:00")
	require.Equal(t, http.StatusCreated, rec.Code)
	var declined dto.AppointmentResponse
	decodeData(t, rec, &declined)

	rec = f.pay(t, alice, declined.ID.String(), "declined-card", "52.50")
	require.Equal(t, http.StatusPaymentRequired, rec.Code, rec.Body.String())
	var result dto.PaymentResultResponse
	env := decodeData(t, rec, &result)
	assert.False(t, env.Success)
	assert.Equal(t, string(entity.PaymentStatusFailed), result.Payment.Status)
	assert.Equal(t, string(entity.StatusCancelled), result.Appointment.Status)

	f.clock.Advance(15 * time.Minute)
	rec = f.pay(t, alice, held.ID.String(), "card", "52.50")
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = f.claim(t, alice, "09:15")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_AccessControl(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.registerPatient(t, "Alice", "alice@example.com")
	bob := f.registerPatient(t, "Bob", "bob@example.com")
	doctor := f.login(t, f.doctor.Email, testsupport.TestPassword)

	rec := f.claim(t, "", "09:00")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.claim(t, doctor, "09:00")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/audit-logs", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.claim(t, alice, "09:00")
	require.Equal(t, http.StatusCreated, rec.Code)
	var appt dto.AppointmentResponse
	decodeData(t, rec, &appt)

	rec = f.pay(t, bob, appt.ID.String(), "card", "52.50")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/appointments/"+appt.ID.String(), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/appointments/not-a-uuid", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/logout", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/auth/me", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	admin := testsupport.SeedAdmin(t, f.db, "Root")
	adminToken := f.login(t, admin.Email, testsupport.TestPassword)
	rec = f.do(t, http.MethodGet, "/admin/audit-logs?entity_name=appointment&limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var logs []dto.AuditLogResponse
	decodeData(t, rec, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.AuditActionAppointmentClaim, logs[0].Action)
}
