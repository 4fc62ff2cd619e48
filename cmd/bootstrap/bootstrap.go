package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medlink-booking/config"
	deliveryHttp "medlink-booking/internal/delivery/http"
	"medlink-booking/internal/delivery/http/handler"
	"medlink-booking/internal/delivery/http/middleware"
	"medlink-booking/internal/infrastructure/cache"
	"medlink-booking/internal/infrastructure/database"
	"medlink-booking/internal/infrastructure/messaging"
	"medlink-booking/internal/repository"
	"medlink-booking/internal/service"
	"medlink-booking/internal/usecase"
	"medlink-booking/pkg/jwt"
	"medlink-booking/pkg/validator"

	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config         *config.Config
	DB             *gorm.DB
	RedisClient    *redis.Client
	AMQP           *amqp091.Connection
	Server         *http.Server
	BookingManager *service.BookingManager
	Dispatcher     *service.NotificationDispatcher

	stopLocker func()
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	log := setupLogger(cfg.App.LogLevel)
	log.Info("Configuration loaded successfully")

	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	notifier := service.NewLogNotifier(log)
	if cfg.RabbitMQ.URL != "" {
		conn, err := messaging.NewRabbitMQConnection(cfg.RabbitMQ)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.AMQP = conn

		notifier, err = service.NewRabbitMQNotifier(conn, cfg.RabbitMQ.NotificationQueue)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create notifier: %w", err)
		}
	} else {
		log.Warn("RABBITMQ_URL not set, notifications are only logged")
	}
	app.Dispatcher = service.NewNotificationDispatcher(notifier, log)

	locker, stopLocker := newSlotLocker(cfg.Booking, redisClient, log)
	app.stopLocker = stopLocker

	auditService := service.NewAuditService(log, repository.NewAuditLogRepository())
	app.BookingManager = service.NewBookingManager(db, log, repository.NewAppointmentRepository(), auditService, locker, service.BookingOptions{
		HoldWindow:    cfg.Booking.HoldWindow,
		SweepInterval: cfg.Booking.SweepInterval,
		Location:      cfg.Booking.Location,
	})

	app.Server = initializeServer(cfg, log, db, redisClient, auditService, app.BookingManager, app.Dispatcher)

	return app, nil
}

// setupLogger configures the logrus standard logger
func setupLogger(level string) *logrus.Logger {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	return logrus.StandardLogger()
}

// newSlotLocker picks the claim lock backend. The Redis lock is required once
// more than one instance serves the same database.
func newSlotLocker(cfg config.BookingConfig, redisClient *redis.Client, log *logrus.Logger) (service.SlotLocker, func()) {
	if cfg.LockBackend == config.LockBackendLocal {
		locker := service.NewLocalSlotLocker(log)
		return locker, locker.Stop
	}
	return service.NewRedisSlotLocker(redisClient, log, cfg.LockTTL), func() {}
}

// initializeServer creates and configures the HTTP server
func initializeServer(
	cfg *config.Config,
	log *logrus.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	auditService service.AuditService,
	bookingManager *service.BookingManager,
	dispatcher *service.NotificationDispatcher,
) *http.Server {
	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	patientProfileRepo := repository.NewPatientProfileRepository()
	availabilityRepo := repository.NewDoctorAvailabilityRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	paymentRepo := repository.NewPaymentRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	processor := service.NewSimulatedGateway(log, cfg.Payment.DeclinedMethods)
	waitTimeCache := service.NewRedisWaitTimeCache(redisClient, log, cfg.WaitTime.CacheTTL)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, doctorProfileRepo, patientProfileRepo, auditService, jwtService, redisClient)
	doctorProfileUsecase := usecase.NewDoctorProfileUsecase(db, log, userRepo, doctorProfileRepo, auditService)
	patientProfileUsecase := usecase.NewPatientProfileUsecase(db, log, userRepo, patientProfileRepo, auditService)
	slotCalendarUsecase := usecase.NewSlotCalendarUsecase(db, log, doctorProfileRepo, appointmentRepo, availabilityRepo, auditService, bookingManager, cfg.Booking.DefaultSlotTimes)
	bookingUsecase := usecase.NewBookingUsecase(db, log, userRepo, doctorProfileRepo, availabilityRepo, bookingManager, cfg.Booking.DefaultSlotTimes, cfg.Booking.ConsultationFee)
	paymentUsecase := usecase.NewPaymentUsecase(db, log, appointmentRepo, paymentRepo, auditService, bookingManager, processor, dispatcher)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, appointmentRepo, bookingManager, dispatcher)
	waitTimeUsecase := usecase.NewWaitTimeUsecase(db, log, doctorProfileRepo, appointmentRepo, waitTimeCache, bookingManager, cfg.WaitTime.MinutesPerPatient)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator, jwtService)
	doctorHandler := handler.NewDoctorHandler(doctorProfileUsecase, slotCalendarUsecase, waitTimeUsecase, appointmentUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(bookingUsecase, paymentUsecase, appointmentUsecase, customValidator)
	patientHandler := handler.NewPatientHandler(patientProfileUsecase, appointmentUsecase, paymentUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSAllowedOrigins)
	loggingMiddleware := middleware.NewLoggingMiddleware(log)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	router := deliveryHttp.NewRouter(
		authHandler,
		doctorHandler,
		appointmentHandler,
		patientHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		loggingMiddleware,
		rateLimiter,
	)

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and the hold sweeper, then blocks until shutdown.
func (app *App) Run() {
	app.BookingManager.Start()

	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close stops background work first, then closes connections.
func (app *App) Close() {
	if app.BookingManager != nil {
		app.BookingManager.Stop()
	}
	if app.stopLocker != nil {
		app.stopLocker()
	}
	if app.Dispatcher != nil {
		app.Dispatcher.Close()
	}

	if app.AMQP != nil {
		app.AMQP.Close()
	}

	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
