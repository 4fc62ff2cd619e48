package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RabbitMQ  RabbitMQConfig
	Booking   BookingConfig
	Payment   PaymentConfig
	WaitTime  WaitTimeConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
	// CORSAllowedOrigins empty or containing "*" allows any origin.
	CORSAllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	PoolSize  int // 0 keeps the go-redis default
	OpTimeout time.Duration
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// RabbitMQConfig is optional. An empty URL disables queue publishing and
// notifications are only logged.
type RabbitMQConfig struct {
	URL               string
	NotificationQueue string
}

type BookingConfig struct {
	HoldWindow    time.Duration
	SweepInterval time.Duration
	// LockBackend is "redis" for multi-instance deployments or "local".
	LockBackend      string
	LockTTL          time.Duration
	ConsultationFee  decimal.Decimal
	DefaultSlotTimes []string
	// Location is the hospital time zone that slot times are expressed in.
	Location *time.Location
}

type PaymentConfig struct {
	DeclinedMethods []string
}

type WaitTimeConfig struct {
	MinutesPerPatient int
	CacheTTL          time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

const (
	LockBackendRedis = "redis"
	LockBackendLocal = "local"
)

var defaultSlotTimes = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_OP_TIMEOUT", "1s")
	viper.SetDefault("NOTIFICATION_QUEUE", "appointment.notifications")
	viper.SetDefault("BOOKING_HOLD_WINDOW", "15m")
	viper.SetDefault("BOOKING_SWEEP_INTERVAL", "1m")
	viper.SetDefault("BOOKING_LOCK_BACKEND", LockBackendRedis)
	viper.SetDefault("BOOKING_LOCK_TTL", "10s")
	viper.SetDefault("HOSPITAL_TIMEZONE", "UTC")
	viper.SetDefault("CONSULTATION_FEE", "52.50")
	viper.SetDefault("DEFAULT_SLOT_TIMES", strings.Join(defaultSlotTimes, ","))
	viper.SetDefault("PAYMENT_DECLINED_METHODS", "")
	viper.SetDefault("WAIT_TIME_MINUTES_PER_PATIENT", 15)
	viper.SetDefault("WAIT_TIME_CACHE_TTL", "1m")
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
}

func LoadConfig() (*Config, error) {
	setDefaults()
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// .env is optional, the environment alone is enough in containers
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	fee, err := decimal.NewFromString(viper.GetString("CONSULTATION_FEE"))
	if err != nil {
		return nil, errors.New("CONSULTATION_FEE must be a decimal amount")
	}

	location, err := time.LoadLocation(viper.GetString("HOSPITAL_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("HOSPITAL_TIMEZONE: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Port:     viper.GetString("APP_PORT"),
			Env:      viper.GetString("APP_ENV"),
			LogLevel: viper.GetString("LOG_LEVEL"),

			CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),

			OpTimeout: parseDurationOr(viper.GetString("REDIS_OP_TIMEOUT"), time.Second),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		RabbitMQ: RabbitMQConfig{
			URL:               viper.GetString("RABBITMQ_URL"),
			NotificationQueue: viper.GetString("NOTIFICATION_QUEUE"),
		},
		Booking: BookingConfig{
			HoldWindow:       parseDurationOr(viper.GetString("BOOKING_HOLD_WINDOW"), 15*time.Minute),
			SweepInterval:    parseDurationOr(viper.GetString("BOOKING_SWEEP_INTERVAL"), time.Minute),
			LockBackend:      strings.ToLower(viper.GetString("BOOKING_LOCK_BACKEND")),
			LockTTL:          parseDurationOr(viper.GetString("BOOKING_LOCK_TTL"), 10*time.Second),
			ConsultationFee:  fee,
			DefaultSlotTimes: splitList(viper.GetString("DEFAULT_SLOT_TIMES")),
			Location:         location,
		},
		Payment: PaymentConfig{
			DeclinedMethods: splitList(viper.GetString("PAYMENT_DECLINED_METHODS")),
		},
		WaitTime: WaitTimeConfig{
			MinutesPerPatient: viper.GetInt("WAIT_TIME_MINUTES_PER_PATIENT"),
			CacheTTL:          parseDurationOr(viper.GetString("WAIT_TIME_CACHE_TTL"), time.Minute),
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst: viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// splitList turns "a, b,,c" into [a b c].
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}
