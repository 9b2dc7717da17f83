package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Gateway  GatewayConfig
	Business BusinessConfig
	Jobs     JobsConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// GatewayConfig holds payment gateway credentials. Provider selects which
// adapter gets wired at startup: "paystack", "stripe" or "sandbox".
type GatewayConfig struct {
	Provider         string
	PaystackSecret   string
	StripeKey        string
	StripeSuccessURL string
	StripeCancelURL  string
	WebhookSecret    string
	TimeoutSeconds   int
}

// BusinessConfig holds marketplace policy knobs.
type BusinessConfig struct {
	CommissionPct           int // platform cut on completed bookings, percent
	CancelInProgressCustPct int // customer share of the refund when cancelling mid-progress
	DefaultSearchRadiusKm   float64
	MaxSearchRadiusKm       float64
}

type JobsConfig struct {
	StaleBookingAgeMinutes      int
	StaleBookingIntervalSeconds int
	ReconcilePaymentAgeMinutes  int
	ReconcileIntervalSeconds    int
	ReconcileBatchSize          int
	SlaAcceptThresholdMinutes   int
	SlaArrivalThresholdMinutes  int
	SlaIntervalSeconds          int
}

var AppConfig *Config

func Load() {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "mechanic_service_db"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Gateway: GatewayConfig{
			Provider:         getEnv("PAYMENT_GATEWAY", "sandbox"),
			PaystackSecret:   getEnv("PAYSTACK_SECRET_KEY", ""),
			StripeKey:        getEnv("STRIPE_API_KEY", ""),
			StripeSuccessURL: getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/payment/success"),
			StripeCancelURL:  getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/payment/cancel"),
			WebhookSecret:    getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			TimeoutSeconds:   getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 15),
		},
		Business: BusinessConfig{
			CommissionPct:           getEnvAsInt("PLATFORM_COMMISSION_PCT", 15),
			CancelInProgressCustPct: getEnvAsInt("CANCEL_INPROGRESS_CUSTOMER_PCT", 50),
			DefaultSearchRadiusKm:   getEnvAsFloat("DEFAULT_SEARCH_RADIUS_KM", 10),
			MaxSearchRadiusKm:       getEnvAsFloat("MAX_SEARCH_RADIUS_KM", 50),
		},
		Jobs: JobsConfig{
			StaleBookingAgeMinutes:      getEnvAsInt("STALE_BOOKING_AGE_MINUTES", 120),
			StaleBookingIntervalSeconds: getEnvAsInt("STALE_BOOKING_INTERVAL_SECONDS", 300),
			ReconcilePaymentAgeMinutes:  getEnvAsInt("RECONCILE_PAYMENT_AGE_MINUTES", 30),
			ReconcileIntervalSeconds:    getEnvAsInt("RECONCILE_INTERVAL_SECONDS", 300),
			ReconcileBatchSize:          getEnvAsInt("RECONCILE_BATCH_SIZE", 50),
			SlaAcceptThresholdMinutes:   getEnvAsInt("SLA_ACCEPT_THRESHOLD_MINUTES", 10),
			SlaArrivalThresholdMinutes:  getEnvAsInt("SLA_ARRIVAL_THRESHOLD_MINUTES", 45),
			SlaIntervalSeconds:          getEnvAsInt("SLA_INTERVAL_SECONDS", 60),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
