// config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string
	MongoURI    string
	MongoDBName string
	RabbitURL   string
	RedisAddr   string
	RedisPass   string
	FrontendURL string

	// AuthMode selects the token verifier: "jwt" or "remote".
	AuthMode      string
	AuthURL       string
	JWTSecret     string
	JWTExpireDays int

	VerifyPrices bool
	CancelWindow time.Duration

	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
	TaxRate               decimal.Decimal
	PointsPerUnit         int64

	RewardOffersFile   string
	OutboxPollInterval time.Duration

	// DrainDelay is how long /readyz reports unready before the server
	// stops accepting connections.
	DrainDelay      time.Duration
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "5000"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDBName: getEnv("MONGO_DB_NAME", "bakery"),
		RabbitURL:   getEnv("RABBIT_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:8081"),

		AuthMode:      getEnv("AUTH_MODE", "jwt"),
		AuthURL:       getEnv("AUTH_SERVICE_URL", "http://localhost:3000"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		JWTExpireDays: getEnvInt("JWT_EXPIRE_DAYS", 7),

		VerifyPrices: getEnvBool("ORDER_VERIFY_PRICES", true),
		CancelWindow: getEnvDuration("CANCEL_WINDOW", 5*time.Minute),

		FreeDeliveryThreshold: getEnvDecimal("FREE_DELIVERY_THRESHOLD", "50.00"),
		DeliveryFee:           getEnvDecimal("DELIVERY_FEE", "4.99"),
		TaxRate:               getEnvDecimal("TAX_RATE", "0.08"),
		PointsPerUnit:         int64(getEnvInt("POINTS_PER_UNIT", 10)),

		RewardOffersFile:   getEnv("REWARD_OFFERS_FILE", ""),
		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),

		DrainDelay:      getEnvDuration("SHUTDOWN_DRAIN_DELAY", 5*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	if v, err := decimal.NewFromString(getEnv(key, "")); err == nil {
		return v
	}
	return decimal.RequireFromString(fallback)
}
