package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	JWTSecret  string
	CORSOrigin string
	RedisURL   string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	TaxRate               decimal.Decimal
	StandardShippingFee   decimal.Decimal
	ExpressShippingFee    decimal.Decimal
	FreeShippingThreshold decimal.Decimal

	// ReconcileAfter is how long a payment may stay without an order
	// before the sweeper treats it as orphaned.
	ReconcileAfter time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:              os.Getenv("DB_HOST"),
		DBUser:              os.Getenv("DB_USER"),
		DBPassword:          os.Getenv("DB_PASSWORD"),
		DBName:              os.Getenv("DB_NAME"),
		DBPort:              os.Getenv("DB_PORT"),
		AppPort:             getEnv("APP_PORT", "8080"),
		AppEnv:              os.Getenv("APP_ENV"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		CORSOrigin:          getEnv("CORS_ORIGIN", "http://localhost:3000"),
		RedisURL:            os.Getenv("REDIS_URL"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getEnv("CURRENCY", "eur")),

		TaxRate:               getDecimal("TAX_RATE", "0.20"),
		StandardShippingFee:   getDecimal("SHIPPING_STANDARD_FEE", "4.99"),
		ExpressShippingFee:    getDecimal("SHIPPING_EXPRESS_FEE", "9.99"),
		FreeShippingThreshold: getDecimal("FREE_SHIPPING_THRESHOLD", "100"),

		ReconcileAfter: getDuration("RECONCILE_AFTER", 30*time.Minute),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDecimal(key, def string) decimal.Decimal {
	raw := getEnv(key, def)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("invalid decimal for %s=%q, using %s", key, raw, def)
		return decimal.RequireFromString(def)
	}
	return d
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %s", key, raw, def)
		return def
	}
	return d
}
