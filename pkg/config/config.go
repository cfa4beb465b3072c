package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte
	AuthHTTPURL     string

	CSRFSecureCookie bool

	KafkaBrokers []string

	RedisAddr     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ReceiptIndex    string

	Payment PaymentConfig
	Gateway GatewayConfig
}

type PaymentConfig struct {
	// Ceiling is the maximum order total in the smallest currency unit.
	Ceiling          int64
	ItemLifetimeDays int
	RefundWindowDays int
}

type GatewayConfig struct {
	BaseURL         string
	SecretKey       string
	MerchantID      string
	CallbackBaseURL string
	Timeout         time.Duration
}

// LoadDotEnv reads an optional .env file; a missing file is not an error.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		log.Printf("notice: %s not loaded: %v, using process environment", path, err)
	}
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "payment"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		AuthHTTPURL:     os.Getenv("AUTH_URL"),

		CSRFSecureCookie: EnvBoolDefault("CSRF_SECURE_COOKIE", true),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ES_URL"),
		ElasticUser:     os.Getenv("ES_USER"),
		ElasticPassword: os.Getenv("ES_PASSWORD"),
		ReceiptIndex:    EnvDefault("RECEIPT_INDEX", "receipts"),

		Payment: PaymentConfig{
			Ceiling:          int64(EnvIntDefault("PAYMENT_CEILING", 50000)),
			ItemLifetimeDays: EnvIntDefault("ITEM_LIFETIME_DAYS", 730),
			RefundWindowDays: EnvIntDefault("REFUND_WINDOW_DAYS", 7),
		},

		Gateway: GatewayConfig{
			BaseURL:         EnvDefault("KAKAOPAY_BASE_URL", "https://open-api.kakaopay.com"),
			SecretKey:       os.Getenv("KAKAOPAY_SECRET_KEY"),
			MerchantID:      EnvDefault("KAKAOPAY_CID", "TC0ONETIME"),
			CallbackBaseURL: os.Getenv("PAYMENT_CALLBACK_BASE_URL"),
			Timeout:         EnvDurationDefault("KAKAOPAY_TIMEOUT", 10*time.Second),
		},
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
