package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	MongoURI          string
	MongoDBName       string
	MongoTransactions bool

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	JWTSecret string

	KafkaBrokers []string
	KafkaTopic   string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	SMSBaseURL string
	SMSAPIKey  string
	SMSFrom    string
	SMSTimeout time.Duration

	TaxRate               float64
	ShippingFee           float64
	FreeShippingThreshold float64

	AlertInterval time.Duration
}

var defaults = map[string]any{
	"HTTP_PORT":        "8080",
	"REQUEST_TIMEOUT":  "30s",
	"SHUTDOWN_TIMEOUT": "10s",
	"LOG_LEVEL":        "info",

	"MONGO_URI":          "mongodb://localhost:27017",
	"MONGO_DB_NAME":      "market",
	"MONGO_TRANSACTIONS": false,

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"CACHE_TTL":      "15m",

	"JWT_SECRET": "",

	"KAFKA_BROKERS": "localhost:9092",
	"KAFKA_TOPIC":   "customer-notifications",

	"SMTP_HOST":     "",
	"SMTP_PORT":     587,
	"SMTP_USER":     "",
	"SMTP_PASSWORD": "",
	"SMTP_FROM":     "no-reply@market.local",

	"SMS_BASE_URL": "",
	"SMS_API_KEY":  "",
	"SMS_FROM":     "MARKET",
	"SMS_TIMEOUT":  "5s",

	"TAX_RATE":                0.18,
	"SHIPPING_FEE":            50.0,
	"FREE_SHIPPING_THRESHOLD": 500.0,

	"ALERT_INTERVAL": "15m",
}

// Load reads the configuration from the environment, optionally layered over
// a config file given by CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		HTTPPort:        v.GetString("HTTP_PORT"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		LogLevel:        v.GetString("LOG_LEVEL"),

		MongoURI:          v.GetString("MONGO_URI"),
		MongoDBName:       v.GetString("MONGO_DB_NAME"),
		MongoTransactions: v.GetBool("MONGO_TRANSACTIONS"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		JWTSecret: v.GetString("JWT_SECRET"),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		SMTPFrom:     v.GetString("SMTP_FROM"),

		SMSBaseURL: v.GetString("SMS_BASE_URL"),
		SMSAPIKey:  v.GetString("SMS_API_KEY"),
		SMSFrom:    v.GetString("SMS_FROM"),
		SMSTimeout: v.GetDuration("SMS_TIMEOUT"),

		TaxRate:               v.GetFloat64("TAX_RATE"),
		ShippingFee:           v.GetFloat64("SHIPPING_FEE"),
		FreeShippingThreshold: v.GetFloat64("FREE_SHIPPING_THRESHOLD"),

		AlertInterval: v.GetDuration("ALERT_INTERVAL"),
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		errs = append(errs, fmt.Errorf("TAX_RATE must be in [0, 1), got %v", c.TaxRate))
	}
	if c.ShippingFee < 0 || c.FreeShippingThreshold < 0 {
		errs = append(errs, errors.New("shipping fee and threshold must not be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
