package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort      string `mapstructure:"APP_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	Env          string `mapstructure:"ENV"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Stripe payment gateway.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Reservation lifecycle knobs.
	PaymentDeadlineHours int `mapstructure:"PAYMENT_DEADLINE_HOURS"`
	UnpaidExpiryMinutes  int `mapstructure:"UNPAID_EXPIRY_MINUTES"`

	// Cron expressions for the status sweeps.
	ProgressSweepSchedule string `mapstructure:"PROGRESS_SWEEP_SCHEDULE"`
	DeadlineSweepSchedule string `mapstructure:"DEADLINE_SWEEP_SCHEDULE"`
	NoShowSweepSchedule   string `mapstructure:"NO_SHOW_SWEEP_SCHEDULE"`

	// Side-effect worker.
	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"`
	OutboxDrainMs     int `mapstructure:"OUTBOX_DRAIN_MS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "reserva")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("PAYMENT_DEADLINE_HOURS", 24)
	viper.SetDefault("UNPAID_EXPIRY_MINUTES", 30)
	viper.SetDefault("PROGRESS_SWEEP_SCHEDULE", "0 * * * *")
	viper.SetDefault("DEADLINE_SWEEP_SCHEDULE", "*/10 * * * *")
	viper.SetDefault("NO_SHOW_SWEEP_SCHEDULE", "30 3 * * *")
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("OUTBOX_DRAIN_MS", 2000)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// PaymentDeadline returns the configured payment window duration.
func PaymentDeadline() time.Duration {
	return time.Duration(AppConfig.PaymentDeadlineHours) * time.Hour
}

// UnpaidExpiry returns how long an unpaid draft may linger before the sweep
// expires it.
func UnpaidExpiry() time.Duration {
	return time.Duration(AppConfig.UnpaidExpiryMinutes) * time.Minute
}
