package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Email    EmailConfig
	Payment  PaymentConfig
	S3       S3Config
	Kafka    KafkaConfig
	Metrics  MetricsConfig
	Uploads  UploadConfig
	Chat     ChatConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	Environment     string
	FrontendBaseURL string
	PublicBaseURL   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
}

// Addr returns host:port for clients that take a single address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type QueueConfig struct {
	Enabled         bool
	Concurrency     int
	Queues          map[string]int
	ResultRetention time.Duration
}

type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type PaymentConfig struct {
	GatewayBaseURL string
	CallbackURL    string
	MerchantID     string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

// Configured reports whether uploads and exports can use the bucket.
func (c *S3Config) Configured() bool {
	return c.Bucket != ""
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type MetricsConfig struct {
	Enabled bool
	// WorkerAddr is where the worker process serves /metrics.
	WorkerAddr string
}

type UploadConfig struct {
	MaxCourseVideoMB  int64
	MaxArticleVideoMB int64
}

// ChatConfig covers the support websocket and the nightly room cleanup.
type ChatConfig struct {
	AllowedOrigins  []string
	CleanupSchedule string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			FrontendBaseURL: strings.TrimRight(getEnv("FRONTEND_BASE_URL", "http://localhost:3000"), "/"),
			PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "campus"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m")),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "true")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			Prefix:   getEnv("REDIS_PREFIX", "campus"),
		},
		Queue: QueueConfig{
			Enabled:     parseBool(getEnv("QUEUE_ENABLED", "true")),
			Concurrency: parseInt(getEnv("QUEUE_CONCURRENCY", "10"), 10),
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ResultRetention: parseDuration(getEnv("QUEUE_RESULT_RETENTION", "24h")),
		},
		Email: EmailConfig{
			Enabled:  parseBool(getEnv("EMAIL_ENABLED", "false")),
			Host:     getEnv("EMAIL_HOST", "smtp.gmail.com"),
			Port:     parseInt(getEnv("EMAIL_PORT", "587"), 587),
			Username: getEnv("EMAIL_HOST_USER", ""),
			Password: getEnv("EMAIL_HOST_PASSWORD", ""),
			From:     getEnv("DEFAULT_FROM_EMAIL", "no-reply@campus.local"),
		},
		Payment: PaymentConfig{
			GatewayBaseURL: getEnv("PAYMENT_GATEWAY_BASE_URL", "https://fake-gateway/pay"),
			CallbackURL:    getEnv("PAYMENT_CALLBACK_URL", "http://localhost:3000/payments/callback"),
			MerchantID:     getEnv("PAYMENT_MERCHANT_ID", "campus-test-merchant"),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "eu-central-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Kafka: KafkaConfig{
			Enabled: parseBool(getEnv("KAFKA_ENABLED", "false")),
			Brokers: parseSlice(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "campus.events"),
		},
		Metrics: MetricsConfig{
			Enabled:    parseBool(getEnv("METRICS_ENABLED", "true")),
			WorkerAddr: getEnv("METRICS_WORKER_ADDR", ":9091"),
		},
		Uploads: UploadConfig{
			MaxCourseVideoMB:  int64(parseInt(getEnv("MAX_COURSE_VIDEO_MB", "100"), 100)),
			MaxArticleVideoMB: int64(parseInt(getEnv("MAX_ARTICLE_VIDEO_MB", "50"), 50)),
		},
		Chat: ChatConfig{
			AllowedOrigins:  parseSlice(getEnv("CHAT_ALLOWED_ORIGINS", "")),
			CleanupSchedule: getEnv("CHAT_CLEANUP_SCHEDULE", "0 0 * * *"),
		},
	}

	if config.Server.Environment == "production" && config.JWT.Secret == "your-secret-key" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default 15m", s)
		return 15 * time.Minute
	}
	return duration
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return v
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
