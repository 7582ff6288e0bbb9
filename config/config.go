// Package config notifyd 的运行配置：环境变量 + 可选的 .env 文件
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config notifyd 配置
type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	// Database
	MySQLDSN string

	// Redis（住户 token）
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TokenTTL      time.Duration

	// RabbitMQ，为空时不发布事件
	RabbitMQURL      string
	RabbitMQExchange string

	// Mail
	MailFrom           string
	SenderLabel        string
	GmailClientID      string
	GmailClientSecret  string
	GmailRefreshToken  string
	GmailCredentials   string
	MailBreakerTimeout time.Duration
	MailBreakerTrips   int

	// Authorization
	AdminIDs         []uint64
	CasbinModelPath  string
	CasbinPolicyPath string
	EmergencyOnTop   bool
	RequestTimeout   time.Duration
}

// Load 从环境变量读取配置，.env 存在时先加载（已存在的环境变量优先）
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPAddr: getEnv("HTTP_ADDR", ":6789"),

		MySQLDSN: getEnv("MYSQL_DSN", "root:password@tcp(127.0.0.1:3306)/portal?charset=utf8mb4&parseTime=True&loc=Local"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		TokenTTL:      getDurationEnv("TOKEN_TTL", 7*24*time.Hour),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "notify.events"),

		MailFrom:           getEnv("MAIL_FROM", ""),
		SenderLabel:        getEnv("SENDER_LABEL", "Management"),
		GmailClientID:      getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret:  getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken:  getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailCredentials:   getEnv("GMAIL_CREDENTIALS_FILE", ""),
		MailBreakerTimeout: getDurationEnv("MAIL_BREAKER_TIMEOUT", 30*time.Second),
		MailBreakerTrips:   getIntEnv("MAIL_BREAKER_TRIPS", 5),

		AdminIDs:         getUintListEnv("ADMIN_IDS"),
		CasbinModelPath:  getEnv("CASBIN_MODEL", ""),
		CasbinPolicyPath: getEnv("CASBIN_POLICY", ""),
		EmergencyOnTop:   getBoolEnv("EMERGENCY_OVERRIDES_READ_STATE", true),
		RequestTimeout:   getDurationEnv("REQUEST_TIMEOUT", 15*time.Second),
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// GmailConfigured 是否配置了 Gmail 凭据
func (c *Config) GmailConfigured() bool {
	return (c.GmailClientID != "" && c.GmailClientSecret != "" && c.GmailRefreshToken != "") || c.GmailCredentials != ""
}

// SlogLevel LOG_LEVEL -> slog.Level，未知值按 info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getUintListEnv 逗号分隔的 id 列表，非法项跳过
func getUintListEnv(key string) []uint64 {
	var out []uint64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseUint(part, 10, 64); err == nil && id > 0 {
			out = append(out, id)
		}
	}
	return out
}
