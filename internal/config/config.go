package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Baked-in Xfyun trial credentials, used only when neither the process
// environment nor the .env file provides a value. Every other key falls back
// to a service default or the empty string.
const (
	defaultXfyunAppID     = "44149f3c"
	defaultXfyunAPISecret = "N2ZkMTJkYzE0Y2JjMmIxYzE2ZTQwYWVl"
	defaultXfyunAPIKey    = "5f84b4daecb26993dce1fda96349a5e5"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	GoogleAudience  string
	AllowOrigins    []string
	LogstashTCPAddr string

	AIAPIKey   string
	AIBaseURL  string
	AIModel    string
	AIProvider string

	AmapKey          string
	AmapSecurityCode string

	XfyunAppID     string
	XfyunAPIKey    string
	XfyunAPISecret string

	SessionTTL       time.Duration
	PasswordResetTTL time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	sessionTTL := 24 * time.Hour
	if v, err := time.ParseDuration(getenv("SESSION_TTL", "24h")); err == nil && v > 0 {
		sessionTTL = v
	}

	resetTTL := 15 * time.Minute
	if v, err := time.ParseDuration(getenv("PASSWORD_RESET_TTL", "15m")); err == nil && v > 0 {
		resetTTL = v
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       must("JWT_SECRET"),
		GoogleAudience:  getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		AIAPIKey:   getenv("AI_API_KEY", ""),
		AIBaseURL:  getenv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIModel:    getenv("AI_MODEL", "gpt-3.5-turbo"),
		AIProvider: getenv("AI_PROVIDER", "openai"),

		AmapKey:          getenv("AMAP_KEY", ""),
		AmapSecurityCode: getenv("AMAP_SECURITY_CODE", ""),

		XfyunAppID:     getenv("XFYUN_APP_ID", defaultXfyunAppID),
		XfyunAPIKey:    getenv("XFYUN_API_KEY", defaultXfyunAPIKey),
		XfyunAPISecret: getenv("XFYUN_API_SECRET", defaultXfyunAPISecret),

		SessionTTL:       sessionTTL,
		PasswordResetTTL: resetTTL,

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", ""),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
