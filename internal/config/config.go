package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	// Question cache backend: memory|redis
	CacheDriver string
	RedisAddr   string
	RedisDB     int

	// Gemini generateContent endpoint
	GeminiBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	// HMAC secret for the per-connection session token echoed in WELCOME.
	SessionSecret string

	// Latency budgets. Tests override these with near-zero values to force
	// the fallback paths deterministically.
	QuestionBudget time.Duration // T1: first generation attempt
	RetryBudget    time.Duration // T2: each de-dup retry, must be < T1
	MaxAttempts    int           // total generation attempts before fallback
	ChatBudget     time.Duration // outer race for chat/hint replies
	GenAITimeout   time.Duration // hard per-request timeout inside the client

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:  addr,
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		CacheDriver: envOr("CACHE_DRIVER", "memory"),
		RedisAddr:   envOr("REDIS_ADDR", "localhost:6379"),
		RedisDB:     envInt("REDIS_DB", 0),

		GeminiBaseURL: envOr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOr("GEMINI_MODEL", "gemini-2.5-flash-lite"),

		SessionSecret: envOr("SESSION_HMAC_SECRET", "supersecret-dev-key"),

		QuestionBudget: envMillis("QUESTION_BUDGET_MS", 1000),
		RetryBudget:    envMillis("RETRY_BUDGET_MS", 800),
		MaxAttempts:    envInt("QUESTION_MAX_ATTEMPTS", 3),
		ChatBudget:     envMillis("CHAT_BUDGET_MS", 900),
		GenAITimeout:   envMillis("GENAI_TIMEOUT_MS", 6000),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envMillis(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Millisecond
}

func csvOr(k, def string) []string {
	v := os.Getenv(k)
	if v == "" {
		v = def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
