package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/algo-arena/algoarena-server/internal/api/http"
	"github.com/algo-arena/algoarena-server/internal/auth"
	"github.com/algo-arena/algoarena-server/internal/config"
	"github.com/algo-arena/algoarena-server/internal/db"
	"github.com/algo-arena/algoarena-server/internal/genai"
	"github.com/algo-arena/algoarena-server/internal/quiz"
	"github.com/algo-arena/algoarena-server/internal/session"
	"github.com/algo-arena/algoarena-server/internal/store"
	"github.com/algo-arena/algoarena-server/internal/ws"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	st := store.NewSQLStore(dbh)

	// --- Question cache ---
	var cache quiz.Cache
	switch cfg.CacheDriver {
	case "redis":
		rc := quiz.NewRedisCache(cfg.RedisAddr, "", cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		cache = rc
	default:
		cache = quiz.NewMemoryCache()
	}

	// --- Generation pipeline ---
	gen := genai.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenAITimeout)
	supplier := quiz.NewSupplier(gen, cache, cfg.QuestionBudget, cfg.RetryBudget, cfg.MaxAttempts)

	// --- Protocol engine ---
	registry := session.NewRegistry()
	tokens := auth.NewTokenService(cfg.SessionSecret)
	engine := ws.NewEngine(registry, supplier, gen, st, tokens, cfg.ChatBudget)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", api.HealthzHandler(registry))
	r.Get("/players/top", api.TopPlayersHandler(st))
	r.Get("/ws", ws.Handler(engine))

	log.Printf("gameserver listening on %s (db=%s cache=%s model=%s)",
		cfg.HTTPAddr, cfg.DBDriver, cfg.CacheDriver, cfg.GeminiModel)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("server: %v", err)
	}
}
