// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"subvault/internal/config"
	leaderboardservice "subvault/internal/leaderboard/service"
	leaderboardhttp "subvault/internal/leaderboard/transport/http"
	"subvault/internal/ledger"
	"subvault/internal/metrics"
	planrepository "subvault/internal/plan/repository"
	planservice "subvault/internal/plan/service"
	planhttp "subvault/internal/plan/transport/http"
	subscriptionrepository "subvault/internal/subscription/repository"
	subscriptionservice "subvault/internal/subscription/service"
	subscriptionhttp "subvault/internal/subscription/transport/http"
	walletservice "subvault/internal/wallet/service"
	wallethttp "subvault/internal/wallet/transport/http"
	"subvault/pkg/db"
	"subvault/pkg/middleware"
	"subvault/pkg/pda"
)

var server *http.Server

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Info().Msg("subvault API starting")

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}
	programID, err := pda.AddressFromString(cfg.ProgramID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid PROGRAM_ID")
	}

	metrics.InitMetrics()

	// --- LEDGER ---
	var backend ledger.Ledger
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		pg := ledger.NewPostgres(database)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("ledger schema setup failed")
		}
		backend = pg
		log.Info().Msg("using postgres ledger")
	} else {
		backend = ledger.NewMemory()
		log.Warn().Msg("DATABASE_URL not set, using in-memory ledger")
	}
	led := ledger.NewBreaker(backend)

	// --- SERVICE LAYERS ---
	planRepo := planrepository.NewPlanRepository(led, programID)
	planService := planservice.NewService(planRepo)
	subRepo := subscriptionrepository.NewSubscriptionRepository(led, programID)
	subService := subscriptionservice.NewService(subRepo, planRepo, led)
	lbService := leaderboardservice.NewService(planRepo, subRepo)
	walletService := walletservice.NewService(cfg.JWTSecret)

	planHandler := planhttp.NewPlanHandler(planService, programID)
	subHandler := subscriptionhttp.NewSubscriptionHandler(subService, programID)
	lbHandler := leaderboardhttp.NewLeaderboardHandler(lbService)
	walletHandler := wallethttp.NewWalletHandler(walletService, led, cfg.FaucetEnabled)

	// --- ROUTER ---
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.GlobalRateLimiter.Middleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.ValidateRequest)

	// public routes
	r.Post("/auth/challenge", walletHandler.Challenge)
	r.Post("/auth/login", walletHandler.Login)

	r.Get("/api/plans", planHandler.List)
	r.Get("/api/plans/top", lbHandler.Top)
	r.Get("/api/subscriptions", subHandler.List)
	r.Get("/api/subscriptions/{address}", subHandler.Check)
	r.Get("/api/address/plan", planHandler.DeriveAddress)
	r.Get("/api/address/subscription", subHandler.DeriveAddress)

	if cfg.FaucetEnabled {
		r.Post("/api/faucet", walletHandler.Faucet)
	}

	// authenticated routes
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.JWTAuth(cfg.JWTSecret))

		pr.Post("/api/plans", planHandler.Create)
		pr.Get("/api/plans/my", planHandler.ListMy)
		pr.Post("/api/subscriptions", subHandler.Subscribe)
		pr.Get("/api/subscriptions/my", subHandler.ListMy)
	})

	r.Group(func(mr chi.Router) {
		mr.Use(middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPass))
		mr.Handle("/metrics", promhttp.Handler())
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	log.Info().Str("addr", cfg.ListenAddr).Msg("server running")

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Info().Msg("shutdown signal received, starting graceful shutdown")
		shutdownServer()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped unexpectedly")
	}
}

func shutdownServer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped")
}
