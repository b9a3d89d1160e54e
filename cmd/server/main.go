package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crosswars/api/internal/auth"
	"github.com/crosswars/api/internal/config"
	"github.com/crosswars/api/internal/crossword"
	"github.com/crosswars/api/internal/handler"
	"github.com/crosswars/api/internal/logger"
	"github.com/crosswars/api/internal/middleware"
	"github.com/crosswars/api/internal/repository/postgres"
	redisrepo "github.com/crosswars/api/internal/repository/redis"
	"github.com/crosswars/api/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	inviteRepo := postgres.NewInviteRepo(db)
	battleRepo := postgres.NewBattleRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	// Auth: verify against the identity provider when configured,
	// otherwise fall back to local JWT verification (dev mode).
	var verifier auth.TokenVerifier
	if cfg.AuthURL != "" {
		verifier = auth.NewProviderClient(cfg.AuthURL, cfg.AuthAPIKey)
		log.Info().Str("authURL", cfg.AuthURL).Msg("Using identity provider verification")
	} else {
		verifier = auth.NewJWTManager(cfg.JWTSecret)
		log.Warn().Msg("AUTH_URL not set, using local JWT verification")
	}

	// WebSocket hub, fed from the Redis event bus so every process sees
	// every battle event.
	wsHub := handler.NewHub()

	// Services
	statsSvc := service.NewStatsService(statsRepo)
	inviteSvc := service.NewInviteService(inviteRepo, battleRepo, redisClient)
	battleSvc := service.NewBattleService(battleRepo, statsSvc, redisClient)
	purgeSvc := service.NewPurgeService(inviteRepo, battleRepo)

	// Crossword pipeline
	words := crossword.NewModelWordsClient(cfg.WordsAPIURL, cfg.WordsAPIKey, cfg.WordsModel)
	var layout crossword.LayoutEngine
	if cfg.LayoutURL != "" {
		layout = crossword.NewLayoutServiceClient(cfg.LayoutURL)
	} else {
		log.Warn().Msg("LAYOUT_URL not set, crossword generation disabled")
	}
	generator := crossword.NewGenerator(words, layout, redisClient)

	// Handlers
	inviteHandler := handler.NewInviteHandler(inviteSvc)
	battleHandler := handler.NewBattleHandler(battleSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	crosswordHandler := handler.NewCrosswordHandler(generator)
	wsHandler := handler.NewWSHandler(wsHub, verifier)

	// Router
	mux := http.NewServeMux()
	requiredAuth := auth.Middleware(verifier)
	optionalAuth := auth.OptionalMiddleware(verifier)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Invites
	mux.Handle("POST /invites/create", requiredAuth(http.HandlerFunc(inviteHandler.CreateInvite)))
	mux.Handle("POST /invites/accept/{token}", optionalAuth(http.HandlerFunc(inviteHandler.AcceptInvite)))

	// Battles
	mux.Handle("GET /battles/{id}", optionalAuth(http.HandlerFunc(battleHandler.GetBattle)))
	mux.Handle("POST /battles/{id}/ready", optionalAuth(http.HandlerFunc(battleHandler.MarkReady)))
	mux.Handle("POST /battles/{id}/start", optionalAuth(http.HandlerFunc(battleHandler.Start)))
	mux.Handle("POST /battles/{id}/complete", optionalAuth(http.HandlerFunc(battleHandler.Complete)))

	// Stats
	mux.Handle("POST /stats/create_user_stats", requiredAuth(http.HandlerFunc(statsHandler.CreateUserStats)))
	mux.HandleFunc("GET /stats/get_user_stats/{user_id}", statsHandler.GetUserStats)
	mux.Handle("PUT /stats/update_battle_stats", requiredAuth(http.HandlerFunc(statsHandler.UpdateBattleStats)))
	mux.Handle("PUT /stats/update_user_stats", requiredAuth(http.HandlerFunc(statsHandler.UpdateUserStats)))

	// Crossword
	mux.Handle("POST /crossword/generate", requiredAuth(http.HandlerFunc(crosswordHandler.Generate)))
	mux.HandleFunc("GET /crossword/latest", crosswordHandler.Latest)

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.AllowedOrigins), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Forward cross-process battle events into this process's hub.
	go redisClient.ListenBattleEvents(ctx, func(battleID, eventType string, data json.RawMessage) {
		wsHub.BroadcastBattleEvent(battleID, eventType, data)
	})

	// Daily cleanup of expired invites and stale waiting battles.
	go purgeSvc.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
