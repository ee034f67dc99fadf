package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lovehour-backend/internal/config"
	"lovehour-backend/internal/handlers"
	"lovehour-backend/internal/middleware"
	"lovehour-backend/internal/repository"
	"lovehour-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	// Push delivery and realtime hub
	pusher, err := services.NewPusher(cfg.APNs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create APNs pusher")
	}
	wsHub := services.NewWSHub()

	// The unlock scheduler tells a user when their upload gate opens
	// again, over the websocket if connected and by push otherwise.
	scheduler := services.NewUnlockScheduler(func(userID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if wsHub.IsOnline(userID) {
			if err := wsHub.NotifyGateUnlocked(userID); err == nil {
				return
			}
		}

		user, err := userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user for unlock notification")
			return
		}
		if user.Awake && user.PushToken != nil {
			pusher.GateUnlocked(ctx, *user.PushToken)
		}
	})
	defer scheduler.Stop()

	// Initialize services
	userService := services.NewUserService(userRepo, scheduler, cfg.JWT.Secret)
	matchService := services.NewMatchService(userRepo)
	photoService, err := services.NewPhotoService(photoRepo, userRepo, scheduler, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo service")
	}
	noteService := services.NewNoteService(noteRepo, userRepo)

	// Re-arm unlock timers lost in the previous shutdown
	primeScheduler(userRepo, scheduler)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	matchHandler := handlers.NewMatchHandler(matchService, userService, wsHub, pusher)
	photoHandler := handlers.NewPhotoHandler(photoService, userService, wsHub, pusher)
	noteHandler := handlers.NewNoteHandler(noteService, userService, wsHub, pusher)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Put("/users/me/push-token", userHandler.UpdatePushToken)
			r.Post("/match", matchHandler.CreateMatch)
			r.Delete("/match", matchHandler.DeleteMatch)
			r.Get("/photos", photoHandler.GetPhotos)
			r.Get("/photos/gate", photoHandler.GetGate)
			r.Post("/photos/upload", photoHandler.UploadPhoto)
			r.Get("/notes", noteHandler.GetNotes)
			r.Post("/notes", noteHandler.CreateNote)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// primeScheduler re-arms unlock timers for users whose gate is closed
func primeScheduler(userRepo *repository.UserRepository, scheduler *services.UnlockScheduler) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, err := userRepo.GetPendingUnlocks(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load pending unlocks")
		return
	}
	for _, user := range users {
		scheduler.Reschedule(user.ID, user.LastUploadAt, user.IntervalHours)
	}
	log.Info().Int("count", len(users)).Msg("Unlock timers re-armed")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
