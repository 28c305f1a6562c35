package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/reedfamily/reedcon/internal/api"
	"github.com/reedfamily/reedcon/internal/auth"
	"github.com/reedfamily/reedcon/internal/config"
	"github.com/reedfamily/reedcon/internal/history"
	"github.com/reedfamily/reedcon/internal/monitor"
	"github.com/reedfamily/reedcon/internal/rcon"
	"github.com/reedfamily/reedcon/internal/scheduler"

	// Register game dialects
	_ "github.com/reedfamily/reedcon/internal/game/reforger"
)

// Server owns the console client and everything built on it.
type Server struct {
	cfg       *config.Config
	router    chi.Router
	client    *rcon.Client
	admin     *rcon.Admin
	monitor   *monitor.Monitor
	scheduler *scheduler.Scheduler
}

func New(ctx context.Context, cfg *config.Config, db *sql.DB, transport rcon.Transport) (*Server, error) {
	authSvc := auth.NewService(db)
	if err := authSvc.EnsureDefaultUser(ctx, cfg.DefaultUser, cfg.DefaultPass); err != nil {
		return nil, fmt.Errorf("ensure default user: %w", err)
	}

	hist := history.NewStore(db)
	client := rcon.NewClient(transport)
	admin := rcon.NewAdmin(client, hist, cfg.RCON.Timeout)
	mon := monitor.New(admin, hist, cfg.RCON.RosterInterval)
	schedules := scheduler.NewStore(db)
	sched := scheduler.New(schedules, admin)

	authHandler := api.NewAuthHandler(authSvc)
	playerHandler := api.NewPlayerHandler(client, admin, mon, hist, cfg.Game)
	historyHandler := api.NewHistoryHandler(hist)
	scheduleHandler := api.NewScheduleHandler(schedules)
	consoleHandler := api.NewConsoleHandler(client, admin, cfg.Game)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(api.AuthMiddleware(authSvc, false))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Get("/status", playerHandler.Status)
			r.Get("/players", playerHandler.List)
			r.Post("/players/{number}/kick", playerHandler.Kick)
			r.Post("/bans", playerHandler.Ban)
			r.Delete("/bans/{target}", playerHandler.Unban)

			r.Get("/history/lookup", historyHandler.Lookup)
			r.Get("/history/{uid}/names", historyHandler.Names)
			r.Get("/actions", historyHandler.Actions)

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", scheduleHandler.List)
				r.Post("/", scheduleHandler.Create)
				r.Put("/{scheduleId}", scheduleHandler.Update)
				r.Delete("/{scheduleId}", scheduleHandler.Delete)
			})
		})

		// WebSocket routes (auth via query param)
		r.Group(func(r chi.Router) {
			r.Use(api.AuthMiddleware(authSvc, true))
			r.Get("/console", consoleHandler.Handle)
			r.Get("/players/live", playerHandler.Live)
		})
	})

	return &Server{
		cfg:       cfg,
		router:    r,
		client:    client,
		admin:     admin,
		monitor:   mon,
		scheduler: sched,
	}, nil
}

func (s *Server) Router() chi.Router {
	return s.router
}

// Run pumps console lines and runs the background jobs until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.monitor.Start(ctx)
	defer s.monitor.Stop()
	s.scheduler.Start(ctx)
	defer s.scheduler.Stop()

	return s.client.Run(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().Str("module", "http").
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
