package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/belote-manager/docs"
	"github.com/Dosada05/belote-manager/handlers"
	"github.com/Dosada05/belote-manager/middleware"
)

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// MetricsHandler is mounted on /metrics when non-nil.
	MetricsHandler http.Handler
	DB             Pinger
}

type Handlers struct {
	Team         *handlers.TeamHandler
	Tournament   *handlers.TournamentHandler
	Registration *handlers.RegistrationHandler
	MatchConfig  *handlers.MatchConfigHandler
	Match        *handlers.MatchHandler
	Round        *handlers.RoundHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthHandler(opts.DB))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Team.ListTeams)
			r.Post("/", h.Team.CreateTeam)
			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", h.Team.GetTeamByID)
				r.Put("/", h.Team.UpdateTeam)
				r.Delete("/", h.Team.DeleteTeam)
			})
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListTournaments)
			r.Post("/", h.Tournament.CreateTournament)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.Tournament.GetTournamentByID)
				r.Put("/", h.Tournament.UpdateTournament)
				r.Delete("/", h.Tournament.DeleteTournament)
				r.Patch("/status", h.Tournament.UpdateTournamentStatus)
				r.Post("/start", h.Tournament.StartTournament)
				r.Post("/complete", h.Tournament.CompleteTournament)

				r.Route("/registrations", func(r chi.Router) {
					r.Get("/", h.Registration.ListRegistrations)
					r.Post("/", h.Registration.RegisterTeam)
					r.Delete("/{teamID}", h.Registration.UnregisterTeam)
				})

				r.Route("/configs", func(r chi.Router) {
					r.Get("/", h.MatchConfig.ListMatchConfigs)
					r.Post("/", h.MatchConfig.CreateMatchConfig)
					r.Get("/{matchType}", h.MatchConfig.GetMatchConfig)
					r.Put("/{matchType}", h.MatchConfig.UpdateMatchConfig)
					r.Delete("/{matchType}", h.MatchConfig.DeleteMatchConfig)
				})

				r.Get("/matches", h.Match.ListMatches)
				r.Post("/matches", h.Match.CreateMatch)

				r.Route("/rounds", func(r chi.Router) {
					r.Post("/preliminary", h.Round.GeneratePreliminaryRound)
					r.Post("/main", h.Round.GenerateMainRound)
					r.Get("/proposal", h.Round.ProposePairs)
					r.Post("/confirm", h.Round.ConfirmPairs)
				})
				r.Get("/standings", h.Round.GetStandings)
				r.Get("/stage", h.Round.GetStage)
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Match.GetMatchByID)
			r.Delete("/", h.Match.DeleteMatch)
			r.Put("/result", h.Match.RecordResult)
		})
	})
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				middleware.Logger(r.Context()).Warn("health check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
