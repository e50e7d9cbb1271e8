package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-giveaway-bot/internal/config"
	"telegram-giveaway-bot/internal/infra/metrics"
	"telegram-giveaway-bot/internal/usecase"
)

// Server exposes the operator HTTP surface: login, ledger stats and code
// creation, plus /metrics and /health.
type Server struct {
	statsUC  usecase.StatsUseCase
	redeemUC usecase.RedeemUseCase
	auth     *AuthManager
	cfg      config.AdminConfig
	log      *zerolog.Logger
}

func NewServer(
	statsUC usecase.StatsUseCase,
	redeemUC usecase.RedeemUseCase,
	auth *AuthManager,
	cfg config.AdminConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statsUC:  statsUC,
		redeemUC: redeemUC,
		auth:     auth,
		cfg:      cfg,
		log:      logger,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.loginHandler())
		r.Post("/logout", s.logoutHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)
			r.Get("/stats", s.statsHandler())
			r.Post("/codes", s.codesCreateHandler())
		})
	})
	return r
}

// sessionMiddleware rejects requests without a valid admin session token.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.cfg.APISecret) == 0 {
			s.log.Error().Msg("admin API secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// countRequests records one counter sample per route pattern and status.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.IncAdminAPIRequest(route, strconv.Itoa(ww.Status()))
	})
}
