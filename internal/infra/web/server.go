// File: internal/infra/web/server.go
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-doppelganger/internal/config"
	"ai-doppelganger/internal/domain/ports/repository"
	red "ai-doppelganger/internal/infra/redis"
	"ai-doppelganger/internal/usecase"
)

// Server owns both HTTP surfaces: the public visitor API (chat widget)
// and the authenticated admin API (operator dashboard + /metrics), served
// on separate ports.
type Server struct {
	chatUC   usecase.ChatUseCase
	ledgerUC usecase.LedgerUseCase
	statsUC  usecase.StatsUseCase
	kb       repository.KnowledgeStore
	auth     *AuthManager
	limiter  *red.RateLimiter
	cfg      *config.Config
	log      *zerolog.Logger
}

func NewServer(
	chatUC usecase.ChatUseCase,
	ledgerUC usecase.LedgerUseCase,
	statsUC usecase.StatsUseCase,
	kb repository.KnowledgeStore,
	auth *AuthManager,
	limiter *red.RateLimiter,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		chatUC:   chatUC,
		ledgerUC: ledgerUC,
		statsUC:  statsUC,
		kb:       kb,
		auth:     auth,
		limiter:  limiter,
		cfg:      cfg,
		log:      logger,
	}
}

// PublicRouter serves the visitor-facing API.
func (s *Server) PublicRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(traceID(), requestLog(s.log), recoverer(s.log))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/session", s.handleCreateSession)
	r.With(rateLimit(s.limiter, s.cfg.Chat.RateLimit, s.cfg.Chat.RateWindow, s.log)).
		Post("/api/chat", s.handleChat)
	r.Post("/api/contact", s.handleContact)
	r.Post("/api/calendar/booked", s.handleBooked)

	return r
}

// AdminRouter serves the operator API and the metrics endpoint.
func (s *Server) AdminRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(traceID(), requestLog(s.log), recoverer(s.log))

	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/admin/login", s.handleAdminLogin)
	r.Post("/api/admin/logout", s.handleAdminLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.adminAuth)
		r.Get("/api/logs", s.handleListLogs)
		r.Get("/api/logs/unread", s.handleUnread)
		r.Get("/api/logs/stats/overview", s.handleStatsOverview)
		r.Get("/api/logs/export/csv", s.handleExportCSV)
		r.Get("/api/logs/{sessionId}", s.handleGetLog)
		r.Post("/api/logs/{conversationId}/notify", s.handleNotify)
		r.Post("/api/knowledge/reload", s.handleKnowledgeReload)
	})

	return r
}

func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
