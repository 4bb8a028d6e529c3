package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/slack-leave-gateway/internal/engine"
	"github.com/xela07ax/slack-leave-gateway/internal/infra"
)

type Server struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Ядро воркфлоу: оба вебхука обслуживаются им
	core *engine.Core

	metrics *engine.Metrics
}

// NewServer собирает роутер вебхуков со всеми middleware.
func NewServer(cfg *infra.Config, logger *zap.Logger, core *engine.Core, metrics *engine.Metrics) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		logger:  logger.Named("webhook-api"),
		cfg:     cfg,
		core:    core,
		metrics: metrics,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(engine.TracingMiddleware)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (подпись Slack обязательна) ---
	// Гейт стоит до любого парсинга payload: непрошедший подпись запрос
	// не доходит ни до одного обработчика
	r.Group(func(r chi.Router) {
		r.Use(engine.VerifySlackSignature(s.cfg.Slack.SigningSecret, s.logger, s.metrics))

		r.Post("/slack/command", s.core.HandleSlashCommand)
		r.Post("/slack/interaction", s.core.HandleInteraction)
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
