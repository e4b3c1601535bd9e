package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/erp-approval-engine/internal/handler"
	"github.com/xela07ax/erp-approval-engine/internal/infra"
	"github.com/xela07ax/erp-approval-engine/internal/infra/auth"
	"go.uber.org/zap"
)

type Server struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Проверка RS256 токенов — из нее собирается Actor каждого запроса
	authValidator auth.TokenValidator

	// Обработчики бизнес-доменов
	authHandler     *handler.AuthHandler     // /auth/token
	approvalHandler *handler.ApprovalHandler // /v1/approvals
	policyHandler   *handler.PolicyHandler   // /v1/policies
}

// NewServer инициализирует HTTP-поверхность движка со всеми зависимостями
func NewServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
	approvalH *handler.ApprovalHandler,
	policyH *handler.PolicyHandler,
) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		logger:          logger.Named("approval-api"),
		cfg:             cfg,
		authValidator:   validator,
		authHandler:     authH,
		approvalHandler: approvalH,
		policyHandler:   policyH,
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
	r.Use(TracingMiddleware)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Логин должен быть доступен без токена
		r.Post("/auth/token", s.authHandler.Login)

		// Healthcheck для мониторинга
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (требует RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		// Workflow согласования
		r.Route("/v1/approvals", func(r chi.Router) {
			r.Get("/pending", s.approvalHandler.Pending) // Очередь «ждут меня»
			r.Route("/{docType}/{id}", func(r chi.Router) {
				r.Post("/submit", s.approvalHandler.Submit) // Подача на маршрут
				r.Post("/decide", s.approvalHandler.Decide) // Approve/Reject/Return/Delegate
				r.Get("/history", s.approvalHandler.History)
			})
		})

		// Управление политиками (только ADMIN, проверка в сервисе)
		r.Route("/v1/policies", func(r chi.Router) {
			r.Get("/", s.policyHandler.List)
			r.Put("/", s.policyHandler.Upsert)
		})
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
