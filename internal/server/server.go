package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expertbook/booking-platform/internal/config"
	"github.com/expertbook/booking-platform/internal/service"
	"github.com/expertbook/booking-platform/internal/session"
)

// Server — HTTP-обвязка вокруг сервисов бронирования и админки.
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger

	booking  *service.BookingService
	admin    *service.AdminService
	sessions *session.Manager
	db       *gorm.DB
}

func New(
	cfg *config.Config,
	log *zap.Logger,
	booking *service.BookingService,
	admin *service.AdminService,
	sessions *session.Manager,
	db *gorm.DB,
) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		booking:  booking,
		admin:    admin,
		sessions: sessions,
		db:       db,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))
	if s.cfg.HTTP.RateLimitPerMin > 0 {
		r.Use(httprate.LimitByIP(s.cfg.HTTP.RateLimitPerMin, time.Minute))
	}

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleBook)
	r.Get("/confirmation", s.handleConfirmation)
	r.Get("/reservations", s.handleReservations)

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)

	r.Get("/admin", s.handleAdminPage)
	r.Post("/admin", s.handleAdminQuery)

	r.Get("/healthz", s.handleHealth)

	return r
}

func (s *Server) Start() error {
	s.log.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
