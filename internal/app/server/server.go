package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/MZhann/AI-Legal-Assistant/internal/app/server/handlers"
	"github.com/MZhann/AI-Legal-Assistant/internal/config"
	"github.com/MZhann/AI-Legal-Assistant/internal/platform/metrics"
	"github.com/MZhann/AI-Legal-Assistant/pkg/middleware"
)

type Server struct {
	log         *slog.Logger
	cfg         *config.ServiceConfig
	mux         *http.ServeMux
	httpSrv     *http.Server
	authHandler *handlers.AuthHandler
	chatHandler *handlers.ChatHandler
	wsHandler   *handlers.WSHandler
	auth        func(http.Handler) http.Handler
}

func NewServer(
	log *slog.Logger,
	cfg *config.ServiceConfig,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	wsHandler *handlers.WSHandler,
	auth func(http.Handler) http.Handler,
) *Server {
	s := &Server{
		log:         log,
		cfg:         cfg,
		mux:         http.NewServeMux(),
		authHandler: authHandler,
		chatHandler: chatHandler,
		wsHandler:   wsHandler,
		auth:        auth,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Public
	s.mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
	s.mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)

	// Protected REST
	s.mux.Handle("GET /api/lawyers", s.auth(http.HandlerFunc(s.chatHandler.Lawyers)))
	s.mux.Handle("POST /api/lawyers/{lawyerID}/chat", s.auth(http.HandlerFunc(s.chatHandler.StartChat)))
	s.mux.Handle("GET /api/chats", s.auth(http.HandlerFunc(s.chatHandler.Chats)))
	s.mux.Handle("GET /api/chats/{chatID}/messages", s.auth(http.HandlerFunc(s.chatHandler.Messages)))

	// The websocket endpoint gates its own credential so the handshake
	// failure path stays inside the connection lifecycle.
	s.mux.HandleFunc("/ws", s.wsHandler.Handler)
}

func (s *Server) Start() error {
	// RequestLogger sits outermost: it clones the request, and the layers
	// below must hand the mux the same *http.Request so the matched route
	// pattern is readable after dispatch.
	chain := middleware.RequestLogger(s.log)(
		middleware.TracerMiddleware(s.cfg.Name)(
			metrics.Middleware(
				middleware.RateLimit(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)(s.mux))))

	s.httpSrv = &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     chain,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would sever long-lived websocket sessions.
	}
	s.log.Info("server starting", "addr", s.cfg.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
