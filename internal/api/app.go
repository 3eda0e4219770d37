package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/counselhub/counselhub/internal/config"
	"github.com/counselhub/counselhub/internal/database"
	"github.com/counselhub/counselhub/internal/events"
	"github.com/counselhub/counselhub/internal/message"
	"github.com/counselhub/counselhub/internal/session"
	"github.com/counselhub/counselhub/internal/stats"
	"github.com/gorilla/handlers"
)

// CounselApp is the request/response surface over the session and message
// services. Authentication is resolved by the middleware into an actor id
// before any core operation runs.
type CounselApp struct {
	log            *log.Logger
	db             database.CounselRepository
	sessions       *session.Store
	messages       *message.Channel
	auth           session.Authorizer
	hub            *events.Hub
	stats          stats.StatsProvider
	mux            *http.Server
	signingKey     []byte
	allowedOrigins []string
}

func NewCounselApp(mux *http.ServeMux, logger *log.Logger, db database.CounselRepository, sessions *session.Store, messages *message.Channel, auth session.Authorizer, hub *events.Hub, st stats.StatsProvider, cfg *config.Config) *CounselApp {
	s := &CounselApp{
		log:            logger,
		db:             db,
		sessions:       sessions,
		messages:       messages,
		auth:           auth,
		hub:            hub,
		stats:          st,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("/api/account", s.authMiddleware(s.account))
	mux.Handle("POST /api/sessions", s.authMiddleware(s.createSession))
	mux.Handle("GET /api/sessions", s.authMiddleware(s.listSessions))
	mux.Handle("DELETE /api/sessions", s.authMiddleware(s.deleteSession))
	mux.Handle("GET /api/sessions/participants", s.authMiddleware(s.getParticipants))
	mux.Handle("POST /api/sessions/transition", s.authMiddleware(s.transitionSession))
	mux.Handle("POST /api/sessions/video", s.authMiddleware(s.ensureVideoRoom))
	mux.Handle("POST /api/messages", s.authMiddleware(s.sendMessage))
	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.Handle("POST /api/messages/read", s.authMiddleware(s.markMessageRead))
	mux.Handle("GET /api/messages/unread", s.authMiddleware(s.unreadCount))
	mux.Handle("POST /api/admin/role", s.authMiddleware(s.adminMiddleware(s.updateRole)))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *CounselApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *CounselApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
