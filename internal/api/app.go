package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/skomatsu/workchat/internal/chat"
	"github.com/skomatsu/workchat/internal/config"
	"github.com/skomatsu/workchat/internal/database"
	"github.com/skomatsu/workchat/internal/server"
	"github.com/skomatsu/workchat/internal/stats"
)

type WorkChatApp struct {
	log            *log.Logger
	db             database.WorkChatRepository
	mux            *http.Server
	cs             *server.ChatServer
	users          *chat.UserService
	rooms          *chat.RoomService
	memberships    *chat.MembershipService
	messages       *chat.MessageService
	stats          stats.StatsProvider
	signingKey     []byte
	allowedOrigins []string
}

func NewWorkChatApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.WorkChatRepository, sp stats.StatsProvider, cfg *config.Config) *WorkChatApp {
	users := chat.NewUserService(logger, db)

	s := &WorkChatApp{
		log:            logger,
		db:             db,
		cs:             cs,
		users:          users,
		rooms:          chat.NewRoomService(logger, db),
		memberships:    chat.NewMembershipService(logger, db, users),
		messages:       chat.NewMessageService(logger, db),
		stats:          sp,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("PUT /api/account", s.authMiddleware(s.updateAccount))
	mux.Handle("GET /api/users", s.authMiddleware(s.listUsers))
	mux.Handle("DELETE /api/users", s.authMiddleware(s.deleteUser))
	mux.Handle("GET /api/rooms", s.authMiddleware(s.getUsersRooms))
	mux.Handle("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.Handle("PUT /api/rooms", s.authMiddleware(s.updateRoom))
	mux.Handle("DELETE /api/rooms", s.authMiddleware(s.deleteRoom))
	mux.Handle("POST /api/rooms/join", s.authMiddleware(s.joinRoom))
	mux.Handle("POST /api/rooms/leave", s.authMiddleware(s.leaveRoom))
	mux.Handle("GET /api/messages", s.authMiddleware(s.getMessages))
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

func (s *WorkChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *WorkChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
