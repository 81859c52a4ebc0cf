// Package httpapi exposes the authority over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/logging"
	"github.com/dmitrijs2005/propkeeper/internal/server/auth"
	"github.com/dmitrijs2005/propkeeper/internal/server/models"
	"github.com/dmitrijs2005/propkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

// Users is the part of services.UserService served by the API.
type Users interface {
	Register(ctx context.Context, in models.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*services.AuthResult, error)
	OAuthLogin(ctx context.Context, provider, code string) (*services.AuthResult, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Verify(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error)
	DeleteProfile(ctx context.Context, userID string) error
	GetStats(ctx context.Context, userID string) (models.Stats, error)
}

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	users   Users
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, users Users) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "http_server"),
		users:   users,
	}
}

// Router builds the route table.
//
//	POST   /api/auth/login
//	POST   /api/auth/register
//	POST   /api/auth/logout            (bearer)
//	GET    /api/auth/verify            (bearer)
//	POST   /api/auth/oauth/{provider}
//	GET    /api/users/profile          (bearer)
//	PUT    /api/users/profile          (bearer)
//	DELETE /api/users/profile          (bearer)
//	GET    /api/users/stats            (bearer)
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
	}).Methods(http.MethodGet)

	a := r.PathPrefix("/api/auth").Subrouter()
	a.HandleFunc("/login", s.login).Methods(http.MethodPost)
	a.HandleFunc("/register", s.register).Methods(http.MethodPost)
	a.HandleFunc("/verify", s.verify).Methods(http.MethodGet)
	a.HandleFunc("/oauth/{provider}", s.oauth).Methods(http.MethodPost)
	a.Handle("/logout", s.requireAuth(http.HandlerFunc(s.logout))).Methods(http.MethodPost)

	u := r.PathPrefix("/api/users").Subrouter()
	u.Use(s.requireAuth)
	u.HandleFunc("/profile", s.getProfile).Methods(http.MethodGet)
	u.HandleFunc("/profile", s.updateProfile).Methods(http.MethodPut)
	u.HandleFunc("/profile", s.deleteProfile).Methods(http.MethodDelete)
	u.HandleFunc("/stats", s.stats).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.recoverPanics(s.Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
