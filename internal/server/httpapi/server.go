// Package httpapi exposes the blog backend over HTTP: auth endpoints issuing
// the session cookie, post CRUD, and read-only static files.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mkuzmin/blogd/internal/logging"
	"github.com/mkuzmin/blogd/internal/server/config"
	"github.com/mkuzmin/blogd/internal/server/services"
)

type HTTPServer struct {
	address        string
	logger         logging.Logger
	accounts       *services.AccountService
	posts          *services.PostService
	clientOrigin   string
	staticDir      string
	cookieMaxAge   time.Duration
	requestTimeout time.Duration
}

func NewHTTPServer(l logging.Logger, as *services.AccountService, ps *services.PostService, cfg *config.Config) (*HTTPServer, error) {
	return &HTTPServer{
		address:        cfg.EndpointAddrHTTP,
		logger:         l.With("module", "http_server"),
		accounts:       as,
		posts:          ps,
		clientOrigin:   cfg.ClientOrigin,
		staticDir:      cfg.StaticDir,
		cookieMaxAge:   cfg.AccessTokenValidityDuration,
		requestTimeout: cfg.RequestTimeout,
	}, nil
}

func (s *HTTPServer) routes() http.Handler {
	r := mux.NewRouter()

	fileServer := http.FileServer(http.Dir(s.staticDir))
	r.PathPrefix("/public/").Handler(http.StripPrefix("/public", fileServer)).Methods("GET")

	r.HandleFunc("/", s.home).Methods("GET")

	r.HandleFunc("/verify-token", s.verifyToken).Methods("POST")
	r.HandleFunc("/register", s.register).Methods("POST")
	r.HandleFunc("/login", s.login).Methods("POST")
	r.HandleFunc("/logout", s.logout).Methods("POST")

	r.HandleFunc("/post", s.requireAuth(s.createPost)).Methods("POST")
	r.HandleFunc("/post", s.listPosts).Methods("GET")
	r.HandleFunc("/numPost", s.countPosts).Methods("GET")
	r.HandleFunc("/post/{id}", s.getPost).Methods("GET")
	r.HandleFunc("/post/{id}", s.requireAuth(s.updatePost)).Methods("PUT")
	r.HandleFunc("/delete/{id}", s.requireAuth(s.deletePost)).Methods("DELETE")

	return s.cors(s.logRequest(r))
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
