package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"

	"github.com/charliek/logview/internal/constants"
)

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Host      string
	Port      int
	StaticDir string // Optional directory served at / (a browser UI)
}

// Server represents the HTTP API server
type Server struct {
	config     ServerConfig
	router     *chi.Mux
	httpServer *http.Server
	handlers   *Handlers
	log        logrus.FieldLogger
	mu         sync.Mutex
}

// NewServer creates a new API server
func NewServer(config ServerConfig, handlers *Handlers, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	// CORS - restricted to localhost only for security
	r.Use(corsMiddleware())

	s := &Server{
		config:   config,
		router:   r,
		handlers: handlers,
		log:      log,
	}

	// Register routes
	s.registerRoutes()

	return s
}

// requestLogger logs every request at debug level
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"remote":     r.RemoteAddr,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start),
				}).Debug("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// corsMiddleware lets pages served from localhost call the API
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); isLocalhostOrigin(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var loopbackHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// isLocalhostOrigin reports whether origin is an http(s) origin on a
// loopback host, with or without a port
func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.User != nil || (u.Path != "" && u.Path != "/") {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return loopbackHosts[u.Hostname()]
}

// compressed gzips responses for clients that accept it
func compressed(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/ws", s.handlers.ServeWS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/logs/stream", s.handlers.StreamLogs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(constants.DefaultRequestTimeout))
			r.Use(compressed)

			r.Get("/status", s.handlers.GetStatus)
			r.Get("/logs", s.handlers.GetLogs)
		})
	})

	if s.config.StaticDir != "" {
		s.router.With(compressed).Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve serves HTTP on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	return s.serve(s.newHTTPServer(), ln)
}

// Run starts the server and shuts it down gracefully when ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	server := s.newHTTPServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.serve(server, ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return <-errCh
}

func (s *Server) listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.Addr(), err)
	}
	return ln, nil
}

func (s *Server) newHTTPServer() *http.Server {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // Disable for SSE and websockets
		IdleTimeout:       60 * time.Second,
	}
	// Streaming viewers are not idle connections, end them explicitly
	server.RegisterOnShutdown(s.handlers.CloseViewers)

	s.mu.Lock()
	s.httpServer = server
	s.mu.Unlock()
	return server
}

func (s *Server) serve(server *http.Server, ln net.Listener) error {
	s.log.WithField("addr", ln.Addr().String()).Info("server listening")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Addr returns the server address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}
