package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPort is the port the built site is served on.
	DefaultPort = 8765

	// DefaultIndexName is the file served for directory paths.
	DefaultIndexName = "index.html"

	// loopbackHost keeps the site off the network.
	loopbackHost = "127.0.0.1"

	// shutdownTimeout bounds how long Stop waits for in-flight requests.
	shutdownTimeout = 5 * time.Second
)

// ErrAlreadyRunning is returned by Start on a running server.
var ErrAlreadyRunning = errors.New("static server is already running")

// Server serves a built site directory over HTTP on the loopback interface
// so the browser can load pages by URL.
//
// Design decision: We serve with net/http's FileServer rather than opening
// file:// URLs because root-relative asset links ("/styles.css") only
// resolve against an HTTP origin. The listener is bound inside Start, so
// the server accepts connections as soon as Start returns.
type Server struct {
	// dir is the site root.
	dir string

	// port is the requested port. Zero picks a free port.
	port int

	// indexName is the file served for directory paths.
	indexName string

	// logger receives request and lifecycle logs.
	logger *slog.Logger

	// srv is the running HTTP server (nil when stopped).
	srv *http.Server

	// addr is the bound address, set after a successful Start.
	addr string

	// done is closed when the serve loop exits.
	done chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listen port. Zero lets the OS pick one.
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithIndexName sets the file served for directory paths.
func WithIndexName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.indexName = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server for dir. Call Start to begin serving.
func New(dir string, opts ...Option) *Server {
	s := &Server{
		dir:       dir,
		port:      DefaultPort,
		indexName: DefaultIndexName,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start binds the listener and serves in the background.
// The context only bounds the bind; use Stop to shut the server down.
func (s *Server) Start(ctx context.Context) error {
	if s.srv != nil {
		return ErrAlreadyRunning
	}

	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("failed to access site directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("site path %s is not a directory", s.dir)
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", net.JoinHostPort(loopbackHost, strconv.Itoa(s.port)))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.addr = listener.Addr().String()
	s.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("static server stopped", "error", err)
		}
	}(s.srv, s.done)

	s.logger.Debug("serving site", "dir", s.dir, "addr", s.addr)
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
// It's safe to call Stop multiple times or on an unstarted server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	<-s.done
	s.srv = nil
	s.addr = ""
	return err
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	return s.srv != nil
}

// Addr returns the bound host:port, or "" when not running.
func (s *Server) Addr() string {
	return s.addr
}

// BaseURL returns the site origin (e.g. "http://127.0.0.1:8765"),
// or "" when not running.
func (s *Server) BaseURL() string {
	if s.addr == "" {
		return ""
	}
	return "http://" + s.addr
}

// Handler returns the file handler for the site directory.
// Directory paths are answered with the configured index file.
func (s *Server) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// FileServer already maps "/dir/" to index.html.
		if s.indexName != DefaultIndexName && strings.HasSuffix(r.URL.Path, "/") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = path.Join(r.URL.Path, s.indexName)
			r = r2
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		files.ServeHTTP(rec, r)

		if rec.status >= http.StatusBadRequest {
			s.logger.Debug("static request failed", "path", r.URL.Path, "status", rec.status)
		}
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader records the status code.
func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
