// Package mockbackend serves the ADJ backend HTTP contract from memory.
//
// Documents are registered per ADJ path. POST /path selects the active
// document; /assemble and /update read and replace it. Nothing is written
// to disk apart from the optional discovery document, so the server is
// suitable for tests and for working on the CLI without the real backend.
package mockbackend

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"evalgo.org/adjvalet/internal/validation"
	"evalgo.org/adjvalet/models"
)

//go:embed demo.json
var demoDocument []byte

// DemoPath is the ADJ path the built-in demo document is served under.
const DemoPath = "demo"

// Options configures a Server.
type Options struct {
	// Host and Port to listen on. Port 0 picks a free port.
	Host string
	Port int

	// RateLimit is the allowed requests per second per client (0 = unlimited)
	RateLimit float64

	// AllowedOrigins enables CORS for the listed origins
	AllowedOrigins []string

	// Debug exposes internal error details in responses
	Debug bool

	Logger *slog.Logger
}

// Server is an in-memory ADJ backend.
type Server struct {
	echo      *echo.Echo
	opts      Options
	logger    *slog.Logger
	validator *validation.Validator

	mu        sync.RWMutex
	documents map[string]*models.ADJConfig
	active    string
	listener  net.Listener
}

// New creates a Server with no documents.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = opts.Debug
	e.HTTPErrorHandler = HTTPErrorHandler

	s := &Server{
		echo:      e,
		opts:      opts,
		logger:    logger.With("component", "mock-backend"),
		validator: validation.New(),
		documents: map[string]*models.ADJConfig{},
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Demo returns the built-in demo document.
func Demo() (*models.ADJConfig, error) {
	var cfg models.ADJConfig
	if err := json.Unmarshal(demoDocument, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode demo document: %w", err)
	}
	return &cfg, nil
}

// Put registers cfg under path, replacing any document already there.
func (s *Server) Put(path string, cfg *models.ADJConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[path] = cfg
}

// Get returns the document registered under path.
func (s *Server) Get(path string) (*models.ADJConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.documents[path]
	return cfg, ok
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: echo.HeaderXRequestID,
	}))
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				s.logger.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			s.logger.Debug("request", attrs...)
			return nil
		},
	}))

	if len(s.opts.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.opts.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
		}))
	}

	if s.opts.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.opts.RateLimit),
		)))
	}

	s.echo.Use(ValidateContentType)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.health)
	s.echo.POST("/path", s.setPath)
	s.echo.GET("/assemble", s.assemble)
	s.echo.POST("/update", s.update)

	// Aliases served by the full backend
	s.echo.GET("/config", s.assemble)
	s.echo.PUT("/config", s.update)

	s.echo.POST("/boards/:name/rename", s.renameBoard)
}

// Start listens on the configured address. It returns once the listener
// is bound; requests are served in the background until Shutdown.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.echo.Listener = ln
	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("mock backend stopped", "error", err)
		}
	}()

	s.logger.Info("mock backend listening", "url", s.URL())
	return nil
}

// URL returns the base URL once Start has bound the listener.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down mock backend: %w", err)
	}
	s.logger.Info("mock backend stopped")
	return nil
}
