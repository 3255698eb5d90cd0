package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/santacall/internal/arcs"
	"github.com/santacall/internal/calls"
)

// DefaultVersion is reported by / and /api/health when Options.Version is empty.
const DefaultVersion = "1.0.0"

// ServiceName identifies the service in health responses.
const ServiceName = "santa-video-call-api"

// Prober checks whether the video provider is reachable.
type Prober interface {
	Ping(ctx context.Context) (bool, error)
}

// CallCounter reports how many calls have been tracked.
type CallCounter interface {
	Count() int
}

// Options configure the HTTP server.
type Options struct {
	Port            int
	Version         string
	CORSOrigins     []string
	BodyLimit       string
	ShutdownTimeout time.Duration
	ProbeProvider   bool
	ProbeCacheTTL   time.Duration
}

// Deps are the components the handlers call into.
type Deps struct {
	Calls   *calls.Service
	Arcs    *arcs.Repository
	Counter CallCounter
	Prober  Prober
}

// Server represents the API server
type Server struct {
	echo    *echo.Echo
	opts    Options
	calls   *calls.Service
	arcs    *arcs.Repository
	counter CallCounter
	prober  Prober
	probes  *expirable.LRU[string, bool]
}

// NewServer creates a new API server
func NewServer(opts Options, deps Deps) *Server {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.BodyLimit == "" {
		opts.BodyLimit = "64K"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.ProbeCacheTTL <= 0 {
		opts.ProbeCacheTTL = 30 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server := &Server{
		echo:    e,
		opts:    opts,
		calls:   deps.Calls,
		arcs:    deps.Arcs,
		counter: deps.Counter,
		prober:  deps.Prober,
		probes:  expirable.NewLRU[string, bool](1, nil, opts.ProbeCacheTTL),
	}

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("HTTP request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))
	e.Use(middleware.BodyLimit(opts.BodyLimit))
	e.HTTPErrorHandler = server.handleError

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/", s.root)
	s.echo.GET("/api/health", s.health)

	santa := s.echo.Group("/api/santa")
	santa.POST("/start-call", s.startCall)
	santa.POST("/complete-call", s.completeCall)
	santa.GET("/analytics", s.analytics)
	santa.GET("/arcs/:duration", s.arc)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins the API server and blocks until SIGINT or SIGTERM, then shuts
// down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.opts.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", s.opts.Version).Msg("Starting santacall API server")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down santacall API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
