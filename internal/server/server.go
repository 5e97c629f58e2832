package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"mcpbridge/internal/agent"
	"mcpbridge/internal/aggregator"
	"mcpbridge/internal/linear"
	"mcpbridge/internal/metrics"
	"mcpbridge/internal/mutation"
	"mcpbridge/pkg/logging"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CommentReader reads recent comments of an issue. *linear.Client
// implements it.
type CommentReader interface {
	IssueComments(ctx context.Context, issueID string, last int) (*linear.IssueComments, error)
}

// Options wires the server to the rest of the bridge.
type Options struct {
	AgentName string
	// BodyLimit is an echo size string such as "4M".
	BodyLimit string
	Manager   *aggregator.Manager
	Engine    agent.Engine
	Verifier  *mutation.Verifier
	Comments  CommentReader
	// CommentsLimit is the default and maximum page size of
	// /linear/comments.
	CommentsLimit int
	// PingTimeout bounds each transport ping of /tools/ping.
	PingTimeout time.Duration
	Metrics     *metrics.Metrics
}

// Server is the HTTP surface of the bridge.
type Server struct {
	echo *echo.Echo
	opts Options
}

// New creates the server and registers all routes.
func New(opts Options) *Server {
	if opts.CommentsLimit <= 0 {
		opts.CommentsLimit = 20
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 5 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logging.Debug("HTTP", "%s %s %d %s (%s)", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, HeaderIdempotencyKey},
	}))
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	s := &Server{echo: e, opts: opts}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.healthz)
	s.echo.GET("/", s.identity)
	s.echo.GET("/tools", s.tools)
	s.echo.GET("/tools/ping", s.ping)
	s.echo.POST("/tools/rebootstrap", s.rebootstrap)
	s.echo.POST("/run", s.run)

	lin := s.echo.Group("/linear")
	lin.POST("/commentCreate", s.commentCreate)
	lin.GET("/comments", s.comments)

	if s.opts.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Metrics.Registry, promhttp.HandlerOpts{})))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(addr string) error {
	logging.Info("HTTP", "MCP bridge listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	logging.Info("HTTP", "MCP bridge listening on %s", ln.Addr())
	s.echo.Listener = ln
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		logging.Warn("HTTP", "%d %s %s: %v", code, req.Method, req.URL.Path, err)
	} else {
		logging.Debug("HTTP", "%d %s %s: %v", code, req.Method, req.URL.Path, err)
	}

	if c.Response().Committed {
		return
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]interface{}{"error": msg})
}
