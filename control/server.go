// Package control serves the HTTP control surface: the action endpoints, the
// control page and the static web UI.
package control

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arloliu/msdsim/action"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Dispatcher executes named actions.
type Dispatcher interface {
	Perform(ctx context.Context, name string) (action.Outcome, error)
	PerformWithParam(ctx context.Context, name, param string) (action.Outcome, error)
	Actions() []string
	ParamActions() []string
}

// Config locates the server.
type Config struct {
	Addr      string
	BasePath  string
	StaticDir string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTracerProvider sets the tracer provider for server spans. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tp = tp }
}

// WithScenarios lists the scenarios shown on the control page.
func WithScenarios(scenarios ...Scenario) Option {
	return func(s *Server) { s.scenarios = scenarios }
}

// Server is the echo instance with every route mounted under the base path.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	scenarios  []Scenario
	logger     *zap.Logger
	tp         trace.TracerProvider
	echo       *echo.Echo
	handler    http.Handler
	srv        *http.Server
}

// New builds the server and registers its routes.
//
// Panics if d is nil.
func New(cfg Config, d Dispatcher, opts ...Option) *Server {
	if d == nil {
		panic("control: dispatcher must not be nil")
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				s.logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			s.logger.Debug("request", fields...)

			return nil
		},
	}))

	s.echo = e
	s.registerRoutes()

	s.handler = otelhttp.NewHandler(e, "control",
		otelhttp.WithTracerProvider(s.tp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	g := s.echo.Group(s.cfg.BasePath)
	g.POST("/performAction", s.handlePerformAction)
	g.POST("/performActionWithParam", s.handlePerformActionWithParam)
	g.GET("/control", s.handleControl)
	if s.cfg.StaticDir != "" {
		g.Static("/", s.cfg.StaticDir)
	}
}

// Handler returns the traced routes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves on cfg.Addr until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("control server listening", zap.String("addr", s.cfg.Addr), zap.String("base_path", s.cfg.BasePath))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones, at most 5s past ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	return s.srv.Shutdown(ctx)
}
