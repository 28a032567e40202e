package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/marisolv/brewplanner/internal/api"
	"github.com/marisolv/brewplanner/internal/config"
	"github.com/marisolv/brewplanner/internal/selfcheck"
	"github.com/marisolv/brewplanner/internal/session"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	session *session.Memory
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	sess := session.NewMemory()
	if _, err := sess.Apply(session.Patch{
		TotalCartons:  &cfg.TotalCartons,
		ContainerSize: &cfg.ContainerSize,
	}); err != nil {
		return nil, fmt.Errorf("failed to apply initial planning inputs: %w", err)
	}

	if cfg.StartupSelfCheck {
		runSelfCheck(logger)
	}

	handler := api.NewHandler(sess)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	server := &http.Server{
		Addr:              listenAddr(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return &App{
		session: sess,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  server,
	}, nil
}

// runSelfCheck executes the arithmetic battery once at startup. Failures are
// reported, never fatal.
func runSelfCheck(logger *zap.Logger) {
	results := selfcheck.Run()
	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
			logger.Warn("self-check failed",
				zap.String("check", r.Name),
				zap.String("detail", r.Detail),
			)
		}
	}
	logger.Info("self-check complete",
		zap.Int("checks", len(results)),
		zap.Int("failed", failed),
	)
}

func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              listenAddr(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
