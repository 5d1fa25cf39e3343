package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/wardenbot/warden/internal/db"
)

// Server is the warden admin API server.
type Server struct {
	config   *Config
	server   *http.Server
	db       *sqlx.DB
	services *Services
}

func New(config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	database, err := db.NewSqliteDB(db.WithPath(config.Database.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	services, err := NewServices(config, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create services: %w", err)
	}

	handler := SetupRoutes(config, services)

	return &Server{
		config:   config,
		db:       database,
		services: services,
		server: &http.Server{
			Addr:    config.HTTP.Addr,
			Handler: handler,
		},
	}, nil
}

// Services exposes the service layer, mainly for tests.
func (s *Server) Services() *Services {
	return s.services
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("warden server start", "addr", s.config.HTTP.Addr)
	defer slog.Info("warden server stop")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.runHTTPServer(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server start error", "error", err)
			return err
		}
		slog.Info("http server stopped")
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("warden shutdown signal")
		return s.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully shuts down the HTTP server and closes the database.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.db.Close()
}

func (s *Server) runHTTPServer() error {
	if s.config.HTTP.CertFile != "" && s.config.HTTP.KeyFile != "" {
		slog.Info("server start tls", "addr", s.config.HTTP.Addr, "cert", s.config.HTTP.CertFile, "key", s.config.HTTP.KeyFile)
		return s.server.ListenAndServeTLS(s.config.HTTP.CertFile, s.config.HTTP.KeyFile)
	}
	slog.Info("server start http", "addr", s.config.HTTP.Addr)
	return s.server.ListenAndServe()
}
