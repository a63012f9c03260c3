package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cutroom/cutroom-agent/internal/edit"
	"github.com/cutroom/cutroom-agent/internal/media"
	playsync "github.com/cutroom/cutroom-agent/internal/sync"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port         int
	Version      string
	Sequence     *timeline.Sequence
	Service      *timeline.Service
	Repository   timeline.Repository
	Engine       *edit.Engine
	Session      *edit.Session
	Synchronizer *playsync.Synchronizer
	MediaServer  media.MediaService
	Runner       *timeline.RevisionRunner
	Logger       *slog.Logger
	StartTime    time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
