package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cutroom/cutroom-agent/internal/api"
	"github.com/cutroom/cutroom-agent/internal/config"
	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/edit"
	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/media"
	"github.com/cutroom/cutroom-agent/internal/resolver"
	playsync "github.com/cutroom/cutroom-agent/internal/sync"
	"github.com/cutroom/cutroom-agent/internal/timeline"
	"github.com/cutroom/cutroom-agent/internal/ui"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.MediaDir(), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting cutroom agent", "version", Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := timeline.NewRepository(database.Conn())
	service := timeline.NewService(repo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seq, err := ensureProject(ctx, repo, service, cfg.FPS(), logger)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	var res resolver.Resolver
	if cfg.ResolverBaseURL() != "" {
		res = resolver.NewHTTPResolver(cfg.ResolverBaseURL(), cfg.ResolverToken(), logger)
		logger.Info("remote resolver enabled", "base_url", cfg.ResolverBaseURL())
	} else {
		res = resolver.NewStubResolver("/media", logger)
	}
	cached := resolver.NewCache(res, logger)

	runner := timeline.NewRevisionRunner(repo, cached, seq, logger)
	go runner.Start(ctx)

	engine := edit.NewEngine(seq, edit.Options{SnapEnabled: true}, logging.WithComponent(logger, "edit"))
	session := edit.NewSession(engine)

	synchronizer := playsync.NewSynchronizer(seq,
		playsync.NewVirtualDecoder(), playsync.NewVirtualDecoder(),
		seq.Project().FPS, logging.WithComponent(logger, "sync"))
	go playbackClock(ctx, synchronizer, seq.Project().FPS)

	library := media.NewLibrary(cfg.MediaDir())
	mediaServer := media.NewServer(library, logging.WithComponent(logger, "media"))

	apiServer := api.NewServer(api.ServerConfig{
		Port:         cfg.Port(),
		Version:      Version,
		Sequence:     seq,
		Service:      service,
		Repository:   repo,
		Engine:       engine,
		Session:      session,
		Synchronizer: synchronizer,
		MediaServer:  mediaServer,
		Runner:       runner,
		Logger:       logger,
		StartTime:    startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
		<-quitCh
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Sequence: seq,
			Runner:   runner,
			Logger:   logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go func() {
			<-quitCh
			tray.Quit()
		}()
		// systray needs the main goroutine.
		tray.Run()
	}

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// ensureProject loads the active project, creating one on first run.
func ensureProject(ctx context.Context, repo timeline.Repository, service *timeline.Service, fps float64, logger *slog.Logger) (*timeline.Sequence, error) {
	projectID, err := repo.GetConfig(ctx, "active_project_id")
	if err == nil && projectID != "" {
		seq, err := service.LoadSequence(ctx, projectID)
		if err == nil {
			return seq, nil
		}
		logger.Info("active project unloadable, creating a new one", "project_id", projectID)
	}

	project, err := service.CreateProject(ctx, "", fps)
	if err != nil {
		return nil, err
	}
	if err := repo.SetConfig(ctx, "active_project_id", project.ID); err != nil {
		return nil, err
	}
	return service.LoadSequence(ctx, project.ID)
}

// playbackClock advances the synchronizer once per display frame while
// playback runs. Scrub positions arrive through the API instead.
func playbackClock(ctx context.Context, sy *playsync.Synchronizer, fps float64) {
	if fps <= 0 {
		fps = 30
	}
	interval := time.Duration(float64(time.Second) / fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sy.IsPlaying() {
				continue
			}
			sy.Tick(sy.DebugState().PlayheadSec + interval.Seconds())
		}
	}
}
