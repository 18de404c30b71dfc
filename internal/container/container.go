package container

import (
	"context"
	"fmt"
	"log"

	"dataviz/adapters/render"
	"dataviz/internal/config"
	"dataviz/internal/session"
	"dataviz/internal/visualizer"
	"dataviz/ui"

	"github.com/gin-gonic/gin"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	Store    *session.Store
	Renderer *render.GoChartRenderer
	Service  *visualizer.Service
	Server   *ui.Server

	stopSweeper context.CancelFunc
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	c := &Container{
		Config:   cfg,
		Store:    session.NewStore(),
		Renderer: render.NewGoChartRenderer(cfg.Chart.Width),
	}

	c.Service = visualizer.NewService(c.Store, c.Renderer, visualizer.Config{
		MaxUploadBytes:       cfg.Upload.MaxBytes,
		DefaultTheme:         cfg.Chart.Theme,
		MaxConcurrentRenders: cfg.Chart.MaxConcurrentRenders,
	})

	server, err := ui.NewServer(c.Service, ui.Config{
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	c.Server = server

	return c, nil
}

// StartBackground launches the idle session sweeper
func (c *Container) StartBackground(ctx context.Context) {
	if c.stopSweeper != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.stopSweeper = cancel
	c.Store.StartSweeper(ctx, c.Config.Session.TTL, c.Config.Session.SweepInterval)
	log.Printf("[Container] session sweeper started (ttl %v, every %v)", c.Config.Session.TTL, c.Config.Session.SweepInterval)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.stopSweeper != nil {
		c.stopSweeper()
		c.stopSweeper = nil
	}
	return nil
}
