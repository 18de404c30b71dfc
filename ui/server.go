package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"dataviz/domain/chart"
	"dataviz/internal/visualizer"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*
var embeddedFiles embed.FS

// Config holds HTTP boundary settings
type Config struct {
	CORSOrigins    []string
	MaxUploadBytes int64
}

// Server is the web front end for the visualizer
type Server struct {
	router    *gin.Engine
	service   *visualizer.Service
	templates *template.Template
	intro     template.HTML
	cfg       Config
}

// NewServer parses the page templates and registers every route
func NewServer(service *visualizer.Service, cfg Config) (*Server, error) {
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	funcMap := template.FuncMap{
		"slug": func(k chart.Kind) string { return k.Slug() },
		"join": strings.Join,
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	source, err := embeddedFiles.ReadFile("templates/intro.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read landing intro: %w", err)
	}

	s := &Server{
		router:    gin.Default(),
		service:   service,
		templates: templates,
		intro:     renderMarkdown(source),
		cfg:       cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/sessions", s.handleCreateSession)

	sessions := api.Group("/sessions/:id", sessionID())
	sessions.DELETE("", s.handleDeleteSession)
	sessions.POST("/upload", s.handleUpload)
	sessions.GET("/table", s.handleTable)
	sessions.GET("/options", s.handleOptions)
	sessions.POST("/charts", s.handleGenerateChart)
	sessions.GET("/chart.svg", s.handleChartSVG)
	sessions.GET("/chart.html", s.handleExportHTML)
	sessions.GET("/chart.png", s.handleExportPNG)
}

// Handler returns the gin engine wrapped in the net/http middleware stack
func (s *Server) Handler() http.Handler {
	return s.wrap(s.router)
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	log.Printf("🚀 Starting Data Visualizer on http://%s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
