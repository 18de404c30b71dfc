package ui

import (
	"log"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// svgPolicy keeps an inline chart from loading or running anything
const svgPolicy = "default-src 'none'; style-src 'unsafe-inline'"

// handleChartSVG serves the current chart for the in-page preview
func (s *Server) handleChartSVG(c *gin.Context) {
	fig, err := s.service.Figure(currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Security-Policy", svgPolicy)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", fig.SVG)
}

func (s *Server) handleExportHTML(c *gin.Context) {
	doc, name, err := s.service.ExportHTML(currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	attach(c, name)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

func (s *Server) handleExportPNG(c *gin.Context) {
	img, name, err := s.service.ExportPNG(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	attach(c, name)
	c.Data(http.StatusOK, "image/png", img)
}

// attach marks the response as a download named filename
func attach(c *gin.Context, filename string) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		log.Printf("[Export] could not encode filename %q, using default", filename)
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	c.Header("Cache-Control", "no-store")
}
