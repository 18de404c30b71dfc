package ui

import (
	"errors"
	"net/http"
	"strings"

	"dataviz/adapters/ingest"
	"dataviz/domain/chart"
	apperrors "dataviz/internal/errors"
	"dataviz/internal/planner"
	"dataviz/internal/visualizer"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the slack allowed on top of the file itself for form boundaries and headers
const multipartOverhead = 1 << 20

// handleIndex renders the landing page
func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, "index.html", gin.H{
		"Intro":      s.intro,
		"Kinds":      chart.AllKinds(),
		"Themes":     chart.AllThemes(),
		"Default":    chart.DefaultTheme,
		"Extensions": ingest.SupportedExtensions(),
		"Hint":       visualizer.HintNoTable,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.service.Store().Len()})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.service.CreateSession()
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	s.service.DeleteSession(currentSession(c))
	c.Status(http.StatusNoContent)
}

// handleUpload ingests the multipart "file" field into the session
func (s *Server) handleUpload(c *gin.Context) {
	id := currentSession(c)
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, apperrors.IngestError("file exceeds the upload limit", nil))
			return
		}
		writeError(c, apperrors.InvalidInput("no file uploaded: send it in the \"file\" form field"))
		return
	}
	defer file.Close()

	view, err := s.service.Upload(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleTable(c *gin.Context) {
	view, err := s.service.Table(currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// handleOptions lists the selectable columns per role for ?kind=
func (s *Server) handleOptions(c *gin.Context) {
	kind, err := chart.ParseKind(c.Query("kind"))
	if err != nil {
		writeError(c, apperrors.PlanValidation("%v", err))
		return
	}

	opts, err := s.service.Options(currentSession(c), kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// chartRequest is the JSON body of a chart generation; empty strings mean the role is unset
type chartRequest struct {
	Kind  string      `json:"kind"`
	X     string      `json:"x"`
	Y     chart.Field `json:"y"`
	Color chart.Field `json:"color"`
	Title chart.Field `json:"title"`
	Theme string      `json:"theme"`
}

func (r chartRequest) toRequest() (visualizer.ChartRequest, error) {
	kind, err := chart.ParseKind(r.Kind)
	if err != nil {
		return visualizer.ChartRequest{}, apperrors.PlanValidation("%v", err)
	}
	return visualizer.ChartRequest{
		Request: planner.Request{
			Kind:  kind,
			X:     strings.TrimSpace(r.X),
			Y:     blankAsNone(r.Y),
			Color: blankAsNone(r.Color),
			Title: blankAsNone(r.Title),
		},
		Theme: strings.TrimSpace(r.Theme),
	}, nil
}

func blankAsNone(f chart.Field) chart.Field {
	if name, ok := f.Name(); !ok || strings.TrimSpace(name) == "" {
		return chart.None()
	}
	return f
}

// handleGenerateChart plans and renders a chart from the JSON selection
func (s *Server) handleGenerateChart(c *gin.Context) {
	var body chartRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperrors.InvalidInput("invalid chart request: "+err.Error()))
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(c, err)
		return
	}

	id := currentSession(c)
	plan, err := s.service.Generate(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	base := "/api/sessions/" + id.String()
	c.JSON(http.StatusOK, gin.H{
		"plan": plan,
		"links": gin.H{
			"svg":  base + "/chart.svg",
			"html": base + "/chart.html",
			"png":  base + "/chart.png",
		},
	})
}
