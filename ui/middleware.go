package ui

import (
	"net/http"

	"dataviz/domain/core"
	apperrors "dataviz/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

const sessionKey = "sessionID"

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(echoRequestID())
}

// wrap applies the net/http middleware that sits in front of gin
func (s *Server) wrap(h http.Handler) http.Handler {
	h = middleware.Compress(5)(h)
	h = middleware.RequestID(h)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
	})
	return c.Handler(h)
}

// echoRequestID returns the id assigned by chi's RequestID to the client
func echoRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := middleware.GetReqID(c.Request.Context()); id != "" {
			c.Header(middleware.RequestIDHeader, id)
		}
		c.Next()
	}
}

// sessionID validates the :id path parameter before any session handler runs
func sessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseID(c.Param("id"))
		if err != nil {
			writeError(c, apperrors.InvalidInput(err.Error()))
			c.Abort()
			return
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func currentSession(c *gin.Context) core.ID {
	return c.MustGet(sessionKey).(core.ID)
}
