package ui

import (
	"log"
	"net/http"

	"dataviz/internal"
	apperrors "dataviz/internal/errors"
	"dataviz/internal/visualizer"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5/middleware"
)

var logger = internal.DefaultLogger.Named("HTTP")

// statusFor maps an application error code to its HTTP status
func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeIngest, apperrors.CodeUnsupportedFormat, apperrors.CodeNoTable, apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeNoNumericColumns, apperrors.CodeValidationError:
		return http.StatusConflict
	case apperrors.CodePlanValidation, apperrors.CodeRender:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err as {error, code, hint}. Internal failures are logged
// and reported without their cause; rejected input is only logged at debug level.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	code := apperrors.GetCode(err)
	message := err.Error()
	reqID := middleware.GetReqID(c.Request.Context())

	switch {
	case apperrors.IsUserError(err):
		logger.Debug("⚠️ %s %s (request %s) rejected: %v", c.Request.Method, c.Request.URL.Path, reqID, err)
	case status == http.StatusInternalServerError:
		log.Printf("[HTTP] ❌ %s %s (request %s): %v", c.Request.Method, c.Request.URL.Path, reqID, err)
		message = "internal server error"
		if !apperrors.IsAppError(err) {
			code = apperrors.CodeInternalError
		}
	}

	body := gin.H{"error": message, "code": code}
	if hint := visualizer.Hint(err); hint != "" {
		body["hint"] = hint
	}
	c.JSON(status, body)
}
