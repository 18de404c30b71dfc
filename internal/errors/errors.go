package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// WithCode attaches a code to an error, wrapping the original as the cause
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is or wraps an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code
func HasCode(err error, code string) bool {
	return err != nil && GetCode(err) == code
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"

	CodeIngest            = "INGEST_ERROR"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodePlanValidation    = "PLAN_VALIDATION_ERROR"
	CodeNoNumericColumns  = "NO_NUMERIC_COLUMNS"
	CodeNoTable           = "NO_TABLE_LOADED"
	CodeRender            = "RENDER_ERROR"
)

// IsIngestError reports whether err came from reading an uploaded file
func IsIngestError(err error) bool {
	code := GetCode(err)
	return code == CodeIngest || code == CodeUnsupportedFormat
}

// IsPlanError reports whether err came from an invalid chart selection
func IsPlanError(err error) bool {
	code := GetCode(err)
	return code == CodePlanValidation || code == CodeRender
}

// IsUserError reports whether err is caused by user input rather than the server
func IsUserError(err error) bool {
	switch GetCode(err) {
	case CodeIngest, CodeUnsupportedFormat, CodePlanValidation, CodeRender,
		CodeNoNumericColumns, CodeNoTable, CodeInvalidInput, CodeValidationError:
		return true
	}
	return false
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// IngestError reports an upload that could not be read as a table
func IngestError(message string, cause error) *AppError {
	return &AppError{Code: CodeIngest, Message: message, Cause: cause}
}

// UnsupportedFormat reports an upload whose extension is not accepted
func UnsupportedFormat(filename string) *AppError {
	return Newf(CodeUnsupportedFormat, "unsupported file type %q: only .csv, .xlsx and .xls files are accepted", filename)
}

// PlanValidation reports a chart configuration that does not fit the table
func PlanValidation(format string, args ...interface{}) *AppError {
	return Newf(CodePlanValidation, format, args...)
}

func NoNumericColumns() *AppError {
	return New(CodeNoNumericColumns, "no numeric columns found in your data")
}

func NoTable() *AppError {
	return New(CodeNoTable, "no file has been uploaded for this session")
}

// RenderError reports a plan the plotting backend could not draw
func RenderError(message string, cause error) *AppError {
	return &AppError{Code: CodeRender, Message: message, Cause: cause}
}
