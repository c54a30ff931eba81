package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/quotehub/quotehub/internal/domain"
	"github.com/quotehub/quotehub/internal/platform/logging"
)

// RespondOption customizes an outgoing error envelope.
type RespondOption func(*ErrorResponse)

// WithLogin attaches the user service's login URL to the envelope. Applied
// only when the response is an authentication failure, so handlers can pass
// it unconditionally.
func WithLogin(loginURL string) RespondOption {
	return func(resp *ErrorResponse) {
		if resp.Error.Code == ErrorCodeUnauthenticated {
			resp.Error.LoginURL = loginURL
		}
	}
}

// MapDomainError maps a domain error to an HTTP status code and error
// envelope. Unknown errors map to 500 with a generic message so internals
// never leak.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			resp.Error.Details = map[string]string{
				validationErr.Field: validationErr.Message,
			}
		}

		return http.StatusBadRequest, resp

	case domain.IsForbidden(err):
		return http.StatusForbidden, NewErrorResponse(ErrorCodeForbidden, err.Error())

	case domain.IsUnauthenticated(err):
		return http.StatusUnauthorized, NewErrorResponse(ErrorCodeUnauthenticated, err.Error())

	case domain.IsMalformedResponse(err):
		return http.StatusBadGateway, NewErrorResponse(ErrorCodeMalformedUpstream, err.Error())

	case domain.IsRequestFailed(err):
		return http.StatusBadGateway, NewErrorResponse(ErrorCodeUpstreamFailed, err.Error())

	default:
		return http.StatusInternalServerError, NewErrorResponse(
			ErrorCodeInternal,
			"an internal error occurred",
		)
	}
}

// HandleError writes a domain error to the gin.Context, including the trace
// ID when OpenTelemetry has one.
func HandleError(c *gin.Context, err error, opts ...RespondOption) {
	status, resp := MapDomainError(err)
	for _, opt := range opts {
		opt(resp)
	}

	resp.TraceID = GetTraceID(c)

	// Internal errors get logged with full details since the envelope hides them.
	if status >= http.StatusInternalServerError {
		logger := logging.FromContext(c.Request.Context())
		logger.Error("request failed",
			"error", err.Error(),
			"status", status,
		)
	}

	c.JSON(status, resp)
}

// HandleErrorCode writes an error response with a specific error code. Use
// this for adapter-level failures (binding, bad parameters) that don't
// originate from domain errors.
func HandleErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message).WithTraceID(GetTraceID(c))
	c.JSON(HTTPStatusFromCode(code), resp)
}

// HandleValidationErrors writes a 400 response with field-level messages.
func HandleValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	resp := NewErrorResponseWithDetails(
		ErrorCodeValidation,
		"request validation failed",
		fieldErrors,
	).WithTraceID(GetTraceID(c))

	c.JSON(http.StatusBadRequest, resp)
}

// GetTraceID returns the OpenTelemetry trace ID for the request, or empty
// when tracing is disabled.
func GetTraceID(c *gin.Context) string {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.SpanContext().HasTraceID() {
		return ""
	}

	return span.SpanContext().TraceID().String()
}
