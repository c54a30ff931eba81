package acl

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/quotehub/quotehub/internal/adapters/clients"
	"github.com/quotehub/quotehub/internal/domain"
)

// maxErrorBodyBytes caps how much of an error body is kept as detail.
const maxErrorBodyBytes = 4 << 10

// MapHTTPError maps an upstream failure to a domain error.
//
// Parameters:
//   - resp: the HTTP response (nil when the request never got one)
//   - clientErr: transport-level error from the HTTP client (may be nil)
//   - service: upstream service name for error context
//   - operation: the operation being performed (e.g. "create quote")
//   - entityID: the entity being operated on (used for NotFoundError)
//
// Transport failures (dial errors, timeouts, open circuit, retries
// exhausted) become RequestFailedError with Status 0. HTTP rejections map
// by status: 401 to Unauthenticated, 403 to Forbidden, 404 to NotFound,
// everything else to RequestFailed carrying the raw body as detail.
func MapHTTPError(resp *http.Response, clientErr error, service, operation, entityID string) error {
	if clientErr != nil {
		return mapClientError(clientErr, service, operation)
	}

	if resp == nil {
		return domain.NewRequestFailedError(service, operation, 0, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	detail := readErrorDetail(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return domain.NewUnauthenticatedError(operation)

	case http.StatusForbidden:
		return domain.NewForbiddenError(operation, detail)

	case http.StatusNotFound:
		return domain.NewNotFoundError(entityOf(operation), entityID)

	default:
		return domain.NewRequestFailedError(service, operation, resp.StatusCode, detail)
	}
}

// mapClientError translates client-level errors to domain errors.
// Context cancellation passes through untouched so callers can keep
// distinguishing it with errors.Is.
func mapClientError(err error, service, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewRequestFailedError(service, operation, 0, "circuit breaker open")

	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewRequestFailedError(service, operation, 0, "max retries exceeded: "+err.Error())

	default:
		return domain.NewRequestFailedError(service, operation, 0, err.Error())
	}
}

// readErrorDetail drains up to maxErrorBodyBytes of an error body for use
// as the Detail field. Upstream error bodies are small JSON documents or
// plain text; either way the raw text is the most useful thing to keep.
func readErrorDetail(body io.Reader) string {
	if body == nil {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(raw))
}

// entityOf derives the entity name from an operation like "delete quote".
// Falls back to the operation itself for the rare one-word case.
func entityOf(operation string) string {
	if idx := strings.LastIndexByte(operation, ' '); idx >= 0 {
		return operation[idx+1:]
	}

	return operation
}
