package acl

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/quotehub/quotehub/internal/adapters/clients"
	"github.com/quotehub/quotehub/internal/domain"
)

// BaseAdapter provides the request plumbing shared by the service
// adapters: it executes through the instrumented client, maps failures to
// domain errors, and hands back the raw body for translation.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
	logger      *slog.Logger
}

// NewBaseAdapter creates a base adapter over the given client.
// Defaults the logger to slog.Default() if nil.
func NewBaseAdapter(client *clients.Client, serviceName string, logger *slog.Logger) BaseAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
		logger:      logger.With(slog.String("upstream", serviceName)),
	}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName returns the name of the upstream service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Logger returns the adapter's logger.
func (a *BaseAdapter) Logger() *slog.Logger {
	return a.logger
}

// Get performs a GET and returns the success body (caller must close).
// Failures come back as domain errors.
func (a *BaseAdapter) Get(ctx context.Context, path, operation, entityID string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)

	return a.successBody(resp, err, operation, entityID)
}

// Post performs a POST with a JSON body and returns the success body.
func (a *BaseAdapter) Post(ctx context.Context, path string, body io.Reader, operation, entityID string) (io.ReadCloser, error) {
	resp, err := a.client.Post(ctx, path, body)

	return a.successBody(resp, err, operation, entityID)
}

// Put performs a PUT with a JSON body and returns the success body.
func (a *BaseAdapter) Put(ctx context.Context, path string, body io.Reader, operation, entityID string) (io.ReadCloser, error) {
	resp, err := a.client.Put(ctx, path, body)

	return a.successBody(resp, err, operation, entityID)
}

// Delete performs a DELETE and returns the success response itself;
// delete-style endpoints need the headers to decide whether a JSON body
// is present at all.
func (a *BaseAdapter) Delete(ctx context.Context, path, operation, entityID string) (*http.Response, error) {
	resp, err := a.client.Delete(ctx, path)
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation, entityID)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation, entityID)
	}

	return resp, nil
}

// successBody folds the (response, error) pair from the client into the
// common success-body-or-domain-error shape.
func (a *BaseAdapter) successBody(resp *http.Response, err error, operation, entityID string) (io.ReadCloser, error) {
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation, entityID)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation, entityID)
	}

	return resp.Body, nil
}

// DecodeResponse reads and decodes a JSON success body into the target
// type, closing the body. A body that does not decode is a
// MalformedResponseError, kept distinct from request failures.
func DecodeResponse[T any](body io.ReadCloser, service, operation string) (*T, error) {
	if body == nil {
		return nil, domain.NewMalformedResponseError(service, operation, io.ErrUnexpectedEOF)
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, domain.NewMalformedResponseError(service, operation, err)
	}

	return &result, nil
}

// Translator converts an upstream wire record to a domain value.
type Translator[External any, Domain any] func(ext *External) Domain

// TranslateSlice applies a translator to every record in a collection,
// preserving order.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) []D {
	result := make([]D, 0, len(items))
	for i := range items {
		result = append(result, translate(&items[i]))
	}

	return result
}
