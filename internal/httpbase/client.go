// Package httpbase provides the shared resty-backed HTTP client used by
// every external service adapter (LLM, tokenizer-by-HTTP, ...): consistent
// timeout, bearer auth, retry-on-5xx handling, and a per-call endpoint
// override for adapters whose target host is resolved per document rather
// than fixed at construction time.
package httpbase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kasai-dev/pageforge/internal/config"
	"github.com/kasai-dev/pageforge/internal/textutil"
)

// maxErrorBodyBytes bounds how much of a failed response body an error
// carries; LLM and embedding endpoints can echo the whole request back on
// a validation failure, which would otherwise blow up a log line.
const maxErrorBodyBytes = 2048

// Default timeout values for HTTP clients
const (
	DefaultTimeout      = 30 * time.Second
	DefaultReadTimeout  = 60 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// ClientError represents HTTP client operation errors with context.
type ClientError struct {
	Op         string // the operation that failed
	Service    string // the service name
	StatusCode int    // HTTP status code (if applicable)
	Err        error  // the underlying error
}

func (e *ClientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("client: %s %s failed with status %d: %v",
			e.Service, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("client: %s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewClientError creates a new ClientError with the given parameters.
func NewClientError(service, op string, err error) *ClientError {
	return &ClientError{
		Op:      op,
		Service: service,
		Err:     err,
	}
}

// NewHTTPError creates a new ClientError for HTTP status code errors. body
// is truncated to maxErrorBodyBytes so an endpoint that echoes a large
// request back on failure doesn't balloon the resulting error message.
func NewHTTPError(service, op string, statusCode int, body string) *ClientError {
	return &ClientError{
		Op:         op,
		Service:    service,
		StatusCode: statusCode,
		Err:        fmt.Errorf("HTTP %d: %s", statusCode, textutil.SafeUTF8Truncate(body, maxErrorBodyBytes)),
	}
}

// HTTPClient provides a standardized HTTP client configuration.
// It encapsulates common patterns used across all service clients.
type HTTPClient struct {
	client  *resty.Client
	service string // service name for error reporting
}

// NewHTTPClient creates a new HTTP client with standard configuration.
// It applies consistent timeout, headers, and middleware settings.
func NewHTTPClient(service string, cfg config.ServiceConfig, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	// Add retry conditions for transient failures
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= 500
	})

	return &HTTPClient{
		client:  client,
		service: service,
	}
}

// resolveURL builds the request target for path. path is normally relative
// to the client's configured base URL; model-config endpoints resolved
// per-run (as get_model_endpoints() does) can instead name a different
// host entirely, so an override that already carries a scheme replaces the
// base URL for that one call rather than being appended to it.
func resolveURL(path, override string) string {
	if override == "" {
		return path
	}
	if strings.HasPrefix(override, "http://") || strings.HasPrefix(override, "https://") {
		return strings.TrimRight(override, "/") + path
	}
	return path
}

// Post performs a POST request with standardized error handling. override,
// when non-empty and absolute, routes this single call at a different host
// than the client was constructed with (a per-document model/endpoint pair
// resolved at ingestion time rather than at client construction).
func (h *HTTPClient) Post(path string, body interface{}, result interface{}, override string) error {
	url := resolveURL(path, override)
	resp, err := h.client.R().
		SetBody(body).
		SetResult(result).
		Post(url)

	if err != nil {
		return NewClientError(h.service, "POST "+url, err)
	}

	if resp.StatusCode() != 200 {
		return NewHTTPError(h.service, "POST "+url, resp.StatusCode(), resp.String())
	}

	return nil
}

// Get performs a GET request with standardized error handling.
func (h *HTTPClient) Get(path string, params map[string]string, result interface{}) error {
	req := h.client.R().SetResult(result)

	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(path)
	if err != nil {
		return NewClientError(h.service, "GET "+path, err)
	}

	if resp.StatusCode() != 200 {
		return NewHTTPError(h.service, "GET "+path, resp.StatusCode(), resp.String())
	}

	return nil
}

// IsRetryableError reports whether an error is retryable.
// This helps upper layers decide whether to retry operations.
func IsRetryableError(err error) bool {
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		return false
	}

	// Consider 5xx status codes and network errors as retryable
	return clientErr.StatusCode >= 500 || clientErr.StatusCode == 0
}
