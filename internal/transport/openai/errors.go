package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/footrag/internal/domain"
)

// parseAPIError extracts a human-readable error from the API response and wraps it
// with the provider sentinel. Rate limits, 408, 5xx, network errors and client
// timeouts additionally carry domain.ErrTransient. Only an error while the caller's
// ctx is done counts as a cancellation.
func parseAPIError(ctx context.Context, kind string, wrap, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return statusError(kind, reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(kind, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("%s request failed: %w: %w", kind, wrap, err)
	}

	return fmt.Errorf("%s request failed: %w: %w: %w", kind, wrap, domain.ErrTransient, err)
}

func statusError(kind string, status int, detail string, wrap error) error {
	if isTransientStatus(status) {
		return fmt.Errorf("%s API error %d: %s: %w: %w", kind, status, detail, wrap, domain.ErrTransient)
	}
	return fmt.Errorf("%s API error %d: %s: %w", kind, status, detail, wrap)
}

func isTransientStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// errorType is the metrics label for an API error.
func errorType(ctx context.Context, err error) string {
	var netErr net.Error
	switch {
	case ctx.Err() != nil:
		return "canceled"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case domain.IsTransient(err):
		return "transient"
	default:
		return "api_error"
	}
}
