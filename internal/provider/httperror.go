package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxErrorBodySize caps how much of an error response body is read.
const MaxErrorBodySize = 4096

// HTTPError maps a non-2xx backend response to a sentinel error. It reads
// at most MaxErrorBodySize bytes of the body. backend prefixes messages
// that map to no sentinel.
func HTTPError(backend string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
	msg := strings.TrimSpace(string(body))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d: %s", ErrAuthentication, resp.StatusCode, msg)
	case resp.StatusCode == http.StatusServiceUnavailable && strings.Contains(strings.ToLower(msg), "loading"):
		return fmt.Errorf("%w: %s", ErrModelLoading, msg)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", ErrProviderDown, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%s: unexpected status %d: %s", backend, resp.StatusCode, msg)
	}
}

// TransportError classifies an error returned by http.Client.Do.
// Caller cancellation passes through unchanged so it is not mistaken for
// a backend outage.
func TransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProviderDown, err)
}
