package provider

import "errors"

// Sentinel errors for generation backends.
var (
	// ErrRateLimit indicates the backend returned a rate limit response.
	ErrRateLimit = errors.New("provider rate limited")

	// ErrProviderDown indicates the backend is temporarily unavailable.
	ErrProviderDown = errors.New("provider unavailable")

	// ErrAuthentication indicates the backend rejected the credentials.
	ErrAuthentication = errors.New("provider authentication failed")

	// ErrModelLoading indicates the backend is still loading the model.
	ErrModelLoading = errors.New("model is loading")

	// ErrEmptyResponse indicates the backend returned no generation results.
	ErrEmptyResponse = errors.New("provider returned no results")

	// ErrUnknownBackend indicates no backend is registered under the requested ID.
	ErrUnknownBackend = errors.New("unknown provider backend")
)

// IsRetryable reports whether the error is transient and the request
// could succeed if sent again later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrProviderDown) ||
		errors.Is(err, ErrModelLoading)
}

// ErrorKind returns a short label for err, used as a metric label.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, ErrAuthentication):
		return "auth"
	case errors.Is(err, ErrModelLoading):
		return "model_loading"
	case errors.Is(err, ErrProviderDown):
		return "unavailable"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	default:
		return "other"
	}
}
