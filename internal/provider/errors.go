package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// AuthenticationError means the credentials were missing or rejected.
type AuthenticationError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s authentication failed: %v", e.Provider, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. A non-positive retryAfterSecs
// means the provider gave no hint.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	rl := &RateLimitError{Err: err, Provider: provider}
	if retryAfterSecs > 0 {
		rl.RetryAfter = time.Duration(retryAfterSecs) * time.Second
	}
	return rl
}

// QuotaExceededError means the account is out of quota or billing credit.
// Retrying will not help.
type QuotaExceededError struct {
	Provider string
	Err      error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exhausted: %v", e.Provider, e.Err)
}

func (e *QuotaExceededError) Unwrap() error {
	return e.Err
}

// TransportError covers network failures, timeouts, server errors and
// malformed or empty replies. Only network failures and 5xx are retried.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) temporary() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// ServerUnavailableError means a local inference server could not be reached.
type ServerUnavailableError struct {
	Provider string
	Endpoint string
	Err      error
}

func (e *ServerUnavailableError) Error() string {
	return fmt.Sprintf("%s server unavailable at %s: %v", e.Provider, e.Endpoint, e.Err)
}

func (e *ServerUnavailableError) Unwrap() error {
	return e.Err
}

type ModelNotFoundError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("%s model %q not found: %v", e.Provider, e.Model, e.Err)
}

func (e *ModelNotFoundError) Unwrap() error {
	return e.Err
}

// ExhaustedError wraps the last error once the retry budget is spent.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could succeed.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te) && te.temporary()
}

// Fatal reports whether the provider cannot serve any further request
// without operator action.
func Fatal(err error) bool {
	var (
		auth  *AuthenticationError
		quota *QuotaExceededError
		down  *ServerUnavailableError
		model *ModelNotFoundError
	)
	return errors.As(err, &auth) || errors.As(err, &quota) || errors.As(err, &down) || errors.As(err, &model)
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Both delta-seconds and HTTP-date forms are accepted; anything else is 0.
func ParseRetryAfterHeader(val string) int {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return max(secs, 0)
	}
	if when, err := http.ParseTime(val); err == nil {
		return max(int(time.Until(when).Seconds()), 0)
	}
	return 0
}

// StatusError maps a non-2xx HTTP reply from a hosted API to a typed error.
func StatusError(provider string, model string, resp *http.Response, body []byte) error {
	baseErr := fmt.Errorf("%s API error (status %d): %s", provider, resp.StatusCode, truncate(string(body), 300))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthenticationError{Provider: provider, StatusCode: resp.StatusCode, Err: baseErr}
	case resp.StatusCode == http.StatusTooManyRequests:
		if quotaExhausted(body) {
			return &QuotaExceededError{Provider: provider, Err: baseErr}
		}
		return NewRateLimitError(provider, baseErr, ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	case resp.StatusCode == http.StatusNotFound:
		return &ModelNotFoundError{Provider: provider, Model: model, Err: baseErr}
	default:
		return &TransportError{Provider: provider, StatusCode: resp.StatusCode, Err: baseErr}
	}
}

// quotaExhausted recognizes billing and daily quota failures, which share
// status 429 with ordinary rate limiting.
func quotaExhausted(body []byte) bool {
	text := strings.ToLower(string(body))
	for _, marker := range []string{"insufficient_quota", "billing", "perday", "per day"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// NetworkError classifies a failed round trip. Cancellation is passed
// through untouched; a refused connection to a local server is
// ServerUnavailableError.
func NetworkError(provider string, endpoint string, local bool, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("calling %s: %w", provider, err)
	}
	if local && isConnectionRefused(err) {
		return &ServerUnavailableError{Provider: provider, Endpoint: endpoint, Err: err}
	}
	return &TransportError{Provider: provider, Err: fmt.Errorf("calling %s API: %w", provider, err)}
}

func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	// Windows reports refusals with its own errno, so fall back to any
	// non-timeout dial failure against a loopback address.
	var opErr *net.OpError
	if !errors.As(err, &opErr) || opErr.Op != "dial" || opErr.Timeout() {
		return false
	}
	addr, ok := opErr.Addr.(*net.TCPAddr)
	return ok && addr.IP.IsLoopback()
}

// EmptyReply is returned by clients when the provider answered with no text.
func EmptyReply(provider string, detail string) error {
	return &TransportError{Provider: provider, Err: fmt.Errorf("empty response from API: %s", detail)}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
