package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrNoCredentials means the user has no active integration for the
// requested provider. Callers should surface this, not retry it.
var ErrNoCredentials = errors.New("no active credentials for provider")

// AuthError marks a 401/403 from a provider. It is never retried and
// fails the source sync so the integration can be flagged inactive.
type AuthError struct {
	Source string
	Status int
	Msg    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth error (status %d): %s", e.Source, e.Status, e.Msg)
}

// RateLimitError marks a provider 429 or a local limiter block.
type RateLimitError struct {
	Source string
	Msg    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited: %s", e.Source, e.Msg)
}

// TransientError marks a retryable failure (5xx, network).
type TransientError struct {
	Source string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s transient error: %v", e.Source, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// CursorInvalidError means a stored sync cursor was rejected by the
// provider (expired history ID, 410 on a sync token). The caller falls
// back to a full sync.
type CursorInvalidError struct {
	Source string
	Msg    string
}

func (e *CursorInvalidError) Error() string {
	return fmt.Sprintf("%s cursor invalid: %s", e.Source, e.Msg)
}

func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsRateLimited(err error) bool {
	var re *RateLimitError
	return errors.As(err, &re)
}

func IsCursorInvalid(err error) bool {
	var ce *CursorInvalidError
	return errors.As(err, &ce)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ClassifyStatus maps an HTTP status from any provider onto the error
// taxonomy. Statuses outside the known ranges come back unwrapped.
func ClassifyStatus(source string, status int, msg string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Source: source, Status: status, Msg: msg}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Source: source, Msg: msg}
	case status == http.StatusGone:
		return &CursorInvalidError{Source: source, Msg: msg}
	case status >= 500:
		return &TransientError{Source: source, Err: fmt.Errorf("status %d: %s", status, msg)}
	default:
		return fmt.Errorf("%s request failed (status %d): %s", source, status, msg)
	}
}

// ClassifyGoogleError normalizes googleapi errors. Anything that is not
// a *googleapi.Error is treated as transient (network, timeouts).
func ClassifyGoogleError(source string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return ClassifyStatus(source, gerr.Code, gerr.Message)
	}
	return &TransientError{Source: source, Err: err}
}
