package wix

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"catalogsync/internal/models"
)

// Error kinds recorded on failed sync attempts.
const (
	KindCredential       = "credential"
	KindRemoteValidation = "remote_validation"
	KindTransient        = "transient"
	KindRemote           = "remote"
	KindUnknown          = "unknown"
)

// CredentialError means the platform rejected the API credentials (401/403).
type CredentialError struct {
	StatusCode int
	Detail     string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("wix rejected credentials (%d): %s", e.StatusCode, e.Detail)
}

// RemoteValidationError means the platform rejected the payload content.
type RemoteValidationError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteValidationError) Error() string {
	return fmt.Sprintf("wix rejected product (%d): %s", e.StatusCode, e.Detail)
}

// RemoteError is any other non-retryable platform response, e.g. 404.
type RemoteError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("wix request failed (%d): %s", e.StatusCode, e.Detail)
}

// TransientError is a network, timeout, rate-limit or 5xx failure that
// persisted through every retry.
type TransientError struct {
	Attempts   int
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("wix unavailable after %d attempts (last status %d): %v", e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("wix unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies err for logging and metrics.
func ErrorKind(err error) string {
	var credErr *CredentialError
	var validationErr *RemoteValidationError
	var transientErr *TransientError
	var remoteErr *RemoteError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &credErr):
		return KindCredential
	case errors.As(err, &validationErr):
		return KindRemoteValidation
	case errors.As(err, &transientErr):
		return KindTransient
	case errors.As(err, &remoteErr):
		return KindRemote
	default:
		return KindUnknown
	}
}

// errorDetail pulls a readable message out of an error response body.
func errorDetail(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		if len(payload.Details) > 0 && string(payload.Details) != "null" && string(payload.Details) != "{}" {
			return payload.Message + " " + snippet(string(payload.Details), 500)
		}
		return payload.Message
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response"
	}
	return snippet(text, 500)
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return models.TruncateUTF8(s, max) + "..."
}
