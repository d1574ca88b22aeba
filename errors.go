package aistudio

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnsupportedProvider  = errors.New("unsupported provider")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrEmptyPayload         = errors.New("empty payload received")
	ErrPollCancelled        = errors.New("polling cancelled")
	ErrMalformedSuccess     = errors.New("malformed success")
)

// ConfigError reports a missing or unusable setting. It is raised before
// any network call is attempted.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for '%s': %s", e.Setting, e.Message)
}

// RemoteError represents a rejection or unusable payload from a remote
// endpoint, either the provider API or an upstream artifact server
type RemoteError struct {
	Status   int    `json:"status"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

func (e *RemoteError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] remote error %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
}

// TransportError represents a network-level failure, including per-call timeouts
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError represents a request validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// InvalidContentTypeError is returned when a retrieved artifact is not of
// the expected media family
type InvalidContentTypeError struct {
	ContentType string
}

func (e *InvalidContentTypeError) Error() string {
	if e.ContentType == "" {
		return "invalid content type: <missing>"
	}
	return "invalid content type: " + e.ContentType
}

// DownloadExhaustedError is returned once every download attempt failed
type DownloadExhaustedError struct {
	Attempts  int
	LastError error
}

func (e *DownloadExhaustedError) Error() string {
	return fmt.Sprintf("failed to download after %d attempts: %v", e.Attempts, e.LastError)
}

func (e *DownloadExhaustedError) Unwrap() error { return e.LastError }

// TaskFailedError carries the reason reported for a failed video task
type TaskFailedError struct {
	TaskID string
	Reason string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Reason)
}
