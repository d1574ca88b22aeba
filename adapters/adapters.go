package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Type definitions to avoid circular imports

// TaskStatus is the provider-neutral status of an asynchronous generation task
type TaskStatus string

const (
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusSucceeded  TaskStatus = "succeeded"
	TaskStatusFailed     TaskStatus = "failed"
)

// ImageRequest represents an image generation request
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	Model  string `json:"model,omitempty"`
}

// VideoRequest represents a video generation request
type VideoRequest struct {
	Prompt    string `json:"prompt,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	WithAudio bool   `json:"with_audio"`
	Size      string `json:"size,omitempty"`
	Duration  int    `json:"duration"`
	FPS       int    `json:"fps"`
	Model     string `json:"model,omitempty"`
}

// SubmitResponse represents the response from creating a video generation task
type SubmitResponse struct {
	TaskID    string `json:"task_id"`
	RequestID string `json:"request_id,omitempty"`
}

// TaskResult represents one status check of a video generation task.
// A succeeded result without URL is passed through as-is; callers decide
// how to treat it.
type TaskResult struct {
	TaskID   string     `json:"task_id"`
	Status   TaskStatus `json:"status"`
	URL      string     `json:"url,omitempty"`
	CoverURL string     `json:"cover_url,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// ProviderConfig holds configuration for a specific provider
type ProviderConfig struct {
	BaseURL    string            `json:"base_url"`
	APIKey     string            `json:"api_key"`
	ImageModel string            `json:"image_model,omitempty"`
	VideoModel string            `json:"video_model,omitempty"`
	AuthMode   string            `json:"auth_mode,omitempty"`
	Timeout    time.Duration     `json:"timeout"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// APIError represents an error returned by the generation API
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Provider string `json:"provider,omitempty"`
}

func (e *APIError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] API error %d: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// ErrNetwork marks failures below the HTTP layer (dial, TLS, timeout, broken body).
var ErrNetwork = errors.New("network error")

// NetworkError wraps a transport-level failure of a provider call
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Provider interface (minimal for adapters)
type Provider interface {
	Name() string
	SubmitImage(ctx context.Context, req *ImageRequest) (string, error)
	SubmitVideo(ctx context.Context, req *VideoRequest) (*SubmitResponse, error)
	FetchTask(ctx context.Context, taskID string) (*TaskResult, error)
	SupportedModels() []string
}
