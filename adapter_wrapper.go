package aistudio

import (
	"context"
	"errors"
	"time"

	"github.com/feitianbubu/aistudio/adapters"
)

// adapterWrapper wraps an adapters.Provider to implement the main package Provider interface
type adapterWrapper struct {
	provider adapters.Provider
	now      func() time.Time
}

// Name returns the provider name
func (w *adapterWrapper) Name() string {
	return w.provider.Name()
}

// SupportedModels returns a list of supported models for this provider
func (w *adapterWrapper) SupportedModels() []string {
	return w.provider.SupportedModels()
}

// SubmitImage generates an image and returns its URL
func (w *adapterWrapper) SubmitImage(ctx context.Context, req *ImageRequest) (string, error) {
	url, err := w.provider.SubmitImage(ctx, &adapters.ImageRequest{
		Prompt: req.Prompt,
		Size:   string(req.Size),
		Model:  req.Model,
	})
	if err != nil {
		return "", convertError("submit image", err)
	}
	return url, nil
}

// SubmitVideo creates a new video generation task
func (w *adapterWrapper) SubmitVideo(ctx context.Context, req *GenerationRequest) (TaskHandle, error) {
	resp, err := w.provider.SubmitVideo(ctx, &adapters.VideoRequest{
		Prompt:    req.Prompt,
		ImageURL:  req.SourceImage,
		WithAudio: req.WithAudio,
		Size:      string(req.Size),
		Duration:  req.Duration,
		FPS:       req.FPS,
		Model:     req.Model,
	})
	if err != nil {
		return TaskHandle{}, convertError("submit video", err)
	}
	if resp.TaskID == "" {
		return TaskHandle{}, &RemoteError{Status: 200, Message: "no task ID in response", Provider: w.provider.Name()}
	}

	return TaskHandle{ID: resp.TaskID, SubmittedAt: w.now()}, nil
}

// FetchStatus retrieves the status of a video generation task
func (w *adapterWrapper) FetchStatus(ctx context.Context, handle TaskHandle) (TaskStatus, error) {
	result, err := w.provider.FetchTask(ctx, handle.ID)
	if err != nil {
		return TaskStatus{}, convertError("fetch status", err)
	}

	switch result.Status {
	case adapters.TaskStatusProcessing:
		return TaskStatus{State: TaskStateProcessing}, nil
	case adapters.TaskStatusSucceeded:
		if result.URL == "" {
			return TaskStatus{State: TaskStateFailed, Reason: ErrMalformedSuccess.Error()}, nil
		}
		return TaskStatus{State: TaskStateSuccess, ArtifactURL: result.URL, CoverURL: result.CoverURL}, nil
	case adapters.TaskStatusFailed:
		reason := result.Reason
		if reason == "" {
			reason = "generation failed"
		}
		return TaskStatus{State: TaskStateFailed, Reason: reason}, nil
	default:
		return TaskStatus{}, &RemoteError{Status: 200, Message: "unknown task status " + string(result.Status), Provider: w.provider.Name()}
	}
}

// convertError maps adapter errors onto the package error taxonomy
func convertError(op string, err error) error {
	var apiErr *adapters.APIError
	if errors.As(err, &apiErr) {
		return &RemoteError{Status: apiErr.Code, Message: apiErr.Message, Provider: apiErr.Provider}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, adapters.ErrNetwork) || errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Op: op, Err: err}
	}

	return err
}
