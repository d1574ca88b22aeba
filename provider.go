package aistudio

import "context"

// Provider defines the interface that all generation providers must implement
type Provider interface {
	// Name returns the provider name
	Name() string

	// SubmitImage generates an image and returns its artifact URL
	SubmitImage(ctx context.Context, req *ImageRequest) (string, error)

	// SubmitVideo creates a new video generation task
	SubmitVideo(ctx context.Context, req *GenerationRequest) (TaskHandle, error)

	// FetchStatus retrieves the status of a video generation task
	FetchStatus(ctx context.Context, handle TaskHandle) (TaskStatus, error)

	// SupportedModels returns a list of supported models for this provider
	SupportedModels() []string
}

// StatusFetcher is the part of a provider the poller depends on
type StatusFetcher interface {
	FetchStatus(ctx context.Context, handle TaskHandle) (TaskStatus, error)
}
