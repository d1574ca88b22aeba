package aistudio

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/feitianbubu/aistudio/adapters"
	"github.com/feitianbubu/aistudio/adapters/mock"
	"github.com/feitianbubu/aistudio/adapters/zhipu"
)

// Client issues the three remote operations against a provider. It keeps no
// state between calls and never retries; retry policy belongs to the Downloader.
type Client struct {
	provider   Provider
	config     *ClientConfig
	credential string
	needsKey   bool
}

// ClientConfig holds configuration for the client
type ClientConfig struct {
	// Timeout bounds every single provider call
	Timeout time.Duration
	Logger  *log.Logger
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout: 30 * time.Second,
		Logger:  log.New(io.Discard, "", 0),
	}
}

// NewClient creates a new generation client. A missing API key is not an
// error here; it is reported as a ConfigError by the first call.
func NewClient(providerType ProviderType, providerConfig *ProviderConfig, clientConfig ...*ClientConfig) (*Client, error) {
	if providerConfig == nil {
		return nil, ErrInvalidConfiguration
	}

	provider, err := createProvider(providerType, providerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	c := newClient(provider, clientConfig...)
	c.credential = providerConfig.APIKey
	c.needsKey = providerType != ProviderMock
	return c, nil
}

// NewClientWithProvider creates a new client with a custom provider
func NewClientWithProvider(provider Provider, config ...*ClientConfig) *Client {
	return newClient(provider, config...)
}

func newClient(provider Provider, config ...*ClientConfig) *Client {
	clientConfig := DefaultClientConfig()
	if len(config) > 0 && config[0] != nil {
		c := *config[0]
		clientConfig = &c
		if clientConfig.Timeout <= 0 {
			clientConfig.Timeout = DefaultClientConfig().Timeout
		}
		if clientConfig.Logger == nil {
			clientConfig.Logger = log.New(io.Discard, "", 0)
		}
	}

	return &Client{
		provider: provider,
		config:   clientConfig,
	}
}

// SubmitImage generates an image and returns the artifact URL
func (c *Client) SubmitImage(ctx context.Context, req *ImageRequest) (string, error) {
	if err := c.checkCredential(); err != nil {
		return "", err
	}

	r, err := c.validateImageRequest(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	url, err := c.provider.SubmitImage(ctx, r)
	if err != nil {
		c.config.Logger.Printf("submit image failed: %v", err)
		return "", err
	}

	c.config.Logger.Printf("image generated: %s", url)
	return url, nil
}

// SubmitVideo creates a new video generation task and returns its handle
func (c *Client) SubmitVideo(ctx context.Context, req *GenerationRequest) (TaskHandle, error) {
	if err := c.checkCredential(); err != nil {
		return TaskHandle{}, err
	}

	r, err := c.validateVideoRequest(req)
	if err != nil {
		return TaskHandle{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	handle, err := c.provider.SubmitVideo(ctx, r)
	if err != nil {
		c.config.Logger.Printf("submit video failed: %v", err)
		return TaskHandle{}, err
	}

	c.config.Logger.Printf("video task submitted: %s", handle.ID)
	return handle, nil
}

// FetchStatus retrieves the status of a video generation task
func (c *Client) FetchStatus(ctx context.Context, handle TaskHandle) (TaskStatus, error) {
	if err := c.checkCredential(); err != nil {
		return TaskStatus{}, err
	}

	if handle.ID == "" {
		return TaskStatus{}, &ValidationError{Field: "task_id", Message: "task ID cannot be empty"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	status, err := c.provider.FetchStatus(ctx, handle)
	if err != nil {
		c.config.Logger.Printf("fetch status for %s failed: %v", handle.ID, err)
		return TaskStatus{}, err
	}
	return status, nil
}

// GetProviderName returns the name of the current provider
func (c *Client) GetProviderName() string {
	return c.provider.Name()
}

// GetSupportedModels returns supported models for the current provider
func (c *Client) GetSupportedModels() []string {
	return c.provider.SupportedModels()
}

func (c *Client) checkCredential() error {
	if c.needsKey && c.credential == "" {
		return &ConfigError{Setting: "api_key", Message: "API key is not configured"}
	}
	return nil
}

// createProvider creates a provider instance based on the provider type
func createProvider(providerType ProviderType, config *ProviderConfig) (Provider, error) {
	adapterConfig := &adapters.ProviderConfig{
		BaseURL:    config.BaseURL,
		APIKey:     config.APIKey,
		ImageModel: config.ImageModel,
		VideoModel: config.VideoModel,
		AuthMode:   config.AuthMode,
		Timeout:    config.Timeout,
		Extra:      config.Extra,
	}

	var (
		adapterProvider adapters.Provider
		err             error
	)
	switch providerType {
	case ProviderZhipu, "":
		adapterProvider, err = zhipu.New(adapterConfig)
	case ProviderMock:
		adapterProvider, err = mock.New(adapterConfig)
	default:
		return nil, ErrUnsupportedProvider
	}
	if err != nil {
		return nil, err
	}
	return &adapterWrapper{provider: adapterProvider, now: time.Now}, nil
}

// validateImageRequest validates an image request and returns a copy with defaults applied
func (c *Client) validateImageRequest(req *ImageRequest) (*ImageRequest, error) {
	if req == nil {
		return nil, &ValidationError{Field: "request", Message: "request cannot be nil"}
	}

	r := *req
	if r.Prompt == "" {
		return nil, &ValidationError{Field: "prompt", Message: "prompt cannot be empty"}
	}

	if r.Size == "" {
		r.Size = DefaultImageSize
	}
	if !validImageSize(r.Size) {
		return nil, &ValidationError{Field: "size", Message: fmt.Sprintf("unsupported image size: %s", r.Size)}
	}
	return &r, nil
}

// validateVideoRequest validates a video request and returns a copy with defaults applied
func (c *Client) validateVideoRequest(req *GenerationRequest) (*GenerationRequest, error) {
	if req == nil {
		return nil, &ValidationError{Field: "request", Message: "request cannot be nil"}
	}

	r := *req
	if r.Prompt == "" && r.SourceImage == "" {
		return nil, &ValidationError{Field: "prompt/source_image", Message: "at least one of prompt or source image must be provided"}
	}

	if r.Size == "" {
		r.Size = DefaultVideoSize
	}
	if !validVideoSize(r.Size) {
		return nil, &ValidationError{Field: "size", Message: fmt.Sprintf("unsupported video size: %s", r.Size)}
	}

	if r.Duration == 0 {
		r.Duration = DefaultDuration
	}
	if r.Duration != 5 && r.Duration != 10 {
		return nil, &ValidationError{Field: "duration", Message: "duration must be 5 or 10 seconds"}
	}

	if r.FPS == 0 {
		r.FPS = DefaultFPS
	}
	if r.FPS != 30 && r.FPS != 60 {
		return nil, &ValidationError{Field: "fps", Message: "fps must be 30 or 60"}
	}
	return &r, nil
}

func validVideoSize(size VideoSize) bool {
	for _, s := range VideoSizes {
		if s == size {
			return true
		}
	}
	return false
}

func validImageSize(size ImageSize) bool {
	for _, s := range ImageSizes {
		if s == size {
			return true
		}
	}
	return false
}
