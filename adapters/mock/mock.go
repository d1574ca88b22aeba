package mock

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/feitianbubu/aistudio/adapters"
)

const (
	defaultImageURL = "https://example.com/mock/image.png"
	defaultVideoURL = "https://example.com/mock/video.mp4"
	defaultCoverURL = "https://example.com/mock/cover.jpg"
)

// Provider is an offline provider that reports every video task as
// processing for a fixed number of polls and then succeeds.
//
// Recognised ProviderConfig.Extra keys: processing_polls, image_url,
// video_url, cover_url, fail ("true" makes every task end in failure).
type Provider struct {
	processingPolls int
	imageURL        string
	videoURL        string
	coverURL        string
	fail            bool

	mu     sync.Mutex
	nextID int
	polls  map[string]int
}

// New creates a new mock provider instance
func New(config *adapters.ProviderConfig) (adapters.Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	p := &Provider{
		processingPolls: 3,
		imageURL:        defaultImageURL,
		videoURL:        defaultVideoURL,
		coverURL:        defaultCoverURL,
		polls:           make(map[string]int),
	}

	if v, ok := config.Extra["processing_polls"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid processing_polls: %q", v)
		}
		p.processingPolls = n
	}
	if v := config.Extra["image_url"]; v != "" {
		p.imageURL = v
	}
	if v := config.Extra["video_url"]; v != "" {
		p.videoURL = v
	}
	if v := config.Extra["cover_url"]; v != "" {
		p.coverURL = v
	}
	p.fail = config.Extra["fail"] == "true"

	return p, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "Mock"
}

// SupportedModels returns supported models
func (p *Provider) SupportedModels() []string {
	return []string{"mock-image", "mock-video"}
}

// SubmitImage returns the configured image URL
func (p *Provider) SubmitImage(ctx context.Context, req *adapters.ImageRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.fail {
		return "", &adapters.APIError{Code: 500, Message: "mock failure", Provider: p.Name()}
	}
	return p.imageURL, nil
}

// SubmitVideo registers a new task
func (p *Provider) SubmitVideo(ctx context.Context, req *adapters.VideoRequest) (*adapters.SubmitResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := fmt.Sprintf("mock-task-%d", p.nextID)
	p.polls[id] = 0
	return &adapters.SubmitResponse{TaskID: id}, nil
}

// FetchTask advances the task by one poll
func (p *Provider) FetchTask(ctx context.Context, taskID string) (*adapters.TaskResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.polls[taskID]
	if !ok {
		return nil, &adapters.APIError{Code: 404, Message: "task not found", Provider: p.Name()}
	}
	p.polls[taskID] = n + 1

	if n < p.processingPolls {
		return &adapters.TaskResult{TaskID: taskID, Status: adapters.TaskStatusProcessing}, nil
	}
	if p.fail {
		return &adapters.TaskResult{TaskID: taskID, Status: adapters.TaskStatusFailed, Reason: "mock failure"}, nil
	}
	return &adapters.TaskResult{
		TaskID:   taskID,
		Status:   adapters.TaskStatusSucceeded,
		URL:      p.videoURL,
		CoverURL: p.coverURL,
	}, nil
}
