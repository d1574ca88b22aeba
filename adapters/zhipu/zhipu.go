package zhipu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/feitianbubu/aistudio/adapters"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL    = "https://open.bigmodel.cn/api/paas/v4"
	DefaultImageModel = "cogview-3-flash"
	DefaultVideoModel = "cogvideox-flash"

	providerName = "Zhipu"
)

// Provider implements the adapters.Provider interface for the Zhipu BigModel
// open platform (CogView images, CogVideoX videos)
type Provider struct {
	config     *adapters.ProviderConfig
	client     *http.Client
	baseURL    string
	apiKey     string
	authMode   string
	imageModel string
	videoModel string

	now          func() time.Time
	newRequestID func() string
}

// zhipuImageRequest represents the /images/generations request body
type zhipuImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
}

// zhipuImageResponse represents the /images/generations response body
type zhipuImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// zhipuVideoRequest represents the /videos/generations request body
type zhipuVideoRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	WithAudio bool   `json:"with_audio"`
	Size      string `json:"size,omitempty"`
	Duration  int    `json:"duration"`
	FPS       int    `json:"fps"`
	RequestID string `json:"request_id"`
}

// zhipuVideoResponse represents the /videos/generations response body
type zhipuVideoResponse struct {
	ID         string `json:"id"`
	RequestID  string `json:"request_id"`
	Model      string `json:"model"`
	TaskStatus string `json:"task_status"`
}

// zhipuResultResponse represents the /async-result/{id} response body
type zhipuResultResponse struct {
	Model       string `json:"model"`
	RequestID   string `json:"request_id"`
	TaskStatus  string `json:"task_status"`
	VideoResult []struct {
		URL           string `json:"url"`
		CoverImageURL string `json:"cover_image_url"`
	} `json:"video_result"`
}

type zhipuErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var supportedModels = []string{
	"cogview-3-flash",
	"cogview-3-plus",
	"cogview-4",
	"cogvideox-flash",
	"cogvideox-2",
}

// New creates a new Zhipu provider instance. An empty API key is accepted;
// the caller is expected to reject calls before they reach the network.
func New(config *adapters.ProviderConfig) (adapters.Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	authMode := strings.ToLower(strings.TrimSpace(config.AuthMode))
	switch authMode {
	case "":
		authMode = AuthModeKey
	case AuthModeKey, AuthModeJWT:
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", config.AuthMode)
	}

	p := &Provider{
		config:     config,
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(config.APIKey),
		authMode:   authMode,
		imageModel: firstNonEmpty(config.ImageModel, DefaultImageModel),
		videoModel: firstNonEmpty(config.VideoModel, DefaultVideoModel),
		now:        time.Now,
	}
	p.newRequestID = p.requestID
	return p, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return providerName
}

// SupportedModels returns supported models
func (p *Provider) SupportedModels() []string {
	return append([]string{}, supportedModels...)
}

// SubmitImage generates an image synchronously and returns its URL
func (p *Provider) SubmitImage(ctx context.Context, req *adapters.ImageRequest) (string, error) {
	body := &zhipuImageRequest{
		Model:  firstNonEmpty(req.Model, p.imageModel),
		Prompt: req.Prompt,
		Size:   req.Size,
	}

	var resp zhipuImageResponse
	if err := p.call(ctx, http.MethodPost, p.baseURL+"/images/generations", body, &resp); err != nil {
		return "", err
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", &adapters.APIError{Code: http.StatusOK, Message: "no image URL in response", Provider: providerName}
	}
	return resp.Data[0].URL, nil
}

// SubmitVideo creates an asynchronous video generation task
func (p *Provider) SubmitVideo(ctx context.Context, req *adapters.VideoRequest) (*adapters.SubmitResponse, error) {
	body := &zhipuVideoRequest{
		Model:     firstNonEmpty(req.Model, p.videoModel),
		Prompt:    req.Prompt,
		ImageURL:  req.ImageURL,
		WithAudio: req.WithAudio,
		Size:      req.Size,
		Duration:  req.Duration,
		FPS:       req.FPS,
		RequestID: p.newRequestID(),
	}

	var resp zhipuVideoResponse
	if err := p.call(ctx, http.MethodPost, p.baseURL+"/videos/generations", body, &resp); err != nil {
		return nil, err
	}

	if resp.ID == "" {
		return nil, &adapters.APIError{Code: http.StatusOK, Message: "no task ID in response", Provider: providerName}
	}
	return &adapters.SubmitResponse{TaskID: resp.ID, RequestID: body.RequestID}, nil
}

// FetchTask retrieves the task status
func (p *Provider) FetchTask(ctx context.Context, taskID string) (*adapters.TaskResult, error) {
	var resp zhipuResultResponse
	endpoint := p.baseURL + "/async-result/" + url.PathEscape(taskID)
	if err := p.call(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return p.convertToTaskResult(taskID, &resp)
}

// convertToTaskResult converts the Zhipu three-valued status to standard format
func (p *Provider) convertToTaskResult(taskID string, data *zhipuResultResponse) (*adapters.TaskResult, error) {
	result := &adapters.TaskResult{TaskID: taskID}

	switch data.TaskStatus {
	case "PROCESSING":
		result.Status = adapters.TaskStatusProcessing
	case "SUCCESS":
		result.Status = adapters.TaskStatusSucceeded
		if len(data.VideoResult) > 0 {
			result.URL = data.VideoResult[0].URL
			result.CoverURL = data.VideoResult[0].CoverImageURL
		}
	case "FAIL":
		result.Status = adapters.TaskStatusFailed
		result.Reason = "generation failed"
	default:
		return nil, &adapters.APIError{
			Code:     http.StatusOK,
			Message:  fmt.Sprintf("unknown task status %q", data.TaskStatus),
			Provider: providerName,
		}
	}

	return result, nil
}

// requestID builds the idempotency token sent with every video submission
func (p *Provider) requestID() string {
	return fmt.Sprintf("video_%d_%s", p.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// call makes an authenticated JSON request and decodes a 2xx body into out
func (p *Provider) call(ctx context.Context, method, endpoint string, body, out interface{}) error {
	token, err := p.bearerToken()
	if err != nil {
		return errors.Wrap(err, "failed to create auth token")
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "aistudio-sdk/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return &adapters.NetworkError{Op: method + " " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &adapters.NetworkError{Op: "read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &adapters.APIError{
			Code:     resp.StatusCode,
			Message:  errorMessage(resp.StatusCode, respBody),
			Provider: providerName,
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &adapters.APIError{
			Code:     resp.StatusCode,
			Message:  errors.Wrapf(err, "failed to decode response, body: %s", truncate(respBody, 256)).Error(),
			Provider: providerName,
		}
	}
	return nil
}

func errorMessage(status int, body []byte) string {
	var errResp zhipuErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Code != "" {
			return errResp.Error.Code + ": " + errResp.Error.Message
		}
		return errResp.Error.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return truncate(body, 256)
	}
	return http.StatusText(status)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
