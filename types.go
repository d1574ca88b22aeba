package aistudio

import "time"

// MediaKind identifies the family of a generated artifact
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// VideoSize is one of the fixed output resolutions accepted for videos
type VideoSize string

const (
	VideoSizeSD             VideoSize = "720x480"
	VideoSizeSquare         VideoSize = "1024x1024"
	VideoSizeHD             VideoSize = "1280x960"
	VideoSizeHDPortrait     VideoSize = "960x1280"
	VideoSizeFullHD         VideoSize = "1920x1080"
	VideoSizeFullHDPortrait VideoSize = "1080x1920"
	VideoSize2K             VideoSize = "2048x1080"
	VideoSize4K             VideoSize = "3840x2160"
)

// VideoSizes lists every supported video resolution
var VideoSizes = []VideoSize{
	VideoSizeSD,
	VideoSizeSquare,
	VideoSizeHD,
	VideoSizeHDPortrait,
	VideoSizeFullHD,
	VideoSizeFullHDPortrait,
	VideoSize2K,
	VideoSize4K,
}

// ImageSize is one of the fixed output resolutions accepted for images
type ImageSize string

const (
	ImageSizeSquare    ImageSize = "1024x1024"
	ImageSizePortrait  ImageSize = "768x1344"
	ImageSizeTall      ImageSize = "864x1152"
	ImageSizeLandscape ImageSize = "1344x768"
	ImageSizeWide      ImageSize = "1152x864"
	ImageSizeBanner    ImageSize = "1440x720"
	ImageSizeStrip     ImageSize = "720x1440"
)

// ImageSizes lists every supported image resolution
var ImageSizes = []ImageSize{
	ImageSizeSquare,
	ImageSizePortrait,
	ImageSizeTall,
	ImageSizeLandscape,
	ImageSizeWide,
	ImageSizeBanner,
	ImageSizeStrip,
}

const (
	DefaultVideoSize = VideoSizeFullHD
	DefaultImageSize = ImageSizeSquare
	DefaultDuration  = 5
	DefaultFPS       = 30
)

// ImageRequest represents an image generation request
type ImageRequest struct {
	Prompt string    `json:"prompt"`
	Size   ImageSize `json:"size,omitempty"`
	Model  string    `json:"model,omitempty"`
}

// GenerationRequest represents a video generation request.
// SourceImage is either a URL or a data URI (see EncodeImageFile).
type GenerationRequest struct {
	Prompt      string    `json:"prompt,omitempty"`
	SourceImage string    `json:"source_image,omitempty"`
	Size        VideoSize `json:"size,omitempty"`
	Duration    int       `json:"duration"`
	FPS         int       `json:"fps"`
	WithAudio   bool      `json:"with_audio"`
	Model       string    `json:"model,omitempty"`
}

// TaskHandle identifies one submitted video task
type TaskHandle struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// TaskState represents the state of a video generation task
type TaskState string

const (
	TaskStateProcessing TaskState = "processing"
	TaskStateSuccess    TaskState = "success"
	TaskStateFailed     TaskState = "failed"
)

// TaskStatus is the result of one status check. ArtifactURL and CoverURL are
// set only for TaskStateSuccess, Reason only for TaskStateFailed.
type TaskStatus struct {
	State       TaskState `json:"state"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// Terminal reports whether no further polling should happen
func (s TaskStatus) Terminal() bool {
	return s.State == TaskStateSuccess || s.State == TaskStateFailed
}

// GenerationResult is the artifact reference produced by a successful generation
type GenerationResult struct {
	Kind     MediaKind `json:"kind"`
	URL      string    `json:"url"`
	CoverURL string    `json:"cover_url,omitempty"`
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

// ProviderType represents different generation providers
type ProviderType string

const (
	ProviderZhipu ProviderType = "zhipu"
	ProviderMock  ProviderType = "mock"
)
