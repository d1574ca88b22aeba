package aistudio

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultDownloadAttempts = 3
	DefaultDownloadBackoff  = time.Second
)

// Artifact is a retrieved binary resource
type Artifact struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Retriever fetches an artifact through the retrieval proxy
type Retriever interface {
	Retrieve(ctx context.Context, artifactURL string) (*Artifact, error)
}

// DownloaderConfig holds configuration for the downloader
type DownloaderConfig struct {
	MaxAttempts int
	// Backoff is the wait unit; attempt i (0-based) waits Backoff*i first
	Backoff   time.Duration
	OutputDir string
	Logger    *log.Logger
}

// DefaultDownloaderConfig returns default downloader configuration
func DefaultDownloaderConfig() *DownloaderConfig {
	return &DownloaderConfig{
		MaxAttempts: DefaultDownloadAttempts,
		Backoff:     DefaultDownloadBackoff,
		OutputDir:   ".",
	}
}

// Downloader retrieves artifacts with bounded retry and linear backoff and
// saves them as local files
type Downloader struct {
	retriever Retriever
	config    DownloaderConfig
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// NewDownloader creates a new downloader
func NewDownloader(retriever Retriever, config ...*DownloaderConfig) *Downloader {
	cfg := *DefaultDownloaderConfig()
	if len(config) > 0 && config[0] != nil {
		cfg = *config[0]
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultDownloadAttempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = DefaultDownloadBackoff
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	return &Downloader{
		retriever: retriever,
		config:    cfg,
		sleep:     sleepContext,
		now:       time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Download retrieves artifactURL and writes it to OutputDir/targetName,
// returning the written path. An empty targetName gets a generated name.
func (d *Downloader) Download(ctx context.Context, artifactURL string, kind MediaKind, targetName string) (string, error) {
	artifact, err := d.Fetch(ctx, artifactURL, kind)
	if err != nil {
		return "", err
	}

	if targetName == "" {
		targetName = d.defaultName(kind)
	}
	path, err := d.save(artifact, targetName)
	if err != nil {
		return "", err
	}

	d.config.Logger.Printf("saved %s (%d bytes, %s)", path, len(artifact.Data), artifact.ContentType)
	return path, nil
}

// Fetch retrieves and validates an artifact without saving it
func (d *Downloader) Fetch(ctx context.Context, artifactURL string, kind MediaKind) (*Artifact, error) {
	var lastErr error
	for i := 0; i < d.config.MaxAttempts; i++ {
		if i > 0 {
			if err := d.sleep(ctx, d.config.Backoff*time.Duration(i)); err != nil {
				return nil, err
			}
		}

		artifact, err := d.attempt(ctx, artifactURL, kind)
		if err == nil {
			return artifact, nil
		}

		lastErr = err
		d.config.Logger.Printf("download attempt %d/%d failed: %v", i+1, d.config.MaxAttempts, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &DownloadExhaustedError{Attempts: d.config.MaxAttempts, LastError: lastErr}
}

func (d *Downloader) attempt(ctx context.Context, artifactURL string, kind MediaKind) (*Artifact, error) {
	artifact, err := d.retriever.Retrieve(ctx, artifactURL)
	if err != nil {
		return nil, err
	}

	// videos are already family-checked by the proxy
	if kind == MediaImage && !strings.HasPrefix(strings.ToLower(strings.TrimSpace(artifact.ContentType)), "image/") {
		return nil, &InvalidContentTypeError{ContentType: artifact.ContentType}
	}

	if len(artifact.Data) == 0 {
		return nil, ErrEmptyPayload
	}
	return artifact, nil
}

func (d *Downloader) defaultName(kind MediaKind) string {
	ms := d.now().UnixMilli()
	if kind == MediaVideo {
		return fmt.Sprintf("generated-video-%d.mp4", ms)
	}
	return fmt.Sprintf("generated-image-%d.png", ms)
}

// save writes the payload through a temp file so a partial write never
// leaves a file under the final name
func (d *Downloader) save(artifact *Artifact, targetName string) (string, error) {
	name := filepath.Base(targetName)
	if name == "." || name == string(filepath.Separator) {
		return "", &ValidationError{Field: "target_name", Message: "invalid file name: " + targetName}
	}

	if err := os.MkdirAll(d.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.config.OutputDir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(artifact.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	path := filepath.Join(d.config.OutputDir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return path, nil
}
