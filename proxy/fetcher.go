// Package proxy retrieves generated artifacts from the provider's storage on
// behalf of clients, validating that the payload is usable media.
package proxy

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/feitianbubu/aistudio"
)

const (
	DefaultReferer   = "https://open.bigmodel.cn/"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultTimeout   = 30 * time.Second
)

// FetcherConfig holds configuration for the upstream fetcher
type FetcherConfig struct {
	Timeout time.Duration
	// Referer is sent as Referer; its scheme and host are sent as Origin
	Referer   string
	UserAgent string
	Logger    *log.Logger
}

// Fetcher downloads an upstream artifact with browser-like headers and
// checks that it is non-empty image or video content. It never retries.
type Fetcher struct {
	client    *http.Client
	referer   string
	origin    string
	userAgent string
	logger    *log.Logger
	now       func() time.Time
}

// NewFetcher creates a new fetcher
func NewFetcher(config *FetcherConfig) *Fetcher {
	cfg := FetcherConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Referer == "" {
		cfg.Referer = DefaultReferer
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		referer:   cfg.Referer,
		origin:    originOf(cfg.Referer),
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Retrieve implements aistudio.Retriever in-process
func (f *Fetcher) Retrieve(ctx context.Context, artifactURL string) (*aistudio.Artifact, error) {
	return f.Fetch(ctx, artifactURL)
}

// Fetch downloads remoteURL and returns the validated payload
func (f *Fetcher) Fetch(ctx context.Context, remoteURL string) (*aistudio.Artifact, error) {
	if remoteURL == "" {
		return nil, &aistudio.ValidationError{Field: "url", Message: "Missing file URL"}
	}
	u, err := url.Parse(remoteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &aistudio.ValidationError{Field: "url", Message: "invalid file URL: " + remoteURL}
	}

	f.logger.Printf("fetching artifact from %s", remoteURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", f.referer)
	if f.origin != "" {
		req.Header.Set("Origin", f.origin)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &aistudio.TransportError{Op: "fetch artifact", Err: errors.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		f.logger.Printf("upstream returned %d for %s", resp.StatusCode, remoteURL)
		return nil, &aistudio.RemoteError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Failed to fetch file: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	family := strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(family, "image/") && !strings.HasPrefix(family, "video/") {
		f.logger.Printf("invalid content type %q from %s", contentType, remoteURL)
		return nil, &aistudio.InvalidContentTypeError{ContentType: contentType}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &aistudio.TransportError{Op: "read artifact", Err: errors.Wrap(err, "failed to read body")}
	}
	if len(data) == 0 {
		f.logger.Printf("empty response from %s", remoteURL)
		return nil, aistudio.ErrEmptyPayload
	}

	return &aistudio.Artifact{
		Data:        data,
		ContentType: contentType,
		Filename:    fmt.Sprintf("generated-file-%d.%s", f.now().UnixMilli(), Extension(contentType)),
	}, nil
}

// Extension picks the file extension for a media content type: mp4 for any
// video, the subtype otherwise, bin when there is none
func Extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "video/") {
		return "mp4"
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
		return sub
	}
	return "bin"
}

func originOf(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
