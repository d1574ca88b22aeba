package aistudio

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultImageTick is how often the image flow's estimate moves while the
// synchronous submit is in flight
const DefaultImageTick = 500 * time.Millisecond

// SessionConfig holds configuration for a generation session
type SessionConfig struct {
	Poller     *PollerConfig
	Downloader *DownloaderConfig
	ImageTick  time.Duration
	// OnProgress receives every progress change of either flow
	OnProgress func(kind MediaKind, value int)
}

// Session binds a client, a poller and a downloader into the image flow
// (submit, display, download) and the video flow (submit, poll, display,
// download). At most one video task is polled at a time.
type Session struct {
	client     *Client
	poller     *Poller
	downloader *Downloader
	imageTick  time.Duration
	onProgress func(MediaKind, int)
	newTicker  func(time.Duration) (<-chan time.Time, func())

	mu    sync.Mutex
	image *ProgressEstimate
}

// NewSession creates a new session. retriever may be nil when downloads are
// not needed.
func NewSession(client *Client, retriever Retriever, config ...*SessionConfig) *Session {
	var cfg SessionConfig
	if len(config) > 0 && config[0] != nil {
		cfg = *config[0]
	}
	if cfg.ImageTick <= 0 {
		cfg.ImageTick = DefaultImageTick
	}

	s := &Session{
		client:     client,
		imageTick:  cfg.ImageTick,
		onProgress: cfg.OnProgress,
		newTicker:  systemTicker,
		image:      NewProgressEstimate(DefaultProgressCeiling),
	}

	pollerConfig := DefaultPollerConfig()
	if cfg.Poller != nil {
		c := *cfg.Poller
		pollerConfig = &c
	}
	userHook := pollerConfig.OnEvent
	pollerConfig.OnEvent = func(ev PollEvent) {
		s.notify(MediaVideo, ev.Progress)
		if userHook != nil {
			userHook(ev)
		}
	}
	s.poller = NewPoller(client, pollerConfig)

	if retriever != nil {
		s.downloader = NewDownloader(retriever, cfg.Downloader)
	}
	return s
}

// Poller returns the session's poller
func (s *Session) Poller() *Poller {
	return s.poller
}

// GenerateImage submits an image request and returns its result. The
// provider gives no progress for images, so a fabricated estimate advances
// while the call is outstanding.
func (s *Session) GenerateImage(ctx context.Context, req *ImageRequest) (*GenerationResult, error) {
	s.poller.Cancel()

	s.mu.Lock()
	s.image.Reset()
	s.mu.Unlock()
	s.notify(MediaImage, 0)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.tickImage(stop)
	}()

	url, err := s.client.SubmitImage(ctx, req)
	close(stop)
	wg.Wait()

	s.mu.Lock()
	if err != nil {
		s.image.Freeze()
	} else {
		s.image.Complete()
	}
	value := s.image.Value()
	s.mu.Unlock()
	s.notify(MediaImage, value)

	if err != nil {
		return nil, err
	}
	return &GenerationResult{Kind: MediaImage, URL: url}, nil
}

func (s *Session) tickImage(stop <-chan struct{}) {
	ticks, stopTicker := s.newTicker(s.imageTick)
	defer stopTicker()

	for {
		select {
		case <-stop:
			return
		case <-ticks:
			s.mu.Lock()
			before := s.image.Value()
			value := s.image.Advance(DefaultProgressStep)
			s.mu.Unlock()
			if value != before {
				s.notify(MediaImage, value)
			}
		}
	}
}

// StartVideo cancels any task still being polled, submits req and starts
// polling the new task. ctx bounds both the submit and the polling.
func (s *Session) StartVideo(ctx context.Context, req *GenerationRequest) (*PollRun, error) {
	s.poller.Cancel()

	handle, err := s.client.SubmitVideo(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.poller.Start(ctx, handle), nil
}

// GenerateVideo submits req and blocks until the task is terminal. Leaving
// early through ctx cancels the polling.
func (s *Session) GenerateVideo(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	run, err := s.StartVideo(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := run.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		s.poller.Cancel()
		return nil, ctx.Err()
	}
	return result, err
}

// Download saves a generated artifact. An empty name gets a generated one.
func (s *Session) Download(ctx context.Context, result *GenerationResult, name string) (string, error) {
	if s.downloader == nil {
		return "", &ConfigError{Setting: "retriever", Message: "no retriever configured for downloads"}
	}
	if result == nil || result.URL == "" {
		return "", &ValidationError{Field: "result", Message: "nothing to download"}
	}
	return s.downloader.Download(ctx, result.URL, result.Kind, name)
}

// Progress returns the current estimate for the given flow
func (s *Session) Progress(kind MediaKind) int {
	if kind == MediaVideo {
		if run := s.poller.Current(); run != nil {
			return run.Progress()
		}
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image.Value()
}

// Close cancels any active polling. The session must not be used afterwards.
func (s *Session) Close() error {
	s.poller.Cancel()
	return nil
}

func (s *Session) notify(kind MediaKind, value int) {
	if s.onProgress != nil {
		s.onProgress(kind, value)
	}
}

// IsCancelled reports whether err means the work was abandoned rather than failed
func IsCancelled(err error) bool {
	return errors.Is(err, ErrPollCancelled) || errors.Is(err, context.Canceled)
}
