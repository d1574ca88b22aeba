package aistudio

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"
)

// gatedProvider holds SubmitImage until release is closed
type gatedProvider struct {
	stubProvider
	entered chan struct{}
	release chan struct{}
}

func (g *gatedProvider) SubmitImage(ctx context.Context, req *ImageRequest) (string, error) {
	close(g.entered)
	<-g.release
	return g.imageURL, g.imageErr
}

type progressRecorder struct {
	mu     sync.Mutex
	values map[MediaKind][]int
}

func (r *progressRecorder) record(kind MediaKind, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = make(map[MediaKind][]int)
	}
	r.values[kind] = append(r.values[kind], v)
}

func (r *progressRecorder) get(kind MediaKind) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values[kind]...)
}

func newMockSession(t *testing.T, extra map[string]string, retriever Retriever, rec *progressRecorder) *Session {
	t.Helper()
	client, err := NewClient(ProviderMock, &ProviderConfig{Extra: extra})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	cfg := &SessionConfig{
		Poller:     &PollerConfig{Interval: 5 * time.Millisecond},
		Downloader: &DownloaderConfig{MaxAttempts: 3, Backoff: time.Millisecond, OutputDir: t.TempDir()},
	}
	if rec != nil {
		cfg.OnProgress = rec.record
	}
	return NewSession(client, retriever, cfg)
}

func TestSessionGenerateVideo(t *testing.T) {
	rec := &progressRecorder{}
	retriever := &flakyRetriever{artifact: &Artifact{Data: []byte("mp4"), ContentType: "video/mp4"}}
	s := newMockSession(t, map[string]string{
		"processing_polls": "3",
		"video_url":        "https://x/v.mp4",
		"cover_url":        "https://x/c.jpg",
	}, retriever, rec)
	defer s.Close()

	result, err := s.GenerateVideo(context.Background(), &GenerationRequest{Prompt: "a cat"})
	if err != nil {
		t.Fatalf("GenerateVideo returned error: %v", err)
	}

	expected := GenerationResult{Kind: MediaVideo, URL: "https://x/v.mp4", CoverURL: "https://x/c.jpg"}
	if *result != expected {
		t.Errorf("Expected %+v, got %+v", expected, *result)
	}
	if s.Progress(MediaVideo) != 100 {
		t.Errorf("Expected video progress 100, got %d", s.Progress(MediaVideo))
	}

	waitFor(t, "final progress event", func() bool {
		got := rec.get(MediaVideo)
		return len(got) > 0 && got[len(got)-1] == 100
	})
	want := []int{0, 5, 10, 15, 100}
	got := rec.get(MediaVideo)
	if len(got) != len(want) {
		t.Fatalf("Expected progress %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected progress %v, got %v", want, got)
		}
	}

	path, err := s.Download(context.Background(), result, "")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Downloaded file missing: %v", err)
	}
}

func TestSessionGenerateVideoFailure(t *testing.T) {
	s := newMockSession(t, map[string]string{"processing_polls": "1", "fail": "true"}, nil, nil)
	defer s.Close()

	_, err := s.GenerateVideo(context.Background(), &GenerationRequest{Prompt: "a cat"})
	var taskErr *TaskFailedError
	if !errors.As(err, &taskErr) {
		t.Fatalf("Expected TaskFailedError, got %v", err)
	}
	if s.Progress(MediaVideo) != 5 {
		t.Errorf("Expected progress frozen at 5, got %d", s.Progress(MediaVideo))
	}
}

func TestSessionNewSubmissionCancelsOldPolling(t *testing.T) {
	s := newMockSession(t, map[string]string{"processing_polls": "1000"}, nil, nil)
	defer s.Close()

	first, err := s.StartVideo(context.Background(), &GenerationRequest{Prompt: "first"})
	if err != nil {
		t.Fatalf("StartVideo returned error: %v", err)
	}
	second, err := s.StartVideo(context.Background(), &GenerationRequest{Prompt: "second"})
	if err != nil {
		t.Fatalf("StartVideo returned error: %v", err)
	}

	if first.State() != PollCancelled {
		t.Errorf("Expected first run cancelled, got %s", first.State())
	}
	if second.State() != PollPolling {
		t.Errorf("Expected second run polling, got %s", second.State())
	}
	if first.Handle().ID == second.Handle().ID {
		t.Error("Expected distinct task handles")
	}
}

func TestSessionSubmitErrorLeavesNoPolling(t *testing.T) {
	s := newMockSession(t, map[string]string{"processing_polls": "1000"}, nil, nil)
	defer s.Close()

	old, err := s.StartVideo(context.Background(), &GenerationRequest{Prompt: "first"})
	if err != nil {
		t.Fatalf("StartVideo returned error: %v", err)
	}

	if _, err := s.StartVideo(context.Background(), &GenerationRequest{}); err == nil {
		t.Fatal("Expected validation error")
	}
	if old.State() != PollCancelled {
		t.Errorf("Expected stale run cancelled before submission, got %s", old.State())
	}
}

func TestSessionGenerateVideoContextCancel(t *testing.T) {
	s := newMockSession(t, map[string]string{"processing_polls": "1000"}, nil, nil)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := s.GenerateVideo(ctx, &GenerationRequest{Prompt: "a cat"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if s.Poller().State() != PollCancelled {
		t.Errorf("Expected polling cancelled, got %s", s.Poller().State())
	}
}

func TestSessionGenerateImageProgress(t *testing.T) {
	provider := &gatedProvider{
		stubProvider: stubProvider{imageURL: "https://x/a.png"},
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	rec := &progressRecorder{}
	s := NewSession(NewClientWithProvider(provider), nil, &SessionConfig{OnProgress: rec.record})

	ticks := make(chan time.Time)
	s.newTicker = func(time.Duration) (<-chan time.Time, func()) { return ticks, func() {} }

	done := make(chan error, 1)
	var result *GenerationResult
	go func() {
		var err error
		result, err = s.GenerateImage(context.Background(), &ImageRequest{Prompt: "a cat"})
		done <- err
	}()

	<-provider.entered
	for i := 0; i < 25; i++ {
		ticks <- time.Now()
	}
	waitFor(t, "estimate to saturate", func() bool { return s.Progress(MediaImage) == DefaultProgressCeiling })
	close(provider.release)

	if err := <-done; err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if result.Kind != MediaImage || result.URL != "https://x/a.png" {
		t.Errorf("Unexpected result %+v", result)
	}
	if s.Progress(MediaImage) != 100 {
		t.Errorf("Expected 100 after success, got %d", s.Progress(MediaImage))
	}

	got := rec.get(MediaImage)
	if got[0] != 0 || got[1] != 5 || got[len(got)-1] != 100 {
		t.Errorf("Unexpected progress sequence %v", got)
	}
	for i := 1; i < len(got)-1; i++ {
		if got[i] > DefaultProgressCeiling || got[i] < got[i-1] {
			t.Fatalf("Bad progress sequence %v", got)
		}
	}
}

func TestSessionGenerateImageFailure(t *testing.T) {
	provider := &stubProvider{imageErr: &RemoteError{Status: 400, Message: "bad prompt"}}
	s := NewSession(NewClientWithProvider(provider), nil)

	_, err := s.GenerateImage(context.Background(), &ImageRequest{Prompt: "a cat"})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Expected RemoteError, got %v", err)
	}
	if s.Progress(MediaImage) == 100 {
		t.Error("Progress must not reach 100 on failure")
	}
}

func TestSessionDownloadWithoutRetriever(t *testing.T) {
	s := NewSession(NewClientWithProvider(&stubProvider{}), nil)
	_, err := s.Download(context.Background(), &GenerationResult{Kind: MediaImage, URL: "https://x/a.png"}, "")
	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("Expected ConfigError, got %v", err)
	}
}
