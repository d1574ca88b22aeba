package aistudio

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

// DefaultPollInterval is the cadence of status checks after the first one
const DefaultPollInterval = 3 * time.Second

// PollState represents the state of the task poller
type PollState string

const (
	PollIdle      PollState = "idle"
	PollPolling   PollState = "polling"
	PollSucceeded PollState = "succeeded"
	PollFailed    PollState = "failed"
	PollCancelled PollState = "cancelled"
)

// Terminal reports whether the state accepts no further transitions
func (s PollState) Terminal() bool {
	return s == PollSucceeded || s == PollFailed || s == PollCancelled
}

// PollEvent is delivered to observers on every state or progress change
type PollEvent struct {
	Handle   TaskHandle
	State    PollState
	Progress int
	Result   *GenerationResult
	Err      error
}

// PollerConfig holds configuration for the poller
type PollerConfig struct {
	Interval time.Duration
	Step     int
	Ceiling  int
	Logger   *log.Logger
	// OnEvent is called outside the poller lock, from the polling goroutine
	// or from the goroutine calling Start/Cancel. Calls never overlap, and
	// OnEvent must not call Start or Cancel itself.
	OnEvent func(PollEvent)
}

// DefaultPollerConfig returns default poller configuration
func DefaultPollerConfig() *PollerConfig {
	return &PollerConfig{
		Interval: DefaultPollInterval,
		Step:     DefaultProgressStep,
		Ceiling:  DefaultProgressCeiling,
	}
}

// Poller drives one video task at a time to a terminal state.
//
// Every run carries a generation number. Starting a run or cancelling bumps
// the poller's generation, and a fetch result is applied only while its run
// is still the current generation and still polling; anything else is a
// late response and is dropped.
type Poller struct {
	fetcher   StatusFetcher
	config    PollerConfig
	newTicker func(time.Duration) (<-chan time.Time, func())

	mu  sync.Mutex
	gen uint64
	run *PollRun

	// emitMu serializes delivery to OnEvent
	emitMu sync.Mutex
}

// PollRun is the polling of a single TaskHandle
type PollRun struct {
	poller *Poller
	handle TaskHandle
	gen    uint64
	stop   chan struct{}
	done   chan struct{}

	// guarded by poller.mu
	state    PollState
	progress *ProgressEstimate
	result   *GenerationResult
	err      error
}

// NewPoller creates a new poller
func NewPoller(fetcher StatusFetcher, config ...*PollerConfig) *Poller {
	cfg := *DefaultPollerConfig()
	if len(config) > 0 && config[0] != nil {
		cfg = *config[0]
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Step <= 0 {
		cfg.Step = DefaultProgressStep
	}
	if cfg.Ceiling <= 0 || cfg.Ceiling >= 100 {
		cfg.Ceiling = DefaultProgressCeiling
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	return &Poller{
		fetcher:   fetcher,
		config:    cfg,
		newTicker: systemTicker,
	}
}

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Start cancels any active run and begins polling handle. The first status
// check is issued immediately, later ones every Interval. Cancelling ctx
// cancels the run.
func (p *Poller) Start(ctx context.Context, handle TaskHandle) *PollRun {
	p.mu.Lock()
	var (
		prev      *PollRun
		cancelled PollEvent
		ok        bool
	)
	if p.run != nil {
		prev = p.run
		cancelled, ok = p.cancelLocked(prev)
	}
	p.gen++
	run := &PollRun{
		poller:   p,
		handle:   handle,
		gen:      p.gen,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		state:    PollPolling,
		progress: NewProgressEstimate(p.config.Ceiling),
	}
	p.run = run
	started := run.eventLocked()
	p.mu.Unlock()

	if ok {
		p.publish(prev, cancelled)
	}
	p.config.Logger.Printf("polling task %s every %s", handle.ID, p.config.Interval)
	p.publish(run, started)

	go p.loop(ctx, run)
	return run
}

// Cancel stops the active run without producing a result. It is safe to
// call repeatedly and after the run ended on its own.
func (p *Poller) Cancel() {
	p.mu.Lock()
	var (
		run *PollRun
		ev  PollEvent
		ok  bool
	)
	if p.run != nil {
		run = p.run
		ev, ok = p.cancelLocked(run)
	}
	p.mu.Unlock()

	if ok {
		p.config.Logger.Printf("polling of task %s cancelled", ev.Handle.ID)
		p.publish(run, ev)
	}
}

// State returns the state of the most recent run, or PollIdle
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run == nil {
		return PollIdle
	}
	return p.run.state
}

// Current returns the most recent run, or nil before the first Start
func (p *Poller) Current() *PollRun {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run
}

func (p *Poller) loop(ctx context.Context, run *PollRun) {
	if !p.poll(ctx, run) {
		return
	}

	ticks, stopTicker := p.newTicker(p.config.Interval)
	defer stopTicker()

	for {
		select {
		case <-run.stop:
			return
		case <-ctx.Done():
			p.cancelRun(run)
			return
		case <-ticks:
			if !p.poll(ctx, run) {
				return
			}
		}
	}
}

// poll performs one status check and applies it. It reports whether the run
// is still polling afterwards.
func (p *Poller) poll(ctx context.Context, run *PollRun) bool {
	if !p.active(run) {
		return false
	}

	status, err := p.fetcher.FetchStatus(ctx, run.handle)

	p.mu.Lock()
	if run.gen != p.gen || run.state != PollPolling {
		p.mu.Unlock()
		p.config.Logger.Printf("discarding late status for task %s", run.handle.ID)
		return false
	}

	switch {
	case err != nil && ctx.Err() != nil:
		p.cancelLocked(run)
	case err != nil:
		run.progress.Freeze()
		p.finishLocked(run, PollFailed, nil, err)
	case status.State == TaskStateProcessing:
		run.progress.Advance(p.config.Step)
	case status.State == TaskStateSuccess:
		run.progress.Complete()
		p.finishLocked(run, PollSucceeded, &GenerationResult{
			Kind:     MediaVideo,
			URL:      status.ArtifactURL,
			CoverURL: status.CoverURL,
		}, nil)
	default:
		run.progress.Freeze()
		p.finishLocked(run, PollFailed, nil, &TaskFailedError{TaskID: run.handle.ID, Reason: status.Reason})
	}
	ev := run.eventLocked()
	p.mu.Unlock()

	if ev.State == PollFailed {
		p.config.Logger.Printf("task %s failed: %v", run.handle.ID, ev.Err)
	}
	p.publish(run, ev)
	return ev.State == PollPolling
}

func (p *Poller) active(run *PollRun) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return run.gen == p.gen && run.state == PollPolling
}

func (p *Poller) cancelRun(run *PollRun) {
	p.mu.Lock()
	ev, ok := p.cancelLocked(run)
	p.mu.Unlock()
	if ok {
		p.publish(run, ev)
	}
}

func (p *Poller) cancelLocked(run *PollRun) (PollEvent, bool) {
	if run.state != PollPolling {
		return PollEvent{}, false
	}
	if run.gen == p.gen {
		p.gen++
	}
	p.finishLocked(run, PollCancelled, nil, ErrPollCancelled)
	return run.eventLocked(), true
}

func (p *Poller) finishLocked(run *PollRun, state PollState, result *GenerationResult, err error) {
	run.state = state
	run.result = result
	run.err = err
	close(run.stop)
}

// publish delivers ev to the observer. Deliveries never overlap, and a
// non-terminal event is dropped once its run has left the polling state, so
// nothing follows a run's terminal event. A terminal event closes the run's
// done channel afterwards, so waiters never overtake the last event.
func (p *Poller) publish(run *PollRun, ev PollEvent) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	if !ev.State.Terminal() {
		p.mu.Lock()
		stale := run.state != PollPolling
		p.mu.Unlock()
		if stale {
			p.config.Logger.Printf("dropping stale %s event for task %s", ev.State, run.handle.ID)
			return
		}
	}

	if p.config.OnEvent != nil {
		p.config.OnEvent(ev)
	}
	if ev.State.Terminal() {
		close(run.done)
	}
}

func (r *PollRun) eventLocked() PollEvent {
	return PollEvent{
		Handle:   r.handle,
		State:    r.state,
		Progress: r.progress.Value(),
		Result:   r.result,
		Err:      r.err,
	}
}

// Handle returns the task being polled
func (r *PollRun) Handle() TaskHandle {
	return r.handle
}

// Done is closed once the run reached a terminal state and the terminal
// event was delivered
func (r *PollRun) Done() <-chan struct{} {
	return r.done
}

// State returns the current state of the run
func (r *PollRun) State() PollState {
	r.poller.mu.Lock()
	defer r.poller.mu.Unlock()
	return r.state
}

// Progress returns the current progress estimate of the run
func (r *PollRun) Progress() int {
	r.poller.mu.Lock()
	defer r.poller.mu.Unlock()
	return r.progress.Value()
}

// Wait blocks until the run ends or ctx is done. A cancelled run returns
// ErrPollCancelled; a failed one returns the fetch error or a TaskFailedError.
func (r *PollRun) Wait(ctx context.Context) (*GenerationResult, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.poller.mu.Lock()
	defer r.poller.mu.Unlock()
	return r.result, r.err
}
