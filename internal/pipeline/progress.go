package pipeline

import (
	"context"
	"sync"
	"time"
)

// ProgressState is a point-in-time snapshot of one run's progress. It exists
// only for the duration of the run and is purely advisory: nothing in the
// pipeline reads it back.
type ProgressState struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
	Done    bool   `json:"done"`
}

// The ticker drifts percent toward the ceiling between phase boundaries;
// only an explicit Complete reaches 100.
const (
	progressCeiling  = 95
	progressTick     = 2 * time.Second
	ticksPerPhaseMsg = 5
)

var tickMessages = map[string][]string{
	"en": {
		"Preparing your podcast audio",
		"Building the host avatar",
		"Rendering the video",
		"Still rendering, almost there",
	},
	"id": {
		"Menyiapkan audio podcast",
		"Membuat avatar pembawa acara",
		"Merender video",
		"Masih merender, hampir selesai",
	},
}

// Progress tracks advisory completion state for one in-flight run. A ticker
// goroutine advances it while the pipeline waits on network calls; the
// pipeline bumps it at phase boundaries. Percent never moves backwards.
// All methods are safe on a nil receiver so tests can run without one.
type Progress struct {
	mu      sync.Mutex
	state   ProgressState
	ticks   int
	locale  string
	stopped chan struct{}
	stop    func()
}

func NewProgress(locale string) *Progress {
	if _, ok := tickMessages[locale]; !ok {
		locale = "en"
	}
	return &Progress{
		locale:  locale,
		state:   ProgressState{Percent: 0, Message: tickMessages[locale][0]},
		stopped: make(chan struct{}),
	}
}

// Start launches the ticking goroutine. It stops when Stop is called or ctx
// ends, whichever comes first.
func (p *Progress) Start(ctx context.Context) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.stop = cancel
	p.mu.Unlock()

	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(progressTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick()
			}
		}
	}()
}

// Stop halts the ticker and waits for it to exit. Safe to call more than
// once; intended for use in a defer tied to the run's lifetime.
func (p *Progress) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	stop := p.stop
	p.mu.Unlock()
	if stop == nil {
		return
	}
	stop()
	<-p.stopped
}

func (p *Progress) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Done {
		return
	}
	p.ticks++
	if p.state.Percent < progressCeiling {
		p.state.Percent++
	}
	msgs := tickMessages[p.locale]
	idx := p.ticks / ticksPerPhaseMsg
	if idx >= len(msgs) {
		idx = len(msgs) - 1
	}
	p.state.Message = msgs[idx]
}

// SetPhase records a phase boundary. Percent only moves forward.
func (p *Progress) SetPhase(message string, percent int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Done {
		return
	}
	if percent > p.state.Percent {
		p.state.Percent = percent
	}
	if message != "" {
		p.state.Message = message
	}
}

// Complete marks the run finished. Ticks after this are ignored.
func (p *Progress) Complete() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = ProgressState{Percent: 100, Message: "Done", Done: true}
}

// Fail marks the run terminal without claiming completion.
func (p *Progress) Fail() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Done = true
}

// Snapshot returns the current state.
func (p *Progress) Snapshot() ProgressState {
	if p == nil {
		return ProgressState{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
