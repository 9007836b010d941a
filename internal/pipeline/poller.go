package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"podvid-server/internal/providers/heygen"
)

// StatusClient is the slice of the provider client the poller needs.
type StatusClient interface {
	VideoStatus(ctx context.Context, videoID string) (*heygen.JobStatus, error)
}

// jobState is the poller's view of one video job.
type jobState string

const (
	stateProcessing jobState = "processing"
	stateSucceeded  jobState = "succeeded"
	stateFailed     jobState = "failed"
	stateTimedOut   jobState = "timed_out"
)

// Poller drives one video job to a terminal state. Only a still-processing
// job is re-checked; a transport or HTTP failure of the status call itself
// fails the run immediately. Fixed interval, no backoff: the attempt ceiling
// is the wall-clock bound.
type Poller struct {
	client      StatusClient
	interval    time.Duration
	maxAttempts int
	logger      zerolog.Logger

	// sleep is injectable so tests can run the full attempt budget instantly.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPoller(client StatusClient, interval time.Duration, maxAttempts int, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &Poller{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Wait polls until the job reaches a terminal state and returns the video
// URL. It never returns a non-terminal outcome: the result is either a URL
// or an error.
func (p *Poller) Wait(ctx context.Context, videoID string) (string, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		st, err := p.client.VideoStatus(ctx, videoID)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStatusCheck, err)
		}

		switch transition(st) {
		case stateSucceeded:
			p.logger.Info().Str("video_id", videoID).Int("attempts", attempt).Str("state", string(stateSucceeded)).Msg("poller: terminal")
			return st.VideoURL, nil
		case stateFailed:
			p.logger.Warn().Str("video_id", videoID).Int("attempts", attempt).Str("state", string(stateFailed)).Msg("poller: terminal")
			return "", fmt.Errorf("%w: %s", ErrProviderJobFailed, st.ErrorMessage)
		}

		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return "", err
		}
	}

	p.logger.Warn().Str("video_id", videoID).Str("state", string(stateTimedOut)).Msg("poller: terminal")
	return "", fmt.Errorf("%w: no terminal status after %d checks", ErrPollingTimeout, p.maxAttempts)
}

// transition maps a provider report onto the poller's state machine. Any
// status the provider has not made terminal counts as still processing.
func transition(st *heygen.JobStatus) jobState {
	switch st.Status {
	case heygen.StatusSucceeded:
		return stateSucceeded
	case heygen.StatusFailed:
		return stateFailed
	default:
		return stateProcessing
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
