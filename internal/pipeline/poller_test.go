package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"podvid-server/internal/providers/heygen"
)

type scriptedStatus struct {
	statuses []heygen.JobStatus
	errs     []error
	calls    int
}

func (s *scriptedStatus) VideoStatus(ctx context.Context, videoID string) (*heygen.JobStatus, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.statuses) {
		st := s.statuses[i]
		return &st, nil
	}
	return &heygen.JobStatus{Status: heygen.StatusProcessing}, nil
}

func newTestPoller(client StatusClient, maxAttempts int) (*Poller, *int) {
	p := NewPoller(client, 10*time.Second, maxAttempts, zerolog.Nop())
	sleeps := 0
	p.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	return p, &sleeps
}

func TestWaitSucceedsAfterProcessing(t *testing.T) {
	client := &scriptedStatus{statuses: []heygen.JobStatus{
		{Status: heygen.StatusProcessing},
		{Status: heygen.StatusProcessing},
		{Status: heygen.StatusSucceeded, VideoURL: "https://cdn/out.mp4"},
	}}
	p, sleeps := newTestPoller(client, 30)

	url, err := p.Wait(context.Background(), "job_7")
	if err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if url != "https://cdn/out.mp4" {
		t.Fatalf("url = %q", url)
	}
	if client.calls != 3 {
		t.Fatalf("status checks = %d, want 3", client.calls)
	}
	if *sleeps != 2 {
		t.Fatalf("sleeps = %d, want 2", *sleeps)
	}
}

func TestWaitStopsImmediatelyOnFailure(t *testing.T) {
	client := &scriptedStatus{statuses: []heygen.JobStatus{
		{Status: heygen.StatusProcessing},
		{Status: heygen.StatusFailed, ErrorMessage: "render crashed"},
		{Status: heygen.StatusSucceeded, VideoURL: "https://cdn/never.mp4"},
	}}
	p, _ := newTestPoller(client, 30)

	_, err := p.Wait(context.Background(), "job_7")
	if !errors.Is(err, ErrProviderJobFailed) {
		t.Fatalf("error = %v, want ErrProviderJobFailed", err)
	}
	if !strings.Contains(err.Error(), "render crashed") {
		t.Fatalf("error %q should carry provider message", err)
	}
	if client.calls != 2 {
		t.Fatalf("status checks = %d, want 2 (no check after terminal failure)", client.calls)
	}
}

func TestWaitTimesOutAfterExactCeiling(t *testing.T) {
	client := &scriptedStatus{}
	p, sleeps := newTestPoller(client, 30)

	_, err := p.Wait(context.Background(), "job_7")
	if !errors.Is(err, ErrPollingTimeout) {
		t.Fatalf("error = %v, want ErrPollingTimeout", err)
	}
	if client.calls != 30 {
		t.Fatalf("status checks = %d, want exactly 30", client.calls)
	}
	if *sleeps != 29 {
		t.Fatalf("sleeps = %d, want 29 (no sleep after the last check)", *sleeps)
	}
}

func TestWaitDoesNotRetryStatusCheckErrors(t *testing.T) {
	client := &scriptedStatus{errs: []error{errors.New("connection refused")}}
	p, _ := newTestPoller(client, 30)

	_, err := p.Wait(context.Background(), "job_7")
	if !errors.Is(err, ErrStatusCheck) {
		t.Fatalf("error = %v, want ErrStatusCheck", err)
	}
	if client.calls != 1 {
		t.Fatalf("status checks = %d, want 1 (transport errors are not retried)", client.calls)
	}
}

func TestWaitHonorsContextDuringSleep(t *testing.T) {
	client := &scriptedStatus{}
	p := NewPoller(client, time.Hour, 30, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx, "job_7")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if client.calls != 1 {
		t.Fatalf("status checks = %d, want 1", client.calls)
	}
}
