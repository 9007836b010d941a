package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"podvid-server/internal/providers/heygen"
	"podvid-server/internal/staging"
)

type fakeStager struct {
	stageURL    string
	stageErr    error
	stageCalls  int
	unstaged    []*staging.Asset
	unstageCall int
}

func (f *fakeStager) Stage(ctx context.Context, data []byte, contentType string) (*staging.Asset, error) {
	f.stageCalls++
	if f.stageErr != nil {
		return nil, f.stageErr
	}
	return &staging.Asset{URL: f.stageURL, Bucket: "podvid-staging", Object: "staged/ex1.wav"}, nil
}

func (f *fakeStager) Unstage(ctx context.Context, asset *staging.Asset) {
	f.unstageCall++
	f.unstaged = append(f.unstaged, asset)
}

type fakeProvider struct {
	avatarID    string
	avatarErr   error
	avatarCalls int

	videoID      string
	submitErr    error
	submitCalls  int
	gotAvatarID  string
	gotAudioURL  string
	gotDimension heygen.Dimension

	statuses    []heygen.JobStatus
	statusCalls int
}

func (f *fakeProvider) CreateAvatar(ctx context.Context, image []byte) (string, error) {
	f.avatarCalls++
	if f.avatarErr != nil {
		return "", f.avatarErr
	}
	return f.avatarID, nil
}

func (f *fakeProvider) SubmitVideo(ctx context.Context, avatarID, audioURL string, dim heygen.Dimension) (string, error) {
	f.submitCalls++
	f.gotAvatarID = avatarID
	f.gotAudioURL = audioURL
	f.gotDimension = dim
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.videoID, nil
}

func (f *fakeProvider) VideoStatus(ctx context.Context, videoID string) (*heygen.JobStatus, error) {
	i := f.statusCalls
	f.statusCalls++
	if i < len(f.statuses) {
		st := f.statuses[i]
		return &st, nil
	}
	return &heygen.JobStatus{Status: heygen.StatusProcessing}, nil
}

func newTestOrchestrator(stager staging.Stager, provider *fakeProvider) *Orchestrator {
	poller := NewPoller(provider, 10*time.Second, 30, zerolog.Nop())
	poller.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return NewOrchestrator(stager, provider, poller, time.Hour, heygen.Dimension{Width: 1280, Height: 720}, zerolog.Nop())
}

func TestRunStagesAudioAndCleansUpOnSuccess(t *testing.T) {
	stager := &fakeStager{stageURL: "https://store/ex1.wav"}
	provider := &fakeProvider{
		avatarID: "avatar_42",
		videoID:  "job_7",
		statuses: []heygen.JobStatus{
			{Status: heygen.StatusProcessing},
			{Status: heygen.StatusProcessing},
			{Status: heygen.StatusSucceeded, VideoURL: "https://cdn/out.mp4"},
		},
	}
	o := newTestOrchestrator(stager, provider)

	url, err := o.Run(context.Background(), Request{
		HostImage:        []byte("IMG"),
		AudioBytes:       []byte("AUD"),
		AudioContentType: "audio/wav",
	}, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if url != "https://cdn/out.mp4" {
		t.Fatalf("url = %q", url)
	}
	if provider.gotAvatarID != "avatar_42" {
		t.Fatalf("submit used avatar %q", provider.gotAvatarID)
	}
	if provider.gotAudioURL != "https://store/ex1.wav" {
		t.Fatalf("submit used audio url %q", provider.gotAudioURL)
	}
	if provider.statusCalls != 3 {
		t.Fatalf("status checks = %d, want 3", provider.statusCalls)
	}
	if stager.unstageCall != 1 {
		t.Fatalf("unstage calls = %d, want exactly 1", stager.unstageCall)
	}
	if stager.unstaged[0].URL != "https://store/ex1.wav" {
		t.Fatalf("unstaged wrong asset: %+v", stager.unstaged[0])
	}
}

func TestRunValidationFailsFastWithoutNetworkCalls(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"missing image", Request{AudioURL: "https://store/a.wav"}},
		{"missing audio", Request{HostImage: []byte("IMG")}},
		{"both audio sources", Request{HostImage: []byte("IMG"), AudioURL: "https://store/a.wav", AudioBytes: []byte("AUD")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stager := &fakeStager{}
			provider := &fakeProvider{}
			o := newTestOrchestrator(stager, provider)

			_, err := o.Run(context.Background(), tc.req, nil)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if stager.stageCalls != 0 || provider.avatarCalls != 0 || provider.submitCalls != 0 || provider.statusCalls != 0 {
				t.Fatal("validation failure must not reach any collaborator")
			}
			if stager.unstageCall != 0 {
				t.Fatal("nothing was staged, nothing to unstage")
			}
		})
	}
}

func TestRunAvatarFailureSkipsLaterStepsAndCleanup(t *testing.T) {
	stager := &fakeStager{}
	provider := &fakeProvider{avatarErr: errors.New("heygen: http 400: invalid image")}
	o := newTestOrchestrator(stager, provider)

	// Audio arrives as a pre-existing URL, so nothing is staged.
	_, err := o.Run(context.Background(), Request{
		HostImage: []byte("IMG"),
		AudioURL:  "https://store/prerecorded.wav",
	}, nil)
	if !errors.Is(err, ErrAvatarCreation) {
		t.Fatalf("error = %v, want ErrAvatarCreation", err)
	}
	if !strings.Contains(err.Error(), "invalid image") {
		t.Fatalf("error %q should carry provider text", err)
	}
	if provider.submitCalls != 0 || provider.statusCalls != 0 {
		t.Fatal("no submission or status check may follow a failed avatar creation")
	}
	if stager.stageCalls != 0 || stager.unstageCall != 0 {
		t.Fatal("no staging activity expected when audio came as a URL")
	}
}

func TestRunCleansUpWhenSubmissionFails(t *testing.T) {
	stager := &fakeStager{stageURL: "https://store/ex1.wav"}
	provider := &fakeProvider{avatarID: "avatar_42", submitErr: errors.New("quota exhausted")}
	o := newTestOrchestrator(stager, provider)

	_, err := o.Run(context.Background(), Request{
		HostImage:        []byte("IMG"),
		AudioBytes:       []byte("AUD"),
		AudioContentType: "audio/wav",
	}, nil)
	if !errors.Is(err, ErrVideoSubmission) {
		t.Fatalf("error = %v, want ErrVideoSubmission", err)
	}
	if stager.unstageCall != 1 {
		t.Fatalf("unstage calls = %d, want exactly 1 even on failure", stager.unstageCall)
	}
}

func TestRunCleansUpWhenJobFails(t *testing.T) {
	stager := &fakeStager{stageURL: "https://store/ex1.wav"}
	provider := &fakeProvider{
		avatarID: "avatar_42",
		videoID:  "job_7",
		statuses: []heygen.JobStatus{
			{Status: heygen.StatusFailed, ErrorMessage: "lip sync failed"},
		},
	}
	o := newTestOrchestrator(stager, provider)

	_, err := o.Run(context.Background(), Request{
		HostImage:        []byte("IMG"),
		AudioBytes:       []byte("AUD"),
		AudioContentType: "audio/wav",
	}, nil)
	if !errors.Is(err, ErrProviderJobFailed) {
		t.Fatalf("error = %v, want ErrProviderJobFailed", err)
	}
	if stager.unstageCall != 1 {
		t.Fatalf("unstage calls = %d, want exactly 1", stager.unstageCall)
	}
}

func TestRunStagingFailureLeavesNothingToClean(t *testing.T) {
	stager := &fakeStager{stageErr: errors.New("bucket unreachable")}
	provider := &fakeProvider{}
	o := newTestOrchestrator(stager, provider)

	_, err := o.Run(context.Background(), Request{
		HostImage:        []byte("IMG"),
		AudioBytes:       []byte("AUD"),
		AudioContentType: "audio/wav",
	}, nil)
	if !errors.Is(err, ErrStaging) {
		t.Fatalf("error = %v, want ErrStaging", err)
	}
	if provider.avatarCalls != 0 {
		t.Fatal("avatar creation must not run after a staging failure")
	}
	if stager.unstageCall != 0 {
		t.Fatal("a failed stage leaves no asset to unstage")
	}
}

func TestRunUsesRequestedDimensions(t *testing.T) {
	stager := &fakeStager{}
	provider := &fakeProvider{
		avatarID: "avatar_42",
		videoID:  "job_7",
		statuses: []heygen.JobStatus{{Status: heygen.StatusSucceeded, VideoURL: "https://cdn/out.mp4"}},
	}
	o := newTestOrchestrator(stager, provider)

	_, err := o.Run(context.Background(), Request{
		HostImage: []byte("IMG"),
		AudioURL:  "https://store/a.wav",
		Width:     720,
		Height:    1280,
	}, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if provider.gotDimension != (heygen.Dimension{Width: 720, Height: 1280}) {
		t.Fatalf("dimension = %+v", provider.gotDimension)
	}
}

func TestRunReportsProgressLifecycle(t *testing.T) {
	stager := &fakeStager{stageURL: "https://store/ex1.wav"}
	provider := &fakeProvider{
		avatarID: "avatar_42",
		videoID:  "job_7",
		statuses: []heygen.JobStatus{{Status: heygen.StatusSucceeded, VideoURL: "https://cdn/out.mp4"}},
	}
	o := newTestOrchestrator(stager, provider)

	progress := NewProgress("en")
	if _, err := o.Run(context.Background(), Request{
		HostImage:        []byte("IMG"),
		AudioBytes:       []byte("AUD"),
		AudioContentType: "audio/wav",
	}, progress); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	snap := progress.Snapshot()
	if !snap.Done || snap.Percent != 100 {
		t.Fatalf("progress after success = %+v, want done at 100", snap)
	}
}
