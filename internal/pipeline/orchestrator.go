package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"podvid-server/internal/providers/heygen"
	"podvid-server/internal/staging"
)

// Request is one immutable generation request. Exactly one of AudioURL and
// AudioBytes must be set; raw bytes are staged to a public URL before the
// provider sees them.
type Request struct {
	HostImage        []byte
	ImageContentType string
	AudioURL         string
	AudioBytes       []byte
	AudioContentType string
	Width            int
	Height           int
}

// AvatarClient is the slice of the provider client the orchestrator drives.
type AvatarClient interface {
	CreateAvatar(ctx context.Context, image []byte) (string, error)
	SubmitVideo(ctx context.Context, avatarID, audioURL string, dim heygen.Dimension) (string, error)
}

// Orchestrator sequences one generation run: stage audio, create the avatar,
// submit the video job, poll to completion, and always clean up the staged
// asset. Each invocation is a single logical job; no state is shared between
// runs.
type Orchestrator struct {
	stager staging.Stager
	client AvatarClient
	poller *Poller
	logger zerolog.Logger

	budget     time.Duration
	defaultDim heygen.Dimension
}

func NewOrchestrator(stager staging.Stager, client AvatarClient, poller *Poller, budget time.Duration, defaultDim heygen.Dimension, logger zerolog.Logger) *Orchestrator {
	if defaultDim.Width <= 0 || defaultDim.Height <= 0 {
		defaultDim = heygen.Dimension{Width: 1280, Height: 720}
	}
	return &Orchestrator{
		stager:     stager,
		client:     client,
		poller:     poller,
		logger:     logger,
		budget:     budget,
		defaultDim: defaultDim,
	}
}

// Run executes the request and returns the final video URL. The progress
// tracker may be nil; it is advisory only and never consulted for control
// flow. If a staged asset was created, exactly one deletion attempt happens
// on every exit path, including cancellation and deadline expiry.
func (o *Orchestrator) Run(ctx context.Context, req Request, progress *Progress) (videoURL string, err error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	if o.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.budget)
		defer cancel()
	}

	progress.Start(ctx)
	defer progress.Stop()
	defer func() {
		if err != nil {
			progress.Fail()
		}
	}()

	audioURL := req.AudioURL
	var staged *staging.Asset
	defer func() {
		if staged == nil {
			return
		}
		// Cleanup must survive a cancelled request context.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		o.stager.Unstage(cleanupCtx, staged)
	}()

	if len(req.AudioBytes) > 0 {
		progress.SetPhase("Staging podcast audio", 5)
		asset, stageErr := o.stager.Stage(ctx, req.AudioBytes, req.AudioContentType)
		if stageErr != nil {
			return "", fmt.Errorf("%w: %v", ErrStaging, stageErr)
		}
		staged = asset
		audioURL = asset.URL
		o.logger.Debug().Str("object", asset.Object).Msg("orchestrator: audio staged")
	}

	progress.SetPhase("Creating host avatar", 15)
	avatarID, err := o.client.CreateAvatar(ctx, req.HostImage)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAvatarCreation, err)
	}
	o.logger.Debug().Str("avatar_id", avatarID).Msg("orchestrator: avatar created")

	progress.SetPhase("Submitting video job", 25)
	dim := o.defaultDim
	if req.Width > 0 && req.Height > 0 {
		dim = heygen.Dimension{Width: req.Width, Height: req.Height}
	}
	videoID, err := o.client.SubmitVideo(ctx, avatarID, audioURL, dim)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVideoSubmission, err)
	}
	o.logger.Info().Str("video_id", videoID).Msg("orchestrator: video job submitted")

	progress.SetPhase("Rendering video", 35)
	url, err := o.poller.Wait(ctx, videoID)
	if err != nil {
		return "", err
	}

	progress.Complete()
	return url, nil
}

func (r Request) validate() error {
	if len(r.HostImage) == 0 {
		return fmt.Errorf("%w: host image is required", ErrValidation)
	}
	hasURL := r.AudioURL != ""
	hasBytes := len(r.AudioBytes) > 0
	if !hasURL && !hasBytes {
		return fmt.Errorf("%w: an audio url or audio bytes are required", ErrValidation)
	}
	if hasURL && hasBytes {
		return fmt.Errorf("%w: provide either an audio url or audio bytes, not both", ErrValidation)
	}
	return nil
}
