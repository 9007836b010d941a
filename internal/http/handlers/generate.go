package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"podvid-server/internal/ledger"
	"podvid-server/internal/middleware"
	"podvid-server/internal/pipeline"
)

type generateRequest struct {
	RequestID        string `json:"request_id"`
	ImageBase64      string `json:"image_base64"`
	ImageContentType string `json:"image_content_type"`
	AudioURL         string `json:"audio_url"`
	AudioBase64      string `json:"audio_base64"`
	AudioContentType string `json:"audio_content_type"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
}

type generateResponse struct {
	RequestID string `json:"request_id"`
	VideoURL  string `json:"video_url"`
}

// VideosGenerate runs the whole pipeline inside the request: the connection
// stays open until the provider finishes or the budget expires. Progress for
// the run is published under the request id so the browser can watch it on
// the progress endpoint while this call is in flight.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	image, err := decodeBase64Field(req.ImageBase64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "validation", "image_base64 is not valid base64")
		return
	}
	audio, err := decodeBase64Field(req.AudioBase64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "validation", "audio_base64 is not valid base64")
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = middleware.RequestIDFromContext(r.Context())
	}

	progress := pipeline.NewProgress(middleware.LocaleFromContext(r.Context()))
	a.Progress.Register(requestID, progress)
	defer a.Progress.Unregister(requestID)

	audioContentType := req.AudioContentType
	if audioContentType == "" {
		audioContentType = "audio/wav"
	}

	start := time.Now()
	videoURL, runErr := a.Orchestrator.Run(r.Context(), pipeline.Request{
		HostImage:        image,
		ImageContentType: req.ImageContentType,
		AudioURL:         req.AudioURL,
		AudioBytes:       audio,
		AudioContentType: audioContentType,
		Width:            req.Width,
		Height:           req.Height,
	}, progress)
	a.recordOutcome(requestID, videoURL, runErr, time.Since(start))

	if runErr != nil {
		status, code := classifyRunError(runErr)
		a.Logger.Warn().Err(runErr).Str("request_id", requestID).Msg("generate: pipeline failed")
		a.error(w, status, code, runErr.Error())
		return
	}

	a.json(w, http.StatusOK, generateResponse{RequestID: requestID, VideoURL: videoURL})
}

func (a *App) recordOutcome(requestID, videoURL string, runErr error, elapsed time.Duration) {
	entry := ledger.Generation{
		RequestID:  requestID,
		Status:     "succeeded",
		VideoURL:   videoURL,
		DurationMS: elapsed.Milliseconds(),
		Credits:    ledger.CreditsPerVideo,
	}
	if runErr != nil {
		_, code := classifyRunError(runErr)
		entry.Status = "failed"
		entry.VideoURL = ""
		entry.ErrorCode = code
		entry.Credits = 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Ledger.Record(ctx, entry)
}

func classifyRunError(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, pipeline.ErrStaging):
		return http.StatusBadGateway, "staging_failed"
	case errors.Is(err, pipeline.ErrAvatarCreation):
		return http.StatusBadGateway, "avatar_creation_failed"
	case errors.Is(err, pipeline.ErrVideoSubmission):
		return http.StatusBadGateway, "video_submission_failed"
	case errors.Is(err, pipeline.ErrStatusCheck):
		return http.StatusBadGateway, "status_check_failed"
	case errors.Is(err, pipeline.ErrProviderJobFailed):
		return http.StatusBadGateway, "provider_job_failed"
	case errors.Is(err, pipeline.ErrPollingTimeout):
		return http.StatusGatewayTimeout, "polling_timeout"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "budget_exceeded"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeBase64Field(v string) ([]byte, error) {
	if v == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(v)
}
