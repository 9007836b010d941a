package pipeline

import "errors"

// Failure kinds for one generation run. Each step wraps its underlying cause
// with exactly one of these so callers can map outcomes with errors.Is while
// the wrapped message keeps the provider's raw text.
var (
	ErrValidation        = errors.New("invalid generation request")
	ErrStaging           = errors.New("audio staging failed")
	ErrAvatarCreation    = errors.New("avatar creation failed")
	ErrVideoSubmission   = errors.New("video submission failed")
	ErrStatusCheck       = errors.New("video status check failed")
	ErrProviderJobFailed = errors.New("provider reported job failure")
	ErrPollingTimeout    = errors.New("video job polling timed out")
)
