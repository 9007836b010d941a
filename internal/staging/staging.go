// Package staging makes short-lived binary assets publicly fetchable so the
// remote video provider can retrieve them, and deletes them afterwards.
package staging

import "context"

// Asset is one staged object. It is owned exclusively by the pipeline run
// that created it and is deleted (best-effort) when that run ends.
type Asset struct {
	URL    string
	Bucket string
	Object string
}

// Stager uploads ephemeral assets and later removes them.
//
// Unstage never reports failure upward: cleanup problems are logged by the
// implementation, because a failed delete must not mask the primary result
// of the job it belonged to. Calling Unstage with a nil asset, or twice for
// the same asset, is harmless.
type Stager interface {
	Stage(ctx context.Context, data []byte, contentType string) (*Asset, error)
	Unstage(ctx context.Context, asset *Asset)
}
