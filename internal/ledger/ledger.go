package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"podvid-server/internal/infra"
	"podvid-server/internal/sqlinline"
)

// CreditsPerVideo is the flat bookkeeping rate charged for a finished video.
// Failed generations are recorded with zero credits.
const CreditsPerVideo = 1

// Generation is one row of the usage ledger.
type Generation struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	Status     string    `json:"status"`
	VideoURL   string    `json:"video_url,omitempty"`
	ErrorCode  string    `json:"error_code,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Credits    int       `json:"credits"`
	CreatedAt  time.Time `json:"created_at"`
}

// Ledger records generation outcomes for bookkeeping. It is strictly
// best-effort: a write failure is logged and never surfaces to the caller,
// since bookkeeping must not change the result of a finished pipeline run.
type Ledger struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

func New(sql infra.SQLExecutor, logger zerolog.Logger) *Ledger {
	return &Ledger{sql: sql, logger: logger}
}

// Record inserts one generation row. Safe to call on a nil ledger.
func (l *Ledger) Record(ctx context.Context, g Generation) {
	if l == nil {
		return
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := l.sql.Exec(ctx, sqlinline.QInsertGeneration,
		g.ID, g.RequestID, g.Status, g.VideoURL, g.ErrorCode, g.DurationMS, g.Credits)
	if err != nil {
		l.logger.Error().Err(err).Str("request_id", g.RequestID).Msg("ledger: record failed")
	}
}

// Recent returns the most recent generations, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Generation, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := l.sql.Query(ctx, sqlinline.QSelectRecentGenerations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(&g.ID, &g.RequestID, &g.Status, &g.VideoURL, &g.ErrorCode, &g.DurationMS, &g.Credits, &g.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// CreditsSince sums the credits charged since the given time.
func (l *Ledger) CreditsSince(ctx context.Context, since time.Time) (int, error) {
	if l == nil {
		return 0, nil
	}
	row := l.sql.QueryRow(ctx, sqlinline.QSumCreditsSince, since)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
