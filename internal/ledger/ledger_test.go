package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecutor struct {
	execErr error
	query   string
	args    []any
}

func (r *recordingExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	r.query = query
	r.args = args
	return pgconn.CommandTag{}, r.execErr
}

func (r *recordingExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return failRow{}
}

func (r *recordingExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type failRow struct{}

func (failRow) Scan(dest ...any) error { return pgx.ErrNoRows }

func TestRecordAssignsID(t *testing.T) {
	exec := &recordingExecutor{}
	l := New(exec, zerolog.Nop())

	l.Record(context.Background(), Generation{
		RequestID: "req-1",
		Status:    "succeeded",
		VideoURL:  "https://cdn/out.mp4",
		Credits:   CreditsPerVideo,
	})

	if len(exec.args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(exec.args))
	}
	if id, ok := exec.args[0].(string); !ok || id == "" {
		t.Fatalf("expected generated id, got %T %v", exec.args[0], exec.args[0])
	}
	if exec.args[1] != "req-1" || exec.args[2] != "succeeded" {
		t.Fatalf("unexpected args: %#v", exec.args)
	}
}

func TestRecordSwallowsFailure(t *testing.T) {
	exec := &recordingExecutor{execErr: errors.New("db down")}
	l := New(exec, zerolog.Nop())

	// Must not panic or propagate.
	l.Record(context.Background(), Generation{RequestID: "req-2", Status: "failed"})
}

func TestNilLedgerIsSafe(t *testing.T) {
	var l *Ledger
	l.Record(context.Background(), Generation{RequestID: "req-3"})
	items, err := l.Recent(context.Background(), 10)
	if err != nil || items != nil {
		t.Fatalf("nil ledger Recent = %v, %v", items, err)
	}
	if n, err := l.CreditsSince(context.Background(), time.Time{}); err != nil || n != 0 {
		t.Fatalf("nil ledger CreditsSince = %d, %v", n, err)
	}
}
