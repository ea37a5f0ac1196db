// Package audit keeps a local log of money movement seen by this bot:
// outgoing transfers and withdrawals it submitted, and deposits it was
// notified about. The log backs the /history command and is best effort;
// a write failure never blocks the conversation.
package audit

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Patoski-patoski/copperx-payout-bot-sub000/core/logger"
	"log/slog"
)

// Entry kinds.
const (
	KindTransfer   = "transfer"
	KindBulk       = "bulk"
	KindWithdrawal = "withdrawal"
	KindDeposit    = "deposit"
)

// Entry is one recorded money movement.
type Entry struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Kind      string    `db:"kind"`
	Recipient string    `db:"recipient"`
	Amount    string    `db:"amount"`
	Currency  string    `db:"currency"`
	Status    string    `db:"status"`
	RemoteID  string    `db:"remote_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Recorder persists entries and serves the recent slice for a chat.
type Recorder interface {
	Record(ctx context.Context, e Entry)
	Recent(ctx context.Context, chatID int64, limit int) ([]Entry, error)
}

type sqlRecorder struct {
	db *sqlx.DB
}

// NewRecorder returns a Postgres-backed Recorder.
func NewRecorder(db *sqlx.DB) Recorder {
	return &sqlRecorder{db: db}
}

const insertEntry = `
	INSERT INTO audit_log (chat_id, kind, recipient, amount, currency, status, remote_id)
	VALUES (:chat_id, :kind, :recipient, :amount, :currency, :status, :remote_id)`

func (r *sqlRecorder) Record(ctx context.Context, e Entry) {
	if _, err := r.db.NamedExecContext(ctx, insertEntry, e); err != nil {
		logger.AUD.Warn("audit write failed",
			slog.String("event", "audit.record"),
			slog.Int64("chat_id", e.ChatID),
			slog.String("kind", e.Kind),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.AUD.Debug("entry recorded",
		slog.String("event", "audit.record"),
		slog.Int64("chat_id", e.ChatID),
		slog.String("kind", e.Kind),
		slog.String("status", e.Status),
	)
}

const selectRecent = `
	SELECT id, chat_id, kind, recipient, amount, currency, status, remote_id, created_at
	FROM audit_log
	WHERE chat_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2`

func (r *sqlRecorder) Recent(ctx context.Context, chatID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, selectRecent, chatID, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

type noopRecorder struct{}

// NewNoop returns a Recorder that drops everything, used when the bot runs
// without a database.
func NewNoop() Recorder { return noopRecorder{} }

func (noopRecorder) Record(context.Context, Entry) {}

func (noopRecorder) Recent(context.Context, int64, int) ([]Entry, error) {
	return nil, nil
}
