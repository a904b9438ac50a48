package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/chanscope/pkg/domain"
)

// MessageRepository handles message storage, one ordered collection per source
type MessageRepository struct {
	db *sqlx.DB
}

// messageSQL represents a message row
type messageSQL struct {
	ID        int64     `db:"id"`
	Source    string    `db:"source"`
	MsgID     int64     `db:"msg_id"`
	PostedAt  time.Time `db:"posted_at"`
	Text      string    `db:"text"`
	FetchedAt time.Time `db:"fetched_at"`
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// UpsertMessages merges a batch into the source's store in one transaction.
// A message already stored under the same (source, msg_id) is updated in place, so
// repeating the same batch leaves exactly one copy. Returns the number of new rows.
func (r *MessageRepository) UpsertMessages(ctx context.Context, source string, msgs []domain.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	inserted := 0
	err := retryOnLock(ctx, "upsert messages", func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		var before int
		if err := tx.GetContext(ctx, &before, "SELECT COUNT(*) FROM messages WHERE source = ?", source); err != nil {
			return fmt.Errorf("count before: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO messages (source, msg_id, posted_at, text, fetched_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(source, msg_id) DO UPDATE SET
				posted_at = excluded.posted_at,
				text = excluded.text,
				fetched_at = excluded.fetched_at
		`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, m := range msgs {
			if _, err := stmt.ExecContext(ctx, source, m.ID, m.PostedAt, m.Text, now); err != nil {
				return fmt.Errorf("upsert message %d: %w", m.ID, err)
			}
		}

		var after int
		if err := tx.GetContext(ctx, &after, "SELECT COUNT(*) FROM messages WHERE source = ?", source); err != nil {
			return fmt.Errorf("count after: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		inserted = after - before
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListMessages returns all messages of the source in insertion order
func (r *MessageRepository) ListMessages(ctx context.Context, source string) ([]domain.Message, error) {
	var rows []messageSQL
	err := r.db.SelectContext(ctx, &rows,
		"SELECT id, source, msg_id, posted_at, text, fetched_at FROM messages WHERE source = ? ORDER BY id", source)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	res := make([]domain.Message, len(rows))
	for i, row := range rows {
		res[i] = r.toDomainMessage(&row)
	}
	return res, nil
}

// CountMessages returns the number of stored messages of the source
func (r *MessageRepository) CountMessages(ctx context.Context, source string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM messages WHERE source = ?", source); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// Sources returns names of all sources with stored messages, sorted
func (r *MessageRepository) Sources(ctx context.Context) ([]string, error) {
	var res []string
	if err := r.db.SelectContext(ctx, &res, "SELECT DISTINCT source FROM messages ORDER BY source"); err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}
	return res, nil
}

func (r *MessageRepository) toDomainMessage(row *messageSQL) domain.Message {
	return domain.Message{
		ID:       row.MsgID,
		Source:   row.Source,
		Text:     row.Text,
		PostedAt: row.PostedAt.Local(),
	}
}
