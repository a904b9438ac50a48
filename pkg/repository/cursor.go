package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/chanscope/pkg/domain"
)

// CursorRepository keeps per-source resume state
type CursorRepository struct {
	db *sqlx.DB
}

type cursorSQL struct {
	Source        string     `db:"source"`
	NewestID      int64      `db:"newest_id"`
	OldestID      int64      `db:"oldest_id"`
	Complete      bool       `db:"complete"`
	CompleteSince *time.Time `db:"complete_since"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// NewCursorRepository creates a new cursor repository
func NewCursorRepository(db *sqlx.DB) *CursorRepository {
	return &CursorRepository{db: db}
}

// GetCursor returns the stored state of the source, nil if the source was never fetched
func (r *CursorRepository) GetCursor(ctx context.Context, source string) (*domain.CursorState, error) {
	var row cursorSQL
	err := r.db.GetContext(ctx, &row, "SELECT * FROM cursors WHERE source = ?", source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cursor: %w", err)
	}

	res := &domain.CursorState{
		Source:    row.Source,
		NewestID:  row.NewestID,
		OldestID:  row.OldestID,
		Complete:  row.Complete,
		UpdatedAt: row.UpdatedAt,
	}
	if row.CompleteSince != nil {
		res.CompleteSince = row.CompleteSince.Local()
	}
	return res, nil
}

// SaveCursor stores the state of the source, replacing the previous one
func (r *CursorRepository) SaveCursor(ctx context.Context, state domain.CursorState) error {
	row := cursorSQL{
		Source:    state.Source,
		NewestID:  state.NewestID,
		OldestID:  state.OldestID,
		Complete:  state.Complete,
		UpdatedAt: state.UpdatedAt,
	}
	if !state.CompleteSince.IsZero() {
		row.CompleteSince = &state.CompleteSince
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO cursors (source, newest_id, oldest_id, complete, complete_since, updated_at)
		VALUES (:source, :newest_id, :oldest_id, :complete, :complete_since, :updated_at)
		ON CONFLICT(source) DO UPDATE SET
			newest_id = excluded.newest_id,
			oldest_id = excluded.oldest_id,
			complete = excluded.complete,
			complete_since = excluded.complete_since,
			updated_at = excluded.updated_at
	`
	return retryOnLock(ctx, "save cursor", func() error {
		_, err := r.db.NamedExecContext(ctx, query, row)
		return err
	})
}
