package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/chanscope/pkg/domain"
)

func TestMessageRepository_UpsertMessages(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2025, 1, 2, 10, 30, 0, 0, time.Local)
	batch := []domain.Message{
		{ID: 12, Text: "third", PostedAt: base.Add(2 * time.Minute)},
		{ID: 11, Text: "", PostedAt: base.Add(time.Minute)},
		{ID: 10, Text: "first", PostedAt: base},
	}

	n, err := repos.Message.UpsertMessages(ctx, "alpha", batch)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t.Run("same batch twice keeps one copy", func(t *testing.T) {
		n, err := repos.Message.UpsertMessages(ctx, "alpha", batch)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		count, err := repos.Message.CountMessages(ctx, "alpha")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("conflict updates text", func(t *testing.T) {
		n, err := repos.Message.UpsertMessages(ctx, "alpha", []domain.Message{
			{ID: 12, Text: "third, edited", PostedAt: base.Add(2 * time.Minute)},
			{ID: 9, Text: "zeroth", PostedAt: base.Add(-time.Minute)},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		msgs, err := repos.Message.ListMessages(ctx, "alpha")
		require.NoError(t, err)
		require.Len(t, msgs, 4)
		assert.Equal(t, "third, edited", msgs[0].Text)
		assert.Equal(t, int64(9), msgs[3].ID, "insertion order preserved")
	})

	t.Run("sources are independent", func(t *testing.T) {
		n, err := repos.Message.UpsertMessages(ctx, "beta", batch[:1])
		require.NoError(t, err)
		assert.Equal(t, 1, n, "same msg id in another source is a new message")

		count, err := repos.Message.CountMessages(ctx, "alpha")
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("empty batch", func(t *testing.T) {
		n, err := repos.Message.UpsertMessages(ctx, "alpha", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestMessageRepository_ListMessages(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	posted := time.Date(2025, 1, 2, 23, 59, 59, 0, time.Local)
	_, err := repos.Message.UpsertMessages(ctx, "news", []domain.Message{
		{ID: 2, Text: "hello\nworld", PostedAt: posted},
		{ID: 1, Text: "привет", PostedAt: posted.Add(-time.Hour)},
	})
	require.NoError(t, err)

	msgs, err := repos.Message.ListMessages(ctx, "news")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "news", msgs[0].Source)
	assert.Equal(t, int64(2), msgs[0].ID)
	assert.Equal(t, "hello\nworld", msgs[0].Text)
	assert.True(t, posted.Equal(msgs[0].PostedAt), "got %v", msgs[0].PostedAt)
	assert.Equal(t, "2025-01-02 23:59:59", msgs[0].PostedAt.Format(domain.TimeLayout))
	assert.Equal(t, "привет", msgs[1].Text)

	empty, err := repos.Message.ListMessages(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessageRepository_Sources(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for _, src := range []string{"zeta", "alpha", "mid"} {
		_, err := repos.Message.UpsertMessages(ctx, src, []domain.Message{{ID: 1, Text: src, PostedAt: time.Now()}})
		require.NoError(t, err)
	}

	sources, err := repos.Message.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, sources)
}

func TestMessageRepository_LargeBatch(t *testing.T) {
	repos, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	msgs := make([]domain.Message, 0, 500)
	for i := 500; i > 0; i-- {
		msgs = append(msgs, domain.Message{ID: int64(i), Text: fmt.Sprintf("msg %d", i), PostedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	n, err := repos.Message.UpsertMessages(ctx, "bulk", msgs)
	require.NoError(t, err)
	assert.Equal(t, 500, n)
}
