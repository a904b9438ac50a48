package crawler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/chanscope/pkg/crawler"
	"github.com/umputun/chanscope/pkg/crawler/mocks"
	"github.com/umputun/chanscope/pkg/domain"
)

// history returns n messages with ids n..1, newest first, all inside January 2025
func history(n int) []domain.Message {
	res := make([]domain.Message, 0, n)
	for id := int64(n); id >= 1; id-- {
		res = append(res, msg(id, day(1).Add(time.Duration(id)*time.Hour)))
	}
	return res
}

// world is a fake service with one history per known handle
type world struct {
	chats map[string]*historyServer
}

func (w *world) session() *mocks.SessionMock {
	sess := authorizedSession()
	sess.LookupHandleFunc = func(_ context.Context, handle string) (domain.Entity, error) {
		if _, ok := w.chats[handle]; !ok {
			return domain.Entity{}, crawler.ErrNotFound
		}
		return domain.Entity{ID: int64(len(handle)), Title: handle, Handle: handle}, nil
	}
	sess.DialogsFunc = func(context.Context) ([]domain.Entity, error) { return nil, nil }
	sess.SearchFunc = func(context.Context, string, int) ([]domain.Entity, error) { return nil, nil }
	sess.HistoryFunc = func(ctx context.Context, ent domain.Entity, cursor domain.Cursor, limit int) ([]domain.Message, error) {
		return w.chats[ent.Handle].History(ctx, ent, cursor, limit)
	}
	return sess
}

func newTestCrawler(sess crawler.Session, msgs crawler.MessageStore, cursors crawler.CursorStore,
	sources []string, full bool) *crawler.Crawler {
	dialer := &mocks.DialerMock{DialFunc: func(context.Context, string) (crawler.Session, error) { return sess, nil }}
	srcs := make([]domain.Source, 0, len(sources))
	for _, s := range sources {
		srcs = append(srcs, domain.Source{Name: s})
	}
	return crawler.New(crawler.Params{
		Negotiator: crawler.NewNegotiator(dialer, crawler.NegotiatorConfig{Transports: []string{"abridged"}, MaxRetries: 1}),
		Resolver:   crawler.NewResolver(nil, 5),
		Fetcher: crawler.NewFetcher(crawler.FetcherConfig{BatchSize: 10, Retries: 2,
			RetryDelay: time.Millisecond, MaxDelay: time.Millisecond}),
		Messages: msgs,
		Cursors:  cursors,
		Sources:  srcs,
		Window:   domain.Window{Start: day(1), End: day(30)},
		Full:     full,
	})
}

func TestCrawler_Run_ConnectionFailureIsFatal(t *testing.T) {
	dialer := &mocks.DialerMock{DialFunc: func(context.Context, string) (crawler.Session, error) {
		return nil, errors.New("network unreachable")
	}}
	store := newMemStore()
	c := crawler.New(crawler.Params{
		Negotiator: crawler.NewNegotiator(dialer, crawler.NegotiatorConfig{Transports: []string{"abridged", "full"}, MaxRetries: 2}),
		Resolver:   crawler.NewResolver(nil, 5),
		Fetcher:    crawler.NewFetcher(crawler.FetcherConfig{}),
		Messages:   store,
		Cursors:    store,
		Sources:    []domain.Source{{Name: "a"}, {Name: "b"}},
		Window:     domain.Window{Start: day(1), End: day(30)},
	})

	report, err := c.Run(context.Background())
	require.Error(t, err)
	assert.True(t, crawler.IsFatal(err))
	assert.Empty(t, report.Sources, "no source is processed without a session")
	assert.Len(t, dialer.DialCalls(), 4)
}

func TestCrawler_Run_FailuresAreIsolated(t *testing.T) {
	w := &world{chats: map[string]*historyServer{
		"broken":  {msgs: history(5)},
		"nodisk":  {msgs: history(5)},
		"healthy": {msgs: history(25)},
	}}
	sess := w.session()
	next := sess.HistoryFunc
	sess.HistoryFunc = func(ctx context.Context, ent domain.Entity, cursor domain.Cursor, limit int) ([]domain.Message, error) {
		if ent.Handle == "broken" {
			return nil, errors.New("FLOOD_WAIT")
		}
		return next(ctx, ent, cursor, limit)
	}

	store := newMemStore()
	msgStore := &mocks.MessageStoreMock{
		UpsertMessagesFunc: func(ctx context.Context, source string, msgs []domain.Message) (int, error) {
			if source == "nodisk" {
				return 0, errors.New("database is locked")
			}
			return store.UpsertMessages(ctx, source, msgs)
		},
	}

	c := newTestCrawler(sess, msgStore, store, []string{"ghost", "broken", "nodisk", "healthy"}, false)
	report, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Sources, 4)
	assert.Equal(t, "abridged", report.Transport)
	assert.Equal(t, 3, report.Failed())

	var resErr *crawler.ResolutionError
	assert.ErrorAs(t, report.Sources[0].Err, &resErr)
	var fetchErr *crawler.FetchError
	assert.ErrorAs(t, report.Sources[1].Err, &fetchErr)
	var persistErr *crawler.PersistError
	assert.ErrorAs(t, report.Sources[2].Err, &persistErr)

	healthy := report.Sources[3]
	require.NoError(t, healthy.Err)
	assert.Equal(t, domain.StrategyHandle, healthy.Strategy)
	assert.Equal(t, 25, healthy.Saved)
	assert.Equal(t, 3, healthy.Batches)
	assert.Len(t, store.ids("healthy"), 25)
	assert.Empty(t, store.ids("broken"))
	assert.Empty(t, store.ids("nodisk"))
	assert.Len(t, sess.CloseCalls(), 1, "session closed once at the end of the run")
}

func TestCrawler_Run_ResumesWithHeadPass(t *testing.T) {
	srv := &historyServer{msgs: history(30)}
	w := &world{chats: map[string]*historyServer{"news": srv}}
	store := newMemStore()

	report, err := newTestCrawler(w.session(), store, store, []string{"news"}, false).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, report.Sources[0].Saved)
	state := store.cursors["news"]
	assert.Equal(t, int64(30), state.NewestID)
	assert.Equal(t, int64(1), state.OldestID)
	assert.True(t, state.Complete)
	assert.Equal(t, day(1), state.CompleteSince)

	// five new messages appear, next run only fetches above the stored newest id
	srv.msgs = append(history(35)[:5], srv.msgs...)
	srv.cursors = nil
	report, err = newTestCrawler(w.session(), store, store, []string{"news"}, false).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Sources[0].Err)
	assert.Equal(t, 5, report.Sources[0].Saved)
	assert.Equal(t, []domain.Cursor{domain.LatestCursor}, srv.cursors)
	assert.Equal(t, int64(35), store.cursors["news"].NewestID)
	assert.Len(t, store.ids("news"), 35)
}

func TestCrawler_Run_ResumesInterruptedTail(t *testing.T) {
	srv := &historyServer{msgs: history(30)}
	w := &world{chats: map[string]*historyServer{"news": srv}}
	store := newMemStore()

	calls := 0
	flaky := &mocks.MessageStoreMock{
		UpsertMessagesFunc: func(ctx context.Context, source string, msgs []domain.Message) (int, error) {
			calls++
			if calls == 3 {
				return 0, errors.New("disk I/O error")
			}
			return store.UpsertMessages(ctx, source, msgs)
		},
	}
	report, err := newTestCrawler(w.session(), flaky, store, []string{"news"}, false).Run(context.Background())
	require.NoError(t, err)
	require.Error(t, report.Sources[0].Err)
	assert.Equal(t, 20, report.Sources[0].Saved)
	state := store.cursors["news"]
	assert.Equal(t, int64(30), state.NewestID)
	assert.Equal(t, int64(11), state.OldestID)
	assert.False(t, state.Complete)

	srv.cursors = nil
	report, err = newTestCrawler(w.session(), store, store, []string{"news"}, false).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Sources[0].Err)
	assert.Equal(t, 10, report.Sources[0].Saved)
	assert.Equal(t, []domain.Cursor{domain.LatestCursor, 11, 1}, srv.cursors)
	assert.Len(t, store.ids("news"), 30)
	assert.True(t, store.cursors["news"].Complete)
	assert.Equal(t, int64(1), store.cursors["news"].OldestID)
}

func TestCrawler_Run_FullRerunIsIdempotent(t *testing.T) {
	w := &world{chats: map[string]*historyServer{"news": {msgs: history(12)}}}
	store := newMemStore()

	for i := 0; i < 2; i++ {
		report, err := newTestCrawler(w.session(), store, store, []string{"news"}, true).Run(context.Background())
		require.NoError(t, err)
		require.NoError(t, report.Sources[0].Err)
		assert.Equal(t, 12, report.Sources[0].Fetched)
		if i == 0 {
			assert.Equal(t, 12, report.Sources[0].Saved)
		} else {
			assert.Equal(t, 0, report.Sources[0].Saved, "rerun inserts nothing new")
		}
	}
	assert.Len(t, store.ids("news"), 12)
}

func TestCrawler_Run_Canceled(t *testing.T) {
	w := &world{chats: map[string]*historyServer{"first": {msgs: history(5)}, "second": {msgs: history(5)}}}
	ctx, cancel := context.WithCancel(context.Background())
	sess := w.session()
	sess.HistoryFunc = func(context.Context, domain.Entity, domain.Cursor, int) ([]domain.Message, error) {
		cancel()
		return nil, errors.New("interrupted")
	}
	store := newMemStore()

	report, err := newTestCrawler(sess, store, store, []string{"first", "second"}, false).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, crawler.IsFatal(err))
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "first", report.Sources[0].Source)
	assert.Len(t, sess.CloseCalls(), 1)
}

func TestCrawler_Run_DeletedMessagesDoNotEndHistory(t *testing.T) {
	msgs := history(25)
	for i, m := range msgs {
		if m.ID <= 15 && m.ID >= 6 {
			msgs[i] = domain.Message{ID: m.ID, Empty: true} // one full page of deleted messages
		}
	}
	w := &world{chats: map[string]*historyServer{"news": {msgs: msgs}}}
	store := newMemStore()

	report, err := newTestCrawler(w.session(), store, store, []string{"news"}, false).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Sources[0].Err)
	assert.Equal(t, 15, report.Sources[0].Saved)
	assert.Len(t, store.ids("news"), 15)
	state := store.cursors["news"]
	assert.True(t, state.Complete)
	assert.Equal(t, int64(1), state.OldestID)
}
