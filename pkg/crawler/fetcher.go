package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/chanscope/pkg/domain"
)

// StopReason tells why a fetch pass ended
type StopReason string

// fetch pass termination reasons
const (
	StopBoundary  StopReason = "boundary"  // met a message older than the window start
	StopKnown     StopReason = "known"     // met a message at or below StopAtID
	StopExhausted StopReason = "exhausted" // service returned an empty batch
)

// FetchRequest defines one backward pass over a source history
type FetchRequest struct {
	Window   domain.Window
	From     domain.Cursor // start below this id, LatestCursor for the most recent
	StopAtID int64         // stop at the first message with id <= StopAtID, 0 to disable
}

// Batch is the in-window part of one server batch, newest first
type Batch struct {
	Number   int
	Messages []domain.Message
	Cursor   domain.Cursor // id of the last message of the server batch
}

// FetchResult summarizes a completed pass
type FetchResult struct {
	Batches  int
	Messages int
	Cursor   domain.Cursor
	Reason   StopReason
}

// Fetcher pages through history backward in time, bounded by the window start
type Fetcher struct {
	batchSize  int
	retries    int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// FetcherConfig holds fetcher parameters
type FetcherConfig struct {
	BatchSize  int           // messages per history request
	Retries    int           // attempts per history request
	RetryDelay time.Duration // initial delay between attempts
	MaxDelay   time.Duration // backoff cap
}

// NewFetcher makes a fetcher, applying defaults for zero values
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.MaxDelay < cfg.RetryDelay {
		cfg.MaxDelay = cfg.RetryDelay
	}
	return &Fetcher{batchSize: cfg.BatchSize, retries: cfg.Retries, retryDelay: cfg.RetryDelay, maxDelay: cfg.MaxDelay}
}

// Fetch requests batches older than the cursor and passes the in-window messages of each
// to fn, in server order. The loop ends on an empty batch, on the first message older
// than the window start, or on the first message at or below req.StopAtID; nothing past
// the stopping message is considered. An error returned by fn aborts the pass unchanged.
func (f *Fetcher) Fetch(ctx context.Context, sess Session, src string, ent domain.Entity,
	req FetchRequest, fn func(Batch) error) (FetchResult, error) {
	res := FetchResult{Cursor: req.From}
	cursor := req.From

	for num := 1; ; num++ {
		msgs, err := f.history(ctx, sess, src, ent, cursor, num)
		if err != nil {
			return res, err
		}
		if len(msgs) == 0 {
			res.Reason = StopExhausted
			return res, nil
		}

		batch := Batch{Number: num, Messages: make([]domain.Message, 0, len(msgs))}
		var reason StopReason
		for _, m := range msgs {
			if m.Empty {
				// deleted message, has no date and only moves the cursor
				if req.StopAtID > 0 && m.ID <= req.StopAtID {
					reason = StopKnown
					break
				}
				continue
			}
			if req.Window.Before(m.PostedAt) {
				reason = StopBoundary
				break
			}
			if req.StopAtID > 0 && m.ID <= req.StopAtID {
				reason = StopKnown
				break
			}
			if !m.PostedAt.After(req.Window.End) {
				m.Source = src
				batch.Messages = append(batch.Messages, m)
			}
		}

		last := domain.Cursor(msgs[len(msgs)-1].ID)
		if reason == "" && cursor != domain.LatestCursor && last >= cursor {
			return res, &FetchError{Source: src, Cursor: cursor,
				Err: fmt.Errorf("cursor did not decrease, got %d", last)}
		}
		batch.Cursor = last

		if len(batch.Messages) > 0 {
			if err := fn(batch); err != nil {
				return res, err
			}
			res.Batches++
			res.Messages += len(batch.Messages)
		}

		if reason != "" {
			res.Reason = reason
			return res, nil
		}
		cursor = last
		res.Cursor = cursor
	}
}

// history requests one batch with bounded retries; the cursor never moves between attempts
func (f *Fetcher) history(ctx context.Context, sess Session, src string, ent domain.Entity,
	cursor domain.Cursor, num int) ([]domain.Message, error) {
	var msgs []domain.Message
	var lastErr error
	attempt := 0
	retrier := repeater.NewBackoff(f.retries, f.retryDelay, repeater.WithMaxDelay(f.maxDelay))
	err := retrier.Do(ctx, func() error {
		attempt++
		res, err := sess.History(ctx, ent, cursor, f.batchSize)
		if err != nil {
			lgr.Printf("[WARN] %s: error fetching batch %d (attempt %d/%d): %v", src, num, attempt, f.retries, err)
			lastErr = err
			return err
		}
		msgs = res
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if lastErr == nil {
			lastErr = err
		}
		return nil, &FetchError{Source: src, Cursor: cursor, Err: fmt.Errorf("%d attempts: %w", attempt, lastErr)}
	}
	return msgs, nil
}
