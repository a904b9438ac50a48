// Package crawler ingests message history from a remote messaging service.
// A run negotiates one authorized session, then for every configured source, strictly
// in order, resolves the source to an entity, pages its history backward down to the
// window start and persists each batch as it arrives. Failures of a single source are
// isolated; only the inability to get a session is fatal.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/chanscope/pkg/domain"
)

//go:generate moq -out mocks/dialer.go -pkg mocks -skip-ensure -fmt goimports . Dialer
//go:generate moq -out mocks/session.go -pkg mocks -skip-ensure -fmt goimports . Session
//go:generate moq -out mocks/message_store.go -pkg mocks -skip-ensure -fmt goimports . MessageStore
//go:generate moq -out mocks/cursor_store.go -pkg mocks -skip-ensure -fmt goimports . CursorStore

// Dialer opens a session over the named transport strategy
type Dialer interface {
	Dial(ctx context.Context, transport string) (Session, error)
}

// Session is an established connection to the messaging service
type Session interface {
	Authorized(ctx context.Context) (bool, error)
	LookupHandle(ctx context.Context, handle string) (domain.Entity, error)
	JoinInvite(ctx context.Context, token string) (domain.Entity, error)
	Dialogs(ctx context.Context) ([]domain.Entity, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Entity, error)
	// History returns up to limit messages older than cursor, newest first
	History(ctx context.Context, ent domain.Entity, cursor domain.Cursor, limit int) ([]domain.Message, error)
	Close() error
}

// MessageStore persists fetched messages with (source, id) upsert semantics
type MessageStore interface {
	UpsertMessages(ctx context.Context, source string, msgs []domain.Message) (int, error)
}

// CursorStore keeps per-source resume state between runs
type CursorStore interface {
	GetCursor(ctx context.Context, source string) (*domain.CursorState, error)
	SaveCursor(ctx context.Context, state domain.CursorState) error
}

// Params holds crawler dependencies and settings
type Params struct {
	Negotiator *Negotiator
	Resolver   *Resolver
	Fetcher    *Fetcher
	Messages   MessageStore
	Cursors    CursorStore
	Sources    []domain.Source
	Window     domain.Window
	Full       bool // ignore stored cursors and re-fetch the whole window
}

// Crawler is the run orchestrator
type Crawler struct {
	Params
}

// SourceReport is the outcome for one source
type SourceReport struct {
	Source   string
	Strategy domain.Strategy
	Entity   string
	Fetched  int
	Saved    int
	Batches  int
	Err      error
}

// Report is the outcome of a run
type Report struct {
	Transport string
	Sources   []SourceReport
	Started   time.Time
	Finished  time.Time
}

// Failed returns the number of sources that ended with an error
func (r Report) Failed() int {
	res := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			res++
		}
	}
	return res
}

// New makes a crawler
func New(p Params) *Crawler {
	return &Crawler{Params: p}
}

// Run connects and processes every source in order. The returned error is non-nil only
// if no session could be established or the context was canceled; per-source failures
// are reported in Report.
func (c *Crawler) Run(ctx context.Context) (Report, error) {
	report := Report{Started: time.Now()}

	sess, transport, err := c.Negotiator.Connect(ctx)
	if err != nil {
		return report, fmt.Errorf("negotiate session: %w", err)
	}
	report.Transport = transport
	defer func() {
		if err := sess.Close(); err != nil {
			lgr.Printf("[WARN] failed to close session: %v", err)
		}
	}()

	lgr.Printf("[INFO] crawling %d sources from %s to %s", len(c.Sources),
		c.Window.Start.Format(domain.TimeLayout), c.Window.End.Format(domain.TimeLayout))

	for _, src := range c.Sources {
		if err := ctx.Err(); err != nil {
			report.Finished = time.Now()
			return report, err
		}
		sr := c.crawlSource(ctx, sess, src)
		report.Sources = append(report.Sources, sr)
		if sr.Err != nil && ctx.Err() != nil {
			report.Finished = time.Now()
			return report, ctx.Err()
		}
		if sr.Err != nil {
			lgr.Printf("[WARN] skipping %s: %v", src.Name, sr.Err)
			continue
		}
		lgr.Printf("[INFO] completed %s, total messages saved: %d", src.Name, sr.Saved)
	}

	report.Finished = time.Now()
	return report, nil
}

// crawlSource resolves, fetches and persists a single source
func (c *Crawler) crawlSource(ctx context.Context, sess Session, src domain.Source) SourceReport {
	sr := SourceReport{Source: src.Name}

	ent, strategy, err := c.Resolver.Resolve(ctx, sess, src)
	if err != nil {
		sr.Err = err
		return sr
	}
	sr.Strategy, sr.Entity = strategy, ent.Title
	lgr.Printf("[INFO] fetching %s (resolved by %s)", src.Name, strategy)

	state, err := c.loadState(ctx, src.Name)
	if err != nil {
		sr.Err = err
		return sr
	}

	for _, p := range c.plan(state) {
		if err := c.runPass(ctx, sess, src.Name, ent, p, state, &sr); err != nil {
			sr.Err = err
			return sr
		}
	}
	return sr
}

// pass is one backward fetch over a part of the window
type pass struct {
	name string
	req  FetchRequest
	head bool // pass above an existing NewestID
}

// plan decides which passes are needed for the stored state.
// Without state (or in full mode) a single pass covers the window. With state, a head pass
// fetches everything newer than NewestID and, unless the tail already reached the current
// window start, a tail pass resumes below OldestID.
func (c *Crawler) plan(state *domain.CursorState) []pass {
	if c.Full || state == nil || state.NewestID == 0 {
		return []pass{{name: "full", req: FetchRequest{Window: c.Window, From: domain.LatestCursor}}}
	}

	res := []pass{{name: "head", head: true,
		req: FetchRequest{Window: c.Window, From: domain.LatestCursor, StopAtID: state.NewestID}}}

	tailDone := state.Complete && !c.Window.Start.Before(state.CompleteSince)
	if !tailDone && state.OldestID > 1 {
		res = append(res, pass{name: "tail",
			req: FetchRequest{Window: c.Window, From: domain.Cursor(state.OldestID)}})
	}
	return res
}

// runPass fetches one pass, persisting each batch and advancing the stored state
func (c *Crawler) runPass(ctx context.Context, sess Session, src string, ent domain.Entity,
	p pass, state *domain.CursorState, sr *SourceReport) error {
	lgr.Printf("[DEBUG] %s: %s pass from cursor %d, stop at id %d", src, p.name, p.req.From, p.req.StopAtID)

	var headNewest int64
	res, err := c.Fetcher.Fetch(ctx, sess, src, ent, p.req, func(b Batch) error {
		saved, err := c.Messages.UpsertMessages(ctx, src, b.Messages)
		if err != nil {
			return &PersistError{Source: src, Err: err}
		}
		sr.Batches++
		sr.Fetched += len(b.Messages)
		sr.Saved += saved
		lgr.Printf("[INFO] %s: batch %d, saved %d of %d messages", src, b.Number, saved, len(b.Messages))

		newest, oldest := b.Messages[0].ID, b.Messages[len(b.Messages)-1].ID
		switch {
		case p.head:
			// commit NewestID only after the head pass closes the gap below it
			headNewest = max(headNewest, newest)
			return nil
		case state.NewestID == 0:
			state.NewestID = newest
		}
		state.OldestID = oldest
		return c.saveState(ctx, state)
	})
	if err != nil {
		return err
	}

	if p.head {
		if headNewest == 0 {
			return nil
		}
		state.NewestID = max(state.NewestID, headNewest)
		return c.saveState(ctx, state)
	}

	// a pass without StopAtID ends only at the window start or the end of history
	lgr.Printf("[DEBUG] %s: %s pass done, %s at cursor %d", src, p.name, res.Reason, res.Cursor)
	state.Complete = true
	state.CompleteSince = c.Window.Start
	return c.saveState(ctx, state)
}

func (c *Crawler) loadState(ctx context.Context, src string) (*domain.CursorState, error) {
	state, err := c.Cursors.GetCursor(ctx, src)
	if err != nil {
		return nil, &PersistError{Source: src, Err: fmt.Errorf("load cursor: %w", err)}
	}
	if state == nil || c.Full {
		return &domain.CursorState{Source: src}, nil
	}
	return state, nil
}

func (c *Crawler) saveState(ctx context.Context, state *domain.CursorState) error {
	state.UpdatedAt = time.Now()
	if err := c.Cursors.SaveCursor(ctx, *state); err != nil {
		return &PersistError{Source: state.Source, Err: fmt.Errorf("save cursor: %w", err)}
	}
	return nil
}

// IsFatal reports whether err must terminate the process
func IsFatal(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
