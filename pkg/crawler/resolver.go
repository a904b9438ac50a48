package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/chanscope/pkg/domain"
)

// Resolver maps a source identifier to a fetchable entity.
// Strategies are tried in strict order and the first success wins:
//   - direct lookup of the identifier as a public handle
//   - join via invite token, if one is configured for the source, then lookup again
//   - scan of the session's dialogs for a title containing the identifier
//   - public directory search by the identifier
type Resolver struct {
	invites     map[string]string
	searchLimit int
}

// NewResolver makes a resolver with an explicit invite table keyed by source name
func NewResolver(invites map[string]string, searchLimit int) *Resolver {
	if searchLimit <= 0 {
		searchLimit = 5
	}
	if invites == nil {
		invites = map[string]string{}
	}
	return &Resolver{invites: invites, searchLimit: searchLimit}
}

// Resolve returns the entity for the source and the strategy which produced it.
// Joining by invite may change membership even if resolution fails afterwards.
func (r *Resolver) Resolve(ctx context.Context, sess Session, src domain.Source) (domain.Entity, domain.Strategy, error) {
	failures := map[domain.Strategy]error{}

	type step struct {
		name domain.Strategy
		fn   func(ctx context.Context, sess Session, src domain.Source) (domain.Entity, error)
	}
	steps := []step{
		{domain.StrategyHandle, r.byHandle},
		{domain.StrategyInvite, r.byInvite},
		{domain.StrategyDialog, r.byDialogs},
		{domain.StrategySearch, r.bySearch},
	}

	for _, s := range steps {
		ent, err := s.fn(ctx, sess, src)
		if err == nil {
			return ent, s.name, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Entity{}, "", ctxErr
		}
		lgr.Printf("[DEBUG] %s: %s strategy failed: %v", src.Name, s.name, err)
		failures[s.name] = err
	}

	return domain.Entity{}, "", &ResolutionError{Source: src.Name, Failures: failures}
}

func (r *Resolver) byHandle(ctx context.Context, sess Session, src domain.Source) (domain.Entity, error) {
	ent, err := sess.LookupHandle(ctx, src.Name)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("lookup handle: %w", err)
	}
	return ent, nil
}

func (r *Resolver) byInvite(ctx context.Context, sess Session, src domain.Source) (domain.Entity, error) {
	token := src.Invite
	if token == "" {
		token = r.invites[src.Name]
	}
	if token == "" {
		return domain.Entity{}, errors.New("no invite token")
	}

	lgr.Printf("[INFO] %s: trying to join via invite link", src.Name)
	joined, err := sess.JoinInvite(ctx, token)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("join invite: %w", err)
	}

	ent, err := sess.LookupHandle(ctx, src.Name)
	if err == nil {
		return ent, nil
	}
	if !joined.IsZero() {
		// private groups have no handle, the joined chat itself is the target
		return joined, nil
	}
	return domain.Entity{}, fmt.Errorf("lookup after join: %w", err)
}

func (r *Resolver) byDialogs(ctx context.Context, sess Session, src domain.Source) (domain.Entity, error) {
	dialogs, err := sess.Dialogs(ctx)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("list dialogs: %w", err)
	}
	needle := strings.ToLower(src.Name)
	for _, d := range dialogs {
		if strings.Contains(strings.ToLower(d.Title), needle) {
			lgr.Printf("[INFO] %s: found in dialogs as %q", src.Name, d.Title)
			return d, nil
		}
	}
	return domain.Entity{}, fmt.Errorf("no dialog title matches: %w", ErrNotFound)
}

func (r *Resolver) bySearch(ctx context.Context, sess Session, src domain.Source) (domain.Entity, error) {
	found, err := sess.Search(ctx, src.Name, r.searchLimit)
	if err != nil {
		return domain.Entity{}, fmt.Errorf("search: %w", err)
	}
	if len(found) == 0 {
		return domain.Entity{}, fmt.Errorf("no search results: %w", ErrNotFound)
	}
	handle := found[0].Handle
	if handle == "" {
		handle = "no-username"
	}
	lgr.Printf("[INFO] %s: using public chat %q (@%s)", src.Name, found[0].Title, handle)
	return found[0], nil
}
