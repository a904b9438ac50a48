package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/umputun/chanscope/pkg/crawler"
	"github.com/umputun/chanscope/pkg/domain"
)

// api is the subset of raw API methods used by Session, implemented by *tg.Client
type api interface {
	MessagesImportChatInvite(ctx context.Context, hash string) (tg.UpdatesClass, error)
	MessagesCheckChatInvite(ctx context.Context, hash string) (tg.ChatInviteClass, error)
	MessagesGetDialogs(ctx context.Context, request *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error)
	ContactsSearch(ctx context.Context, request *tg.ContactsSearchRequest) (*tg.ContactsFound, error)
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
}

// domainResolver resolves public usernames to input peers
type domainResolver interface {
	ResolveDomain(ctx context.Context, domain string) (tg.InputPeerClass, error)
}

const dialogsPageSize = 100

var handleRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

// Session is an established client connection
type Session struct {
	api          api
	peers        domainResolver
	status       func(ctx context.Context) (bool, error)
	login        func(ctx context.Context) error
	stop         func() error
	maxFloodWait time.Duration
	dialogPages  int
}

// Authorized reports whether the session is logged in, running the login flow if configured
func (s *Session) Authorized(ctx context.Context) (bool, error) {
	ok, err := s.status(ctx)
	if err != nil || ok || s.login == nil {
		return ok, err
	}
	lgr.Printf("[INFO] session is not authorized, starting login")
	if err := s.login(ctx); err != nil {
		return false, fmt.Errorf("login: %w", err)
	}
	return s.status(ctx)
}

// LookupHandle resolves a public username, with or without @ or t.me prefix
func (s *Session) LookupHandle(ctx context.Context, handle string) (domain.Entity, error) {
	name := normalizeHandle(handle)
	if !handleRe.MatchString(name) {
		return domain.Entity{}, fmt.Errorf("%q is not a valid username: %w", handle, crawler.ErrNotFound)
	}
	p, err := s.peers.ResolveDomain(ctx, name)
	if err != nil {
		return domain.Entity{}, mapError(err)
	}
	return entityFromInputPeer(p, name), nil
}

// JoinInvite joins a private chat by invite link or hash and returns it
func (s *Session) JoinInvite(ctx context.Context, token string) (domain.Entity, error) {
	hash := ParseInvite(token)
	if hash == "" {
		return domain.Entity{}, fmt.Errorf("empty invite hash: %w", crawler.ErrNotFound)
	}

	upd, err := s.api.MessagesImportChatInvite(ctx, hash)
	if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
		inv, checkErr := s.api.MessagesCheckChatInvite(ctx, hash)
		if checkErr != nil {
			return domain.Entity{}, mapError(checkErr)
		}
		if already, ok := inv.(*tg.ChatInviteAlready); ok {
			return entityFromChat(already.Chat), nil
		}
		return domain.Entity{}, nil
	}
	if err != nil {
		return domain.Entity{}, mapError(err)
	}

	for _, c := range chatsFromUpdates(upd) {
		if ent := entityFromChat(c); !ent.IsZero() {
			return ent, nil
		}
	}
	return domain.Entity{}, nil
}

// Dialogs lists chats the account is a member of, up to dialogPages pages
func (s *Session) Dialogs(ctx context.Context) ([]domain.Entity, error) {
	var res []domain.Entity
	req := &tg.MessagesGetDialogsRequest{OffsetPeer: &tg.InputPeerEmpty{}, Limit: dialogsPageSize}

	for page := 0; page < s.dialogPages; page++ {
		resp, err := s.api.MessagesGetDialogs(ctx, req)
		if err != nil {
			return nil, mapError(err)
		}

		var dialogs []tg.DialogClass
		var msgs []tg.MessageClass
		var chats []tg.ChatClass
		var users []tg.UserClass
		last := true
		switch r := resp.(type) {
		case *tg.MessagesDialogs:
			dialogs, msgs, chats, users = r.Dialogs, r.Messages, r.Chats, r.Users
		case *tg.MessagesDialogsSlice:
			dialogs, msgs, chats, users = r.Dialogs, r.Messages, r.Chats, r.Users
			last = len(r.Dialogs) < dialogsPageSize
		default:
			return res, nil
		}

		byPeer := map[int64]domain.Entity{}
		for _, c := range chats {
			if ent := entityFromChat(c); !ent.IsZero() {
				byPeer[ent.ID] = ent
			}
		}
		for _, u := range users {
			if ent := entityFromUser(u); !ent.IsZero() {
				byPeer[ent.ID] = ent
			}
		}
		for _, d := range dialogs {
			if dlg, ok := d.(*tg.Dialog); ok {
				if ent, found := byPeer[peerID(dlg.Peer)]; found {
					res = append(res, ent)
				}
			}
		}

		if last || len(dialogs) == 0 {
			return res, nil
		}
		next, ok := nextDialogsOffset(dialogs, msgs, byPeer)
		if !ok {
			return res, nil
		}
		next.Limit = dialogsPageSize
		req = next
	}
	return res, nil
}

// Search looks the query up in the public directory
func (s *Session) Search(ctx context.Context, query string, limit int) ([]domain.Entity, error) {
	found, err := s.api.ContactsSearch(ctx, &tg.ContactsSearchRequest{Q: query, Limit: limit})
	if err != nil {
		return nil, mapError(err)
	}
	res := make([]domain.Entity, 0, len(found.Chats))
	for _, c := range found.Chats {
		if ent := entityFromChat(c); !ent.IsZero() {
			res = append(res, ent)
		}
	}
	return res, nil
}

// History returns up to limit messages with id below cursor, newest first.
// Flood waits up to maxFloodWait are waited out and the request repeated.
func (s *Session) History(ctx context.Context, ent domain.Entity, cursor domain.Cursor, limit int) ([]domain.Message, error) {
	inputPeer, ok := ent.Peer.(tg.InputPeerClass)
	if !ok || inputPeer == nil {
		return nil, fmt.Errorf("entity %q has no input peer", ent.Title)
	}
	req := &tg.MessagesGetHistoryRequest{Peer: inputPeer, OffsetID: int(cursor), Limit: limit}

	for {
		resp, err := s.api.MessagesGetHistory(ctx, req)
		if err == nil {
			return messagesFrom(resp), nil
		}
		wait, isFlood := tgerr.AsFloodWait(err)
		if !isFlood || wait > s.maxFloodWait {
			return nil, mapError(err)
		}
		lgr.Printf("[WARN] flood wait %v for %q", wait, ent.Title)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close stops the client loop
func (s *Session) Close() error {
	if s.stop == nil {
		return nil
	}
	return s.stop()
}

// mapError marks errors for missing or inaccessible peers as crawler.ErrNotFound
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if tgerr.Is(err, "USERNAME_INVALID", "USERNAME_NOT_OCCUPIED", "INVITE_HASH_INVALID",
		"INVITE_HASH_EXPIRED", "INVITE_HASH_EMPTY", "CHANNEL_INVALID", "CHANNEL_PRIVATE", "PEER_ID_INVALID") {
		return fmt.Errorf("%w: %w", crawler.ErrNotFound, err)
	}
	if errors.Is(err, crawler.ErrNotFound) {
		return err
	}
	return fmt.Errorf("rpc: %w", err)
}

// normalizeHandle strips @ and t.me link prefixes
func normalizeHandle(handle string) string {
	h := strings.TrimSpace(handle)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	for _, prefix := range []string{"t.me/", "telegram.me/", "@"} {
		h = strings.TrimPrefix(h, prefix)
	}
	return strings.TrimSuffix(h, "/")
}
