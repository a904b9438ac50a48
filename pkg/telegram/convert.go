package telegram

import (
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/umputun/chanscope/pkg/domain"
)

// entityFromChat converts channels and basic groups; forbidden and empty chats are zero entities
func entityFromChat(c tg.ChatClass) domain.Entity {
	switch ch := c.(type) {
	case *tg.Channel:
		return domain.Entity{ID: ch.ID, Title: ch.Title, Handle: ch.Username,
			Peer: &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}}
	case *tg.Chat:
		return domain.Entity{ID: ch.ID, Title: ch.Title, Peer: &tg.InputPeerChat{ChatID: ch.ID}}
	}
	return domain.Entity{}
}

// entityFromUser converts a user to an entity titled with the user's full name
func entityFromUser(u tg.UserClass) domain.Entity {
	usr, ok := u.(*tg.User)
	if !ok {
		return domain.Entity{}
	}
	title := strings.TrimSpace(usr.FirstName + " " + usr.LastName)
	if title == "" {
		title = usr.Username
	}
	return domain.Entity{ID: usr.ID, Title: title, Handle: usr.Username,
		Peer: &tg.InputPeerUser{UserID: usr.ID, AccessHash: usr.AccessHash}}
}

// entityFromInputPeer wraps a resolved username
func entityFromInputPeer(p tg.InputPeerClass, handle string) domain.Entity {
	ent := domain.Entity{Title: handle, Handle: handle, Peer: p}
	switch ip := p.(type) {
	case *tg.InputPeerChannel:
		ent.ID = ip.ChannelID
	case *tg.InputPeerChat:
		ent.ID = ip.ChatID
	case *tg.InputPeerUser:
		ent.ID = ip.UserID
	}
	return ent
}

func peerID(p tg.PeerClass) int64 {
	switch pp := p.(type) {
	case *tg.PeerChannel:
		return pp.ChannelID
	case *tg.PeerChat:
		return pp.ChatID
	case *tg.PeerUser:
		return pp.UserID
	}
	return 0
}

// chatsFromUpdates returns chats carried by an updates response
func chatsFromUpdates(u tg.UpdatesClass) []tg.ChatClass {
	switch upd := u.(type) {
	case *tg.Updates:
		return upd.Chats
	case *tg.UpdatesCombined:
		return upd.Chats
	}
	return nil
}

// messagesFrom converts a history response. Service messages keep their id and date with
// empty text, empty messages keep only their id so paging can move past them.
func messagesFrom(resp tg.MessagesMessagesClass) []domain.Message {
	var raw []tg.MessageClass
	switch r := resp.(type) {
	case *tg.MessagesMessages:
		raw = r.Messages
	case *tg.MessagesMessagesSlice:
		raw = r.Messages
	case *tg.MessagesChannelMessages:
		raw = r.Messages
	default:
		return []domain.Message{}
	}

	res := make([]domain.Message, 0, len(raw))
	for _, m := range raw {
		switch msg := m.(type) {
		case *tg.Message:
			res = append(res, domain.Message{ID: int64(msg.ID), Text: msg.Message, PostedAt: time.Unix(int64(msg.Date), 0)})
		case *tg.MessageService:
			res = append(res, domain.Message{ID: int64(msg.ID), PostedAt: time.Unix(int64(msg.Date), 0)})
		case *tg.MessageEmpty:
			res = append(res, domain.Message{ID: int64(msg.ID), Empty: true})
		}
	}
	return res
}

// nextDialogsOffset builds the request for the page after dialogs, keyed by the last dialog
// and the date of its top message
func nextDialogsOffset(dialogs []tg.DialogClass, msgs []tg.MessageClass, byPeer map[int64]domain.Entity) (*tg.MessagesGetDialogsRequest, bool) {
	var lastDlg *tg.Dialog
	for i := len(dialogs) - 1; i >= 0; i-- {
		if d, ok := dialogs[i].(*tg.Dialog); ok {
			lastDlg = d
			break
		}
	}
	if lastDlg == nil {
		return nil, false
	}

	ent, ok := byPeer[peerID(lastDlg.Peer)]
	if !ok {
		return nil, false
	}
	inputPeer, ok := ent.Peer.(tg.InputPeerClass)
	if !ok {
		return nil, false
	}

	req := &tg.MessagesGetDialogsRequest{OffsetPeer: inputPeer, OffsetID: lastDlg.TopMessage}
	for _, m := range msgs {
		if msg, ok := m.(*tg.Message); ok && msg.ID == lastDlg.TopMessage && peerID(msg.PeerID) == peerID(lastDlg.Peer) {
			req.OffsetDate = msg.Date
			break
		}
	}
	return req, true
}
