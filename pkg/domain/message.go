package domain

import "time"

// TimeLayout is the layout used for message timestamps in exported records
const TimeLayout = "2006-01-02 15:04:05"

// Message is a single message fetched from a source.
// ID is the service-assigned sequence id; (Source, ID) is the identity key.
type Message struct {
	ID       int64
	Source   string
	Text     string
	PostedAt time.Time
	Empty    bool // id placeholder of a deleted message, no text or date
}

// Cursor is the id of the oldest message seen so far in a fetch pass
type Cursor int64

// LatestCursor means "start from the most recent message"
const LatestCursor Cursor = 0

// Window is the inclusive time range of messages to retrieve
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, both ends inclusive
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Before reports whether t is earlier than the window start
func (w Window) Before(t time.Time) bool {
	return t.Before(w.Start)
}

// CursorState is the persisted per-source resume state
type CursorState struct {
	Source        string
	NewestID      int64     // highest message id persisted with no gap above it
	OldestID      int64     // lowest message id reached by the tail pass
	Complete      bool      // tail reached CompleteSince
	CompleteSince time.Time // window start the tail was completed for
	UpdatedAt     time.Time
}
