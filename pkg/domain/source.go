package domain

// Source is a named origin of messages declared in configuration
type Source struct {
	Name   string // unique display name or public handle
	Invite string // optional invite token, empty if none
}

// Entity is a resolved, fetchable peer on the remote service.
// Peer carries the service-specific handle and is opaque outside the adapter.
type Entity struct {
	ID     int64
	Title  string
	Handle string
	Peer   any
}

// IsZero reports whether the entity is unset
func (e Entity) IsZero() bool {
	return e.ID == 0 && e.Peer == nil
}

// Strategy identifies a resolution strategy
type Strategy string

// resolution strategies in the order they are attempted
const (
	StrategyHandle Strategy = "handle"
	StrategyInvite Strategy = "invite"
	StrategyDialog Strategy = "dialog"
	StrategySearch Strategy = "search"
)
