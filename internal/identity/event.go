package identity

import (
	"context"
	"time"
)

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// SessionEvent reports a change of the signed-in user.
type SessionEvent struct {
	Kind   EventKind `json:"kind"`
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

// Bus fans session events out to subscribers.
//
// Subscribe returns a channel owned by the caller and a cancel func. The
// channel is closed after cancel is called or ctx is done, whichever comes
// first. Slow subscribers drop events rather than block publishers.
type Bus interface {
	Publish(ctx context.Context, event SessionEvent) error
	Subscribe(ctx context.Context) (<-chan SessionEvent, func())
	Close() error
}

const subscriberBuffer = 16
