// Package store defines the durable keyed store behind the matchmaking
// queue and the matches. Implementations live in the memory and sqlstore
// subpackages and must pass storetest.Run.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/rps-arena/internal/engine"
	"github.com/DoyleJ11/rps-arena/internal/rules"
)

var ErrNotFound = errors.New("not found")
var ErrDuplicate = errors.New("duplicate key")

type QueueStatus string

const (
	QueueSearching QueueStatus = "searching"
	QueueMatched   QueueStatus = "matched"
	QueueExpired   QueueStatus = "expired"
)

// QueueEntry is a player waiting for (or just handed) an opponent.
// PlayerID is unique across the queue.
type QueueEntry struct {
	PlayerID   string
	PlayerName string
	Mode       rules.Mode
	Status     QueueStatus
	MatchID    string
	CreatedAt  time.Time
}

// BuildMatch creates the match for a pairing. partner is the older entry
// and takes slot one.
type BuildMatch func(partner, self QueueEntry) engine.Match

type Store interface {
	// PurgeQueue deletes every entry created before cutoff.
	PurgeQueue(ctx context.Context, cutoff time.Time) (int64, error)

	// EnqueueOrRefresh inserts entry as searching, or, when the player is
	// already queued and still searching, moves its CreatedAt to now.
	// A matched entry is returned untouched.
	EnqueueOrRefresh(ctx context.Context, entry QueueEntry, now time.Time) (QueueEntry, error)

	// Pair atomically claims the oldest other searching entry for playerID,
	// stores the match built for the pair and marks both entries matched.
	// The caller's entry is returned as it stands afterwards: matched if a
	// partner was found (or someone else already paired it), searching if not.
	Pair(ctx context.Context, playerID string, build BuildMatch) (QueueEntry, error)

	// LeaveQueue deletes the player's entry; a missing entry is not an error.
	LeaveQueue(ctx context.Context, playerID string) error

	// CountSearching counts searching entries created at or before notAfter.
	// An empty mode counts all modes.
	CountSearching(ctx context.Context, mode rules.Mode, notAfter time.Time) (int64, error)

	GetMatch(ctx context.Context, id string) (engine.Match, error)

	// UpdateMatch runs fn on the current match under a lock held for that
	// match only and stores the result. If fn fails nothing is written and
	// fn's error is returned as is.
	UpdateMatch(ctx context.Context, id string, fn func(*engine.Match) error) (engine.Match, error)

	Close() error
}
