// Package liveness infers disconnects from poll timestamps. There is no
// timer: a player who stops polling is only noticed when the opponent's
// next poll arrives.
package liveness

import (
	"time"

	"github.com/DoyleJ11/rps-arena/internal/engine"
)

const DefaultTimeout = 10 * time.Second

type Monitor struct {
	Timeout time.Duration
}

func New(timeout time.Duration) Monitor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Monitor{Timeout: timeout}
}

// Poll records the caller's heartbeat and, while the match is in play,
// forfeits the opponent if their last poll is older than the timeout.
// An opponent who has never polled is not judged.
func (mon Monitor) Poll(m engine.Match, playerID string, now time.Time) ([]engine.Event, engine.Match, error) {
	_, m, err := engine.Apply(m, engine.Command{Type: engine.CmdHeartbeat, PlayerID: playerID, At: now})
	if err != nil {
		return nil, m, err
	}

	other := 1 - m.SlotIndex(playerID)
	if !m.Status.Active() || !mon.Stale(m.Players[other], now) {
		return nil, m, nil
	}

	return engine.Apply(m, engine.Command{
		Type:     engine.CmdForfeit,
		PlayerID: playerID,
		TargetID: m.Players[other].ID,
		At:       now,
	})
}

// Stale reports whether slot has been silent for longer than the timeout.
func (mon Monitor) Stale(slot engine.Slot, now time.Time) bool {
	return slot.LastSeenAt != nil && now.Sub(*slot.LastSeenAt) > mon.Timeout
}
