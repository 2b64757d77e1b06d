package engine

import (
	"time"

	"github.com/DoyleJ11/rps-arena/internal/rules"
)

const (
	DefaultWinScore  = 3
	DefaultMaxRounds = 5
)

// Seat is one side of a pairing, in the order the queue paired them.
type Seat struct {
	ID   string
	Name string
}

func NewMatch(id string, mode rules.Mode, first, second Seat, now time.Time) Match {
	return Match{
		ID:   id,
		Mode: mode,
		Players: [2]Slot{
			{ID: first.ID, Name: first.Name},
			{ID: second.ID, Name: second.Name},
		},
		CurrentRound:   1,
		MaxRounds:      DefaultMaxRounds,
		WinScore:       DefaultWinScore,
		Status:         StatusPlaying,
		RoundStartTime: now,
		CreatedAt:      now,
	}
}

// Active reports whether choices and readiness can still change.
func (s Status) Active() bool {
	return s == StatusPlaying || s == StatusRoundComplete
}

func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusForfeit
}

// SlotIndex returns 0 or 1 for a participant and -1 for anyone else.
func (m Match) SlotIndex(playerID string) int {
	if playerID == "" {
		return -1
	}
	for i, p := range m.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// WaitingForOpponent is true until both slots have chosen this round.
func (m Match) WaitingForOpponent() bool {
	return m.Players[0].Choice == "" || m.Players[1].Choice == ""
}

// Clone copies the pointer fields so the result shares no memory with m.
func (m Match) Clone() Match {
	c := m
	for i, p := range m.Players {
		if p.LastSeenAt != nil {
			t := *p.LastSeenAt
			c.Players[i].LastSeenAt = &t
		}
	}
	if m.LastRound != nil {
		r := *m.LastRound
		c.LastRound = &r
	}
	return c
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
