package engine

import (
	"errors"
	"time"

	"github.com/DoyleJ11/rps-arena/internal/rules"
)

var ErrNotInMatch = errors.New("player is not in this match")
var ErrMatchNotActive = errors.New("match is not active")
var ErrInvalidChoice = errors.New("invalid choice")
var ErrMatchAlreadyEnded = errors.New("match already ended")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Status string

const (
	StatusWaiting       Status = "waiting"
	StatusPlaying       Status = "playing"
	StatusRoundComplete Status = "round_complete"
	StatusFinished      Status = "finished"
	StatusForfeit       Status = "forfeit"
)

type Slot struct {
	ID         string
	Name       string
	Choice     rules.Element // empty until chosen this round
	Score      int
	Ready      bool
	LastSeenAt *time.Time
}

type RoundResult struct {
	Player1Choice rules.Element `json:"player1_choice"`
	Player1Emoji  string        `json:"player1_emoji"`
	Player2Choice rules.Element `json:"player2_choice"`
	Player2Emoji  string        `json:"player2_emoji"`
	RoundWinner   string        `json:"round_winner,omitempty"` // empty on a draw
	Reason        string        `json:"reason"`
}

type Match struct {
	ID             string
	Mode           rules.Mode
	Players        [2]Slot
	CurrentRound   int
	MaxRounds      int
	WinScore       int
	Status         Status
	Winner         string
	ForfeitBy      string
	LastRound      *RoundResult
	RoundStartTime time.Time
	CreatedAt      time.Time
}

type CommandType string

const (
	CmdSubmitChoice CommandType = "SubmitChoice"
	CmdMarkReady    CommandType = "MarkReady"
	CmdForfeit      CommandType = "Forfeit"
	CmdHeartbeat    CommandType = "Heartbeat"
)

/*
	CmdSubmitChoice -> EvtChoiceMade -> EvtRoundResolved -> EvtMatchFinished (when a score reaches WinScore)
	CmdMarkReady    -> EvtPlayerReady -> EvtRoundAdvanced (once both slots are ready)
	CmdForfeit      -> EvtForfeited
	CmdHeartbeat    -> no events, only LastSeenAt moves
*/

type Command struct {
	Type     CommandType
	PlayerID string
	TargetID string // CmdForfeit: who forfeits, defaults to PlayerID
	Choice   rules.Element
	At       time.Time
}

type EventType string

const (
	EvtChoiceMade    EventType = "ChoiceMade"
	EvtRoundResolved EventType = "RoundResolved"
	EvtMatchFinished EventType = "MatchFinished"
	EvtPlayerReady   EventType = "PlayerReady"
	EvtRoundAdvanced EventType = "RoundAdvanced"
	EvtForfeited     EventType = "Forfeited"
)

type Event struct {
	Type     EventType
	PlayerID string
	Round    int
	Winner   string
}

func Apply(m Match, cmd Command) ([]Event, Match, error) {
	self := m.SlotIndex(cmd.PlayerID)
	if self < 0 {
		return nil, m, ErrNotInMatch
	}

	next := m.Clone()

	switch cmd.Type {
	case CmdSubmitChoice:
		if !m.Status.Active() {
			return nil, m, ErrMatchNotActive
		}
		if !rules.Allowed(m.Mode, cmd.Choice) {
			return nil, m, ErrInvalidChoice
		}
		// Round already resolved; a late or duplicate submission changes nothing.
		if m.Status == StatusRoundComplete {
			return nil, m, nil
		}

		next.Players[self].Choice = cmd.Choice
		events := []Event{{Type: EvtChoiceMade, PlayerID: cmd.PlayerID, Round: m.CurrentRound}}

		if next.Players[0].Choice == "" || next.Players[1].Choice == "" {
			return events, next, nil
		}
		return append(events, resolveRound(&next)...), next, nil

	case CmdMarkReady:
		if !m.Status.Active() {
			return nil, m, ErrMatchNotActive
		}
		// Nothing to acknowledge until the round has a result.
		if m.Status != StatusRoundComplete {
			return nil, m, nil
		}

		next.Players[self].Ready = true
		events := []Event{{Type: EvtPlayerReady, PlayerID: cmd.PlayerID, Round: m.CurrentRound}}

		if !next.Players[0].Ready || !next.Players[1].Ready {
			return events, next, nil
		}

		next.CurrentRound++
		for i := range next.Players {
			next.Players[i].Choice = ""
			next.Players[i].Ready = false
		}
		next.LastRound = nil
		next.Status = StatusPlaying
		next.RoundStartTime = cmd.At
		return append(events, Event{Type: EvtRoundAdvanced, Round: next.CurrentRound}), next, nil

	case CmdForfeit:
		if m.Status.Terminal() {
			return nil, m, ErrMatchAlreadyEnded
		}

		target := self
		if cmd.TargetID != "" {
			target = m.SlotIndex(cmd.TargetID)
			if target < 0 {
				return nil, m, ErrNotInMatch
			}
		}

		next.Status = StatusForfeit
		next.Winner = m.Players[1-target].Name
		next.ForfeitBy = m.Players[target].Name
		return []Event{{Type: EvtForfeited, PlayerID: m.Players[target].ID, Round: m.CurrentRound, Winner: next.Winner}}, next, nil

	case CmdHeartbeat:
		at := cmd.At
		next.Players[self].LastSeenAt = &at
		return nil, next, nil

	default:
		return nil, m, ErrUnsupportedCommand
	}
}

// resolveRound scores a round whose two choices are both set, always in
// slot order (player 1 against player 2).
func resolveRound(m *Match) []Event {
	p1, p2 := &m.Players[0], &m.Players[1]

	var roundWinner string
	j := rules.Judge(p1.Choice, p2.Choice)
	switch j.Outcome {
	case rules.Win:
		p1.Score++
		roundWinner = p1.Name
	case rules.Lose:
		p2.Score++
		roundWinner = p2.Name
	}

	m.LastRound = &RoundResult{
		Player1Choice: p1.Choice,
		Player1Emoji:  rules.Emoji(p1.Choice),
		Player2Choice: p2.Choice,
		Player2Emoji:  rules.Emoji(p2.Choice),
		RoundWinner:   roundWinner,
		Reason:        j.Reason,
	}
	events := []Event{{Type: EvtRoundResolved, Round: m.CurrentRound, Winner: roundWinner}}

	switch {
	case p1.Score >= m.WinScore:
		m.Status = StatusFinished
		m.Winner = p1.Name
	case p2.Score >= m.WinScore:
		m.Status = StatusFinished
		m.Winner = p2.Name
	default:
		m.Status = StatusRoundComplete
		return events
	}
	return append(events, Event{Type: EvtMatchFinished, Round: m.CurrentRound, Winner: m.Winner})
}
