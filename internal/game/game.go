// Package game drives matches from client polls. Every call is one
// engine command applied inside a store update, so the two players of a
// match never overwrite each other.
package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/rps-arena/internal/apperr"
	"github.com/DoyleJ11/rps-arena/internal/engine"
	"github.com/DoyleJ11/rps-arena/internal/liveness"
	"github.com/DoyleJ11/rps-arena/internal/rules"
	"github.com/DoyleJ11/rps-arena/internal/store"
)

// View is a match as seen by one of its players.
type View struct {
	MatchID        string
	Status         engine.Status
	Mode           rules.Mode
	CurrentRound   int
	MaxRounds      int
	Player1Name    string
	Player2Name    string
	Player1Score   int
	Player2Score   int
	IsPlayer1      bool
	YourName       string
	OpponentName   string
	YourScore      int
	OpponentScore  int
	YouChose       bool
	OpponentChose  bool
	Winner         string
	ForfeitBy      string
	RoundStartTime time.Time
	RoundResult    *engine.RoundResult // set once the current round is resolved
}

type ChoiceResult struct {
	WaitingForOpponent bool
}

type ReadyResult struct {
	BothReady bool
}

type ForfeitResult struct {
	AlreadyEnded bool
	ForfeitBy    string
	Winner       string
}

type Service struct {
	store   store.Store
	monitor liveness.Monitor
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, monitor liveness.Monitor, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{store: st, monitor: monitor, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetState records the caller's poll and forfeits an opponent who has gone
// quiet for longer than the disconnect timeout.
func (s *Service) GetState(ctx context.Context, matchID, playerID string) (View, error) {
	if err := required(matchID, playerID); err != nil {
		return View{}, err
	}

	var events []engine.Event
	m, err := s.store.UpdateMatch(ctx, matchID, func(m *engine.Match) error {
		evts, next, err := s.monitor.Poll(*m, playerID, s.now())
		if err != nil {
			return err
		}
		events = evts
		*m = next
		return nil
	})
	if err != nil {
		return View{}, s.fail("get state", matchID, err)
	}

	s.logEvents(matchID, events)
	return viewFor(m, playerID), nil
}

func (s *Service) SubmitChoice(ctx context.Context, matchID, playerID, choice string) (ChoiceResult, error) {
	if err := required(matchID, playerID); err != nil {
		return ChoiceResult{}, err
	}
	choice = strings.ToLower(strings.TrimSpace(choice))
	if choice == "" {
		return ChoiceResult{}, apperr.New(apperr.CodeValidation, "choice is required")
	}

	m, events, err := s.apply(ctx, matchID, engine.Command{
		Type:     engine.CmdSubmitChoice,
		PlayerID: playerID,
		Choice:   rules.Element(choice),
	})
	if err != nil {
		return ChoiceResult{}, s.fail("submit choice", matchID, err)
	}

	s.logEvents(matchID, events)
	return ChoiceResult{WaitingForOpponent: m.WaitingForOpponent()}, nil
}

func (s *Service) MarkReady(ctx context.Context, matchID, playerID string) (ReadyResult, error) {
	if err := required(matchID, playerID); err != nil {
		return ReadyResult{}, err
	}

	_, events, err := s.apply(ctx, matchID, engine.Command{Type: engine.CmdMarkReady, PlayerID: playerID})
	if err != nil {
		return ReadyResult{}, s.fail("mark ready", matchID, err)
	}

	s.logEvents(matchID, events)
	return ReadyResult{BothReady: engine.ContainsEvent(events, engine.EvtRoundAdvanced)}, nil
}

// Forfeit ends the match with targetID (the caller when empty) as the
// forfeiting side. A match that already ended is reported, not changed.
func (s *Service) Forfeit(ctx context.Context, matchID, playerID, targetID string) (ForfeitResult, error) {
	if err := required(matchID, playerID); err != nil {
		return ForfeitResult{}, err
	}

	m, events, err := s.apply(ctx, matchID, engine.Command{
		Type:     engine.CmdForfeit,
		PlayerID: playerID,
		TargetID: strings.TrimSpace(targetID),
	})
	if errors.Is(err, engine.ErrMatchAlreadyEnded) {
		return ForfeitResult{AlreadyEnded: true}, nil
	}
	if err != nil {
		return ForfeitResult{}, s.fail("forfeit", matchID, err)
	}

	s.logEvents(matchID, events)
	return ForfeitResult{ForfeitBy: m.ForfeitBy, Winner: m.Winner}, nil
}

func (s *Service) apply(ctx context.Context, matchID string, cmd engine.Command) (engine.Match, []engine.Event, error) {
	cmd.At = s.now()

	var events []engine.Event
	m, err := s.store.UpdateMatch(ctx, matchID, func(m *engine.Match) error {
		evts, next, err := engine.Apply(*m, cmd)
		if err != nil {
			return err
		}
		events = evts
		*m = next
		return nil
	})
	return m, events, err
}

func (s *Service) fail(op, matchID string, err error) error {
	appErr := classify(err)
	if appErr.Code == apperr.CodeInternal {
		s.log.Error(op+" failed", zap.String("match_id", matchID), zap.Error(err))
	}
	return appErr
}

func (s *Service) logEvents(matchID string, events []engine.Event) {
	for _, e := range events {
		switch e.Type {
		case engine.EvtRoundResolved:
			s.log.Info("round resolved", zap.String("match_id", matchID), zap.Int("round", e.Round), zap.String("winner", e.Winner))
		case engine.EvtMatchFinished:
			s.log.Info("match finished", zap.String("match_id", matchID), zap.String("winner", e.Winner))
		case engine.EvtForfeited:
			s.log.Info("match forfeited", zap.String("match_id", matchID), zap.String("player_id", e.PlayerID), zap.String("winner", e.Winner))
		case engine.EvtRoundAdvanced:
			s.log.Debug("round advanced", zap.String("match_id", matchID), zap.Int("round", e.Round))
		}
	}
}

func classify(err error) *apperr.Error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.Wrap(apperr.CodeNotFound, "game not found", err)
	case errors.Is(err, engine.ErrNotInMatch):
		return apperr.Wrap(apperr.CodeNotFound, "player is not in this game", err)
	case errors.Is(err, engine.ErrInvalidChoice):
		return apperr.Wrap(apperr.CodeInvalidChoice, "invalid choice", err)
	case errors.Is(err, engine.ErrMatchNotActive), errors.Is(err, engine.ErrMatchAlreadyEnded):
		return apperr.Wrap(apperr.CodeStateConflict, "game is not active", err)
	default:
		return apperr.From(err)
	}
}

func required(matchID, playerID string) error {
	if strings.TrimSpace(matchID) == "" {
		return apperr.New(apperr.CodeValidation, "game_id is required")
	}
	if strings.TrimSpace(playerID) == "" {
		return apperr.New(apperr.CodeValidation, "player_id is required")
	}
	return nil
}

func viewFor(m engine.Match, playerID string) View {
	me := m.SlotIndex(playerID)
	other := 1 - me
	p1, p2 := m.Players[0], m.Players[1]

	v := View{
		MatchID:        m.ID,
		Status:         m.Status,
		Mode:           m.Mode,
		CurrentRound:   m.CurrentRound,
		MaxRounds:      m.MaxRounds,
		Player1Name:    p1.Name,
		Player2Name:    p2.Name,
		Player1Score:   p1.Score,
		Player2Score:   p2.Score,
		IsPlayer1:      me == 0,
		YourName:       m.Players[me].Name,
		OpponentName:   m.Players[other].Name,
		YourScore:      m.Players[me].Score,
		OpponentScore:  m.Players[other].Score,
		YouChose:       m.Players[me].Choice != "",
		OpponentChose:  m.Players[other].Choice != "",
		Winner:         m.Winner,
		ForfeitBy:      m.ForfeitBy,
		RoundStartTime: m.RoundStartTime,
	}
	if m.Status == engine.StatusRoundComplete || m.Status == engine.StatusFinished {
		v.RoundResult = m.LastRound
	}
	return v
}
