// Package queue pairs waiting players into matches. There is one pool across
// all modes; the oldest searching entry is always paired first.
package queue

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/rps-arena/internal/apperr"
	"github.com/DoyleJ11/rps-arena/internal/engine"
	"github.com/DoyleJ11/rps-arena/internal/rules"
	"github.com/DoyleJ11/rps-arena/internal/store"
)

const (
	DefaultTTL        = 60 * time.Second
	DefaultPlayerName = "Player"

	// idAttempts bounds regeneration when a new match id collides.
	idAttempts = 5
)

type JoinStatus string

const (
	StatusSearching JoinStatus = "searching"
	StatusMatched   JoinStatus = "matched"
)

type JoinResult struct {
	Status        JoinStatus
	MatchID       string
	QueuePosition int64
	PlayersOnline int64
}

type Config struct {
	TTL       time.Duration
	WinScore  int
	MaxRounds int
}

type Service struct {
	store store.Store
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
	pick  func() rules.Mode
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithModePicker replaces the uniform random choice of a new match's mode.
func WithModePicker(pick func() rules.Mode) Option {
	return func(s *Service) { s.pick = pick }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func New(st store.Store, cfg Config, log *zap.Logger, opts ...Option) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.WinScore <= 0 {
		cfg.WinScore = engine.DefaultWinScore
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = engine.DefaultMaxRounds
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		store: st,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		pick:  randomMode,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomMode() rules.Mode {
	return rules.Modes[rand.IntN(len(rules.Modes))]
}

// Join sweeps expired entries, enqueues or refreshes the caller and tries to
// pair them with the oldest other searching player.
func (s *Service) Join(ctx context.Context, playerID, playerName, mode string) (JoinResult, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return JoinResult{}, apperr.New(apperr.CodeValidation, "player_id is required")
	}

	requested := rules.ModeClassic
	if mode != "" {
		m, ok := rules.ParseMode(mode)
		if !ok {
			return JoinResult{}, apperr.New(apperr.CodeValidation, fmt.Sprintf("unknown mode %q", mode))
		}
		requested = m
	}

	name := strings.TrimSpace(playerName)
	if name == "" {
		name = DefaultPlayerName
	}

	now := s.now()
	purged, err := s.store.PurgeQueue(ctx, now.Add(-s.cfg.TTL))
	if err != nil {
		return JoinResult{}, apperr.Wrap(apperr.CodeInternal, "failed to sweep queue", err)
	}
	if purged > 0 {
		s.log.Debug("expired queue entries", zap.Int64("count", purged))
	}

	entry, err := s.store.EnqueueOrRefresh(ctx, store.QueueEntry{
		PlayerID:   playerID,
		PlayerName: name,
		Mode:       requested,
	}, now)
	if err != nil {
		return JoinResult{}, apperr.Wrap(apperr.CodeInternal, "failed to enqueue", err)
	}
	if entry.Status == store.QueueMatched {
		return JoinResult{Status: StatusMatched, MatchID: entry.MatchID}, nil
	}

	entry, err = s.pair(ctx, playerID, now)
	if err != nil {
		return JoinResult{}, err
	}
	if entry.Status == store.QueueMatched {
		return JoinResult{Status: StatusMatched, MatchID: entry.MatchID}, nil
	}

	position, err := s.store.CountSearching(ctx, entry.Mode, now)
	if err != nil {
		return JoinResult{}, apperr.Wrap(apperr.CodeInternal, "failed to count queue", err)
	}
	online, err := s.store.CountSearching(ctx, "", now)
	if err != nil {
		return JoinResult{}, apperr.Wrap(apperr.CodeInternal, "failed to count queue", err)
	}

	return JoinResult{
		Status:        StatusSearching,
		QueuePosition: position,
		PlayersOnline: online,
	}, nil
}

func (s *Service) pair(ctx context.Context, playerID string, now time.Time) (store.QueueEntry, error) {
	for attempt := 0; attempt < idAttempts; attempt++ {
		var created engine.Match
		build := func(partner, self store.QueueEntry) engine.Match {
			created = s.buildMatch(partner, self, now)
			return created
		}

		entry, err := s.store.Pair(ctx, playerID, build)
		if errors.Is(err, store.ErrDuplicate) {
			s.log.Warn("collision on match id, regenerating", zap.String("match_id", created.ID))
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			// Swept or left between enqueue and pairing.
			return store.QueueEntry{}, apperr.Wrap(apperr.CodeNotFound, "queue entry not found", err)
		}
		if err != nil {
			return store.QueueEntry{}, apperr.Wrap(apperr.CodeInternal, "failed to pair", err)
		}

		if created.ID != "" && entry.MatchID == created.ID {
			s.log.Info("match created",
				zap.String("match_id", created.ID),
				zap.String("mode", string(created.Mode)),
				zap.String("player1_id", created.Players[0].ID),
				zap.String("player2_id", created.Players[1].ID),
			)
		}
		return entry, nil
	}
	return store.QueueEntry{}, apperr.New(apperr.CodeInternal, "failed to allocate a match id")
}

func (s *Service) buildMatch(partner, self store.QueueEntry, now time.Time) engine.Match {
	m := engine.NewMatch(
		s.newID(),
		s.pick(),
		engine.Seat{ID: partner.PlayerID, Name: partner.PlayerName},
		engine.Seat{ID: self.PlayerID, Name: self.PlayerName},
		now,
	)
	m.WinScore = s.cfg.WinScore
	m.MaxRounds = s.cfg.MaxRounds
	return m
}

// Leave removes the player from the queue. Leaving twice is fine.
func (s *Service) Leave(ctx context.Context, playerID string) error {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return apperr.New(apperr.CodeValidation, "player_id is required")
	}
	if err := s.store.LeaveQueue(ctx, playerID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to leave queue", err)
	}
	return nil
}
