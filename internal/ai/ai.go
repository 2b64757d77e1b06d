// Package ai is the single-player opponent. It only ever sees the player's
// past moves and the elements allowed this round.
package ai

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DoyleJ11/rps-arena/internal/rules"
)

type Difficulty string

const (
	Normal  Difficulty = "normal"
	Hard    Difficulty = "hard"
	Veteran Difficulty = "veteran"
)

const (
	hardAccuracy    = 0.4
	hardMinHistory  = 3
	hardWindow      = 10
	vetAccuracy     = 0.7
	vetMinHistory   = 5
	vetWindow       = 15
	patternLength   = 5
	historyCap      = 100
	historyKeepLast = 50
)

func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Normal, Hard, Veteran:
		return d, true
	}
	return "", false
}

// Rand is the randomness an Opponent draws on. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type Opponent struct {
	Difficulty Difficulty
	rng        Rand
}

func NewOpponent(d Difficulty, rng Rand) Opponent {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return Opponent{Difficulty: d, rng: rng}
}

// ChooseMove picks from available given the player's moves so far, oldest
// first. available must not be empty.
func (o Opponent) ChooseMove(history, available []rules.Element) rules.Element {
	switch o.Difficulty {
	case Hard:
		if len(history) < hardMinHistory || o.rng.Float64() > hardAccuracy {
			return o.random(available)
		}
		return o.counter(mostCommon(tail(history, hardWindow)), available)

	case Veteran:
		if len(history) < vetMinHistory || o.rng.Float64() > vetAccuracy {
			return o.random(available)
		}
		if predicted, ok := predictNext(history, available); ok {
			return o.counter(predicted, available)
		}
		return o.counter(mostCommon(tail(history, vetWindow)), available)

	default:
		return o.random(available)
	}
}

func (o Opponent) random(available []rules.Element) rules.Element {
	return available[o.rng.IntN(len(available))]
}

// counter returns the first available element that beats move.
func (o Opponent) counter(move rules.Element, available []rules.Element) rules.Element {
	for _, e := range available {
		if rules.Defeats(e, move) {
			return e
		}
	}
	return o.random(available)
}

// predictNext finds every earlier occurrence of the player's last
// patternLength-1 moves and returns what most often came next.
func predictNext(history, available []rules.Element) (rules.Element, bool) {
	if len(history) < patternLength {
		return "", false
	}
	pattern := history[len(history)-patternLength+1:]

	var next []rules.Element
	for i := 0; i+len(pattern) < len(history); i++ {
		if !slices.Equal(history[i:i+len(pattern)], pattern) {
			continue
		}
		move := history[i+len(pattern)]
		if slices.Contains(available, move) {
			next = append(next, move)
		}
	}
	if len(next) == 0 {
		return "", false
	}
	return mostCommon(next), true
}

// mostCommon breaks ties in favour of the move seen first.
func mostCommon(moves []rules.Element) rules.Element {
	counts := make(map[rules.Element]int, len(moves))
	var best rules.Element
	for _, m := range moves {
		counts[m]++
	}
	for _, m := range moves {
		if counts[m] > counts[best] {
			best = m
		}
	}
	return best
}

func tail(moves []rules.Element, n int) []rules.Element {
	if len(moves) <= n {
		return moves
	}
	return moves[len(moves)-n:]
}

// Session is one player's running game against an Opponent.
type Session struct {
	mu       sync.Mutex
	opponent Opponent
	history  []rules.Element
}

func NewSession(o Opponent) *Session {
	return &Session{opponent: o}
}

func (s *Session) Difficulty() Difficulty { return s.opponent.Difficulty }

// Choose picks the opponent's move for this round from what it has seen so far.
func (s *Session) Choose(available []rules.Element) rules.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opponent.ChooseMove(s.history, available)
}

// Record appends the player's move, dropping the oldest half once the
// history grows past its cap.
func (s *Session) Record(move rules.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, move)
	if len(s.history) > historyCap {
		s.history = append([]rules.Element(nil), s.history[len(s.history)-historyKeepLast:]...)
	}
}

func (s *Session) History() []rules.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}
