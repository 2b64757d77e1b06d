package liveness

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/rps-arena/internal/engine"
	"github.com/DoyleJ11/rps-arena/internal/rules"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newMatch() engine.Match {
	return engine.NewMatch("m1", rules.ModeClassic, engine.Seat{ID: "p1", Name: "Ana"}, engine.Seat{ID: "p2", Name: "Ben"}, t0)
}

func TestPoll_StaleOpponentForfeits(t *testing.T) {
	mon := New(10 * time.Second)
	m := newMatch()

	_, m, err := mon.Poll(m, "p2", t0)
	require.NoError(t, err)
	_, m, err = mon.Poll(m, "p1", t0)
	require.NoError(t, err)

	// p2 goes quiet; p1 keeps polling.
	events, m, err := mon.Poll(m, "p1", t0.Add(11*time.Second))
	require.NoError(t, err)

	assert.True(t, engine.ContainsEvent(events, engine.EvtForfeited))
	assert.Equal(t, engine.StatusForfeit, m.Status)
	assert.Equal(t, "Ana", m.Winner)
	assert.Equal(t, "Ben", m.ForfeitBy)
}

func TestPoll_WithinTimeoutKeepsPlaying(t *testing.T) {
	mon := New(10 * time.Second)
	m := newMatch()

	_, m, err := mon.Poll(m, "p2", t0)
	require.NoError(t, err)
	events, m, err := mon.Poll(m, "p1", t0.Add(10*time.Second))
	require.NoError(t, err)

	assert.Empty(t, events)
	assert.Equal(t, engine.StatusPlaying, m.Status)
	require.NotNil(t, m.Players[0].LastSeenAt)
	assert.True(t, m.Players[0].LastSeenAt.Equal(t0.Add(10*time.Second)))
}

func TestPoll_OpponentNeverSeen(t *testing.T) {
	mon := New(10 * time.Second)

	events, m, err := mon.Poll(newMatch(), "p1", t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Empty(t, events)
	assert.Equal(t, engine.StatusPlaying, m.Status)
}

func TestPoll_IgnoresEndedMatches(t *testing.T) {
	mon := New(10 * time.Second)
	m := newMatch()
	seen := t0
	m.Players[1].LastSeenAt = &seen
	m.Status = engine.StatusFinished
	m.Winner = "Ben"

	_, m, err := mon.Poll(m, "p1", t0.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, engine.StatusFinished, m.Status)
	assert.Equal(t, "Ben", m.Winner)
	assert.Empty(t, m.ForfeitBy)
}

func TestPoll_DuringRoundComplete(t *testing.T) {
	mon := New(10 * time.Second)
	m := newMatch()
	seen := t0
	m.Players[0].LastSeenAt = &seen
	m.Status = engine.StatusRoundComplete

	_, m, err := mon.Poll(m, "p2", t0.Add(30*time.Second))
	require.NoError(t, err)

	assert.Equal(t, engine.StatusForfeit, m.Status)
	assert.Equal(t, "Ben", m.Winner)
	assert.Equal(t, "Ana", m.ForfeitBy)
}

func TestPoll_Stranger(t *testing.T) {
	_, _, err := New(0).Poll(newMatch(), "p9", t0)
	assert.True(t, errors.Is(err, engine.ErrNotInMatch))
}

func TestNew_DefaultsTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(0).Timeout)
}
