// Package storetest is the behaviour every store.Store implementation must
// show. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/rps-arena/internal/engine"
	"github.com/DoyleJ11/rps-arena/internal/rules"
	"github.com/DoyleJ11/rps-arena/internal/store"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"EnqueueNew", testEnqueueNew},
		{"EnqueueRefreshMovesToBack", testEnqueueRefresh},
		{"EnqueueKeepsMatchedEntry", testEnqueueKeepsMatched},
		{"PairWithoutPartner", testPairAlone},
		{"PairOldestFirst", testPairOldestFirst},
		{"PairUnknownPlayer", testPairUnknown},
		{"LeaveQueue", testLeave},
		{"CountSearching", testCount},
		{"PurgeQueue", testPurge},
		{"GetMatchMissing", testGetMissing},
		{"UpdateMatch", testUpdate},
		{"UpdateMatchRollsBackOnError", testUpdateError},
		{"UpdateMatchSerializes", testUpdateConcurrent},
		{"PairConcurrent", testPairConcurrent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func entry(id string, mode rules.Mode) store.QueueEntry {
	return store.QueueEntry{PlayerID: id, PlayerName: "name-" + id, Mode: mode}
}

func builder() store.BuildMatch {
	var n atomic.Int64
	return func(partner, self store.QueueEntry) engine.Match {
		return engine.NewMatch(
			fmt.Sprintf("match-%d", n.Add(1)),
			partner.Mode,
			engine.Seat{ID: partner.PlayerID, Name: partner.PlayerName},
			engine.Seat{ID: self.PlayerID, Name: self.PlayerName},
			base,
		)
	}
}

func enqueue(t *testing.T, s store.Store, id string, mode rules.Mode, at time.Time) store.QueueEntry {
	t.Helper()
	e, err := s.EnqueueOrRefresh(context.Background(), entry(id, mode), at)
	require.NoError(t, err)
	return e
}

func testEnqueueNew(t *testing.T, s store.Store) {
	e := enqueue(t, s, "p1", rules.ModeClassic, base)

	assert.Equal(t, "p1", e.PlayerID)
	assert.Equal(t, "name-p1", e.PlayerName)
	assert.Equal(t, rules.ModeClassic, e.Mode)
	assert.Equal(t, store.QueueSearching, e.Status)
	assert.Empty(t, e.MatchID)
	assert.True(t, e.CreatedAt.Equal(base))
}

func testEnqueueRefresh(t *testing.T, s store.Store) {
	ctx := context.Background()
	enqueue(t, s, "p1", rules.ModeClassic, base)
	enqueue(t, s, "p2", rules.ModeClassic, base.Add(time.Second))

	again := enqueue(t, s, "p1", rules.ModeClassic, base.Add(2*time.Second))
	assert.True(t, again.CreatedAt.Equal(base.Add(2*time.Second)))

	enqueue(t, s, "p3", rules.ModeClassic, base.Add(3*time.Second))

	// p2 is now the oldest.
	got, err := s.Pair(ctx, "p3", builder())
	require.NoError(t, err)
	require.Equal(t, store.QueueMatched, got.Status)

	m, err := s.GetMatch(ctx, got.MatchID)
	require.NoError(t, err)
	assert.Equal(t, "p2", m.Players[0].ID)
	assert.Equal(t, "p3", m.Players[1].ID)
}

func testEnqueueKeepsMatched(t *testing.T, s store.Store) {
	ctx := context.Background()
	enqueue(t, s, "p1", rules.ModeClassic, base)
	enqueue(t, s, "p2", rules.ModeClassic, base.Add(time.Second))
	paired, err := s.Pair(ctx, "p2", builder())
	require.NoError(t, err)

	e := enqueue(t, s, "p1", rules.ModeFull, base.Add(5*time.Second))
	assert.Equal(t, store.QueueMatched, e.Status)
	assert.Equal(t, paired.MatchID, e.MatchID)
	assert.True(t, e.CreatedAt.Equal(base))
}

func testPairAlone(t *testing.T, s store.Store) {
	enqueue(t, s, "p1", rules.ModeClassic, base)

	got, err := s.Pair(context.Background(), "p1", builder())
	require.NoError(t, err)
	assert.Equal(t, store.QueueSearching, got.Status)
	assert.Empty(t, got.MatchID)
}

func testPairOldestFirst(t *testing.T, s store.Store) {
	ctx := context.Background()
	enqueue(t, s, "a", rules.ModeExtended, base)
	enqueue(t, s, "b", rules.ModeClassic, base.Add(time.Second))
	enqueue(t, s, "c", rules.ModeFull, base.Add(2*time.Second))

	got, err := s.Pair(ctx, "c", builder())
	require.NoError(t, err)
	require.Equal(t, store.QueueMatched, got.Status)
	require.NotEmpty(t, got.MatchID)

	m, err := s.GetMatch(ctx, got.MatchID)
	require.NoError(t, err)
	assert.Equal(t, "a", m.Players[0].ID)
	assert.Equal(t, "name-a", m.Players[0].Name)
	assert.Equal(t, "c", m.Players[1].ID)
	assert.Equal(t, rules.ModeExtended, m.Mode)
	assert.Equal(t, engine.StatusPlaying, m.Status)
	assert.Equal(t, 1, m.CurrentRound)
	assert.Nil(t, m.LastRound)
	assert.True(t, m.CreatedAt.Equal(base))

	// The partner sees the same match on its next pairing attempt.
	partner, err := s.Pair(ctx, "a", builder())
	require.NoError(t, err)
	assert.Equal(t, store.QueueMatched, partner.Status)
	assert.Equal(t, got.MatchID, partner.MatchID)

	// b is untouched.
	n, err := s.CountSearching(ctx, "", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testPairUnknown(t *testing.T, s store.Store) {
	_, err := s.Pair(context.Background(), "ghost", builder())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testLeave(t *testing.T, s store.Store) {
	ctx := context.Background()
	enqueue(t, s, "p1", rules.ModeClassic, base)

	require.NoError(t, s.LeaveQueue(ctx, "p1"))
	require.NoError(t, s.LeaveQueue(ctx, "p1"))

	_, err := s.Pair(ctx, "p1", builder())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testCount(t *testing.T, s store.Store) {
	ctx := context.Background()
	enqueue(t, s, "c1", rules.ModeClassic, base)
	enqueue(t, s, "c2", rules.ModeClassic, base.Add(time.Second))
	enqueue(t, s, "f1", rules.ModeFull, base.Add(2*time.Second))

	cases := []struct {
		name     string
		mode     rules.Mode
		notAfter time.Time
		want     int64
	}{
		{"classic up to first", rules.ModeClassic, base, 1},
		{"classic inclusive", rules.ModeClassic, base.Add(time.Second), 2},
		{"full", rules.ModeFull, base.Add(time.Hour), 1},
		{"extended none", rules.ModeExtended, base.Add(time.Hour), 0},
		{"all modes", "", base.Add(time.Hour), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := s.CountSearching(ctx, tc.mode, tc.notAfter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func testPurge(t *testing.T, s store.Store) {
	ctx := context.Background()
	enqueue(t, s, "old", rules.ModeClassic, base)
	enqueue(t, s, "edge", rules.ModeClassic, base.Add(time.Minute))
	enqueue(t, s, "new", rules.ModeClassic, base.Add(2*time.Minute))

	n, err := s.PurgeQueue(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Pair(ctx, "old", builder())
	assert.ErrorIs(t, err, store.ErrNotFound)

	left, err := s.CountSearching(ctx, "", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), left)
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.GetMatch(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.UpdateMatch(context.Background(), "nope", func(*engine.Match) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func pairedMatch(t *testing.T, s store.Store) string {
	t.Helper()
	enqueue(t, s, "p1", rules.ModeClassic, base)
	enqueue(t, s, "p2", rules.ModeClassic, base.Add(time.Second))
	got, err := s.Pair(context.Background(), "p2", builder())
	require.NoError(t, err)
	require.Equal(t, store.QueueMatched, got.Status)
	return got.MatchID
}

func testUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	id := pairedMatch(t, s)
	seen := base.Add(3 * time.Second)

	out, err := s.UpdateMatch(ctx, id, func(m *engine.Match) error {
		m.Players[0].Choice = rules.Rock
		m.Players[1].Score = 2
		m.Players[1].LastSeenAt = &seen
		m.Status = engine.StatusRoundComplete
		m.LastRound = &engine.RoundResult{
			Player1Choice: rules.Rock,
			Player2Choice: rules.Paper,
			RoundWinner:   "name-p2",
			Reason:        "Paper covers rock!",
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusRoundComplete, out.Status)

	got, err := s.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rules.Rock, got.Players[0].Choice)
	assert.Equal(t, 2, got.Players[1].Score)
	require.NotNil(t, got.Players[1].LastSeenAt)
	assert.True(t, got.Players[1].LastSeenAt.Equal(seen))
	assert.Nil(t, got.Players[0].LastSeenAt)
	require.NotNil(t, got.LastRound)
	assert.Equal(t, "name-p2", got.LastRound.RoundWinner)
	assert.Equal(t, rules.Paper, got.LastRound.Player2Choice)
	assert.True(t, got.CreatedAt.Equal(base))
}

func testUpdateError(t *testing.T, s store.Store) {
	ctx := context.Background()
	id := pairedMatch(t, s)
	boom := errors.New("boom")

	_, err := s.UpdateMatch(ctx, id, func(m *engine.Match) error {
		m.Players[0].Score = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Players[0].Score)
}

func testUpdateConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	id := pairedMatch(t, s)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateMatch(ctx, id, func(m *engine.Match) error {
				m.Players[0].Score++
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workers, got.Players[0].Score)
}

func testPairConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	const players = 10
	ids := make([]string, players)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%02d", i)
		enqueue(t, s, ids[i], rules.ModeClassic, base.Add(time.Duration(i)*time.Second))
	}

	build := builder()
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.Pair(ctx, id, build)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	matchOf := make(map[string]string)
	searching := 0
	for _, id := range ids {
		e, err := s.Pair(ctx, id, build)
		require.NoError(t, err)
		if e.Status == store.QueueSearching {
			searching++
			continue
		}
		matchOf[id] = e.MatchID
	}
	assert.LessOrEqual(t, searching, 1)

	for id, matchID := range matchOf {
		m, err := s.GetMatch(ctx, matchID)
		require.NoError(t, err)
		assert.NotEqual(t, m.Players[0].ID, m.Players[1].ID)
		assert.GreaterOrEqual(t, m.SlotIndex(id), 0, "%s is not in the match its entry points at", id)
	}
}
