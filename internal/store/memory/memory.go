// Package memory is an in-process store. The queue is one pool behind one
// mutex; each match has its own mutex so updates to different matches never
// wait on each other.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DoyleJ11/rps-arena/internal/engine"
	"github.com/DoyleJ11/rps-arena/internal/rules"
	"github.com/DoyleJ11/rps-arena/internal/store"
)

type queued struct {
	entry store.QueueEntry
	seq   uint64 // breaks CreatedAt ties in arrival order
}

type cell struct {
	mu    sync.Mutex
	match engine.Match
}

type Store struct {
	qmu   sync.Mutex
	queue map[string]*queued
	seq   uint64

	mmu     sync.RWMutex
	matches map[string]*cell
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		queue:   make(map[string]*queued),
		matches: make(map[string]*cell),
	}
}

func (s *Store) PurgeQueue(_ context.Context, cutoff time.Time) (int64, error) {
	s.qmu.Lock()
	defer s.qmu.Unlock()

	var n int64
	for id, q := range s.queue {
		if q.entry.CreatedAt.Before(cutoff) {
			delete(s.queue, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) EnqueueOrRefresh(_ context.Context, entry store.QueueEntry, now time.Time) (store.QueueEntry, error) {
	s.qmu.Lock()
	defer s.qmu.Unlock()

	if q, ok := s.queue[entry.PlayerID]; ok {
		if q.entry.Status == store.QueueSearching {
			q.entry.CreatedAt = now
			q.seq = s.nextSeq()
		}
		return q.entry, nil
	}

	entry.Status = store.QueueSearching
	entry.MatchID = ""
	entry.CreatedAt = now
	s.queue[entry.PlayerID] = &queued{entry: entry, seq: s.nextSeq()}
	return entry, nil
}

func (s *Store) Pair(_ context.Context, playerID string, build store.BuildMatch) (store.QueueEntry, error) {
	s.qmu.Lock()
	defer s.qmu.Unlock()

	self, ok := s.queue[playerID]
	if !ok {
		return store.QueueEntry{}, store.ErrNotFound
	}
	if self.entry.Status != store.QueueSearching {
		return self.entry, nil
	}

	var partner *queued
	for id, q := range s.queue {
		if id == playerID || q.entry.Status != store.QueueSearching {
			continue
		}
		if partner == nil || older(q, partner) {
			partner = q
		}
	}
	if partner == nil {
		return self.entry, nil
	}

	m := build(partner.entry, self.entry)

	s.mmu.Lock()
	if _, exists := s.matches[m.ID]; exists {
		s.mmu.Unlock()
		return store.QueueEntry{}, store.ErrDuplicate
	}
	s.matches[m.ID] = &cell{match: m.Clone()}
	s.mmu.Unlock()

	for _, q := range []*queued{partner, self} {
		q.entry.Status = store.QueueMatched
		q.entry.MatchID = m.ID
	}
	return self.entry, nil
}

func (s *Store) LeaveQueue(_ context.Context, playerID string) error {
	s.qmu.Lock()
	defer s.qmu.Unlock()

	delete(s.queue, playerID)
	return nil
}

func (s *Store) CountSearching(_ context.Context, mode rules.Mode, notAfter time.Time) (int64, error) {
	s.qmu.Lock()
	defer s.qmu.Unlock()

	var n int64
	for _, q := range s.queue {
		if q.entry.Status != store.QueueSearching || q.entry.CreatedAt.After(notAfter) {
			continue
		}
		if mode != "" && q.entry.Mode != mode {
			continue
		}
		n++
	}
	return n, nil
}

func (s *Store) GetMatch(_ context.Context, id string) (engine.Match, error) {
	c, ok := s.cell(id)
	if !ok {
		return engine.Match{}, store.ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.match.Clone(), nil
}

func (s *Store) UpdateMatch(_ context.Context, id string, fn func(*engine.Match) error) (engine.Match, error) {
	c, ok := s.cell(id)
	if !ok {
		return engine.Match{}, store.ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.match.Clone()
	if err := fn(&m); err != nil {
		return engine.Match{}, err
	}
	c.match = m.Clone()
	return m, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) cell(id string) (*cell, bool) {
	s.mmu.RLock()
	defer s.mmu.RUnlock()
	c, ok := s.matches[id]
	return c, ok
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func older(a, b *queued) bool {
	if !a.entry.CreatedAt.Equal(b.entry.CreatedAt) {
		return a.entry.CreatedAt.Before(b.entry.CreatedAt)
	}
	return a.seq < b.seq
}
