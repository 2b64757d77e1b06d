// Package sqlstore keeps queue entries and matches in a SQL database through
// gorm: postgres in production, sqlite for local runs and tests.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/multierr"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/rps-arena/internal/engine"
	"github.com/DoyleJ11/rps-arena/internal/rules"
	"github.com/DoyleJ11/rps-arena/internal/store"
)

const pgUniqueViolation = "23505"

// pairAttempts bounds how often Pair retries after losing a partner to a
// concurrent join.
const pairAttempts = 3

var errLostRace = errors.New("partner claimed concurrently")

type Store struct {
	DB *gorm.DB
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func OpenPostgres(dsn string) (*Store, error) {
	return open(postgres.Open(dsn), func(db *sql.DB) {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	})
}

func OpenSQLite(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}
	// One connection serializes writers; sqlite has no row locks to offer.
	return open(sqlite.Open(path+"?_pragma=busy_timeout(5000)"), func(db *sql.DB) {
		db.SetMaxOpenConns(1)
	})
}

func open(dialector gorm.Dialector, tune func(*sql.DB)) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	tune(sqlDB)

	if err := db.AutoMigrate(&queueRow{}, &matchRow{}); err != nil {
		return nil, multierr.Append(fmt.Errorf("auto migrate: %w", err), sqlDB.Close())
	}
	return &Store{DB: db, db: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) PurgeQueue(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&queueRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("purging queue: %w", translate(res.Error))
	}
	return res.RowsAffected, nil
}

func (s *Store) EnqueueOrRefresh(ctx context.Context, entry store.QueueEntry, now time.Time) (store.QueueEntry, error) {
	row := queueRow{
		PlayerID:   entry.PlayerID,
		PlayerName: entry.PlayerName,
		Mode:       string(entry.Mode),
		Status:     string(store.QueueSearching),
		CreatedAt:  now.UTC(),
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}

		// Already queued: only a searching entry gets its place refreshed.
		if err := tx.Model(&queueRow{}).
			Where("player_id = ? AND status = ?", entry.PlayerID, store.QueueSearching).
			Update("created_at", now.UTC()).Error; err != nil {
			return err
		}
		return tx.Take(&row, "player_id = ?", entry.PlayerID).Error
	})
	if err != nil {
		return store.QueueEntry{}, fmt.Errorf("enqueue %s: %w", entry.PlayerID, translate(err))
	}
	return row.toEntry(), nil
}

func (s *Store) Pair(ctx context.Context, playerID string, build store.BuildMatch) (store.QueueEntry, error) {
	for attempt := 0; attempt < pairAttempts; attempt++ {
		entry, err := s.pairOnce(ctx, playerID, build)
		if errors.Is(err, errLostRace) {
			continue
		}
		return entry, err
	}

	var row queueRow
	if err := s.DB.WithContext(ctx).Take(&row, "player_id = ?", playerID).Error; err != nil {
		return store.QueueEntry{}, translate(err)
	}
	return row.toEntry(), nil
}

func (s *Store) pairOnce(ctx context.Context, playerID string, build store.BuildMatch) (store.QueueEntry, error) {
	var out store.QueueEntry

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var self queueRow
		if err := s.forUpdate(tx, "").Take(&self, "player_id = ?", playerID).Error; err != nil {
			return translate(err)
		}
		out = self.toEntry()
		if out.Status != store.QueueSearching {
			return nil
		}

		var partner queueRow
		err := s.forUpdate(tx, "SKIP LOCKED").
			Where("status = ? AND player_id <> ?", store.QueueSearching, playerID).
			Order("created_at").
			Take(&partner).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		m := build(partner.toEntry(), self.toEntry())
		row := matchRowFrom(m)
		if err := tx.Create(&row).Error; err != nil {
			return translate(err)
		}

		// Compare-and-set on status so a row claimed by another transaction
		// is never matched twice.
		for _, id := range []string{partner.PlayerID, playerID} {
			res := tx.Model(&queueRow{}).
				Where("player_id = ? AND status = ?", id, store.QueueSearching).
				Updates(map[string]any{"status": string(store.QueueMatched), "match_id": m.ID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return errLostRace
			}
		}

		out.Status = store.QueueMatched
		out.MatchID = m.ID
		return nil
	})
	if err != nil {
		return store.QueueEntry{}, err
	}
	return out, nil
}

func (s *Store) LeaveQueue(ctx context.Context, playerID string) error {
	if err := s.DB.WithContext(ctx).Where("player_id = ?", playerID).Delete(&queueRow{}).Error; err != nil {
		return fmt.Errorf("leaving queue: %w", translate(err))
	}
	return nil
}

func (s *Store) CountSearching(ctx context.Context, mode rules.Mode, notAfter time.Time) (int64, error) {
	q := s.DB.WithContext(ctx).Model(&queueRow{}).
		Where("status = ? AND created_at <= ?", store.QueueSearching, notAfter.UTC())
	if mode != "" {
		q = q.Where("mode = ?", string(mode))
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting queue: %w", translate(err))
	}
	return n, nil
}

func (s *Store) GetMatch(ctx context.Context, id string) (engine.Match, error) {
	var row matchRow
	if err := s.DB.WithContext(ctx).Take(&row, "id = ?", id).Error; err != nil {
		return engine.Match{}, translate(err)
	}
	return row.toMatch(), nil
}

func (s *Store) UpdateMatch(ctx context.Context, id string, fn func(*engine.Match) error) (engine.Match, error) {
	var out engine.Match

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row matchRow
		if err := s.forUpdate(tx, "").Take(&row, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		m := row.toMatch()
		if err := fn(&m); err != nil {
			return err
		}

		next := matchRowFrom(m)
		next.CreatedAt = row.CreatedAt
		if err := tx.Save(&next).Error; err != nil {
			return translate(err)
		}
		out = m
		return nil
	})
	if err != nil {
		return engine.Match{}, err
	}
	return out, nil
}

// forUpdate adds a row lock on dialects that have one.
func (s *Store) forUpdate(tx *gorm.DB, options string) *gorm.DB {
	if s.DB.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: options})
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
