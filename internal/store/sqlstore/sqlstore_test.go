package sqlstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/DoyleJ11/rps-arena/internal/store"
	"github.com/DoyleJ11/rps-arena/internal/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "rps.sqlite3"))
	require.NoError(t, err)
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestOpenSQLite_CreatesTables(t *testing.T) {
	s := openTemp(t)
	defer s.Close()

	assert.True(t, s.DB.Migrator().HasTable("matchmaking_queue"))
	assert.True(t, s.DB.Migrator().HasTable("matches"))
	assert.Equal(t, "sqlite", s.DB.Dialector.Name())
}

func TestClose_Nil(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"not found", gorm.ErrRecordNotFound, store.ErrNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, store.ErrDuplicate},
		{"pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "matches_pkey"}), store.ErrDuplicate},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: matches.id (1555)"), store.ErrDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tc.in), tc.want)
		})
	}

	other := errors.New("connection reset")
	assert.Same(t, other, translate(other))
	assert.NoError(t, translate(nil))
}
