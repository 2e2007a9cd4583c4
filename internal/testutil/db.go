// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/vgl-spec/soil-sub000/internal/infra"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory SQLite database with foreign keys enforced
// and the full schema migrated. The pool is pinned to one connection so the
// in-memory database lives as long as the handle.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := infra.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, infra.RunMigrations(db))
	return db
}
