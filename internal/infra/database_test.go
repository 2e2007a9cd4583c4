package infra

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/model"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, RunMigrations(db))
	require.NoError(t, RunMigrations(db))

	for _, m := range []interface{}{
		&model.User{}, &model.Category{}, &model.Subcategory{}, &model.PredefinedItem{},
		&model.Item{}, &model.ItemHistory{}, &model.ActionLog{},
	} {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}

func TestOpen_TranslatesDuplicateKey(t *testing.T) {
	db, err := Open(sqlite.Open("file::memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, RunMigrations(db))

	require.NoError(t, db.Create(&model.Category{Name: "vegetables", Label: "Vegetables"}).Error)
	err = db.Create(&model.Category{Name: "vegetables", Label: "Again"}).Error
	require.Error(t, err)
	assert.NotErrorIs(t, err, gorm.ErrRecordNotFound)
}
