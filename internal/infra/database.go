package infra

import (
	"fmt"

	"github.com/vgl-spec/soil-sub000/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and sizes the pool.
// The returned handle is the request-scoped pool every repository shares;
// connections are acquired per statement/transaction and released by
// database/sql.
func NewDatabase(dsn string, maxOpen, maxIdle int) (*gorm.DB, error) {
	db, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Open wraps gorm.Open with the settings shared by every dialector: silent
// SQL logging and driver errors translated into gorm.ErrDuplicatedKey /
// gorm.ErrForeignKeyViolated.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

// RunMigrations creates / updates all tables from the models, then applies
// the Postgres-only constraints GORM tags cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Subcategory{},
		&model.PredefinedItem{},
		&model.Item{},
		&model.ItemHistory{},
		&model.ActionLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements. Each one is guarded by an
// existence check so re-running on an already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"check items.quantity non-negative", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_items_quantity_non_negative') THEN
    ALTER TABLE items ADD CONSTRAINT chk_items_quantity_non_negative CHECK (quantity >= 0);
  END IF;
END $$`},
		{"check item_history.change_type", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_item_history_change_type') THEN
    ALTER TABLE item_history ADD CONSTRAINT chk_item_history_change_type
      CHECK (change_type IN ('add', 'increase', 'reduce'));
  END IF;
END $$`},
		{"check predefined_items.unit", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_predefined_items_unit') THEN
    ALTER TABLE predefined_items ADD CONSTRAINT chk_predefined_items_unit
      CHECK (unit IN ('kg', 'pcs'));
  END IF;
END $$`},
		{"check users.role", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_users_role') THEN
    ALTER TABLE users ADD CONSTRAINT chk_users_role
      CHECK (role IN ('supervisor', 'operator', 'user'));
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
