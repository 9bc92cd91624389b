package infra

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/migrations"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection, applies the embedded SQL migrations
// and then the idempotent schema patches.
//
// AutoMigrate is not used: the schema lives in migrations/ so CHECK
// constraints and decimal precision stay under explicit control.
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey,
// which the repositories map to Conflict.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations applies every embedded *.up.sql file in name order, then the
// schema patches. All statements are IF NOT EXISTS so re-running is a no-op.
func RunMigrations(db *gorm.DB) error {
	files, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: list: %w", err)
	}
	sort.Strings(files)
	for _, name := range files {
		body, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("migrations: read %s: %w", name, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}
		if err := db.Exec(string(body)).Error; err != nil {
			return fmt.Errorf("migrations: apply %s: %w", name, err)
		}
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches holds DDL added after the initial deployment. Each entry
// is guarded so it only runs once per database.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"partial index for the low-stock report", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_records_low') THEN
    CREATE INDEX idx_stock_records_low ON stock_records (product_id) WHERE quantity <= min_quantity;
  END IF;
END $$`},
		{"order status check constraint", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_b2b_orders_status') THEN
    ALTER TABLE b2b_orders ADD CONSTRAINT chk_b2b_orders_status
      CHECK (status IN ('pending','confirmed','processing','shipped','delivered','cancelled'));
  END IF;
END $$`},
		{"pending companies index for the approval queue", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_companies_pending') THEN
    CREATE INDEX idx_companies_pending ON companies (created_at DESC) WHERE status = 'pending';
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
