package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pageza/foodgram/backend/internal/logging"
	"gorm.io/gorm"
)

const (
	createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (name VARCHAR(255) PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP)`
	countMigration        = `SELECT COUNT(*) FROM schema_migrations WHERE name = $1`
	recordMigration       = `INSERT INTO schema_migrations (name) VALUES ($1)`
	lastMigration         = `SELECT name FROM schema_migrations ORDER BY name DESC LIMIT 1`
	forgetMigration       = `DELETE FROM schema_migrations WHERE name = $1`
	rollbackSuffix        = "_rollback.sql"
)

// Migrator applies the numbered .sql files of a directory in name order.
// A file NAME.sql may have a companion NAME_rollback.sql used by Down.
type Migrator struct {
	db  *sql.DB
	dir string
}

func NewMigrator(db *sql.DB, dir string) *Migrator {
	return &Migrator{db: db, dir: dir}
}

// files lists migration files in apply order.
func (m *Migrator) files() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, rollbackSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Up applies every migration not yet recorded and returns the names applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	names, err := m.files()
	if err != nil {
		return nil, err
	}

	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []string
	for _, name := range names {
		var count int
		if err := m.db.QueryRowContext(ctx, countMigration, name).Scan(&count); err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			logging.Debug().Str("migration", name).Msg("already applied")
			continue
		}

		content, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			return applied, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		if err := m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, recordMigration, name); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", name, err)
			}
			return nil
		}); err != nil {
			return applied, err
		}

		logging.Info().Str("migration", name).Msg("applied migration")
		applied = append(applied, name)
	}

	return applied, nil
}

// Down rolls back the most recent migration. It returns an empty name when
// nothing is applied.
func (m *Migrator) Down(ctx context.Context) (string, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return "", fmt.Errorf("failed to create migrations table: %w", err)
	}

	var name string
	err := m.db.QueryRowContext(ctx, lastMigration).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find last migration: %w", err)
	}

	rollback := strings.TrimSuffix(name, ".sql") + rollbackSuffix
	content, err := os.ReadFile(filepath.Join(m.dir, rollback))
	if err != nil {
		return "", fmt.Errorf("failed to read rollback file %s: %w", rollback, err)
	}

	if err := m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute rollback %s: %w", rollback, err)
		}
		if _, err := tx.ExecContext(ctx, forgetMigration, name); err != nil {
			return fmt.Errorf("failed to unrecord migration %s: %w", name, err)
		}
		return nil
	}); err != nil {
		return "", err
	}

	logging.Info().Str("migration", name).Msg("rolled back migration")
	return name, nil
}

func (m *Migrator) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// RunMigrations brings the schema up to date. SQLite (tests, local runs)
// uses gorm auto-migration, everything else the SQL files in migrationsDir.
func RunMigrations(ctx context.Context, db *gorm.DB, migrationsDir string) error {
	if db.Dialector.Name() == "sqlite" {
		logging.Info().Msg("using gorm auto-migration for sqlite")
		return AutoMigrate(db)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	_, err = NewMigrator(sqlDB, migrationsDir).Up(ctx)
	return err
}
