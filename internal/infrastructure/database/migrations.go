package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Migration is one versioned schema change. Files are named
// YYYYMMDD_HHMMSS_name.up.sql with an optional matching .down.sql.
type Migration struct {
	Version string // YYYYMMDD_HHMMSS
	Name    string
	Up      string
	Down    string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   string
	AppliedAt time.Time
}

// MigrationStatus compares schema_migrations with a migration source.
type MigrationStatus struct {
	Applied []AppliedMigration
	Pending []Migration
}

// Migrate applies every migration in src that schema_migrations does not
// list, oldest first, each in its own transaction. A failing migration is
// rolled back and stops the run; the ones before it stay committed, so
// calling Migrate again after a fix continues where it stopped.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - src: Filesystem holding the .sql files at its root, usually
//     migrations.FS; nil means no migrations
//
// Returns:
//   - error: If the source cannot be read or a migration fails
func (db *DB) Migrate(ctx context.Context, src fs.FS) error {
	status, err := db.Status(ctx, src)
	if err != nil {
		return err
	}

	for _, m := range status.Pending {
		err := db.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
				m.Version, time.Now().UTC().Format(time.RFC3339))
			return err
		})
		if err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// MigrateDown reverts the latest applied migration with its down SQL from
// src. It does nothing when no migration has been applied.
func (db *DB) MigrateDown(ctx context.Context, src fs.FS) error {
	status, err := db.Status(ctx, src)
	if err != nil {
		return err
	}
	if len(status.Applied) == 0 {
		return nil
	}
	latest := status.Applied[len(status.Applied)-1].Version

	all, err := loadMigrations(src)
	if err != nil {
		return err
	}
	i := sort.Search(len(all), func(i int) bool { return all[i].Version >= latest })
	if i == len(all) || all[i].Version != latest {
		return fmt.Errorf("migration %s not found in source", latest)
	}
	m := all[i]
	if m.Down == "" {
		return fmt.Errorf("migration %s (%s) has no down SQL", m.Version, m.Name)
	}

	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, m.Down); err != nil {
			return fmt.Errorf("reverting migration %s: %w", m.Version, err)
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", m.Version)
		return err
	})
}

// Status lists applied migrations and the migrations in src still to run.
func (db *DB) Status(ctx context.Context, src fs.FS) (MigrationStatus, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return MigrationStatus{}, fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return MigrationStatus{}, err
	}
	all, err := loadMigrations(src)
	if err != nil {
		return MigrationStatus{}, err
	}

	done := make(map[string]bool, len(applied))
	for _, a := range applied {
		done[a.Version] = true
	}
	status := MigrationStatus{Applied: applied}
	for _, m := range all {
		if !done[m.Version] {
			status.Pending = append(status.Pending, m)
		}
	}
	return status, nil
}

// SchemaVersion returns the latest applied migration version, or "" when
// none has been applied. Call it after Migrate or Status.
func (db *DB) SchemaVersion(ctx context.Context) (string, error) {
	var v sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return "", fmt.Errorf("reading schema version: %w", err)
	}
	return v.String, nil
}

func (db *DB) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := db.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var a AppliedMigration
		var at string
		if err := rows.Scan(&a.Version, &at); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		a.AppliedAt, _ = time.Parse(time.RFC3339, at) //nolint:errcheck // written by Migrate
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migrations: %w", err)
	}
	return out, nil
}

func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// loadMigrations reads the migration files at the root of src, sorted by
// version. Files that do not follow the naming scheme are skipped. A down
// file without an up file is an error.
func loadMigrations(src fs.FS) ([]Migration, error) {
	if src == nil {
		return nil, nil
	}
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	byVersion := make(map[string]*Migration)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f, ok := parseMigrationFile(e.Name())
		if !ok {
			continue
		}
		data, err := fs.ReadFile(src, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}

		m := byVersion[f.version]
		if m == nil {
			m = &Migration{Version: f.version}
			byVersion[f.version] = m
		}
		if f.up {
			m.Name = f.name
			m.Up = string(data)
		} else {
			m.Down = string(data)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %s has a down file but no up file", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

type migrationFile struct {
	version string
	name    string
	up      bool
}

// parseMigrationFile splits "20260301_120000_snapshots.up.sql" into its
// version, name and direction.
func parseMigrationFile(filename string) (migrationFile, bool) {
	base, ok := strings.CutSuffix(filename, ".sql")
	if !ok {
		return migrationFile{}, false
	}

	var f migrationFile
	if b, ok := strings.CutSuffix(base, ".up"); ok {
		base, f.up = b, true
	} else if b, ok := strings.CutSuffix(base, ".down"); ok {
		base = b
	} else {
		return migrationFile{}, false
	}

	date, rest, ok := strings.Cut(base, "_")
	if !ok || len(date) != 8 {
		return migrationFile{}, false
	}
	clock, name, _ := strings.Cut(rest, "_")
	if len(clock) != 6 {
		return migrationFile{}, false
	}
	f.version = date + "_" + clock
	f.name = name
	if f.name == "" {
		f.name = f.version
	}
	return f, true
}
