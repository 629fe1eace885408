package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// timeLayout is the text format of created_at and updated_at.
const timeLayout = time.RFC3339

// SQLiteRepository implements Repository using SQLite. The schema comes
// from the migrations package.
type SQLiteRepository struct {
	db     *sql.DB
	device string
	now    func() time.Time
}

// NewSQLiteRepository creates a repository. device labels every snapshot
// it saves.
func NewSQLiteRepository(db *sql.DB, device string) *SQLiteRepository {
	return &SQLiteRepository{db: db, device: device, now: time.Now}
}

// Save captures the registry under its lock and stores the values under
// name, replacing any snapshot of that name. Notes of a replaced snapshot
// are kept.
func (s *SQLiteRepository) Save(ctx context.Context, name string, r *xgparam.Registry) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var values []Value
	_ = r.Do(func() error { //nolint:errcheck // closure never fails
		values = Capture(r)
		return nil
	})

	if err := s.store(ctx, name, values); err != nil {
		return nil, err
	}
	return s.Get(ctx, name)
}

func (s *SQLiteRepository) store(ctx context.Context, name string, values []Value) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving snapshot %q: %w", name, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := s.now().UTC().Format(timeLayout)
	const upsert = `INSERT INTO snapshots (name, device, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET device = excluded.device, updated_at = excluded.updated_at
		RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, upsert, name, s.device, now, now).Scan(&id); err != nil {
		return fmt.Errorf("saving snapshot %q: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_values WHERE snapshot_id = ?", id); err != nil {
		return fmt.Errorf("clearing snapshot %q: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_values
		(snapshot_id, high, mid, low, etype, value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snapshot values: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		a := v.Address
		if _, err := stmt.ExecContext(ctx, id, a.High, a.Mid, a.Low, v.EffectType, v.Value); err != nil {
			return fmt.Errorf("storing %s in snapshot %q: %w", a, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot %q: %w", name, err)
	}
	return nil
}

// Load reads the snapshot and applies it to the registry under its lock.
// Every observer is notified, so attached bridges send the loaded state
// to the device.
func (s *SQLiteRepository) Load(ctx context.Context, name string, r *xgparam.Registry) (LoadResult, error) {
	values, err := s.Values(ctx, name)
	if err != nil {
		return LoadResult{}, err
	}

	var res LoadResult
	_ = r.Do(func() error { //nolint:errcheck // closure never fails
		res = Apply(r, values, nil)
		return nil
	})
	return res, nil
}

// Values returns the stored rows of a snapshot in address order.
func (s *SQLiteRepository) Values(ctx context.Context, name string) ([]Value, error) {
	id, err := s.id(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT high, mid, low, etype, value
		FROM snapshot_values WHERE snapshot_id = ?
		ORDER BY high, mid, low, etype`, id)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot %q: %w", name, err)
	}
	defer rows.Close()

	var out []Value
	for rows.Next() {
		var high, mid, low uint8
		var v Value
		if err := rows.Scan(&high, &mid, &low, &v.EffectType, &v.Value); err != nil {
			return nil, fmt.Errorf("scanning snapshot %q: %w", name, err)
		}
		v.Address = xgparam.Address(high, mid, low)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot %q: %w", name, err)
	}
	return out, nil
}

func (s *SQLiteRepository) id(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM snapshots WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("looking up snapshot %q: %w", name, err)
	}
	return id, nil
}

const selectSnapshot = `SELECT s.id, s.name, s.device, s.notes, s.created_at, s.updated_at,
		(SELECT COUNT(*) FROM snapshot_values v WHERE v.snapshot_id = s.id)
	FROM snapshots s`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var created, updated string
	if err := row.Scan(&snap.ID, &snap.Name, &snap.Device, &snap.Notes, &created, &updated, &snap.Values); err != nil {
		return nil, err
	}
	snap.CreatedAt = parseTime(created)
	snap.UpdatedAt = parseTime(updated)
	return &snap, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Get returns one snapshot's metadata.
func (s *SQLiteRepository) Get(ctx context.Context, name string) (*Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, selectSnapshot+" WHERE s.name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", name, err)
	}
	return snap, nil
}

// List returns every snapshot, most recently updated first.
func (s *SQLiteRepository) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, selectSnapshot+" ORDER BY s.updated_at DESC, s.name")
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return out, nil
}

// Annotate replaces a snapshot's notes.
func (s *SQLiteRepository) Annotate(ctx context.Context, name, notes string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE snapshots SET notes = ?, updated_at = ? WHERE name = ?",
		notes, s.now().UTC().Format(timeLayout), name)
	if err != nil {
		return fmt.Errorf("annotating snapshot %q: %w", name, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

// Delete removes a snapshot and its values.
func (s *SQLiteRepository) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting snapshot %q: %w", name, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}
