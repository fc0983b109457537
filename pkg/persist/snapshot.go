package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	rerrors "github.com/vango-dev/rover/internal/errors"
	"github.com/vango-dev/rover/pkg/reactive"
)

// ErrNotFound is returned when no snapshot exists under a name.
var ErrNotFound = rerrors.New("R041")

// Snapshot is a saved set of named values.
type Snapshot struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Cells     map[string]reactive.Value
}

// Save stores cells as a new snapshot called name. Values that cannot be
// encoded (opaque references) fail the whole save with
// reactive.ErrNotSerializable.
func (s *Store) Save(ctx context.Context, name string, cells map[string]reactive.Value) (Snapshot, error) {
	encoded := make(map[string]string, len(cells))
	for cell, v := range cells {
		data, err := json.Marshal(v)
		if err != nil {
			return Snapshot{}, fmt.Errorf("cell %q: %w", cell, err)
		}
		encoded[cell] = string(data)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Snapshot{}, storeErr("generate snapshot id", err)
	}
	snap := Snapshot{
		ID:        id.String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Cells:     cells,
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (id, name, created_at) VALUES (?, ?, ?)`,
			snap.ID, snap.Name, snap.CreatedAt.UnixNano(),
		); err != nil {
			return storeErr("insert snapshot", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO snapshot_cells (snapshot_id, cell, value) VALUES (?, ?, ?)`)
		if err != nil {
			return storeErr("prepare cell insert", err)
		}
		defer stmt.Close()

		for _, cell := range sortedKeys(encoded) {
			if _, err := stmt.ExecContext(ctx, snap.ID, cell, encoded[cell]); err != nil {
				return storeErr("insert cell", err)
			}
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Load returns the most recent snapshot called name.
func (s *Store) Load(ctx context.Context, name string) (Snapshot, error) {
	snap := Snapshot{Name: name}
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM snapshots WHERE name = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		name,
	).Scan(&snap.ID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, rerrors.New("R041").WithDetail(name)
	}
	if err != nil {
		return Snapshot{}, storeErr("query snapshot", err)
	}
	snap.CreatedAt = time.Unix(0, created).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT cell, value FROM snapshot_cells WHERE snapshot_id = ?`, snap.ID)
	if err != nil {
		return Snapshot{}, storeErr("query cells", err)
	}
	defer rows.Close()

	snap.Cells = make(map[string]reactive.Value)
	for rows.Next() {
		var cell, data string
		if err := rows.Scan(&cell, &data); err != nil {
			return Snapshot{}, storeErr("scan cell", err)
		}
		var v reactive.Value
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return Snapshot{}, storeErr(fmt.Sprintf("decode cell %q", cell), err)
		}
		snap.Cells[cell] = v
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, storeErr("iterate cells", err)
	}
	return snap, nil
}

// List returns the snapshots called name, newest first, without cells.
func (s *Store) List(ctx context.Context, name string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at FROM snapshots WHERE name = ?
		 ORDER BY created_at DESC, id DESC`, name)
	if err != nil {
		return nil, storeErr("list snapshots", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap := Snapshot{Name: name}
		var created int64
		if err := rows.Scan(&snap.ID, &created); err != nil {
			return nil, storeErr("scan snapshot", err)
		}
		snap.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate snapshots", err)
	}
	return out, nil
}

// Prune deletes all but the newest keep snapshots called name and returns
// how many were removed.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE name = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE name = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		)`, name, name, keep)
	if err != nil {
		return 0, storeErr("prune snapshots", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("prune snapshots", err)
	}
	return n, nil
}

// Capture reads the current values of cells without tracking.
func Capture(rt *reactive.Runtime, cells map[string]reactive.ValueID) (map[string]reactive.Value, error) {
	out := make(map[string]reactive.Value, len(cells))
	for name, id := range cells {
		v, err := rt.Peek(id)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// SaveRuntime captures cells from rt and saves them as name.
func (s *Store) SaveRuntime(ctx context.Context, rt *reactive.Runtime, name string, cells map[string]reactive.ValueID) (Snapshot, error) {
	values, err := Capture(rt, cells)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Save(ctx, name, values)
}

// Restore loads the latest snapshot called name and writes its values into
// the matching cells in one batch, so effects rerun once. Cells missing
// from the snapshot keep their values.
func (s *Store) Restore(ctx context.Context, rt *reactive.Runtime, name string, cells map[string]reactive.ValueID) (Snapshot, error) {
	snap, err := s.Load(ctx, name)
	if err != nil {
		return Snapshot{}, err
	}

	var writeErr error
	rt.BeginBatch()
	for _, cell := range sortedKeys(cells) {
		v, ok := snap.Cells[cell]
		if !ok {
			continue
		}
		if err := rt.WriteValue(cells[cell], v); err != nil && writeErr == nil {
			writeErr = fmt.Errorf("cell %q: %w", cell, err)
		}
	}
	if err := rt.EndBatch(); err != nil && writeErr == nil {
		writeErr = err
	}
	return snap, writeErr
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
