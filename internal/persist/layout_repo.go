package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/orbitforge/client/internal/data"
)

// ErrLayoutNotFound is returned when no layout has the requested name.
var ErrLayoutNotFound = errors.New("layout not found")

// LayoutInfo summarizes one stored layout.
type LayoutInfo struct {
	Name    string
	SavedAt time.Time
	Entries int
}

// LayoutRepo handles level layout database operations.
type LayoutRepo struct {
	db *DB
}

func NewLayoutRepo(db *DB) *LayoutRepo {
	return &LayoutRepo{db: db}
}

// SaveLayout replaces the stored layout named layout.Level in a single
// transaction.
func (r *LayoutRepo) SaveLayout(ctx context.Context, layout *data.SpawnList) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO layouts (name, saved_at) VALUES ($1, now())
		 ON CONFLICT (name) DO UPDATE SET saved_at = now()`,
		layout.Level)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM layout_entries WHERE layout = $1`, layout.Level); err != nil {
		return err
	}

	rows := make([][]any, len(layout.Entries))
	for i, e := range layout.Entries {
		rows[i] = []any{
			layout.Level, int32(i), e.Name, e.Prototype,
			e.Position[0], e.Position[1], e.Position[2],
			e.Direction[0], e.Direction[1], e.Direction[2],
			e.Parent,
		}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"layout_entries"},
		[]string{"layout", "seq", "name", "prototype", "pos_x", "pos_y", "pos_z", "dir_x", "dir_y", "dir_z", "parent"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LoadLayout returns the stored layout in its saved order.
func (r *LayoutRepo) LoadLayout(ctx context.Context, name string) (*data.SpawnList, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM layouts WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrLayoutNotFound
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, prototype, pos_x, pos_y, pos_z, dir_x, dir_y, dir_z, parent
		 FROM layout_entries WHERE layout = $1 ORDER BY seq`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	l := &data.SpawnList{Level: name}
	for rows.Next() {
		var e data.SpawnEntry
		if err := rows.Scan(
			&e.Name, &e.Prototype,
			&e.Position[0], &e.Position[1], &e.Position[2],
			&e.Direction[0], &e.Direction[1], &e.Direction[2],
			&e.Parent,
		); err != nil {
			return nil, err
		}
		l.Entries = append(l.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

// ListLayouts returns every stored layout, most recently saved first.
func (r *LayoutRepo) ListLayouts(ctx context.Context) ([]LayoutInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT l.name, l.saved_at, count(e.seq)
		 FROM layouts l LEFT JOIN layout_entries e ON e.layout = l.name
		 GROUP BY l.name, l.saved_at
		 ORDER BY l.saved_at DESC, l.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LayoutInfo
	for rows.Next() {
		var li LayoutInfo
		var n int64
		if err := rows.Scan(&li.Name, &li.SavedAt, &n); err != nil {
			return nil, err
		}
		li.Entries = int(n)
		out = append(out, li)
	}
	return out, rows.Err()
}

// DeleteLayout removes a stored layout and its entries.
func (r *LayoutRepo) DeleteLayout(ctx context.Context, name string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM layouts WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLayoutNotFound
	}
	return nil
}
