package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"

	"github.com/cmmoran/pbmodelgen/internal/model"
)

const (
	ColumnSchema = "schema"
	ColumnFields = "fields"
)

// SQLite reads the _collections table of the backend's data file.
type SQLite struct {
	db     *sql.DB
	column string
	owned  bool
}

type SQLiteOption func(*SQLite)

// WithColumn selects the column holding the field list: "schema" for older
// stores, "fields" for newer ones.
func WithColumn(column string) SQLiteOption {
	return func(s *SQLite) { s.column = column }
}

// OpenSQLite opens the data file read-only. The returned SQLite owns the
// handle and must be closed.
func OpenSQLite(path string, opts ...SQLiteOption) (*SQLite, error) {
	dsn := "file:" + path + "?" + url.Values{"mode": {"ro"}}.Encode()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrSource, path, err)
	}
	s := NewSQLiteFromDB(db, opts...)
	s.owned = true
	return s, nil
}

// NewSQLiteFromDB wraps a handle owned by the caller.
func NewSQLiteFromDB(db *sql.DB, opts ...SQLiteOption) *SQLite {
	s := &SQLite{db: db, column: ColumnSchema}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

func (s *SQLite) Collections(ctx context.Context) ([]*model.Collection, error) {
	if s.column != ColumnSchema && s.column != ColumnFields {
		return nil, fmt.Errorf("%w: unsupported field column %q", ErrSource, s.column)
	}
	query := fmt.Sprintf("SELECT type, name, %s FROM _collections ORDER BY rowid", s.column)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query collections: %w", ErrSource, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Collection
	for rows.Next() {
		var (
			kind, name string
			schema     sql.NullString
		)
		if err = rows.Scan(&kind, &name, &schema); err != nil {
			return nil, fmt.Errorf("%w: scan collection: %w", ErrSource, err)
		}
		fields, err := decodeFields(name, []byte(schema.String))
		if err != nil {
			return nil, err
		}
		out = append(out, &model.Collection{
			Name:   name,
			Kind:   model.CollectionKind(kind),
			Fields: fields,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read collections: %w", ErrSource, err)
	}

	return out, nil
}

// Close releases the handle if OpenSQLite created it.
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
