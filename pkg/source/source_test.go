package source

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/pbmodelgen/internal/model"
)

const postsSchema = `[
	{"name":"id","type":"text","required":true,"system":true},
	{"name":"title","type":"text","required":true},
	{"name":"views","type":"number"},
	{"name":"author","type":"relation"}
]`

func wantPosts() *model.Collection {
	return &model.Collection{
		Name: "posts",
		Kind: model.CollectionBase,
		Fields: []*model.Field{
			{Name: "title", Kind: model.FieldText, Required: true},
			{Name: "views", Kind: model.FieldNumber},
			{Name: "author", Kind: model.FieldRelation},
		},
	}
}

var collectionsQuery = regexp.QuoteMeta("SELECT type, name, schema FROM _collections ORDER BY rowid")

func TestSQLiteCollectionsMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(collectionsQuery).WillReturnRows(
		sqlmock.NewRows([]string{"type", "name", "schema"}).
			AddRow("auth", "users", `[{"name":"name","type":"text"}]`).
			AddRow("base", "posts", postsSchema).
			AddRow("base", "empty", nil),
	)

	got, err := NewSQLiteFromDB(db).Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, &model.Collection{
		Name:   "users",
		Kind:   model.CollectionAuth,
		Fields: []*model.Field{{Name: "name", Kind: model.FieldText}},
	}, got[0])
	assert.Equal(t, wantPosts(), got[1])
	assert.Empty(t, got[2].Fields)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteCollectionsErrors(ttt *testing.T) {
	tests := []struct {
		name   string
		column string
		setup  func(mock sqlmock.Sqlmock)
	}{
		{
			name:   "unsupported column",
			column: "options",
			setup:  func(sqlmock.Sqlmock) {},
		},
		{
			name: "query fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(collectionsQuery).WillReturnError(errors.New("no such table: _collections"))
			},
		},
		{
			name: "bad schema json",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(collectionsQuery).WillReturnRows(
					sqlmock.NewRows([]string{"type", "name", "schema"}).AddRow("base", "posts", `{"not":"a list"}`))
			},
		},
		{
			name: "row error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(collectionsQuery).WillReturnRows(
					sqlmock.NewRows([]string{"type", "name", "schema"}).
						AddRow("base", "posts", postsSchema).
						RowError(0, errors.New("disk I/O error")))
			},
		},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			var opts []SQLiteOption
			if tt.column != "" {
				opts = append(opts, WithColumn(tt.column))
			}
			got, err := NewSQLiteFromDB(db, opts...).Collections(context.Background())
			require.ErrorIs(t, err, ErrSource)
			assert.Nil(t, got)
		})
	}
}

func TestSQLiteFieldsColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT type, name, fields FROM _collections")).WillReturnRows(
		sqlmock.NewRows([]string{"type", "name", "fields"}).AddRow("base", "posts", postsSchema))

	got, err := NewSQLiteFromDB(db, WithColumn(ColumnFields)).Collections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*model.Collection{wantPosts()}, got)
}

// TestOpenSQLite runs against a real data file written by the same driver.
func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE _collections (id TEXT PRIMARY KEY, type TEXT NOT NULL, name TEXT NOT NULL, schema TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO _collections (id, type, name, schema) VALUES
		('c1', 'auth', 'users', '[]'),
		('c2', 'base', 'posts', ?)`, postsSchema)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, src.Close()) }()

	got, err := src.Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "users", got[0].Name)
	assert.Equal(t, model.CollectionAuth, got[0].Kind)
	assert.Empty(t, got[0].Fields)
	assert.Equal(t, wantPosts(), got[1])
}

func TestOpenSQLiteMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE other (id TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := OpenSQLite(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Collections(context.Background())
	require.ErrorIs(t, err, ErrSource)
}

func TestDecodeExport(t *testing.T) {
	data := []byte(`[
		{"name":"users","type":"auth","fields":[{"name":"email","type":"email","system":true},{"name":"name","type":"text"}]},
		{"name":"posts","type":"base","schema":` + postsSchema + `}
	]`)
	got, err := DecodeExport(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []*model.Field{{Name: "name", Kind: model.FieldText}}, got[0].Fields)
	assert.Equal(t, wantPosts(), got[1])

	_, err = DecodeExport([]byte(`{"collections":[]}`))
	require.ErrorIs(t, err, ErrSource)
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pb_schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"posts","type":"base","schema":`+postsSchema+`}]`), 0o644))

	got, err := (&Export{Path: path}).Collections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*model.Collection{wantPosts()}, got)

	_, err = (&Export{Path: filepath.Join(t.TempDir(), "missing.json")}).Collections(context.Background())
	require.ErrorIs(t, err, ErrSource)
}

func TestStatic(t *testing.T) {
	cols := Static{wantPosts()}
	got, err := cols.Collections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*model.Collection(cols), got)
}
