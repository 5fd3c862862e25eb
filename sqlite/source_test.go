package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strudel-science/runmonitor/core/filter"
	"github.com/strudel-science/runmonitor/core/source"
)

const schemaSQL = `
CREATE TABLE runs (
	run_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT,
	site TEXT,
	sites TEXT,
	duration REAL
);
INSERT INTO runs (run_id, name, status, site, sites, duration) VALUES
	(1, 'assembly', 'done', 'crux', '["crux","dori"]', 12.5),
	(2, 'annotation', 'running', 'dori', '["dori"]', NULL),
	(3, 'qc', 'done', NULL, 'not json', 3);
`

func setupDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	return db
}

func TestSource_Query(t *testing.T) {
	s := New(nil, nil, &Options{
		Table:   "runs",
		Mapping: source.Mapping{"status": "status", "run_id": "id"},
		Where:   squirrel.Eq{"status": "done"},
		OrderBy: []string{"run_id DESC"},
		Limit:   2,
	})

	query, params, err := s.Query()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "run_id", "status" FROM "runs" WHERE status = ? ORDER BY run_id DESC LIMIT 2`, query)
	assert.Equal(t, []any{"done"}, params)

	_, _, err = New(nil, nil, &Options{}).Query()
	assert.Error(t, err)
}

func TestSource_Load(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t, ":memory:")

	t.Run("Reads every column by default", func(t *testing.T) {
		rows, err := New(db, nil, &Options{Table: "runs", OrderBy: []string{"run_id"}}).Load(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, int64(1), rows[0]["run_id"])
		assert.Equal(t, "assembly", rows[0]["name"])
		assert.Equal(t, 12.5, rows[0]["duration"])
		assert.Equal(t, `["crux","dori"]`, rows[0]["sites"])
	})

	t.Run("NULL columns are absent", func(t *testing.T) {
		rows, err := New(db, nil, &Options{Table: "runs", OrderBy: []string{"run_id"}}).Load(ctx)
		require.NoError(t, err)
		_, ok := rows[1]["duration"]
		assert.False(t, ok)
		_, ok = rows[2]["site"]
		assert.False(t, ok)
	})

	t.Run("Mapping renames and list fields decode", func(t *testing.T) {
		s := New(db, nil, &Options{
			Table:      "runs",
			Mapping:    source.Mapping{"run_id": "id", "name": "experiment_name", "sites": "site"},
			ListFields: []string{"site"},
			OrderBy:    []string{"run_id"},
		})
		rows, err := s.Load(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, filter.Row{"id": int64(1), "experiment_name": "assembly", "site": []any{"crux", "dori"}}, rows[0])
		assert.Equal(t, "not json", rows[2]["site"])
	})

	t.Run("Where restricts rows", func(t *testing.T) {
		rows, err := New(db, nil, &Options{Table: "runs", Where: squirrel.Eq{"status": "done"}}).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("Loaded rows feed the filter engine", func(t *testing.T) {
		s := New(db, nil, &Options{
			Table:      "runs",
			Mapping:    source.Mapping{"run_id": "id", "sites": "site"},
			ListFields: []string{"site"},
			OrderBy:    []string{"run_id"},
		})
		rows, err := s.Load(ctx)
		require.NoError(t, err)

		configs := []filter.FilterConfig{{Field: "site", Operator: filter.OperatorContainsOneOf}}
		visible := filter.FilterData(rows, []filter.ActiveFilter{filter.ContainsOneOf("site", "crux")}, configs, filter.SearchQuery{})
		require.Len(t, visible, 1)
		assert.Equal(t, int64(1), visible[0]["id"])
	})

	t.Run("Missing table", func(t *testing.T) {
		_, err := New(db, nil, &Options{Table: "nope"}).Load(ctx)
		assert.Error(t, err)
	})
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	setupDB(t, path)

	s, err := Open(path, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = s.db.Exec("DELETE FROM runs")
	assert.Error(t, err, "database is opened read-only")
}

func TestReadOnlyDSN(t *testing.T) {
	assert.Equal(t, "file:/data/runs.db?mode=ro&_busy_timeout=5000", readOnlyDSN("/data/runs.db"))
	assert.Equal(t, "file:/data/q%3Fv2%23x%25y.db?mode=ro&_busy_timeout=5000", readOnlyDSN("/data/q?v2#x%y.db"))
	assert.Equal(t, "file:reports/my%20runs.db?mode=ro&_busy_timeout=5000", readOnlyDSN("reports/my runs.db"))
}

func TestOpen_SpecialCharactersInPath(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "runs.db")
	db := setupDB(t, plain)
	require.NoError(t, db.Close())

	odd := filepath.Join(dir, "runs?v2#x.db")
	require.NoError(t, os.Rename(plain, odd))

	s, err := Open(odd, nil, nil)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
