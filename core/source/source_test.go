package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strudel-science/runmonitor/core/filter"
)

const runsCSV = `Run#,Name,Status,Site
101,"assembly, batch 1",done,crux
102,annotation,running,dori
`

func TestReadCSV(t *testing.T) {
	t.Run("Keeps every column without a mapping", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader(runsCSV), nil)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, filter.Row{"Run#": "101", "Name": "assembly, batch 1", "Status": "done", "Site": "crux"}, rows[0])
	})

	t.Run("Mapping renames and drops columns", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader(runsCSV), Mapping{"Run#": "id", "Status": "status"})
		require.NoError(t, err)
		assert.Equal(t, []filter.Row{
			{"id": "101", "status": "done"},
			{"id": "102", "status": "running"},
		}, rows)
	})

	t.Run("Empty input has no rows", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader(""), nil)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("Header only has no rows", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader("a,b\n"), nil)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("Blank header names are rejected", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(",,\n1,2,3\n"), nil)
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("Short records leave fields absent", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader("a,b,c\n1\n"), nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, filter.Row{"a": "1"}, rows[0])
	})

	t.Run("Byte order mark is stripped from the header", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader("\ufeffid,name\n1,x\n"), nil)
		require.NoError(t, err)
		assert.Equal(t, "1", rows[0]["id"])
	})

	t.Run("Malformed quoting is an error", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a\n\"unterminated\n"), nil)
		assert.Error(t, err)
	})
}

func TestFile_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.csv")
	require.NoError(t, os.WriteFile(path, []byte(runsCSV), 0o644))

	t.Run("Loads mapped rows", func(t *testing.T) {
		rows, err := NewFile(path, Mapping{"Name": "experiment_name"}, nil).Load(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "annotation", rows[1]["experiment_name"])
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := NewFile(filepath.Join(t.TempDir(), "nope.csv"), nil, nil).Load(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewFile(path, nil, nil).Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
