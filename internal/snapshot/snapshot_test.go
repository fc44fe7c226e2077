package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

func sampleState(entityType string) types.CollectionState {
	st := types.NewCollectionState(entityType)
	st.Items = []types.Record{{"id_" + entityType: float64(1), "nama": "SD"}}
	st.TotalItems = 7
	st.TotalPages = 2
	st.Filters["status"] = "aktif"
	st.SearchQuery = "sd"
	st.LastFetch = 1_700_000_000_000
	st.Statistics = types.Record{"total": float64(7)}
	st.LastStatsFetch = 1_700_000_000_500
	return st
}

// setupStores returns one of each backend, closed on cleanup.
func setupStores(t *testing.T) map[string]Store {
	t.Helper()
	mem, err := New(types.SnapshotMemory, "")
	require.NoError(t, err)
	lite, err := New(types.SnapshotSQLite, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		mem.Close()
		lite.Close()
	})
	return map[string]Store{"memory": mem, "sqlite": lite}
}

func TestStores(t *testing.T) {
	for name, s := range setupStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Load(ctx, "jenjang")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Save(ctx, sampleState("jenjang")))
			require.NoError(t, s.Save(ctx, sampleState("anak")))

			got, ok, err := s.Load(ctx, "jenjang")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, sampleState("jenjang"), got)

			// Save replaces.
			st := sampleState("jenjang")
			st.TotalItems = 8
			require.NoError(t, s.Save(ctx, st))
			got, _, err = s.Load(ctx, "jenjang")
			require.NoError(t, err)
			assert.Equal(t, 8, got.TotalItems)

			names, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"anak", "jenjang"}, names)

			require.NoError(t, s.Delete(ctx, "anak"))
			require.NoError(t, s.Delete(ctx, "anak"), "deleting twice is fine")
			names, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"jenjang"}, names)

			require.NoError(t, s.Close())
			require.NoError(t, s.Close(), "close is idempotent")
			assert.ErrorIs(t, s.Save(ctx, st), ErrClosed)
			_, _, err = s.Load(ctx, "jenjang")
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleState("kelas")))
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dir, DatabaseFile))

	s, err = OpenSQLite(dir)
	require.NoError(t, err)
	defer s.Close()
	got, ok, err := s.Load(ctx, "kelas")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1_700_000_000_000), got.LastFetch)
	assert.Equal(t, "aktif", got.Filters["status"])
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New("postgres", t.TempDir())
	assert.ErrorIs(t, err, types.ErrSnapshotBackendUnknown)

	_, err = New(types.SnapshotSQLite, "")
	assert.ErrorIs(t, err, types.ErrDataDirEmpty)
}

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "jenjang.jsonl")
	recs := []types.Record{
		{"id_jenjang": float64(1), "nama": "SD"},
		{"id_jenjang": float64(2), "nama": "SMP", "tags": []any{"a"}},
	}
	require.NoError(t, WriteJSONL(path, recs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"id_jenjang\":1,\"nama\":\"SD\"}\n{\"id_jenjang\":2,\"nama\":\"SMP\",\"tags\":[\"a\"]}\n", string(data))

	got, err := ReadJSONL(path)
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestReadJSONLSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	content := "{\"id\":1}\n\nnot json\n[1,2]\nnull\n{\"id\":2}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, float64(2), got[1]["id"])

	_, err = ReadJSONL(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
