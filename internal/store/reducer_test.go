package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/caseload/internal/transport"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

func jenjang(id int, nama string) types.Record {
	return types.Record{"id_jenjang": id, "nama": nama}
}

func seeded(items ...types.Record) types.CollectionState {
	st := types.NewCollectionState("jenjang")
	st.Items = items
	st.TotalItems = len(items)
	return st
}

func fulfilled(kind string, payload any) Action {
	return Action{Kind: kind, Phase: Fulfilled, Payload: payload, At: time.UnixMilli(1_700_000_000_000)}
}

func TestReduceLifecycleFlags(t *testing.T) {
	st := types.NewCollectionState("jenjang")
	st.Errors[types.ClassList] = "previous failure"

	st = Reduce(st, Action{Kind: KindList, Phase: Pending})
	assert.True(t, st.Loading[types.ClassList])
	assert.Empty(t, st.Errors[types.ClassList], "pending clears the class error")
	assert.False(t, st.Loading[types.ClassMutate], "other classes untouched")

	st = Reduce(st, Action{Kind: KindList, Phase: Rejected, Error: "Network Error"})
	assert.False(t, st.Loading[types.ClassList])
	assert.Equal(t, "Network Error", st.Errors[types.ClassList])

	st = Reduce(st, Action{Kind: KindGet, Phase: Pending})
	assert.True(t, st.Loading[types.ClassItem])

	st = Reduce(st, Action{Kind: KindExtension, Class: types.ClassList, Phase: Pending})
	assert.True(t, st.Loading[types.ClassList], "extensions use their declared class")
}

func TestReduceRejectedKeepsData(t *testing.T) {
	st := seeded(jenjang(1, "SD"))
	st = Reduce(st, Action{Kind: KindList, Phase: Pending})
	st = Reduce(st, Action{Kind: KindList, Phase: Rejected, Error: "timeout"})
	require.Len(t, st.Items, 1)
	assert.Equal(t, 1, st.TotalItems)
}

func TestReduceListReplacesWholesale(t *testing.T) {
	st := seeded(jenjang(1, "SD"), jenjang(2, "SMP"))

	st = Reduce(st, fulfilled(KindList, transport.Page{
		Items: []types.Record{jenjang(3, "SMA")}, Total: 9, CurrentPage: 2, TotalPages: 3,
	}))
	require.Len(t, st.Items, 1)
	assert.Equal(t, 3, st.Items[0]["id_jenjang"])
	assert.Equal(t, 9, st.TotalItems)
	assert.Equal(t, 2, st.CurrentPage)
	assert.Equal(t, 3, st.TotalPages)
	assert.Equal(t, int64(1_700_000_000_000), st.LastFetch)

	st = Reduce(st, fulfilled(KindList, transport.Page{Items: []types.Record{jenjang(4, "TK"), jenjang(5, "PAUD")}}))
	require.Len(t, st.Items, 2, "second fetch replaces, does not append")
	assert.Equal(t, 4, st.Items[0]["id_jenjang"])
	assert.Equal(t, 0, st.TotalItems)
	assert.Equal(t, 1, st.CurrentPage, "missing page defaults to 1")
	assert.Equal(t, 1, st.TotalPages)
}

func TestReduceGetSetsCurrent(t *testing.T) {
	st := seeded(jenjang(1, "SD"))
	st = Reduce(st, fulfilled(KindGet, jenjang(7, "SMK")))
	assert.Equal(t, 7, st.CurrentItem["id_jenjang"])
	assert.Len(t, st.Items, 1, "get does not touch items")
}

func TestReduceCreateCountsAndPrepends(t *testing.T) {
	st := seeded(jenjang(1, "SD"))
	const n = 4
	for i := 0; i < n; i++ {
		st = Reduce(st, fulfilled(KindCreate, jenjang(10+i, "new")))
	}
	assert.Equal(t, 1+n, st.TotalItems)
	require.Len(t, st.Items, 1+n)
	assert.Equal(t, 10+n-1, st.Items[0]["id_jenjang"], "newest first")
	assert.Equal(t, 1, st.Items[n]["id_jenjang"])
}

func TestReduceUpdateReplacesInPlace(t *testing.T) {
	st := seeded(jenjang(2, "SMP"), jenjang(1, "SD"))

	st = Reduce(st, Action{Kind: KindUpdate, Phase: Fulfilled, ID: 2, Payload: types.Record{"id_jenjang": float64(2), "nama": "SMP Updated"}})
	assert.Equal(t, "SMP Updated", st.Items[0]["nama"])
	assert.Equal(t, "SD", st.Items[1]["nama"])
	assert.Nil(t, st.CurrentItem, "current item untouched when never set")

	// Current item matching the identity is replaced too.
	st.CurrentItem = jenjang(1, "SD")
	st = Reduce(st, Action{Kind: KindUpdate, Phase: Fulfilled, ID: 1, Payload: jenjang(1, "SD Negeri")})
	assert.Equal(t, "SD Negeri", st.CurrentItem["nama"])
	assert.Equal(t, "SD Negeri", st.Items[1]["nama"])

	// Unknown identity is a no-op, not an error.
	before := st.Clone()
	st = Reduce(st, Action{Kind: KindUpdate, Phase: Fulfilled, ID: 99, Payload: jenjang(99, "ghost")})
	assert.Equal(t, before.Items, st.Items)

	// A payload without identity falls back to the requested id.
	st = Reduce(st, Action{Kind: KindUpdate, Phase: Fulfilled, ID: 2, Payload: types.Record{"nama": "no id"}})
	assert.Equal(t, "no id", st.Items[0]["nama"])
}

func TestReduceDelete(t *testing.T) {
	five := func() types.CollectionState {
		return seeded(jenjang(1, "a"), jenjang(2, "b"), jenjang(3, "c"), jenjang(4, "d"), jenjang(5, "e"))
	}

	t.Run("removes exactly the matching record", func(t *testing.T) {
		st := Reduce(five(), Action{Kind: KindDelete, Phase: Fulfilled, ID: 3})
		require.Len(t, st.Items, 4)
		for _, it := range st.Items {
			assert.NotEqual(t, 3, it["id_jenjang"])
		}
		assert.Equal(t, 4, st.TotalItems)
	})

	t.Run("id not on page still decrements confirmed total", func(t *testing.T) {
		st := Reduce(five(), Action{Kind: KindDelete, Phase: Fulfilled, ID: 42})
		assert.Len(t, st.Items, 5)
		assert.Equal(t, 4, st.TotalItems)
	})

	t.Run("total never goes negative", func(t *testing.T) {
		st := Reduce(types.NewCollectionState("jenjang"), Action{Kind: KindDelete, Phase: Fulfilled, ID: 1})
		assert.Equal(t, 0, st.TotalItems)
	})

	t.Run("clears matching current item only", func(t *testing.T) {
		st := five()
		st.CurrentItem = jenjang(2, "b")
		st = Reduce(st, Action{Kind: KindDelete, Phase: Fulfilled, ID: 1})
		assert.NotNil(t, st.CurrentItem)
		st = Reduce(st, Action{Kind: KindDelete, Phase: Fulfilled, ID: "2"})
		assert.Nil(t, st.CurrentItem)
	})
}

func TestReduceIdentityPrecedence(t *testing.T) {
	// Generic id wins: this record is identity 100, not 1.
	st := seeded(types.Record{"id": 100, "id_jenjang": 1, "nama": "x"})
	st = Reduce(st, Action{Kind: KindDelete, Phase: Fulfilled, ID: 1})
	assert.Len(t, st.Items, 1)
	st = Reduce(st, Action{Kind: KindDelete, Phase: Fulfilled, ID: 100})
	assert.Empty(t, st.Items)
}

func TestReduceDropdownAndStatistics(t *testing.T) {
	st := types.NewCollectionState("jenjang")
	st = Reduce(st, fulfilled(KindDropdown, []types.Record{{"value": 1, "label": "SD"}}))
	require.Len(t, st.DropdownOptions, 1)

	st = Reduce(st, fulfilled(KindDropdown, []types.Record{{"value": 2}, {"value": 3}}))
	assert.Len(t, st.DropdownOptions, 2, "replaced wholesale")

	st = Reduce(st, fulfilled(KindStatistics, types.Record{"total_anak": 12}))
	assert.Equal(t, 12, st.Statistics["total_anak"])
	assert.Equal(t, int64(1_700_000_000_000), st.LastStatsFetch)
	assert.Zero(t, st.LastFetch, "statistics do not stamp the list cache")
}

func TestReduceIsPure(t *testing.T) {
	prev := seeded(jenjang(1, "SD"), jenjang(2, "SMP"))
	prev.CurrentItem = jenjang(2, "SMP")

	_ = Reduce(prev, Action{Kind: KindUpdate, Phase: Fulfilled, ID: 2, Payload: jenjang(2, "changed")})
	_ = Reduce(prev, Action{Kind: KindDelete, Phase: Fulfilled, ID: 1})
	_ = Reduce(prev, Action{Kind: KindCreate, Phase: Pending})

	assert.Len(t, prev.Items, 2)
	assert.Equal(t, "SMP", prev.Items[1]["nama"])
	assert.Equal(t, "SMP", prev.CurrentItem["nama"])
	assert.False(t, prev.Loading[types.ClassMutate])
}

func TestReduceLocalActions(t *testing.T) {
	st := seeded(jenjang(1, "SD"))
	st.CurrentItem = jenjang(1, "SD")

	st = Reduce(st, Action{Kind: KindSetFilters, Payload: map[string]any{"status": "aktif"}})
	assert.Equal(t, "aktif", st.Filters["status"])

	st = Reduce(st, Action{Kind: KindSetSearch, Payload: "budi"})
	assert.Equal(t, "budi", st.SearchQuery)

	st = Reduce(st, Action{Kind: KindClearCurrent})
	assert.Nil(t, st.CurrentItem)

	st = Reduce(st, Action{Kind: KindReset})
	assert.Empty(t, st.Items)
	assert.Empty(t, st.Filters)
	assert.Equal(t, "jenjang", st.EntityType)
}

func TestReduceRestore(t *testing.T) {
	saved := seeded(jenjang(1, "SD"))
	saved.LastFetch = 123
	saved.Loading[types.ClassList] = true
	saved.Errors[types.ClassList] = "stale error"

	st := Reduce(types.NewCollectionState("jenjang"), Action{Kind: KindRestore, Payload: saved})
	assert.Len(t, st.Items, 1)
	assert.Equal(t, int64(123), st.LastFetch)
	assert.False(t, st.Loading[types.ClassList], "in-flight flags are not restored")
	assert.Empty(t, st.Errors[types.ClassList])
}
