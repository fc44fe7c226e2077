package facade

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/caseload/internal/registry"
	"github.com/mesh-intelligence/caseload/internal/store"
	"github.com/mesh-intelligence/caseload/internal/transport"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

// fakeAPI serves canned JSON bodies keyed by "METHOD path" and counts hits.
type fakeAPI struct {
	mu      sync.Mutex
	routes  map[string]route
	hits    map[string]int
	queries map[string]string
	bodies  map[string]map[string]any
}

type route struct {
	status int
	body   string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{
		routes:  map[string]route{},
		hits:    map[string]int{},
		queries: map[string]string{},
		bodies:  map[string]map[string]any{},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		api.mu.Lock()
		api.hits[key]++
		api.queries[key] = r.URL.RawQuery
		api.bodies[key] = body
		rt, ok := api.routes[key]
		api.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Data tidak ditemukan"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rt.status)
		_, _ = w.Write([]byte(rt.body))
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) on(method, path string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[method+" "+path] = route{status: status, body: body}
}

func (a *fakeAPI) count(method, path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[method+" "+path]
}

// clock is a settable time source shared by store and façade.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// jenjangDescriptor has no validation rules, so the scenario tests exercise
// caching and state merging with minimal records such as {"nama": "SMP"}.
// The shipped jenjang rules reject those records; TestValidationBlocksWrites
// covers that path.
func jenjangDescriptor() types.Descriptor {
	return types.Descriptor{
		EntityType: "jenjang",
		Endpoints: types.Endpoints{
			List:       "/jenjang",
			Detail:     "/jenjang/{id}",
			Create:     "/jenjang",
			Update:     "/jenjang/{id}",
			Delete:     "/jenjang/{id}",
			Dropdown:   "/jenjang/dropdown",
			Statistics: "/jenjang/statistics",
		},
	}
}

func setup(t *testing.T, desc types.Descriptor, opts ...Option) (*Entity, *fakeAPI, *clock) {
	t.Helper()
	api, srv := newFakeAPI(t)
	clk := &clock{t: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)}

	c, err := transport.New(srv.URL)
	require.NoError(t, err)
	s := store.New(desc, c, store.WithClock(clk.now))
	e := New(s, append([]Option{WithClock(clk.now)}, opts...)...)
	return e, api, clk
}

func TestIsCacheValid(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	tests := []struct {
		name   string
		t      int64
		window time.Duration
		want   bool
	}{
		{"never fetched", 0, 5 * time.Minute, false},
		{"just fetched", 1_000_000, 5 * time.Minute, true},
		{"inside window", 1_000_000 - 299_999, 5 * time.Minute, true},
		{"exactly at window", 1_000_000 - 300_000, 5 * time.Minute, false},
		{"past window", 1_000_000 - 300_001, 5 * time.Minute, false},
		{"longer window", 1_000_000 - 300_001, 10 * time.Minute, true},
		{"zero window", 1_000_000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCacheValid(tt.t, tt.window, now))
		})
	}
}

func TestScenarios(t *testing.T) {
	e, api, clk := setup(t, jenjangDescriptor())
	ctx := context.Background()

	api.on(http.MethodGet, "/jenjang", http.StatusOK,
		`{"data":[{"id_jenjang":1,"nama":"SD"}],"total":1,"current_page":1,"last_page":1}`)

	// A: first load hits the network and stamps the fetch time.
	res := e.FetchAll(ctx, types.Params{}, false)
	require.True(t, res.Success)
	assert.False(t, res.Cached)
	require.Len(t, res.Data, 1)
	st := e.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, float64(1), st.Items[0]["id_jenjang"])
	assert.Equal(t, 1, st.TotalItems)
	assert.Equal(t, clk.now().UnixMilli(), st.LastFetch)
	assert.Equal(t, 1, api.count(http.MethodGet, "/jenjang"))

	// B: an immediate second load is served from the cache.
	clk.advance(time.Minute)
	cached := e.FetchAll(ctx, types.Params{}, false)
	assert.True(t, cached.Success)
	assert.True(t, cached.Cached)
	assert.Equal(t, res.Data, cached.Data)
	assert.Equal(t, 1, api.count(http.MethodGet, "/jenjang"))

	// C: create prepends and counts.
	api.on(http.MethodPost, "/jenjang", http.StatusCreated, `{"data":{"id_jenjang":2,"nama":"SMP"}}`)
	rec, err := e.Create(ctx, types.Record{"nama": "SMP"})
	require.NoError(t, err)
	assert.Equal(t, "SMP", rec["nama"])
	st = e.State()
	require.Len(t, st.Items, 2)
	assert.Equal(t, float64(2), st.Items[0]["id_jenjang"])
	assert.Equal(t, float64(1), st.Items[1]["id_jenjang"])
	assert.Equal(t, 2, st.TotalItems)

	// D: update replaces in place and leaves the current item alone.
	api.on(http.MethodPut, "/jenjang/2", http.StatusOK, `{"data":{"id_jenjang":2,"nama":"SMP Updated"}}`)
	_, err = e.Update(ctx, 2, types.Record{"nama": "SMP Updated"})
	require.NoError(t, err)
	st = e.State()
	assert.Equal(t, "SMP Updated", st.Items[0]["nama"])
	assert.Equal(t, float64(2), st.Items[0]["id_jenjang"])
	assert.Nil(t, st.CurrentItem)

	// E: delete removes the record and decrements the total.
	api.on(http.MethodDelete, "/jenjang/1", http.StatusOK, `{"message":"Jenjang berhasil dihapus"}`)
	_, err = e.Delete(ctx, 1)
	require.NoError(t, err)
	st = e.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, float64(2), st.Items[0]["id_jenjang"])
	assert.Equal(t, 1, st.TotalItems)
}

func TestFetchAllRefreshes(t *testing.T) {
	e, api, clk := setup(t, jenjangDescriptor())
	ctx := context.Background()
	api.on(http.MethodGet, "/jenjang", http.StatusOK, `[{"id":1},{"id":2}]`)

	require.True(t, e.FetchAll(ctx, nil, false).Success)
	require.True(t, e.FetchAll(ctx, nil, true).Success, "forced refresh")
	assert.Equal(t, 2, api.count(http.MethodGet, "/jenjang"))

	clk.advance(5 * time.Minute)
	res := e.FetchAll(ctx, nil, false)
	assert.False(t, res.Cached, "window elapsed")
	assert.Equal(t, 3, api.count(http.MethodGet, "/jenjang"))

	// Replaced wholesale.
	api.on(http.MethodGet, "/jenjang", http.StatusOK, `[{"id":9}]`)
	res = e.FetchAll(ctx, nil, true)
	require.Len(t, res.Data, 1)
	assert.Len(t, e.State().Items, 1)
	assert.Equal(t, 1, e.State().CurrentPage, "bare array defaults pagination")
}

func TestFetchAllEmptyIsNeverCached(t *testing.T) {
	e, api, _ := setup(t, jenjangDescriptor())
	api.on(http.MethodGet, "/jenjang", http.StatusOK, `{"data":[],"total":0}`)

	e.FetchAll(context.Background(), nil, false)
	res := e.FetchAll(context.Background(), nil, false)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, api.count(http.MethodGet, "/jenjang"))
}

func TestFetchAllSendsFiltersAndSearch(t *testing.T) {
	e, api, _ := setup(t, jenjangDescriptor())
	api.on(http.MethodGet, "/jenjang", http.StatusOK, `[]`)

	e.SetFilters(map[string]any{"status": "aktif", "page": 1})
	e.SetSearchQuery("smp")
	e.FetchAll(context.Background(), types.Params{"page": 2}, true)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "page=2&search=smp&status=aktif", api.queries["GET /jenjang"])
}

func TestErrorShapes(t *testing.T) {
	e, api, _ := setup(t, jenjangDescriptor())
	ctx := context.Background()
	api.on(http.MethodGet, "/jenjang", http.StatusInternalServerError, `{}`)
	api.on(http.MethodPost, "/jenjang", http.StatusUnprocessableEntity, `{"message":"Nama jenjang sudah ada"}`)

	res := e.FetchAll(ctx, nil, false)
	assert.False(t, res.Success)
	assert.Equal(t, "request failed with status code 500", res.Error)
	assert.Equal(t, "request failed with status code 500", e.State().Errors[types.ClassList])

	_, err := e.Create(ctx, types.Record{"nama": "SD"})
	require.Error(t, err)
	assert.Equal(t, "Nama jenjang sudah ada", err.Error())
	assert.ErrorIs(t, err, types.ErrTransport)

	_, err = e.FetchByID(ctx, 77)
	var te *types.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.Status)
	assert.Equal(t, "Data tidak ditemukan", te.Message)
}

func TestFetchByIDNeverCached(t *testing.T) {
	e, api, _ := setup(t, jenjangDescriptor())
	api.on(http.MethodGet, "/jenjang/3", http.StatusOK, `{"data":{"id_jenjang":3,"nama":"SMA"}}`)

	for i := 0; i < 2; i++ {
		rec, err := e.FetchByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "SMA", rec["nama"])
	}
	assert.Equal(t, 2, api.count(http.MethodGet, "/jenjang/3"))
	assert.Equal(t, "SMA", e.State().CurrentItem["nama"])
}

func TestDropdownCachedOnceLoaded(t *testing.T) {
	e, api, clk := setup(t, jenjangDescriptor())
	ctx := context.Background()
	api.on(http.MethodGet, "/jenjang/dropdown", http.StatusOK, `{"data":[{"id_jenjang":1,"nama":"SD"}]}`)

	require.True(t, e.DropdownOptions(ctx, nil, false).Success)
	clk.advance(time.Hour)
	res := e.DropdownOptions(ctx, nil, false)
	assert.True(t, res.Cached, "no time window for dropdowns")
	assert.Equal(t, 1, api.count(http.MethodGet, "/jenjang/dropdown"))

	e.DropdownOptions(ctx, nil, true)
	assert.Equal(t, 2, api.count(http.MethodGet, "/jenjang/dropdown"))
}

func TestStatisticsWindow(t *testing.T) {
	desc := jenjangDescriptor()
	desc.StatsCacheWindow = 10 * time.Minute
	e, api, clk := setup(t, desc)
	ctx := context.Background()
	api.on(http.MethodGet, "/jenjang/statistics", http.StatusOK, `{"data":{"total":4}}`)

	res := e.LoadStatistics(ctx, nil, false)
	require.True(t, res.Success)
	assert.Equal(t, float64(4), res.Data["total"])

	clk.advance(7 * time.Minute)
	assert.True(t, e.LoadStatistics(ctx, nil, false).Cached, "descriptor window is 10 minutes")

	clk.advance(4 * time.Minute)
	assert.False(t, e.LoadStatistics(ctx, nil, false).Cached)
	assert.Equal(t, 2, api.count(http.MethodGet, "/jenjang/statistics"))

	list, stats := e.Windows()
	assert.Equal(t, types.DefaultCacheWindow, list)
	assert.Equal(t, 10*time.Minute, stats)
}

func TestWindowsOption(t *testing.T) {
	e, api, clk := setup(t, jenjangDescriptor(), WithWindows(time.Minute, time.Minute))
	api.on(http.MethodGet, "/jenjang", http.StatusOK, `[{"id":1}]`)

	e.FetchAll(context.Background(), nil, false)
	clk.advance(61 * time.Second)
	e.FetchAll(context.Background(), nil, false)
	assert.Equal(t, 2, api.count(http.MethodGet, "/jenjang"))
}

func TestUnsupportedOperations(t *testing.T) {
	desc := jenjangDescriptor()
	desc.Endpoints.Dropdown = ""
	e, _, _ := setup(t, desc)
	ctx := context.Background()

	res := e.DropdownOptions(ctx, nil, false)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "dropdown")

	_, err := e.Invoke(ctx, "assign_materi", types.ExtensionCall{ID: 1})
	var uerr *types.UnsupportedOperationError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "jenjang", uerr.EntityType)
	assert.Equal(t, "assign_materi", uerr.Operation)
}

func TestValidationBlocksWrites(t *testing.T) {
	reg := registry.Default()
	desc, err := reg.Descriptor(registry.Jenjang)
	require.NoError(t, err)
	desc.Endpoints = jenjangDescriptor().Endpoints
	e, api, _ := setup(t, desc)
	ctx := context.Background()
	api.on(http.MethodPost, "/jenjang", http.StatusCreated, `{"data":{"id_jenjang":5}}`)
	api.on(http.MethodPut, "/jenjang/5", http.StatusOK, `{"data":{"id_jenjang":5}}`)

	_, err = e.Create(ctx, types.Record{"nama": "SMP"})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"kode_jenjang", "nama_jenjang", "urutan"}, fieldNames(verr))

	_, err = e.Create(ctx, types.Record{"nama_jenjang": "SD"})
	require.ErrorAs(t, err, &verr)
	fields := verr.ByField()
	assert.Contains(t, fields, "kode_jenjang")
	assert.Contains(t, fields, "urutan")
	assert.Zero(t, api.count(http.MethodPost, "/jenjang"), "invalid data never reaches the network")
	assert.Empty(t, e.State().Errors[types.ClassMutate])

	_, err = e.Update(ctx, 5, types.Record{"urutan": float64(2)})
	require.NoError(t, err, "partial update validates only sent fields")

	_, err = e.Update(ctx, 5, types.Record{"urutan": float64(0)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Urutan minimal 1"}, verr.ByField()["urutan"])
	assert.Equal(t, 1, api.count(http.MethodPut, "/jenjang/5"))
}

func fieldNames(verr *types.ValidationError) []string {
	var names []string
	for f := range verr.ByField() {
		names = append(names, f)
	}
	return names
}

func TestInvokeExtension(t *testing.T) {
	reg := registry.Default()
	desc, err := reg.Descriptor(registry.Kurikulum)
	require.NoError(t, err)
	e, api, _ := setup(t, desc)
	ctx := context.Background()

	op, ok := desc.Extension("set_active")
	require.True(t, ok)
	path, err := types.ExpandPath(op.Path, 4, nil)
	require.NoError(t, err)
	api.on(op.Method, path, http.StatusOK, `{"data":{"id_kurikulum":4,"is_active":true}}`)

	out, err := e.Invoke(ctx, "set_active", types.ExtensionCall{ID: 4})
	require.NoError(t, err)
	rec, ok := types.AsRecord(out)
	require.True(t, ok)
	assert.Equal(t, true, rec["is_active"])
	assert.Equal(t, 1, api.count(op.Method, path))
}
