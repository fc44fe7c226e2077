// Package facade is the caller-facing operation set of one entity type. It
// wraps the store with time-windowed caching, result envelopes for loads and
// client-side validation before writes.
package facade

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/caseload/internal/store"
	"github.com/mesh-intelligence/caseload/internal/validate"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

// SearchParam is the query parameter that carries the search query.
const SearchParam = "search"

// IsCacheValid reports whether a fetch stamped at t (epoch millis) is still
// fresh at now. A zero stamp is never valid.
func IsCacheValid(t int64, window time.Duration, now time.Time) bool {
	return t > 0 && now.UnixMilli()-t < window.Milliseconds()
}

// Entity implements types.Entity over a store.
type Entity struct {
	store *store.Store
	desc  types.Descriptor
	check *validate.Validator
	log   *zap.Logger
	now   func() time.Time

	window      time.Duration
	statsWindow time.Duration
}

var _ types.Entity = (*Entity)(nil)

// Option configures an Entity.
type Option func(*Entity)

// WithClock replaces time.Now. It must match the store's clock.
func WithClock(now func() time.Time) Option {
	return func(e *Entity) { e.now = now }
}

// WithWindows sets the default list and statistics cache windows. Windows
// declared on the descriptor take precedence.
func WithWindows(list, stats time.Duration) Option {
	return func(e *Entity) {
		e.window = list
		e.statsWindow = stats
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Entity) { e.log = l }
}

// WithValidator shares a validator between entities.
func WithValidator(v *validate.Validator) Option {
	return func(e *Entity) { e.check = v }
}

// New binds a façade to s.
func New(s *store.Store, opts ...Option) *Entity {
	e := &Entity{
		store:       s,
		desc:        s.Descriptor(),
		log:         zap.NewNop(),
		now:         time.Now,
		window:      types.DefaultCacheWindow,
		statsWindow: types.DefaultCacheWindow,
	}
	for _, o := range opts {
		o(e)
	}
	if e.check == nil {
		e.check = validate.New()
	}
	if e.desc.CacheWindow > 0 {
		e.window = e.desc.CacheWindow
	}
	if e.desc.StatsCacheWindow > 0 {
		e.statsWindow = e.desc.StatsCacheWindow
	}
	e.log = e.log.With(zap.String("entity", e.desc.EntityType))
	return e
}

// Type returns the bound entity type.
func (e *Entity) Type() string { return e.desc.EntityType }

// Windows returns the effective list and statistics cache windows.
func (e *Entity) Windows() (list, stats time.Duration) { return e.window, e.statsWindow }

// FetchAll returns cached items while the list cache is fresh and non-empty,
// otherwise loads a page. Filters and the search query in state are sent
// along; params override them.
func (e *Entity) FetchAll(ctx context.Context, params types.Params, forceRefresh bool) types.Result[[]types.Record] {
	st := e.store.State()
	if !forceRefresh && len(st.Items) > 0 && IsCacheValid(st.LastFetch, e.window, e.now()) {
		e.log.Debug("list cache hit", zap.Int("items", len(st.Items)))
		return types.Cached(st.Items)
	}
	page, err := e.store.List(ctx, listParams(st, params))
	if err != nil {
		return types.Fail[[]types.Record](err)
	}
	return types.Ok(page.Items)
}

func listParams(st types.CollectionState, params types.Params) types.Params {
	out := make(types.Params, len(st.Filters)+len(params)+1)
	for k, v := range st.Filters {
		out[k] = v
	}
	if st.SearchQuery != "" {
		out[SearchParam] = st.SearchQuery
	}
	for k, v := range params {
		out[k] = v
	}
	return out
}

// FetchByID always issues a request.
func (e *Entity) FetchByID(ctx context.Context, id any) (types.Record, error) {
	return e.store.Get(ctx, id)
}

// Create validates data in full and sends it.
func (e *Entity) Create(ctx context.Context, data types.Record) (types.Record, error) {
	if err := e.Validate(data, false); err != nil {
		return nil, err
	}
	return e.store.Create(ctx, data)
}

// Update validates the fields present in data and sends them.
func (e *Entity) Update(ctx context.Context, id any, data types.Record) (types.Record, error) {
	if err := e.Validate(data, true); err != nil {
		return nil, err
	}
	return e.store.Update(ctx, id, data)
}

// Delete removes id.
func (e *Entity) Delete(ctx context.Context, id any) (types.Record, error) {
	return e.store.Delete(ctx, id)
}

// DropdownOptions returns cached options once any have been loaded.
func (e *Entity) DropdownOptions(ctx context.Context, params types.Params, forceRefresh bool) types.Result[[]types.Record] {
	st := e.store.State()
	if !forceRefresh && len(st.DropdownOptions) > 0 {
		e.log.Debug("dropdown cache hit")
		return types.Cached(st.DropdownOptions)
	}
	opts, err := e.store.Dropdown(ctx, params)
	if err != nil {
		return types.Fail[[]types.Record](err)
	}
	return types.Ok(opts)
}

// LoadStatistics returns cached statistics within the statistics window.
func (e *Entity) LoadStatistics(ctx context.Context, params types.Params, forceRefresh bool) types.Result[types.Record] {
	st := e.store.State()
	if !forceRefresh && st.Statistics != nil && IsCacheValid(st.LastStatsFetch, e.statsWindow, e.now()) {
		e.log.Debug("statistics cache hit")
		return types.Cached(st.Statistics)
	}
	stats, err := e.store.Statistics(ctx, params)
	if err != nil {
		return types.Fail[types.Record](err)
	}
	return types.Ok(stats)
}

// Invoke runs a declared extension operation.
func (e *Entity) Invoke(ctx context.Context, operation string, call types.ExtensionCall) (any, error) {
	return e.store.Extension(ctx, operation, call)
}

// Validate evaluates the descriptor rules against data.
func (e *Entity) Validate(data types.Record, partial bool) error {
	if len(e.desc.ValidationRules) == 0 {
		return nil
	}
	return e.check.Check(e.desc.EntityType, e.desc.ValidationRules, data, partial)
}

// State returns a copy of the collection state.
func (e *Entity) State() types.CollectionState { return e.store.State() }

func (e *Entity) SetFilters(filters map[string]any) { e.store.SetFilters(filters) }

func (e *Entity) SetSearchQuery(query string) { e.store.SetSearchQuery(query) }

func (e *Entity) ClearCurrent() { e.store.ClearCurrent() }

func (e *Entity) Reset() { e.store.Reset() }
