// Package store builds the per-entity state container and operation set.
// Every network operation dispatches a pending action, then either a
// fulfilled action carrying the response or a rejected action carrying a
// normalized message. State transitions are computed by Reduce.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/caseload/internal/transport"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

// Listener receives a copy of the state after every transition.
type Listener func(types.CollectionState)

// Store owns the collection state of one entity type.
type Store struct {
	desc types.Descriptor
	doer transport.Doer
	log  *zap.Logger
	now  func() time.Time

	// dmu orders dispatches so listeners see states in reduction order.
	dmu   sync.Mutex
	mu    sync.RWMutex
	state types.CollectionState

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates the store for desc. Requests go through doer.
func New(desc types.Descriptor, doer transport.Doer, opts ...Option) *Store {
	s := &Store{
		desc:      desc,
		doer:      doer,
		log:       zap.NewNop(),
		now:       time.Now,
		state:     types.NewCollectionState(desc.EntityType),
		listeners: make(map[int]Listener),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(zap.String("entity", desc.EntityType))
	return s
}

// Descriptor returns the bound descriptor.
func (s *Store) Descriptor() types.Descriptor { return s.desc }

// State returns a copy of the current state.
func (s *Store) State() types.CollectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

// Dispatch applies a and notifies listeners. It returns the new state.
// Listeners run before the next dispatch starts and must not dispatch on the
// same store.
func (s *Store) Dispatch(a Action) types.CollectionState {
	s.dmu.Lock()
	defer s.dmu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.lmu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.lmu.Unlock()
	for _, l := range ls {
		l(snap.Clone())
	}
	return snap
}

// request describes one network call and how to turn its response into a
// fulfilled payload.
type request struct {
	method  string
	path    string
	opts    transport.Options
	payload func(data any) any
}

// run executes req through the pending/fulfilled/rejected lifecycle. The
// returned error is always a *types.TransportError.
func (s *Store) run(ctx context.Context, base Action, req request) (any, error) {
	pending := base
	pending.Phase = Pending
	s.Dispatch(pending)

	resp, err := s.doer.Do(ctx, req.method, req.path, req.opts)
	if err != nil {
		terr := normalize(err)
		rejected := base
		rejected.Phase = Rejected
		rejected.Error = terr.Message
		s.Dispatch(rejected)
		s.log.Warn("operation rejected",
			zap.String("kind", base.Kind), zap.String("path", req.path), zap.String("error", terr.Message))
		return nil, terr
	}

	payload := req.payload(resp.Data)
	fulfilled := base
	fulfilled.Phase = Fulfilled
	fulfilled.Payload = payload
	fulfilled.At = s.now()
	s.Dispatch(fulfilled)
	s.log.Debug("operation fulfilled", zap.String("kind", base.Kind), zap.String("path", req.path))
	return payload, nil
}

func normalize(err error) *types.TransportError {
	var te *types.TransportError
	if errors.As(err, &te) {
		return te
	}
	return &types.TransportError{Message: types.Message(err), Err: err}
}

func (s *Store) expand(template string, id, childID any, op string) (string, error) {
	path, err := types.ExpandPath(template, id, childID)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", op, s.desc.EntityType, err)
	}
	return path, nil
}

func (s *Store) unsupported(op string) error {
	return &types.UnsupportedOperationError{EntityType: s.desc.EntityType, Operation: op}
}

// List fetches one page and replaces the items.
func (s *Store) List(ctx context.Context, params types.Params) (transport.Page, error) {
	out, err := s.run(ctx, Action{Kind: KindList}, request{
		method:  http.MethodGet,
		path:    s.desc.Endpoints.List,
		opts:    transport.Options{Params: params},
		payload: func(data any) any { return transport.ParsePage(data) },
	})
	if err != nil {
		return transport.Page{}, err
	}
	return out.(transport.Page), nil
}

// Get fetches one record and focuses it.
func (s *Store) Get(ctx context.Context, id any) (types.Record, error) {
	path, err := s.expand(s.desc.Endpoints.Detail, id, nil, KindGet)
	if err != nil {
		return nil, err
	}
	out, err := s.run(ctx, Action{Kind: KindGet, ID: id}, request{
		method:  http.MethodGet,
		path:    path,
		payload: recordPayload,
	})
	if err != nil {
		return nil, err
	}
	return out.(types.Record), nil
}

// Create sends data and prepends the created record.
func (s *Store) Create(ctx context.Context, data types.Record) (types.Record, error) {
	out, err := s.run(ctx, Action{Kind: KindCreate}, request{
		method:  http.MethodPost,
		path:    s.desc.Endpoints.Create,
		opts:    transport.Options{Body: data},
		payload: recordPayload,
	})
	if err != nil {
		return nil, err
	}
	return out.(types.Record), nil
}

// Update sends data for id and replaces the matching record.
func (s *Store) Update(ctx context.Context, id any, data types.Record) (types.Record, error) {
	path, err := s.expand(s.desc.Endpoints.Update, id, nil, KindUpdate)
	if err != nil {
		return nil, err
	}
	out, err := s.run(ctx, Action{Kind: KindUpdate, ID: id}, request{
		method:  http.MethodPut,
		path:    path,
		opts:    transport.Options{Body: data},
		payload: recordPayload,
	})
	if err != nil {
		return nil, err
	}
	return out.(types.Record), nil
}

// Delete removes id on the server and from the items.
func (s *Store) Delete(ctx context.Context, id any) (types.Record, error) {
	path, err := s.expand(s.desc.Endpoints.Delete, id, nil, KindDelete)
	if err != nil {
		return nil, err
	}
	out, err := s.run(ctx, Action{Kind: KindDelete, ID: id}, request{
		method:  http.MethodDelete,
		path:    path,
		payload: recordPayload,
	})
	if err != nil {
		return nil, err
	}
	return out.(types.Record), nil
}

// Dropdown fetches the option list.
func (s *Store) Dropdown(ctx context.Context, params types.Params) ([]types.Record, error) {
	if s.desc.Endpoints.Dropdown == "" {
		return nil, s.unsupported(KindDropdown)
	}
	out, err := s.run(ctx, Action{Kind: KindDropdown}, request{
		method: http.MethodGet,
		path:   s.desc.Endpoints.Dropdown,
		opts:   transport.Options{Params: params},
		payload: func(data any) any {
			return nonNil(types.AsRecords(transport.Unwrap(data)))
		},
	})
	if err != nil {
		return nil, err
	}
	return out.([]types.Record), nil
}

// Statistics fetches the statistics record.
func (s *Store) Statistics(ctx context.Context, params types.Params) (types.Record, error) {
	if s.desc.Endpoints.Statistics == "" {
		return nil, s.unsupported(KindStatistics)
	}
	out, err := s.run(ctx, Action{Kind: KindStatistics}, request{
		method: http.MethodGet,
		path:   s.desc.Endpoints.Statistics,
		opts:   transport.Options{Params: params},
		payload: func(data any) any {
			rec := transport.RecordOf(data)
			if rec == nil {
				rec = types.Record{}
			}
			return rec
		},
	})
	if err != nil {
		return nil, err
	}
	return out.(types.Record), nil
}

// Extension runs the named extension operation of the descriptor.
func (s *Store) Extension(ctx context.Context, name string, call types.ExtensionCall) (any, error) {
	op, ok := s.desc.Extension(name)
	if !ok {
		return nil, s.unsupported(name)
	}
	path, err := s.expand(op.Path, call.ID, call.ChildID, name)
	if err != nil {
		return nil, err
	}
	base := Action{
		Kind:    KindExtension,
		Class:   op.Class,
		ID:      call.ID,
		ChildID: call.ChildID,
		Merge:   op.Merge,
	}
	return s.run(ctx, base, request{
		method:  op.Method,
		path:    path,
		opts:    transport.Options{Params: call.Params, Body: call.Body},
		payload: transport.Unwrap,
	})
}

// SetFilters, SetSearchQuery, ClearCurrent, Reset and Restore are local
// state changes.

func (s *Store) SetFilters(filters map[string]any) {
	s.Dispatch(Action{Kind: KindSetFilters, Payload: filters})
}

func (s *Store) SetSearchQuery(q string) {
	s.Dispatch(Action{Kind: KindSetSearch, Payload: q})
}

func (s *Store) ClearCurrent() {
	s.Dispatch(Action{Kind: KindClearCurrent})
}

func (s *Store) Reset() {
	s.Dispatch(Action{Kind: KindReset})
}

// Restore loads a persisted state. In-flight flags and errors are not restored.
func (s *Store) Restore(st types.CollectionState) {
	s.Dispatch(Action{Kind: KindRestore, Payload: st})
}

func recordPayload(data any) any {
	return transport.RecordOf(data)
}
