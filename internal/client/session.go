// Package client implements types.Session. A session owns the transport,
// the snapshot store and one store/façade pair per entity type, created on
// first access and kept until Detach.
package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/caseload/internal/facade"
	"github.com/mesh-intelligence/caseload/internal/registry"
	"github.com/mesh-intelligence/caseload/internal/snapshot"
	"github.com/mesh-intelligence/caseload/internal/store"
	"github.com/mesh-intelligence/caseload/internal/transport"
	"github.com/mesh-intelligence/caseload/internal/validate"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

// Session implements types.Session.
type Session struct {
	reg   *registry.Registry
	log   *zap.Logger
	now   func() time.Time
	check *validate.Validator
	hc    *http.Client
	doer  transport.Doer // overrides the HTTP transport when set

	mu       sync.RWMutex
	attached bool
	config   types.Config
	active   transport.Doer
	snaps    snapshot.Store
	entities map[string]*facade.Entity
	unsubs   []func()
}

var _ types.Session = (*Session)(nil)

// Option configures a Session.
type Option func(*Session)

// WithRegistry replaces the default shelter registry.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Session) { s.reg = r }
}

// WithLogger sets the logger handed to every component.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock replaces time.Now for stores and façades.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithHTTPClient sets the http.Client used by the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Session) { s.hc = hc }
}

// WithDoer bypasses the HTTP transport entirely.
func WithDoer(d transport.Doer) Option {
	return func(s *Session) { s.doer = d }
}

// New returns a detached session.
func New(opts ...Option) *Session {
	s := &Session{
		log:      zap.NewNop(),
		now:      time.Now,
		check:    validate.New(),
		entities: make(map[string]*facade.Entity),
	}
	for _, o := range opts {
		o(s)
	}
	if s.reg == nil {
		s.reg = registry.Default()
	}
	return s
}

// Registry returns the descriptor table.
func (s *Session) Registry() *registry.Registry { return s.reg }

// EntityTypes lists the registered entity types.
func (s *Session) EntityTypes() []string { return s.reg.Names() }

// Attach validates config, builds the transport and opens the snapshot store.
func (s *Session) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	doer := s.doer
	if doer == nil {
		opts := []transport.Option{
			transport.WithToken(config.Token),
			transport.WithLogger(s.log.Named("transport")),
		}
		if s.hc != nil {
			opts = append(opts, transport.WithHTTPClient(s.hc))
		}
		if config.Timeout > 0 {
			opts = append(opts, transport.WithTimeout(config.Timeout))
		}
		c, err := transport.New(config.BaseURL, opts...)
		if err != nil {
			return err
		}
		doer = c
	}

	snaps, err := snapshot.New(config.SnapshotBackend, config.DataDir)
	if err != nil {
		return err
	}

	s.config = config
	s.active = doer
	s.snaps = snaps
	s.attached = true
	s.log.Debug("session attached",
		zap.String("base_url", config.BaseURL), zap.String("snapshots", config.SnapshotBackend))
	return nil
}

// Detach drops every collection state and closes the snapshot store.
// Idempotent.
func (s *Session) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	for _, u := range s.unsubs {
		u()
	}
	s.unsubs = nil
	s.entities = make(map[string]*facade.Entity)
	s.attached = false
	s.active = nil

	err := s.snaps.Close()
	s.snaps = nil
	return err
}

// Entity returns the façade for entityType, creating its store on first
// access. Unknown types fail with a *types.ConfigurationError.
func (s *Session) Entity(entityType string) (types.Entity, error) {
	return s.entity(entityType)
}

func (s *Session) entity(entityType string) (*facade.Entity, error) {
	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return nil, types.ErrSessionDetached
	}
	if e, ok := s.entities[entityType]; ok {
		s.mu.RUnlock()
		return e, nil
	}
	s.mu.RUnlock()

	desc, err := s.reg.Descriptor(entityType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, types.ErrSessionDetached
	}
	if e, ok := s.entities[entityType]; ok {
		return e, nil
	}

	log := s.log.Named("entity")
	st := store.New(desc, s.active, store.WithLogger(log), store.WithClock(s.now))
	s.restore(st)
	s.unsubs = append(s.unsubs, st.Subscribe(s.saver(entityType)))

	e := facade.New(st,
		facade.WithClock(s.now),
		facade.WithWindows(s.config.ListWindow(), s.config.StatsWindow()),
		facade.WithLogger(log),
		facade.WithValidator(s.check),
	)
	s.entities[entityType] = e
	return e, nil
}

func (s *Session) restore(st *store.Store) {
	entityType := st.Descriptor().EntityType
	saved, ok, err := s.snaps.Load(context.Background(), entityType)
	if err != nil {
		s.log.Warn("snapshot load failed", zap.String("entity", entityType), zap.Error(err))
		return
	}
	if ok {
		st.Restore(saved)
	}
}

// saver persists settled states. Transitions with an operation in flight
// carry nothing new worth saving.
func (s *Session) saver(entityType string) store.Listener {
	return func(st types.CollectionState) {
		if st.IsLoading() {
			return
		}
		s.mu.RLock()
		snaps := s.snaps
		s.mu.RUnlock()
		if snaps == nil {
			return
		}
		if err := snaps.Save(context.Background(), st); err != nil {
			s.log.Warn("snapshot save failed", zap.String("entity", entityType), zap.Error(err))
		}
	}
}

// Snapshots lists the entity types with a persisted snapshot.
func (s *Session) Snapshots(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrSessionDetached
	}
	return s.snaps.List(ctx)
}

// Forget drops the persisted snapshot of entityType and resets its state if
// the store is live.
func (s *Session) Forget(ctx context.Context, entityType string) error {
	if !s.reg.Has(entityType) {
		_, err := s.reg.Descriptor(entityType)
		return err
	}
	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return types.ErrSessionDetached
	}
	e := s.entities[entityType]
	snaps := s.snaps
	s.mu.RUnlock()

	if e != nil {
		e.Reset()
	}
	return snaps.Delete(ctx, entityType)
}
