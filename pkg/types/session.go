package types

import "context"

// Session is the process-wide entry point. Callers attach to an API, access
// entities by type name, and detach when done. Each entity type has exactly
// one collection state for the life of the session.
type Session interface {
	// Entity returns the façade bound to the given entity type. The store
	// behind it is created on first access.
	// Returns a *ConfigurationError wrapping ErrUnknownEntity if the type is
	// not registered.
	Entity(entityType string) (Entity, error)

	// EntityTypes lists the registered entity types in sorted order.
	EntityTypes() []string

	// Attach connects the session to the API described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases snapshot storage and drops every collection state.
	// Idempotent: multiple calls succeed.
	Detach() error
}

// Entity provides the caller-facing operation set for a single entity type.
type Entity interface {
	// Type returns the bound entity type.
	Type() string

	// FetchAll loads a page of records. When forceRefresh is false, the list
	// cache is fresh and items are loaded, the cached items are returned
	// without a request. Never returns an error; failures are reported in
	// the Result.
	FetchAll(ctx context.Context, params Params, forceRefresh bool) Result[[]Record]

	// FetchByID always issues a request and focuses the returned record.
	FetchByID(ctx context.Context, id any) (Record, error)

	// Create validates data, sends it, and prepends the returned record.
	Create(ctx context.Context, data Record) (Record, error)

	// Update validates the present fields of data, sends them, and replaces
	// the matching record in place.
	Update(ctx context.Context, id any, data Record) (Record, error)

	// Delete removes the record on the server and in local state.
	Delete(ctx context.Context, id any) (Record, error)

	// DropdownOptions loads the option list, cached for the session once
	// non-empty unless forceRefresh is set.
	DropdownOptions(ctx context.Context, params Params, forceRefresh bool) Result[[]Record]

	// LoadStatistics loads the statistics record within its own cache window.
	LoadStatistics(ctx context.Context, params Params, forceRefresh bool) Result[Record]

	// Invoke runs a named extension operation. Returns an
	// *UnsupportedOperationError if the entity type does not declare it.
	Invoke(ctx context.Context, operation string, call ExtensionCall) (any, error)

	// Validate evaluates the descriptor's validation rules against data.
	// With partial set, rules for absent fields are skipped.
	Validate(data Record, partial bool) error

	// State returns a copy of the collection state.
	State() CollectionState

	SetFilters(filters map[string]any)
	SetSearchQuery(query string)
	ClearCurrent()

	// Reset returns the collection state to its initial value.
	Reset()
}
