// Package registry holds the static entity descriptor table. The table is
// built once at startup and never mutated; lookups of unknown entity types
// fail fast with a *types.ConfigurationError.
package registry

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// Registry maps entity type names to descriptors. Safe for concurrent reads.
type Registry struct {
	descriptors map[string]types.Descriptor
	names       []string
}

var knownMergeKinds = map[string]bool{
	types.MergeNone:          true,
	types.MergeCurrent:       true,
	types.MergeItem:          true,
	types.MergeAvailable:     true,
	types.MergeRemoveNested:  true,
	types.MergeReplaceNested: true,
}

var knownClasses = map[string]bool{
	types.ClassList:       true,
	types.ClassItem:       true,
	types.ClassDropdown:   true,
	types.ClassStatistics: true,
	types.ClassMutate:     true,
}

var knownRules = func() map[string]bool {
	m := make(map[string]bool, len(types.ValidationRuleNames))
	for _, r := range types.ValidationRuleNames {
		m[r] = true
	}
	return m
}()

// New builds a registry from descriptors. Every descriptor is checked and
// normalized; the first problem is returned as a *types.ConfigurationError.
func New(descs ...types.Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]types.Descriptor, len(descs))}
	for _, d := range descs {
		nd, err := normalize(d)
		if err != nil {
			return nil, err
		}
		if _, dup := r.descriptors[nd.EntityType]; dup {
			return nil, &types.ConfigurationError{EntityType: nd.EntityType, Err: types.ErrDuplicateEntity}
		}
		r.descriptors[nd.EntityType] = nd
		r.names = append(r.names, nd.EntityType)
	}
	sort.Strings(r.names)
	return r, nil
}

// MustNew is New that panics on error, for static tables built at init time.
func MustNew(descs ...types.Descriptor) *Registry {
	r, err := New(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Descriptor returns the descriptor for entityType.
func (r *Registry) Descriptor(entityType string) (types.Descriptor, error) {
	d, ok := r.descriptors[entityType]
	if !ok {
		return types.Descriptor{}, &types.ConfigurationError{EntityType: entityType, Err: types.ErrUnknownEntity}
	}
	return d, nil
}

// ValidationRules returns the field-keyed rules for entityType, or an empty
// map when the entity declares none.
func (r *Registry) ValidationRules(entityType string) (map[string][]types.ValidationRule, error) {
	d, err := r.Descriptor(entityType)
	if err != nil {
		return nil, err
	}
	if d.ValidationRules == nil {
		return map[string][]types.ValidationRule{}, nil
	}
	return d.ValidationRules, nil
}

// Has reports whether entityType is registered.
func (r *Registry) Has(entityType string) bool {
	_, ok := r.descriptors[entityType]
	return ok
}

// Names returns the registered entity types in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// With returns a new registry holding r's descriptors plus descs. A type
// already present in r is replaced by the one in descs.
func (r *Registry) With(descs ...types.Descriptor) (*Registry, error) {
	override := make(map[string]bool, len(descs))
	for _, d := range descs {
		override[d.EntityType] = true
	}
	all := make([]types.Descriptor, 0, len(r.descriptors)+len(descs))
	for _, name := range r.names {
		if !override[name] {
			all = append(all, r.descriptors[name])
		}
	}
	all = append(all, descs...)
	return New(all...)
}

func normalize(d types.Descriptor) (types.Descriptor, error) {
	missing := func(field string) error {
		return &types.ConfigurationError{
			EntityType: d.EntityType,
			Err:        fmt.Errorf("%w: %s", types.ErrMissingEndpoint, field),
		}
	}
	if strings.TrimSpace(d.EntityType) == "" {
		return d, &types.ConfigurationError{EntityType: d.EntityType, Err: fmt.Errorf("%w: entity_type", types.ErrConfiguration)}
	}
	ep := d.Endpoints
	switch {
	case ep.List == "":
		return d, missing("list")
	case ep.Detail == "":
		return d, missing("detail")
	case ep.Create == "":
		return d, missing("create")
	case ep.Update == "":
		return d, missing("update")
	case ep.Delete == "":
		return d, missing("delete")
	}
	for _, tmpl := range []string{ep.Detail, ep.Update, ep.Delete} {
		if !strings.Contains(tmpl, types.PlaceholderID) {
			return d, &types.ConfigurationError{
				EntityType: d.EntityType,
				Err:        fmt.Errorf("%w: %q has no %s placeholder", types.ErrMissingEndpoint, tmpl, types.PlaceholderID),
			}
		}
	}

	for field, rules := range d.ValidationRules {
		for _, rule := range rules {
			if !knownRules[rule.Rule] {
				return d, &types.ConfigurationError{
					EntityType: d.EntityType,
					Err:        fmt.Errorf("%w: %q on field %s", types.ErrUnknownRule, rule.Rule, field),
				}
			}
		}
	}

	exts := make(map[string]types.ExtensionOp, len(d.Extensions))
	for name, op := range d.Extensions {
		if op.Path == "" {
			return d, missing("extension " + name)
		}
		if op.Method == "" {
			op.Method = http.MethodPost
		}
		op.Method = strings.ToUpper(op.Method)
		if op.Class == "" {
			op.Class = types.ClassMutate
		}
		if !knownClasses[op.Class] {
			return d, &types.ConfigurationError{
				EntityType: d.EntityType,
				Err:        fmt.Errorf("%w: extension %s has unknown class %q", types.ErrConfiguration, name, op.Class),
			}
		}
		if op.Merge.Kind == "" {
			op.Merge.Kind = types.MergeNone
		}
		if !knownMergeKinds[op.Merge.Kind] {
			return d, &types.ConfigurationError{
				EntityType: d.EntityType,
				Err:        fmt.Errorf("%w: extension %s kind %q", types.ErrInvalidMergeRule, name, op.Merge.Kind),
			}
		}
		nested := op.Merge.Kind == types.MergeRemoveNested || op.Merge.Kind == types.MergeReplaceNested
		if nested && op.Merge.Field == "" {
			return d, &types.ConfigurationError{
				EntityType: d.EntityType,
				Err:        fmt.Errorf("%w: extension %s needs a nested field", types.ErrInvalidMergeRule, name),
			}
		}
		exts[name] = op
	}
	d.Extensions = exts
	return d, nil
}
