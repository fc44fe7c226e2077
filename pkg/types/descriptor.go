package types

import (
	"net/url"
	"strings"
	"time"
)

// Path template placeholders.
const (
	PlaceholderID      = "{id}"
	PlaceholderChildID = "{child_id}"
)

// Endpoints holds the REST path templates for one entity type. Detail,
// Update and Delete contain the {id} placeholder. Dropdown and Statistics are
// optional; an empty template means the entity does not support them.
type Endpoints struct {
	List       string `yaml:"list" json:"list"`
	Detail     string `yaml:"detail" json:"detail"`
	Create     string `yaml:"create" json:"create"`
	Update     string `yaml:"update" json:"update"`
	Delete     string `yaml:"delete" json:"delete"`
	Dropdown   string `yaml:"dropdown,omitempty" json:"dropdown,omitempty"`
	Statistics string `yaml:"statistics,omitempty" json:"statistics,omitempty"`
}

// ValidationRule is one client-side check on a field. Rules for a field are
// evaluated in declaration order.
type ValidationRule struct {
	Rule    string `yaml:"rule" json:"rule"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
	// Value is the comparison operand: a length, bound, pattern, option list
	// or the name of another field, depending on Rule.
	Value any `yaml:"value,omitempty" json:"value,omitempty"`
	// Condition restricts the rule to records for which it returns true.
	Condition func(Record) bool `yaml:"-" json:"-"`
}

// Validation rule names understood by the evaluator.
const (
	RuleRequired  = "required"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleInteger   = "integer"
	RuleNumeric   = "numeric"
	RuleEmail     = "email"
	RuleURL       = "url"
	RuleDate      = "date"
	RulePattern   = "pattern"
	RuleOneOf     = "one_of"
	RuleSameAs    = "same_as"
)

// ValidationRuleNames lists every known rule name.
var ValidationRuleNames = []string{
	RuleRequired, RuleMinLength, RuleMaxLength, RuleMin, RuleMax, RuleInteger,
	RuleNumeric, RuleEmail, RuleURL, RuleDate, RulePattern, RuleOneOf, RuleSameAs,
}

// Merge rule kinds for extension operations.
const (
	MergeNone          = "none"
	MergeCurrent       = "current"
	MergeItem          = "item"
	MergeAvailable     = "available"
	MergeRemoveNested  = "remove_nested"
	MergeReplaceNested = "replace_nested"
)

// MergeRule declares how a fulfilled extension operation changes state.
type MergeRule struct {
	Kind string `yaml:"kind" json:"kind"`
	// Field is the nested collection on the current item, for the nested kinds.
	Field string `yaml:"field,omitempty" json:"field,omitempty"`
	// ChildType names the nested records' entity type, used to resolve their
	// identity for remove_nested.
	ChildType string `yaml:"child_type,omitempty" json:"child_type,omitempty"`
}

// ExtensionOp is an entity-specific operation beyond the standard set.
type ExtensionOp struct {
	Method string    `yaml:"method" json:"method"`
	Path   string    `yaml:"path" json:"path"`
	Class  string    `yaml:"class,omitempty" json:"class,omitempty"` // operation class for loading/error flags; defaults to mutate
	Merge  MergeRule `yaml:"merge" json:"merge"`
}

// ExtensionCall carries the arguments of one extension invocation.
type ExtensionCall struct {
	ID      any
	ChildID any
	Params  Params
	Body    any
}

// Descriptor is the static configuration of one entity type.
type Descriptor struct {
	EntityType      string                      `yaml:"entity_type" json:"entity_type"`
	Endpoints       Endpoints                   `yaml:"endpoints" json:"endpoints"`
	ValidationRules map[string][]ValidationRule `yaml:"validation_rules,omitempty" json:"validation_rules,omitempty"`
	Extensions      map[string]ExtensionOp      `yaml:"extensions,omitempty" json:"extensions,omitempty"`

	// CacheWindow and StatsCacheWindow override the session defaults for the
	// list and statistics caches. Zero means use the default.
	CacheWindow      time.Duration `yaml:"cache_window,omitempty" json:"cache_window,omitempty"`
	StatsCacheWindow time.Duration `yaml:"stats_cache_window,omitempty" json:"stats_cache_window,omitempty"`
}

// Extension returns the named extension operation.
func (d Descriptor) Extension(name string) (ExtensionOp, bool) {
	op, ok := d.Extensions[name]
	return op, ok
}

// ExpandPath substitutes {id} and {child_id} in a path template. Values are
// path-escaped.
func ExpandPath(template string, id, childID any) (string, error) {
	path := template
	if strings.Contains(path, PlaceholderID) {
		s, err := IDString(id)
		if err != nil {
			return "", err
		}
		path = strings.ReplaceAll(path, PlaceholderID, url.PathEscape(s))
	}
	if strings.Contains(path, PlaceholderChildID) {
		s, err := IDString(childID)
		if err != nil {
			return "", err
		}
		path = strings.ReplaceAll(path, PlaceholderChildID, url.PathEscape(s))
	}
	return path, nil
}
