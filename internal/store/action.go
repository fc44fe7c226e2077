package store

import (
	"time"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// Phase is the lifecycle stage of an asynchronous operation.
type Phase int

const (
	// Local actions have no lifecycle; they apply immediately.
	Local Phase = iota
	Pending
	Fulfilled
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "local"
	}
}

// Action kinds. The first group are network operations, the second group
// are local state changes.
const (
	KindList       = "list"
	KindGet        = "get"
	KindCreate     = "create"
	KindUpdate     = "update"
	KindDelete     = "delete"
	KindDropdown   = "dropdown"
	KindStatistics = "statistics"
	KindExtension  = "extension"

	KindSetFilters   = "set_filters"
	KindSetSearch    = "set_search"
	KindClearCurrent = "clear_current"
	KindReset        = "reset"
	KindRestore      = "restore"
)

// kindClass maps standard kinds to their operation class.
var kindClass = map[string]string{
	KindList:       types.ClassList,
	KindGet:        types.ClassItem,
	KindCreate:     types.ClassMutate,
	KindUpdate:     types.ClassMutate,
	KindDelete:     types.ClassMutate,
	KindDropdown:   types.ClassDropdown,
	KindStatistics: types.ClassStatistics,
}

// ClassOf returns the operation class of a standard kind.
func ClassOf(kind string) string {
	if c, ok := kindClass[kind]; ok {
		return c
	}
	return types.ClassMutate
}

// Action is one state transition request.
type Action struct {
	Kind  string
	Phase Phase
	// Class overrides the class derived from Kind; used by extensions.
	Class string
	// At stamps fetch times on fulfilled list and statistics actions.
	At time.Time

	// Payload is the fulfilled result: a Page for list, a Record for get,
	// create, update, statistics, []Record for dropdown, the unwrapped
	// response for extensions, a CollectionState for restore, a map for
	// set_filters and a string for set_search.
	Payload any
	// Error is the normalized rejection message.
	Error string

	// ID is the target identity of update, delete and extension actions.
	ID any
	// Merge and ChildID describe a fulfilled extension.
	Merge   types.MergeRule
	ChildID any
}

func (a Action) class() string {
	if a.Class != "" {
		return a.Class
	}
	return ClassOf(a.Kind)
}
