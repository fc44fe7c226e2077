package types

// Operation classes. Each class has its own loading and error flag.
const (
	ClassList       = "list"
	ClassItem       = "item"
	ClassDropdown   = "dropdown"
	ClassStatistics = "statistics"
	ClassMutate     = "mutate"
)

// OperationClasses lists every class for enumeration.
var OperationClasses = []string{
	ClassList,
	ClassItem,
	ClassDropdown,
	ClassStatistics,
	ClassMutate,
}

// CollectionState is the client-side state of one entity type.
type CollectionState struct {
	EntityType string `json:"entity_type"`

	Items       []Record `json:"items"`
	TotalItems  int      `json:"total_items"`
	CurrentPage int      `json:"current_page"`
	TotalPages  int      `json:"total_pages"`

	CurrentItem Record `json:"current_item,omitempty"`

	DropdownOptions []Record `json:"dropdown_options"`
	Statistics      Record   `json:"statistics,omitempty"`
	AvailableItems  []Record `json:"available_items"`

	Filters     map[string]any `json:"filters"`
	SearchQuery string         `json:"search_query"`

	Loading map[string]bool   `json:"loading"`
	Errors  map[string]string `json:"errors"`

	// LastFetch and LastStatsFetch are epoch milliseconds of the last
	// successful list and statistics fetch; zero means never.
	LastFetch      int64 `json:"last_fetch"`
	LastStatsFetch int64 `json:"last_stats_fetch"`
}

// NewCollectionState returns the initial state for an entity type.
func NewCollectionState(entityType string) CollectionState {
	st := CollectionState{
		EntityType:      entityType,
		Items:           []Record{},
		CurrentPage:     1,
		TotalPages:      1,
		DropdownOptions: []Record{},
		AvailableItems:  []Record{},
		Filters:         map[string]any{},
		Loading:         map[string]bool{},
		Errors:          map[string]string{},
	}
	for _, c := range OperationClasses {
		st.Loading[c] = false
		st.Errors[c] = ""
	}
	return st
}

// Clone returns a deep copy of the state.
func (s CollectionState) Clone() CollectionState {
	out := s
	out.Items = CloneRecords(s.Items)
	out.CurrentItem = s.CurrentItem.Clone()
	out.DropdownOptions = CloneRecords(s.DropdownOptions)
	out.Statistics = s.Statistics.Clone()
	out.AvailableItems = CloneRecords(s.AvailableItems)
	out.Filters = cloneMap(s.Filters)
	out.Loading = make(map[string]bool, len(s.Loading))
	for k, v := range s.Loading {
		out.Loading[k] = v
	}
	out.Errors = make(map[string]string, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	return out
}

// IsLoading reports whether any operation class is in flight.
func (s CollectionState) IsLoading() bool {
	for _, v := range s.Loading {
		if v {
			return true
		}
	}
	return false
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return map[string]any(Record(m).Clone())
}
