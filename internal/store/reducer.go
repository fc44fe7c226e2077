package store

import (
	"github.com/mesh-intelligence/caseload/internal/transport"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

// Reduce applies a to prev and returns the next state. It never mutates prev
// or anything reachable from it.
func Reduce(prev types.CollectionState, a Action) types.CollectionState {
	next := prev.Clone()
	if next.Loading == nil {
		next.Loading = map[string]bool{}
	}
	if next.Errors == nil {
		next.Errors = map[string]string{}
	}

	switch a.Phase {
	case Pending:
		next.Loading[a.class()] = true
		next.Errors[a.class()] = ""
		return next
	case Rejected:
		next.Loading[a.class()] = false
		next.Errors[a.class()] = a.Error
		return next
	case Fulfilled:
		next.Loading[a.class()] = false
		return fulfill(next, a)
	default:
		return local(next, a)
	}
}

func fulfill(st types.CollectionState, a Action) types.CollectionState {
	et := st.EntityType

	switch a.Kind {
	case KindList:
		page, _ := a.Payload.(transport.Page)
		st.Items = types.CloneRecords(page.Items)
		if st.Items == nil {
			st.Items = []types.Record{}
		}
		st.TotalItems = page.Total
		st.CurrentPage = orOne(page.CurrentPage)
		st.TotalPages = orOne(page.TotalPages)
		st.LastFetch = a.At.UnixMilli()

	case KindGet:
		rec, _ := a.Payload.(types.Record)
		st.CurrentItem = rec.Clone()

	case KindCreate:
		rec, _ := a.Payload.(types.Record)
		if rec == nil {
			return st
		}
		st.Items = append([]types.Record{rec.Clone()}, st.Items...)
		st.TotalItems++

	case KindUpdate:
		rec, _ := a.Payload.(types.Record)
		st = replaceRecord(st, rec, a.ID)

	case KindDelete:
		kept := make([]types.Record, 0, len(st.Items))
		for _, it := range st.Items {
			if !types.HasIdentity(it, et, a.ID) {
				kept = append(kept, it)
			}
		}
		st.Items = kept
		// The server confirmed one deletion, so its total dropped by one
		// even when the record was not on the loaded page.
		if st.TotalItems > 0 {
			st.TotalItems--
		}
		if types.HasIdentity(st.CurrentItem, et, a.ID) {
			st.CurrentItem = nil
		}

	case KindDropdown:
		recs, _ := a.Payload.([]types.Record)
		st.DropdownOptions = types.CloneRecords(recs)
		if st.DropdownOptions == nil {
			st.DropdownOptions = []types.Record{}
		}

	case KindStatistics:
		rec, _ := a.Payload.(types.Record)
		st.Statistics = rec.Clone()
		st.LastStatsFetch = a.At.UnixMilli()

	case KindExtension:
		st = mergeExtension(st, a)
	}
	return st
}

func local(st types.CollectionState, a Action) types.CollectionState {
	switch a.Kind {
	case KindSetFilters:
		f, _ := a.Payload.(map[string]any)
		st.Filters = types.Record(f).Clone()
		if st.Filters == nil {
			st.Filters = map[string]any{}
		}
	case KindSetSearch:
		st.SearchQuery, _ = a.Payload.(string)
	case KindClearCurrent:
		st.CurrentItem = nil
	case KindReset:
		return types.NewCollectionState(st.EntityType)
	case KindRestore:
		restored, ok := a.Payload.(types.CollectionState)
		if !ok {
			return st
		}
		out := types.NewCollectionState(st.EntityType)
		out.Items = nonNil(types.CloneRecords(restored.Items))
		out.TotalItems = restored.TotalItems
		out.CurrentPage = orOne(restored.CurrentPage)
		out.TotalPages = orOne(restored.TotalPages)
		out.CurrentItem = restored.CurrentItem.Clone()
		out.DropdownOptions = nonNil(types.CloneRecords(restored.DropdownOptions))
		out.Statistics = restored.Statistics.Clone()
		out.AvailableItems = nonNil(types.CloneRecords(restored.AvailableItems))
		if restored.Filters != nil {
			out.Filters = types.Record(restored.Filters).Clone()
		}
		out.SearchQuery = restored.SearchQuery
		out.LastFetch = restored.LastFetch
		out.LastStatsFetch = restored.LastStatsFetch
		return out
	}
	return st
}

// replaceRecord swaps rec into items and the current item where identities
// match. fallbackID is used when rec carries no identity of its own. No-op
// when nothing matches.
func replaceRecord(st types.CollectionState, rec types.Record, fallbackID any) types.CollectionState {
	if rec == nil {
		return st
	}
	id, ok := types.IdentityOf(rec, st.EntityType)
	if !ok {
		id = fallbackID
	}
	for i, it := range st.Items {
		if types.HasIdentity(it, st.EntityType, id) {
			st.Items[i] = rec.Clone()
			break
		}
	}
	if types.HasIdentity(st.CurrentItem, st.EntityType, id) {
		st.CurrentItem = rec.Clone()
	}
	return st
}

func orOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func nonNil(rs []types.Record) []types.Record {
	if rs == nil {
		return []types.Record{}
	}
	return rs
}
