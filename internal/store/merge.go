package store

import (
	"github.com/mesh-intelligence/caseload/internal/transport"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

// mergeExtension applies the declared merge rule of a fulfilled extension.
func mergeExtension(st types.CollectionState, a Action) types.CollectionState {
	switch a.Merge.Kind {
	case types.MergeCurrent:
		if rec, ok := types.AsRecord(a.Payload); ok {
			st.CurrentItem = rec.Clone()
		}

	case types.MergeItem:
		if rec, ok := types.AsRecord(a.Payload); ok {
			st = replaceRecord(st, rec, a.ID)
		}

	case types.MergeAvailable:
		st.AvailableItems = nonNil(types.CloneRecords(types.AsRecords(a.Payload)))

	case types.MergeRemoveNested:
		if !currentTargeted(st, a.ID) {
			return st
		}
		children := types.AsRecords(st.CurrentItem[a.Merge.Field])
		kept := make([]any, 0, len(children))
		for _, c := range children {
			if !types.HasIdentity(c, a.Merge.ChildType, a.ChildID) {
				kept = append(kept, map[string]any(c))
			}
		}
		st.CurrentItem[a.Merge.Field] = kept

	case types.MergeReplaceNested:
		if !currentTargeted(st, a.ID) {
			return st
		}
		var list any = a.Payload
		if rec, ok := types.AsRecord(a.Payload); ok {
			nested, has := rec[a.Merge.Field]
			if !has {
				return st
			}
			list = transport.Unwrap(nested)
		}
		children := types.AsRecords(list)
		if children == nil {
			return st
		}
		out := make([]any, 0, len(children))
		for _, c := range children {
			out = append(out, map[string]any(c.Clone()))
		}
		st.CurrentItem[a.Merge.Field] = out
	}
	return st
}

// currentTargeted reports whether a nested merge should touch the current
// item: it must exist and, when the call names an id, match it.
func currentTargeted(st types.CollectionState, id any) bool {
	if st.CurrentItem == nil {
		return false
	}
	if id == nil {
		return true
	}
	return types.HasIdentity(st.CurrentItem, st.EntityType, id)
}
