package transport

import (
	"github.com/mesh-intelligence/caseload/pkg/types"
)

const keyData = "data"

// Unwrap strips the response envelope. When payload is an object with a
// non-null "data" key, that value is returned; otherwise payload itself.
func Unwrap(payload any) any {
	if m, ok := payload.(map[string]any); ok {
		if d, ok := m[keyData]; ok && d != nil {
			return d
		}
	}
	return payload
}

// Page is a parsed list response.
type Page struct {
	Items       []types.Record
	Total       int
	CurrentPage int
	TotalPages  int
}

// pageMeta holds the paging fields of a list envelope. Numbers arrive as
// JSON numbers or numeric strings depending on the endpoint.
type pageMeta struct {
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// ParsePage reads a list payload: either a bare array or
// {data: [...], total?, current_page?, last_page?}. Missing total defaults to
// 0, missing pages to 1; malformed paging fields are ignored.
func ParsePage(payload any) Page {
	p := Page{Items: []types.Record{}, CurrentPage: 1, TotalPages: 1}
	p.Items = append(p.Items, types.AsRecords(Unwrap(payload))...)

	m, ok := payload.(map[string]any)
	if !ok {
		return p
	}
	var meta pageMeta
	if err := types.DecodeRecord(m, &meta); err != nil {
		return p
	}
	p.Total = meta.Total
	if meta.CurrentPage > 0 {
		p.CurrentPage = meta.CurrentPage
	}
	if meta.LastPage > 0 {
		p.TotalPages = meta.LastPage
	}
	return p
}

// RecordOf unwraps payload and returns it as a record, or nil.
func RecordOf(payload any) types.Record {
	r, _ := types.AsRecord(Unwrap(payload))
	return r
}
