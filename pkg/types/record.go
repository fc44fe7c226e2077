package types

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Record is a single entity as decoded from the API. Field shapes are
// per-entity configuration and opaque to the core.
type Record map[string]any

// Params are query parameters for list, dropdown and statistics requests.
type Params map[string]any

// Clone returns a deep copy of the record. Nested maps and slices are copied
// so that state snapshots never alias caller data.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case Record:
		return t.Clone()
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = cloneValue(e)
		}
		return cp
	case []Record:
		return CloneRecords(t)
	default:
		return v
	}
}

// CloneRecords deep-copies a record slice, preserving nil.
func CloneRecords(rs []Record) []Record {
	if rs == nil {
		return nil
	}
	out := make([]Record, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// AsRecord converts a decoded JSON value into a Record. It accepts
// map[string]any and Record; anything else yields false.
func AsRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	default:
		return nil, false
	}
}

// AsRecords converts a decoded JSON array into records. Elements that are not
// objects are skipped.
func AsRecords(v any) []Record {
	switch t := v.(type) {
	case []Record:
		return t
	case []any:
		out := make([]Record, 0, len(t))
		for _, e := range t {
			if r, ok := AsRecord(e); ok {
				out = append(out, r)
			}
		}
		return out
	case []map[string]any:
		out := make([]Record, 0, len(t))
		for _, e := range t {
			out = append(out, Record(e))
		}
		return out
	default:
		return nil
	}
}

// DecodeRecord decodes a record into a typed struct using `json` tag names.
// Numeric and string fields are converted weakly, since the API is not
// consistent about sending ids as numbers or strings.
func DecodeRecord(r Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(r)); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	return nil
}

// RecordFromJSON parses a JSON object into a Record.
func RecordFromJSON(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("parsing record: expected a JSON object")
	}
	return r, nil
}
