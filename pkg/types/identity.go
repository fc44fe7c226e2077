package types

import "github.com/spf13/cast"

// GenericIDField is the identity field used by most endpoints.
const GenericIDField = "id"

// IdentityField returns the entity-specific identity field, id_<entityType>.
func IdentityField(entityType string) string {
	return "id_" + entityType
}

// IdentityOf reads a record's identity: the generic id field when present,
// else id_<entityType>. The second result is false when neither is set.
func IdentityOf(r Record, entityType string) (any, bool) {
	if r == nil {
		return nil, false
	}
	if v, ok := r[GenericIDField]; ok && v != nil {
		return v, true
	}
	if v, ok := r[IdentityField(entityType)]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// SameIdentity compares two identities after string normalization, so that
// 2, 2.0 (as decoded from JSON) and "2" all match.
func SameIdentity(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	as, err := cast.ToStringE(a)
	if err != nil {
		return false
	}
	bs, err := cast.ToStringE(b)
	if err != nil {
		return false
	}
	return as != "" && as == bs
}

// HasIdentity reports whether r's identity equals id.
func HasIdentity(r Record, entityType string, id any) bool {
	rid, ok := IdentityOf(r, entityType)
	return ok && SameIdentity(rid, id)
}

// IDString renders an identity for use in a URL path.
func IDString(id any) (string, error) {
	if id == nil {
		return "", ErrInvalidID
	}
	s, err := cast.ToStringE(id)
	if err != nil || s == "" {
		return "", ErrInvalidID
	}
	return s, nil
}
