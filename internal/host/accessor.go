package host

import (
	"iter"
)

// Accessor reads named members and collections from host objects whose
// concrete types are not known at build time. No method mutates the host
// graph and no method panics: anything that cannot be read reports absent.
type Accessor interface {
	// Member looks a field or property up by its case-sensitive name. A
	// member that exists but holds nil reports (nil, true).
	Member(obj any, name string) (any, bool)
	Len(coll any) (int, bool)
	Index(coll any, i int) (any, bool)
	// Enumerate walks a keyed collection in the host's own order.
	Enumerate(keyed any) iter.Seq2[any, any]
	EnumInt(value any) (int, bool)
	Call(obj any, method string, args ...any) (any, bool)
	// Name renders an enum-like value as its identifier.
	Name(value any) (string, bool)
}

// Path follows a chain of member names. A nil anywhere before the last step
// is reported as absent.
func Path(a Accessor, obj any, names ...string) (any, bool) {
	current := obj
	for i, name := range names {
		if current == nil {
			return nil, false
		}
		value, ok := a.Member(current, name)
		if !ok {
			return nil, false
		}
		if value == nil && i < len(names)-1 {
			return nil, false
		}
		current = value
	}
	return current, true
}

func String(a Accessor, obj any, name string) (string, bool) {
	value, ok := a.Member(obj, name)
	if !ok || value == nil {
		return "", false
	}
	if s, ok := value.(string); ok {
		return s, true
	}
	return a.Name(value)
}

// Items walks an indexed collection. Elements that cannot be read are
// skipped.
func Items(a Accessor, coll any) iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		if coll == nil {
			return
		}
		n, ok := a.Len(coll)
		if !ok {
			return
		}
		for i := range n {
			item, ok := a.Index(coll, i)
			if !ok {
				continue
			}
			if !yield(i, item) {
				return
			}
		}
	}
}

// MemberInt decodes an enum-valued member.
func MemberInt(a Accessor, obj any, name string) (int, bool) {
	value, ok := a.Member(obj, name)
	if !ok || value == nil {
		return 0, false
	}
	return a.EnumInt(value)
}
