package host

import (
	"cmp"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"unsafe"

	"evolens/internal/cache"
)

var (
	lengthMembers = []string{"Count", "Length"}
	itemMethods   = []string{"Item", "Get", "At"}
	keysMember    = "Keys"
	unboxMethod   = "Unbox"
	nameMethod    = "ToString"
)

type memberKind int

const (
	memberMissing memberKind = iota
	memberField
	memberProperty
	memberHidden
)

type memberDescriptor struct {
	kind  memberKind
	index []int
}

type Option func(*Reflect)

// WithEnumPayloadOffset sets the byte offset at which boxed enum wrappers
// keep their integer payload.
func WithEnumPayloadOffset(offset uintptr) Option {
	return func(r *Reflect) {
		r.payloadOffset = offset
	}
}

// Reflect implements Accessor over Go values using package reflect. Member
// resolution per type is memoised in the persistent cache tier.
type Reflect struct {
	store         *cache.Store
	payloadOffset uintptr
}

var _ Accessor = (*Reflect)(nil)

func NewReflect(store *cache.Store, opts ...Option) *Reflect {
	if store == nil {
		store = cache.New()
	}
	r := &Reflect{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reflect) Member(obj any, name string) (value any, ok bool) {
	defer absentOnPanic("member", name, &value, &ok)

	v := reflect.ValueOf(obj)
	if !v.IsValid() {
		return nil, false
	}
	if v.Kind() == reflect.Map {
		return mapMember(v, name)
	}

	desc := r.describe(v.Type(), name)
	switch desc.kind {
	case memberField:
		s, ok := structValue(v)
		if !ok {
			return nil, false
		}
		return unwrap(s.FieldByIndex(desc.index)), true
	case memberProperty:
		out := v.MethodByName(name).Call(nil)
		return unwrap(out[0]), true
	case memberHidden:
		s, ok := structValue(v)
		if !ok {
			return nil, false
		}
		return unwrap(readHidden(s, desc.index)), true
	default:
		return nil, false
	}
}

func (r *Reflect) describe(t reflect.Type, name string) memberDescriptor {
	key := "host/type/" + typeKey(t) + "." + name
	desc, _ := cache.GetOrBuild(r.store, cache.Persistent, key, func() (memberDescriptor, bool) {
		return discover(t, name), true
	})
	return desc
}

func discover(t reflect.Type, name string) memberDescriptor {
	st := t
	for st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	var field reflect.StructField
	found := false
	if st.Kind() == reflect.Struct {
		field, found = st.FieldByName(name)
	}
	if found && field.IsExported() {
		return memberDescriptor{kind: memberField, index: field.Index}
	}
	if method, ok := t.MethodByName(name); ok && method.Type.NumIn() == 1 && method.Type.NumOut() >= 1 {
		return memberDescriptor{kind: memberProperty}
	}
	if found {
		return memberDescriptor{kind: memberHidden, index: field.Index}
	}
	return memberDescriptor{kind: memberMissing}
}

func (r *Reflect) Len(coll any) (n int, ok bool) {
	defer absentOnPanic("len", "", &n, &ok)

	v := reflect.ValueOf(coll)
	if !v.IsValid() {
		return 0, false
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len(), true
	case reflect.Pointer:
		if v.IsNil() {
			return 0, false
		}
		if v.Elem().Kind() == reflect.Array {
			return v.Elem().Len(), true
		}
	}

	for _, name := range lengthMembers {
		value, ok := r.Member(coll, name)
		if !ok || value == nil {
			continue
		}
		if n, ok := numeric(reflect.ValueOf(value)); ok {
			return n, true
		}
	}
	return 0, false
}

func (r *Reflect) Index(coll any, i int) (item any, ok bool) {
	defer absentOnPanic("index", "", &item, &ok)

	v := reflect.ValueOf(coll)
	if !v.IsValid() || i < 0 {
		return nil, false
	}
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Array {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if i >= v.Len() {
			return nil, false
		}
		return unwrap(v.Index(i)), true
	}

	n, ok := r.Len(coll)
	if !ok || i >= n {
		return nil, false
	}
	for _, method := range itemMethods {
		if item, ok := r.Call(coll, method, i); ok {
			return item, true
		}
	}
	return nil, false
}

func (r *Reflect) Enumerate(keyed any) iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		v := reflect.ValueOf(keyed)
		if !v.IsValid() {
			return
		}
		if v.Kind() == reflect.Map {
			keys := v.MapKeys()
			slices.SortFunc(keys, compareKeys)
			for _, key := range keys {
				if !yield(unwrap(key), unwrap(v.MapIndex(key))) {
					return
				}
			}
			return
		}

		keys, ok := r.Member(keyed, keysMember)
		if !ok || keys == nil {
			return
		}
		for _, key := range Items(r, keys) {
			value, found := r.lookupKey(keyed, key)
			if !found {
				continue
			}
			if !yield(key, value) {
				return
			}
		}
	}
}

func (r *Reflect) lookupKey(keyed, key any) (any, bool) {
	for _, method := range itemMethods {
		if value, ok := r.Call(keyed, method, key); ok {
			return value, true
		}
	}
	return nil, false
}

// EnumInt tries, in order, a layout read at the payload offset, a plain
// numeric conversion and an explicit Unbox call.
func (r *Reflect) EnumInt(value any) (n int, ok bool) {
	defer absentOnPanic("enum", "", &n, &ok)

	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return 0, false
	}
	if n, ok := r.layoutInt(v); ok {
		return n, true
	}
	if n, ok := numeric(v); ok {
		return n, true
	}
	if unboxed, ok := r.Call(value, unboxMethod); ok && unboxed != nil {
		return numeric(reflect.ValueOf(unboxed))
	}
	return 0, false
}

func (r *Reflect) layoutInt(v reflect.Value) (int, bool) {
	s, ok := structValue(v)
	if !ok {
		return 0, false
	}
	t := s.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Offset != r.payloadOffset || !isInteger(f.Type.Kind()) {
			continue
		}
		return numeric(readHidden(s, f.Index))
	}
	return 0, false
}

func (r *Reflect) Call(obj any, method string, args ...any) (result any, ok bool) {
	defer absentOnPanic("call", method, &result, &ok)

	v := reflect.ValueOf(obj)
	if !v.IsValid() {
		return nil, false
	}
	m := v.MethodByName(method)
	if !m.IsValid() {
		return nil, false
	}
	mt := m.Type()
	if mt.IsVariadic() || mt.NumIn() != len(args) {
		return nil, false
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		param := mt.In(i)
		av := reflect.ValueOf(arg)
		switch {
		case !av.IsValid():
			in[i] = reflect.Zero(param)
		case av.Type().AssignableTo(param):
			in[i] = av
		case isNumber(av.Kind()) && isNumber(param.Kind()):
			in[i] = av.Convert(param)
		default:
			return nil, false
		}
	}

	out := m.Call(in)
	if len(out) == 0 {
		return nil, true
	}
	if len(out) == 2 {
		switch second := out[1].Interface().(type) {
		case bool:
			if !second {
				return nil, false
			}
		case error:
			if second != nil {
				return nil, false
			}
		}
	}
	return unwrap(out[0]), true
}

func (r *Reflect) Name(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	}
	if name, ok := r.Call(value, nameMethod); ok {
		if s, ok := name.(string); ok {
			return s, true
		}
	}
	return "", false
}

func mapMember(v reflect.Value, name string) (any, bool) {
	kt := v.Type().Key()
	if kt.Kind() != reflect.String {
		return nil, false
	}
	value := v.MapIndex(reflect.ValueOf(name).Convert(kt))
	if !value.IsValid() {
		return nil, false
	}
	return unwrap(value), true
}

func structValue(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v, true
}

// readHidden reads a non-exported field. Values that are not addressable are
// copied first so the read never touches the caller's memory layout.
func readHidden(s reflect.Value, index []int) reflect.Value {
	if !s.CanAddr() {
		clone := reflect.New(s.Type()).Elem()
		clone.Set(s)
		s = clone
	}
	f := s.FieldByIndex(index)
	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
}

func unwrap(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	if v.Kind() == reflect.Interface {
		return unwrap(v.Elem())
	}
	if !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func numeric(v reflect.Value) (int, bool) {
	if !v.IsValid() {
		return 0, false
	}
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, false
		}
		v = v.Elem()
	}
	switch {
	case isInteger(v.Kind()) && v.CanInt():
		return int(v.Int()), true
	case isInteger(v.Kind()) && v.CanUint():
		u := v.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	case v.CanFloat():
		f := v.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumber(k reflect.Kind) bool {
	return isInteger(k) || k == reflect.Float32 || k == reflect.Float64
}

func typeKey(t reflect.Type) string {
	prefix := ""
	for t.Kind() == reflect.Pointer {
		prefix += "*"
		t = t.Elem()
	}
	return prefix + t.PkgPath() + "." + t.String()
}

func compareKeys(a, b reflect.Value) int {
	if a.CanInt() && b.CanInt() {
		return cmp.Compare(a.Int(), b.Int())
	}
	if a.Kind() == reflect.String && b.Kind() == reflect.String {
		return cmp.Compare(a.String(), b.String())
	}
	return cmp.Compare(fmt.Sprint(unwrap(a)), fmt.Sprint(unwrap(b)))
}

func absentOnPanic[T any](op, name string, value *T, ok *bool) {
	if recovered := recover(); recovered != nil {
		var zero T
		*value = zero
		*ok = false
		slog.Debug("host access failed", "op", op, "member", name, "panic", recovered)
	}
}
