package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolens/internal/cache"
)

type boxedEnum struct {
	value__ int32
	name    string
}

func (e *boxedEnum) String() string { return e.name }

type unboxable struct {
	label string
	raw   int64
}

func (u unboxable) Unbox() int64 { return u.raw }

type record struct {
	Public  string
	hidden  string
	Nothing *record
	tags    []string
}

func (r *record) Title() string { return "title:" + r.hidden }

type list struct {
	items []any
}

func (l *list) Count() int            { return len(l.items) }
func (l *list) Item(i int) any        { return l.items[i] }
func (l *list) Broken() (int, error) { return 0, assert.AnError }

type dictionary struct {
	keys   *list
	values map[any]any
}

func (d *dictionary) Keys() *list { return d.keys }

func (d *dictionary) Item(key any) (any, bool) {
	value, ok := d.values[key]
	return value, ok
}

func newAccessor() *Reflect {
	return NewReflect(cache.New())
}

func TestMemberVisibilityOrder(t *testing.T) {
	a := newAccessor()
	obj := &record{Public: "pub", hidden: "secret"}

	value, ok := a.Member(obj, "Public")
	require.True(t, ok)
	assert.Equal(t, "pub", value)

	value, ok = a.Member(obj, "Title")
	require.True(t, ok)
	assert.Equal(t, "title:secret", value)

	value, ok = a.Member(obj, "hidden")
	require.True(t, ok)
	assert.Equal(t, "secret", value)

	_, ok = a.Member(obj, "Hidden")
	assert.False(t, ok, "member names are case-sensitive")
}

func TestMemberNilIsPresent(t *testing.T) {
	a := newAccessor()

	value, ok := a.Member(&record{}, "Nothing")
	assert.True(t, ok)
	assert.Nil(t, value)

	_, ok = a.Member(&record{}, "missing")
	assert.False(t, ok)

	_, ok = a.Member(nil, "Public")
	assert.False(t, ok)
}

func TestMemberOnNonAddressableStruct(t *testing.T) {
	a := newAccessor()

	value, ok := a.Member(record{hidden: "copy"}, "hidden")
	require.True(t, ok)
	assert.Equal(t, "copy", value)
}

func TestMemberCachesTypeDescriptors(t *testing.T) {
	store := cache.New()
	a := NewReflect(store)

	a.Member(&record{}, "Public")
	a.Member(&record{}, "Public")

	assert.Equal(t, 1, store.Stats().Builds)
	assert.Equal(t, 1, store.Len(cache.Persistent))
}

func TestIndexNativeAndProtocol(t *testing.T) {
	a := newAccessor()

	item, ok := a.Index([]string{"a", "b"}, 1)
	require.True(t, ok)
	assert.Equal(t, "b", item)

	_, ok = a.Index([]string{"a"}, 3)
	assert.False(t, ok)

	coll := &list{items: []any{"x", "y", "z"}}
	n, ok := a.Len(coll)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	item, ok = a.Index(coll, 2)
	require.True(t, ok)
	assert.Equal(t, "z", item)

	_, ok = a.Index(coll, 3)
	assert.False(t, ok)

	_, ok = a.Index(&record{}, 0)
	assert.False(t, ok)
}

func TestEnumerateDictionaryProtocolKeepsHostOrder(t *testing.T) {
	a := newAccessor()
	k1, k2 := &boxedEnum{value__: 9, name: "NINE"}, &boxedEnum{value__: 1, name: "ONE"}
	dict := &dictionary{
		keys:   &list{items: []any{k1, k2}},
		values: map[any]any{k1: "nine", k2: "one"},
	}

	var got []string
	for key, value := range a.Enumerate(dict) {
		name, _ := a.Name(key)
		got = append(got, name+"="+value.(string))
	}
	assert.Equal(t, []string{"NINE=nine", "ONE=one"}, got)
}

func TestEnumerateNativeMapIsSorted(t *testing.T) {
	a := newAccessor()

	var keys []int
	for key := range a.Enumerate(map[int]string{10: "a", 2: "b", 7: "c"}) {
		keys = append(keys, key.(int))
	}
	assert.Equal(t, []int{2, 7, 10}, keys)
}

func TestEnumIntFallbackOrder(t *testing.T) {
	a := newAccessor()

	n, ok := a.EnumInt(&boxedEnum{value__: 12, name: "TWELVE"})
	require.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = a.EnumInt(int16(5))
	require.True(t, ok)
	assert.Equal(t, 5, n)

	n, ok = a.EnumInt(unboxable{label: "x", raw: 33})
	require.True(t, ok)
	assert.Equal(t, 33, n)

	_, ok = a.EnumInt("NOT_A_NUMBER")
	assert.False(t, ok)

	_, ok = a.EnumInt(2.5)
	assert.False(t, ok)
}

func TestEnumIntPayloadOffset(t *testing.T) {
	a := NewReflect(cache.New(), WithEnumPayloadOffset(8))
	type wrapped struct {
		header  int64
		value__ int32
	}

	n, ok := a.EnumInt(&wrapped{header: 99, value__: 4})
	require.True(t, ok)
	assert.Equal(t, 4, n)
}

func TestCallSecondResultSignalsAbsence(t *testing.T) {
	a := newAccessor()
	dict := &dictionary{keys: &list{}, values: map[any]any{}}

	_, ok := a.Call(dict, "Item", "missing")
	assert.False(t, ok)

	_, ok = a.Call(&list{}, "Broken")
	assert.False(t, ok)

	_, ok = a.Call(&list{}, "Item", "wrong type")
	assert.False(t, ok)
}

func TestCallRecoversFromPanics(t *testing.T) {
	a := newAccessor()

	_, ok := a.Call(&list{}, "Item", 4)
	assert.False(t, ok)

	var nilRecord *record
	_, ok = a.Member(nilRecord, "Title")
	assert.False(t, ok)
}

func TestPathAndItems(t *testing.T) {
	a := newAccessor()
	root := map[string]any{
		"inner": &record{tags: []string{"a", "b"}},
	}

	tags, ok := Path(a, root, "inner", "tags")
	require.True(t, ok)

	var got []string
	for _, tag := range Items(a, tags) {
		got = append(got, tag.(string))
	}
	assert.Equal(t, []string{"a", "b"}, got)

	_, ok = Path(a, root, "inner", "Nothing", "Public")
	assert.False(t, ok)

	name, ok := String(a, &record{Public: "p"}, "Public")
	require.True(t, ok)
	assert.Equal(t, "p", name)
}
