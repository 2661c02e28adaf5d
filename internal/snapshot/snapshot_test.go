package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolens/internal/cache"
	"evolens/internal/host"
)

const sample = `
weapons:
  - id: WHIP
    code: 1
    variants:
      - name: Whip
        texture: items
        frame: whip.png
        requires: [HOLLOW]
        evolves_into: BLOODY_TEAR
  - id: BLOODY_TEAR
    code: 2
    variants:
      - name: Bloody Tear
        frame: tear.png
power_ups:
  - id: HOLLOW
    code: 7
    name: Hollow Heart
    frame: hollow.png
arcana:
  - id: GEMINI
    code: 1
    name: I - Gemini
    weapons: [WHIP]
    items: [HOLLOW]
session:
  weapons: [WHIP]
  selected: GEMINI
screen:
  name: root
  children:
    - name: title
      text: Gemini
    - name: icon
      image: whip
      atlas: items
sprites:
  - atlas: items
    frame: whip
`

func TestParseBuildsReadableHostGraph(t *testing.T) {
	h, err := Parse([]byte(sample))
	require.NoError(t, err)
	a := host.NewReflect(cache.New())

	weapons, ok := a.Member(h.DataManager, "AllWeaponData")
	require.True(t, ok)

	var ids []string
	var codes []int
	for key, variants := range a.Enumerate(weapons) {
		name, _ := a.Name(key)
		code, _ := a.EnumInt(key)
		ids = append(ids, name)
		codes = append(codes, code)
		n, ok := a.Len(variants)
		require.True(t, ok)
		assert.Equal(t, 1, n)
	}
	assert.Equal(t, []string{"WHIP", "BLOODY_TEAR"}, ids)
	assert.Equal(t, []int{1, 2}, codes)
}

func TestRequirementOutsideWeaponRegistryGetsSyntheticCode(t *testing.T) {
	h, err := Parse([]byte(sample))
	require.NoError(t, err)
	a := host.NewReflect(cache.New())

	weapons, _ := a.Member(h.DataManager, "AllWeaponData")
	for key, variants := range a.Enumerate(weapons) {
		if name, _ := a.Name(key); name != "WHIP" {
			continue
		}
		data, ok := a.Index(variants, 0)
		require.True(t, ok)
		reqs, ok := a.Member(data, "evoSynergy")
		require.True(t, ok)
		req, ok := a.Index(reqs, 0)
		require.True(t, ok)

		code, ok := a.EnumInt(req)
		require.True(t, ok)
		assert.Equal(t, syntheticCodeBase, code)
		name, _ := a.Name(req)
		assert.Equal(t, "HOLLOW", name)
	}
}

func TestSessionAndSelection(t *testing.T) {
	h, err := Parse([]byte(sample))
	require.NoError(t, err)
	a := host.NewReflect(cache.New())

	equipment, ok := host.Path(a, h.Session, "ActiveCharacter", "WeaponsManager", "ActiveEquipment")
	require.True(t, ok)
	first, ok := a.Index(equipment, 0)
	require.True(t, ok)
	code, ok := host.MemberInt(a, first, "Type")
	require.True(t, ok)
	assert.Equal(t, 1, code)

	selected, ok := host.MemberInt(a, h.Selected, "Type")
	require.True(t, ok)
	assert.Equal(t, 1, selected)
}

func TestScreenTreeLinksParents(t *testing.T) {
	h, err := Parse([]byte(sample))
	require.NoError(t, err)
	a := host.NewReflect(cache.New())

	children, ok := a.Member(h.Screen, "children")
	require.True(t, ok)
	icon, ok := a.Index(children, 1)
	require.True(t, ok)

	parent, ok := a.Member(icon, "parent")
	require.True(t, ok)
	assert.Same(t, h.Screen, parent)

	atlas, ok := host.Path(a, icon, "sprite", "texture", "name")
	require.True(t, ok)
	assert.Equal(t, "items", atlas)
}

func TestResourcesLookup(t *testing.T) {
	h, err := Parse([]byte(sample))
	require.NoError(t, err)
	a := host.NewReflect(cache.New())

	found, ok := a.Call(h.Resources, "GetSprite", "items", "whip")
	require.True(t, ok)
	assert.NotNil(t, found)

	_, ok = a.Call(h.Resources, "GetSprite", "items", "whip.png")
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("weapons: [\n"))
		assert.True(t, errors.Is(err, ErrInvalidYAML))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := Parse([]byte("weapons:\n  - code: 1\n"))
		assert.True(t, errors.Is(err, ErrMissingID))
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := Parse([]byte("power_ups:\n  - id: A\n  - id: A\n"))
		assert.True(t, errors.Is(err, ErrDuplicateID))
	})

	t.Run("empty document", func(t *testing.T) {
		h, err := Parse([]byte("{}"))
		require.NoError(t, err)
		assert.Nil(t, h.Session)
		assert.Nil(t, h.Screen)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	h, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, h.DataManager)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
