package gamedata

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolens/internal/cache"
	"evolens/internal/config"
	"evolens/internal/host"
	"evolens/internal/model"
	"evolens/internal/snapshot"
)

const fixture = `
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
  - id: AXE
    code: 3
    variants:
      - name: Axe
        frame: axe.png
        requires: [CANDELABRADOR]
        evolves_into: DEATH_SPIRAL
      - name: Axe
        frame: axe.png
        requires: [CANDELABRADOR]
        evolves_into: DEATH_SPIRAL
  - id: DEATH_SPIRAL
    code: 4
    variants:
      - name: Death Spiral
        frame: axe.png
power_ups:
  - id: HOLLOW
    code: 1
    name: Hollow Heart
    frame: hollow.png
  - id: CANDELABRADOR
    code: 2
    name: Candelabrador
    frame: candle.png
arcana:
  - id: GEMINI
    code: 1
    name: I - Gemini
    weapons: [WHIP, AXE, WHIP]
    items: [HOLLOW]
session:
  weapons: [AXE]
  accessories: [HOLLOW]
`

func newCatalog(t *testing.T, yaml string) (*Catalog, *cache.Store) {
	t.Helper()
	h, err := snapshot.Parse([]byte(yaml))
	require.NoError(t, err)

	store := cache.New()
	store.Put(cache.Persistent, cache.KeyDataManager, h.DataManager)
	if h.Session != nil {
		store.Put(cache.PerSession, cache.KeySession, h.Session)
	}
	return New(host.NewReflect(store), config.DefaultSchema(), store), store
}

func TestIndexRequiresDataManager(t *testing.T) {
	store := cache.New()
	c := New(host.NewReflect(store), nil, store)

	_, ok := c.Index()
	assert.False(t, ok)
	assert.Empty(t, c.BaseItems())

	h, err := snapshot.Parse([]byte(fixture))
	require.NoError(t, err)
	store.Put(cache.Persistent, cache.KeyDataManager, h.DataManager)

	_, ok = c.Index()
	assert.True(t, ok, "index builds once the handle arrives")
}

func TestEntriesAndLookup(t *testing.T) {
	c, _ := newCatalog(t, fixture)

	ref, ok := c.Lookup("WHIP")
	require.True(t, ok)
	assert.Equal(t, model.Weapon(1), ref)

	ref, ok = c.Lookup("hollow")
	require.True(t, ok, "lookup falls back to folded identifiers")
	assert.Equal(t, model.PowerUp(1), ref)

	ref, ok = c.Lookup("GEMINI")
	require.True(t, ok)
	assert.Equal(t, model.Record(1), ref)

	entry, ok := c.Entry(model.Weapon(1))
	require.True(t, ok)
	assert.Equal(t, "Whip", entry.Name)
	assert.Equal(t, "items", entry.Texture)
	assert.Equal(t, "whip.png", entry.Frame)

	pu, ok := c.Entry(model.PowerUp(2))
	require.True(t, ok)
	assert.Equal(t, "Candelabrador", pu.Name)
	assert.Equal(t, "Hollow Heart", c.DisplayName(model.PowerUp(1)))
	assert.Equal(t, "I - Gemini", c.DisplayName(model.Record(1)))
}

func TestRequirementsResolveAcrossRegistries(t *testing.T) {
	c, _ := newCatalog(t, fixture)

	whip, ok := c.Entry(model.Weapon(1))
	require.True(t, ok)
	require.Len(t, whip.Variants, 1)

	variant := whip.Variants[0]
	assert.Equal(t, "BLOODY_TEAR", variant.ResultID)
	assert.Equal(t, model.Weapon(2), variant.Result)
	require.Len(t, variant.Requires, 1)
	assert.Equal(t, model.PowerUp(1), variant.Requires[0].Ref)
	assert.True(t, variant.Uses(model.PowerUp(1)))
}

func TestIngredientRegistry(t *testing.T) {
	c, _ := newCatalog(t, fixture)

	assert.Equal(t, []model.EntityRef{model.Weapon(3)}, c.RequiredBy(model.PowerUp(2)),
		"variants of one base item are listed once")
	assert.Equal(t, []model.EntityRef{model.Weapon(1)}, c.RequiredBy(model.PowerUp(1)))
	assert.Empty(t, c.RequiredBy(model.Weapon(1)))
}

func TestSpriteTablePrefersWeapons(t *testing.T) {
	c, _ := newCatalog(t, fixture)

	ref, ok := c.SpriteRef("whip")
	require.True(t, ok)
	assert.Equal(t, model.Weapon(1), ref)

	ref, ok = c.SpriteRef("hollow.png")
	require.True(t, ok)
	assert.Equal(t, model.PowerUp(1), ref)

	ref, ok = c.SpriteRef("axe.png")
	require.True(t, ok)
	assert.Equal(t, model.Weapon(3), ref, "first registered frame wins")

	_, ok = c.SpriteRef("unknown")
	assert.False(t, ok)
}

func TestDeclaredEvidenceDeduplicates(t *testing.T) {
	c, _ := newCatalog(t, fixture)

	declared := c.Declared(model.Record(1))
	assert.Equal(t, []model.EntityRef{model.Weapon(1), model.Weapon(3)}, declared.Weapons.Sorted())
	assert.Equal(t, []model.EntityRef{model.PowerUp(1)}, declared.Items.Sorted())

	assert.Zero(t, c.Declared(model.Record(99)).Len())
}

func TestFindRecordByDisplayName(t *testing.T) {
	c, _ := newCatalog(t, fixture)

	for _, name := range []string{"GEMINI", "I - Gemini", "gemini"} {
		record, ok := c.FindRecord(name)
		require.True(t, ok, name)
		assert.Equal(t, model.Record(1), record.Ref)
	}
	_, ok := c.FindRecord("Sarabande")
	assert.False(t, ok)
	assert.Len(t, c.Records(), 1)
}

func TestRecordsAreCopies(t *testing.T) {
	c, _ := newCatalog(t, fixture)

	found, ok := c.FindRecord("GEMINI")
	require.True(t, ok)
	found.Name = "renamed"
	found.Weapons.Add(model.Weapon(99))

	byRef, ok := c.Record(model.Record(1))
	require.True(t, ok)
	byRef.Items.Add(model.PowerUp(99))
	c.Records()[0].Weapons.Add(model.Weapon(98))

	again, ok := c.Record(model.Record(1))
	require.True(t, ok)
	assert.Equal(t, "I - Gemini", again.Name)
	assert.False(t, again.Weapons.Has(model.Weapon(99)))
	assert.False(t, again.Weapons.Has(model.Weapon(98)))
	assert.False(t, again.Items.Has(model.PowerUp(99)))
	assert.False(t, c.Declared(model.Record(1)).Has(model.Weapon(99)))
}

func TestOwnedReadsLiveInventory(t *testing.T) {
	c, store := newCatalog(t, fixture)

	assert.True(t, c.Owned(model.Weapon(3)))
	assert.True(t, c.Owned(model.PowerUp(1)))
	assert.False(t, c.Owned(model.Weapon(1)))
	assert.False(t, c.Owned(model.PowerUp(3)), "kind and code must both match")

	store.ClearSession()
	assert.False(t, c.Owned(model.Weapon(3)), "no session handle means nothing is owned")
}

func TestMissingRegistryMembersDegrade(t *testing.T) {
	store := cache.New()
	store.Put(cache.Persistent, cache.KeyDataManager, map[string]any{"unrelated": 1})
	c := New(host.NewReflect(store), config.DefaultSchema(), store)

	idx, ok := c.Index()
	require.True(t, ok)
	assert.Empty(t, idx.weapons)
	assert.Empty(t, c.Records())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Gemini", StripRichText("<color=#fff><b>Gemini</b></color>"))
	assert.Equal(t, "whip", StripExt("whip.png"))
	assert.Equal(t, ".hidden", StripExt(".hidden"))
	assert.Equal(t, []string{"whip.png", "whip"}, NameVariants("whip.png"))
	assert.Equal(t, []string{"whip"}, NameVariants("whip"))
	assert.Equal(t, "Gemini", ShortName("I - Gemini"))
	assert.Equal(t, "Gemini", ShortName("Gemini"))
	assert.Equal(t, Fold("GEMINI"), Fold("gemini "))
}

func TestFoldReusesCasersSafely(t *testing.T) {
	names := []string{"Whip", "STRASSE", "Straße", "<b>Gemini</b>", "I - Gemini", ""}
	want := make([]string, len(names))
	for i, name := range names {
		want[i] = Fold(name)
	}
	assert.Equal(t, Fold("STRASSE"), Fold("Straße"))

	var wg sync.WaitGroup
	got := make([][]string, 8)
	for g := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				out := make([]string, len(names))
				for i, name := range names {
					out[i] = Fold(name)
				}
				got[g] = out
			}
		}()
	}
	wg.Wait()
	for _, out := range got {
		assert.Equal(t, want, out)
	}
}
