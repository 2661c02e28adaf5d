package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evolens/internal/config"
	"evolens/internal/model"
	"evolens/internal/snapshot"
)

const run = `
weapons:
  - id: ALPHA
    code: 1
    variants:
      - {name: Alpha, texture: items, frame: alpha.png, requires: [HOLLOW], evolves_into: GAMMA}
  - id: BETA
    code: 2
    variants:
      - {name: Beta, texture: items, frame: beta.png}
  - id: GAMMA
    code: 3
    variants:
      - {name: Gamma, texture: items, frame: gamma.png}
power_ups:
  - {id: HOLLOW, code: 1, name: Hollow Heart, texture: items, frame: hollow.png}
arcana:
  - id: FOO
    code: 1
    name: Foo
    weapons: [ALPHA, BETA]
session:
  weapons: [ALPHA]
  selected: FOO
screen:
  name: root
  children:
    - name: card
      children:
        - {name: title, text: Foo}
        - {name: i1, image: beta.png, atlas: items}
        - {name: i2, image: gamma, atlas: items}
sprites:
  - {atlas: items, frame: alpha}
  - {atlas: items, frame: beta}
  - {atlas: items, frame: gamma}
  - {atlas: items, frame: hollow}
`

func newEngine(t *testing.T, opts ...Option) (*Engine, *snapshot.Host) {
	t.Helper()
	h, err := snapshot.Parse([]byte(run))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Scan.MinCardImages = 2
	return New(cfg, nil, opts...), h
}

func TestAffectedSetGrowsWithScan(t *testing.T) {
	e, h := newEngine(t)
	handles := Handles(*h)
	handles.Screen = nil
	e.Attach(handles)

	foo, ok := e.FindRecord("Foo")
	require.True(t, ok)
	assert.Equal(t, []model.EntityRef{model.Weapon(1), model.Weapon(2)}, e.AffectedSet(foo.Ref).Sorted())

	e.SetScreen(h.Screen)
	assert.Equal(t,
		[]model.EntityRef{model.Weapon(1), model.Weapon(2), model.Weapon(3)},
		e.AffectedSet(foo.Ref).Sorted())
	assert.True(t, e.IsAffected(model.Weapon(3), foo.Ref))

	ev := e.Evidence(foo.Ref)
	assert.Equal(t, []model.EntityRef{model.Weapon(2), model.Weapon(3)}, ev.Scanned.Weapons.Sorted())
}

func TestScanBeforeDataManagerIsRetried(t *testing.T) {
	e, h := newEngine(t)
	e.SetResources(h.Resources)
	e.SetScreen(h.Screen)

	assert.False(t, e.IsAffected(model.Weapon(3), model.Record(1)))

	e.SetDataManager(h.DataManager)
	assert.True(t, e.IsAffected(model.Weapon(3), model.Record(1)))
	assert.Equal(t,
		[]model.EntityRef{model.Weapon(2), model.Weapon(3)},
		e.Evidence(model.Record(1)).Scanned.Weapons.Sorted())
}

func TestSelectAndObserve(t *testing.T) {
	e, h := newEngine(t)
	e.Attach(Handles(*h))

	record, ok := e.SelectedRecord()
	require.True(t, ok)
	assert.Equal(t, model.Record(1), record)

	require.True(t, e.Observe(model.PowerUp(1)))
	assert.True(t, e.IsAffected(model.PowerUp(1), record))

	e.StartRun()
	_, ok = e.SelectedRecord()
	assert.False(t, ok)
	assert.False(t, e.Observe(model.PowerUp(1)), "nothing selected after a run boundary")
	assert.False(t, e.IsAffected(model.PowerUp(1), record))
	assert.NotEmpty(t, e.Records())
}

func TestSelectAffinityUndecodable(t *testing.T) {
	e, h := newEngine(t)
	e.SetDataManager(h.DataManager)

	assert.False(t, e.SelectAffinity(struct{ Label string }{"Foo"}))
	_, ok := e.SelectedRecord()
	assert.False(t, ok)
}

func TestFormulasAndAssets(t *testing.T) {
	e, h := newEngine(t)
	e.Attach(Handles(*h))

	hollow, ok := e.Lookup("HOLLOW")
	require.True(t, ok)
	assert.Equal(t, "Hollow Heart", e.DisplayName(hollow))

	list := e.BuildFormulas(hollow)
	require.Equal(t, 1, list.Count())
	f := list.Formulas[0]
	assert.Equal(t, "GAMMA", f.ResultID)
	assert.True(t, f.PrimaryOwned, "ALPHA is in the session inventory")
	assert.True(t, e.Owned(model.Weapon(1)))

	got, ok := e.ResolveAsset("items", "beta.png")
	require.True(t, ok)
	assert.Equal(t, "beta", got.Frame)

	_, ok = e.ResolveAsset("items", "nothing.png")
	assert.False(t, ok)
	assert.Len(t, e.AssetSteps(), 4)
}

func TestDataManagerIsKeptAcrossRuns(t *testing.T) {
	e, h := newEngine(t)
	e.SetDataManager(h.DataManager)
	require.Len(t, e.Records(), 1)

	e.StartRun()
	e.SetDataManager(map[string]any{})
	assert.Len(t, e.Records(), 1)
}

func TestStartRunRotatesSession(t *testing.T) {
	e, h := newEngine(t)
	e.Attach(Handles(*h))

	before := e.SessionID()
	e.StartRun()
	e.StartRun()
	assert.NotEqual(t, before, e.SessionID())
	assert.Equal(t, 2, e.Stats().Clears)
}

func TestScanCanBeDisabled(t *testing.T) {
	h, err := snapshot.Parse([]byte(run))
	require.NoError(t, err)

	cfg := config.Default()
	disabled := false
	cfg.Scan.Enabled = &disabled
	e := New(cfg, nil)
	e.Attach(Handles(*h))

	assert.Len(t, e.Sources(), 2)
	assert.False(t, e.IsAffected(model.Weapon(3), model.Record(1)))
}

type stubScanner struct{ calls int }

func (s *stubScanner) Scan(*model.AffinityRecord) (model.Evidence, bool) {
	s.calls++
	return model.NewEvidence(), true
}

func TestWithScanner(t *testing.T) {
	scanner := &stubScanner{}
	e, h := newEngine(t, WithScanner(scanner))
	e.Attach(Handles(*h))

	e.IsAffected(model.Weapon(3), model.Record(1))
	e.IsAffected(model.Weapon(3), model.Record(1))
	assert.Equal(t, 1, scanner.calls)
}
