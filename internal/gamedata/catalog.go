package gamedata

import (
	"log/slog"

	"evolens/internal/cache"
	"evolens/internal/config"
	"evolens/internal/host"
	"evolens/internal/model"
)

const indexKey = "gamedata/index"

type Requirement struct {
	ID  string
	Ref model.EntityRef
}

type Variant struct {
	Requires []Requirement
	ResultID string
	Result   model.EntityRef
}

func (v Variant) Uses(ref model.EntityRef) bool {
	for _, req := range v.Requires {
		if req.Ref == ref {
			return true
		}
	}
	return false
}

type Entry struct {
	Ref         model.EntityRef
	Identifier  string
	Name        string
	Description string
	Texture     string
	Frame       string
	Variants    []Variant
}

// Catalog exposes the data manager's registries as persistent indices. The
// index is built once, on the first query after a data manager handle is
// available.
type Catalog struct {
	access host.Accessor
	schema *config.Schema
	store  *cache.Store
}

func New(access host.Accessor, schema *config.Schema, store *cache.Store) *Catalog {
	if schema == nil {
		schema = config.DefaultSchema()
	}
	return &Catalog{access: access, schema: schema, store: store}
}

func (c *Catalog) Index() (*Index, bool) {
	return cache.GetOrBuild(c.store, cache.Persistent, indexKey, c.build)
}

func (c *Catalog) Entry(ref model.EntityRef) (*Entry, bool) {
	idx, ok := c.Index()
	if !ok {
		return nil, false
	}
	entry, ok := idx.entries[ref]
	return entry, ok
}

// Lookup resolves an identifier across weapons, power-ups and records, in
// that order, exact match first.
func (c *Catalog) Lookup(identifier string) (model.EntityRef, bool) {
	idx, ok := c.Index()
	if !ok {
		return model.EntityRef{}, false
	}
	for _, kind := range []model.Kind{model.KindWeapon, model.KindPowerUp, model.KindAffinityRecord} {
		if ref, ok := idx.byID(kind, identifier); ok {
			return ref, true
		}
	}
	return model.EntityRef{}, false
}

func (c *Catalog) Record(ref model.EntityRef) (*model.AffinityRecord, bool) {
	idx, ok := c.Index()
	if !ok {
		return nil, false
	}
	record, ok := idx.records[ref]
	if !ok {
		return nil, false
	}
	return record.Clone(), true
}

// FindRecord matches an identifier, a display name or a short display name.
func (c *Catalog) FindRecord(name string) (*model.AffinityRecord, bool) {
	idx, ok := c.Index()
	if !ok {
		return nil, false
	}
	if ref, ok := idx.byID(model.KindAffinityRecord, name); ok {
		if record, ok := idx.records[ref]; ok {
			return record.Clone(), true
		}
	}
	folded := Fold(name)
	for _, ref := range idx.recordOrder {
		record := idx.records[ref]
		if Fold(record.Name) == folded || Fold(ShortName(record.Name)) == folded {
			return record.Clone(), true
		}
	}
	return nil, false
}

func (c *Catalog) Records() []*model.AffinityRecord {
	idx, ok := c.Index()
	if !ok {
		return nil
	}
	records := make([]*model.AffinityRecord, 0, len(idx.recordOrder))
	for _, ref := range idx.recordOrder {
		records = append(records, idx.records[ref].Clone())
	}
	return records
}

// BaseItems returns weapon entries in the host's discovery order.
func (c *Catalog) BaseItems() []*Entry {
	idx, ok := c.Index()
	if !ok {
		return nil
	}
	return idx.weapons
}

// RequiredBy lists the base items whose requirements include ref.
func (c *Catalog) RequiredBy(ref model.EntityRef) []model.EntityRef {
	idx, ok := c.Index()
	if !ok {
		return nil
	}
	return idx.ingredients[ref]
}

// SpriteRef maps an on-screen sprite name to the entity it depicts, trying
// the name with and without its extension.
func (c *Catalog) SpriteRef(name string) (model.EntityRef, bool) {
	idx, ok := c.Index()
	if !ok {
		return model.EntityRef{}, false
	}
	for _, variant := range NameVariants(name) {
		if ref, ok := idx.sprites[variant]; ok {
			return ref, true
		}
	}
	return model.EntityRef{}, false
}

func (c *Catalog) Declared(record model.EntityRef) model.Evidence {
	declared := model.NewEvidence()
	idx, ok := c.Index()
	if !ok {
		return declared
	}
	rec, ok := idx.records[record]
	if !ok {
		return declared
	}
	declared.Weapons.Add(rec.Weapons.Sorted()...)
	declared.Items.Add(rec.Items.Sorted()...)
	return declared
}

func (c *Catalog) DisplayName(ref model.EntityRef) string {
	if ref.Kind == model.KindAffinityRecord {
		if record, ok := c.Record(ref); ok {
			return record.Name
		}
		return ref.String()
	}
	entry, ok := c.Entry(ref)
	if !ok {
		return ref.String()
	}
	if entry.Name != "" {
		return entry.Name
	}
	return entry.Identifier
}

func (c *Catalog) Identifier(ref model.EntityRef) string {
	if ref.Kind == model.KindAffinityRecord {
		if record, ok := c.Record(ref); ok {
			return record.Identifier
		}
		return ""
	}
	if entry, ok := c.Entry(ref); ok {
		return entry.Identifier
	}
	return ""
}

func (c *Catalog) build() (*Index, bool) {
	dm, ok := cache.Lookup[any](c.store, cache.Persistent, cache.KeyDataManager)
	if !ok || dm == nil {
		return nil, false
	}

	b := &indexBuilder{access: c.access, schema: c.schema, idx: newIndex()}
	b.readWeapons(c.member(dm, c.schema.DataManager.Weapons))
	b.readPowerUps(c.member(dm, c.schema.DataManager.PowerUps))
	b.resolve()
	b.readRecords(c.member(dm, c.schema.DataManager.Affinities))

	slog.Debug("game data indexed",
		"weapons", len(b.idx.weapons),
		"power_ups", len(b.idx.powerUps),
		"records", len(b.idx.recordOrder),
		"sprites", len(b.idx.sprites))
	return b.idx, true
}

func (c *Catalog) member(obj any, name string) any {
	value, ok := c.access.Member(obj, name)
	if !ok {
		slog.Warn("host member missing", "member", name)
		return nil
	}
	return value
}
