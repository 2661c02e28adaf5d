package gamedata

import (
	"log/slog"

	"evolens/internal/config"
	"evolens/internal/host"
	"evolens/internal/model"
)

// Index holds everything derived from the data manager. It is immutable
// once built.
type Index struct {
	entries     map[model.EntityRef]*Entry
	weapons     []*Entry
	powerUps    []*Entry
	records     map[model.EntityRef]*model.AffinityRecord
	recordOrder []model.EntityRef
	ids         map[model.Kind]map[string]model.EntityRef
	folded      map[model.Kind]map[string]model.EntityRef
	sprites     map[string]model.EntityRef
	ingredients map[model.EntityRef][]model.EntityRef
}

func newIndex() *Index {
	idx := &Index{
		entries:     make(map[model.EntityRef]*Entry),
		records:     make(map[model.EntityRef]*model.AffinityRecord),
		ids:         make(map[model.Kind]map[string]model.EntityRef),
		folded:      make(map[model.Kind]map[string]model.EntityRef),
		sprites:     make(map[string]model.EntityRef),
		ingredients: make(map[model.EntityRef][]model.EntityRef),
	}
	for _, kind := range []model.Kind{model.KindWeapon, model.KindPowerUp, model.KindAffinityRecord} {
		idx.ids[kind] = make(map[string]model.EntityRef)
		idx.folded[kind] = make(map[string]model.EntityRef)
	}
	return idx
}

func (idx *Index) byID(kind model.Kind, id string) (model.EntityRef, bool) {
	if ref, ok := idx.ids[kind][id]; ok {
		return ref, true
	}
	ref, ok := idx.folded[kind][canonicalID(id)]
	return ref, ok
}

func (idx *Index) addID(ref model.EntityRef, id string) {
	if id == "" {
		return
	}
	if _, exists := idx.ids[ref.Kind][id]; !exists {
		idx.ids[ref.Kind][id] = ref
	}
	key := canonicalID(id)
	if _, exists := idx.folded[ref.Kind][key]; !exists {
		idx.folded[ref.Kind][key] = ref
	}
}

func (idx *Index) addSprite(ref model.EntityRef, frame string) {
	if frame == "" {
		return
	}
	for _, name := range NameVariants(frame) {
		if _, exists := idx.sprites[name]; !exists {
			idx.sprites[name] = ref
		}
	}
}

// rawRef is an enum value read from a requirement or result slot before the
// registries it may point into are known.
type rawRef struct {
	code    int
	hasCode bool
	name    string
}

type pendingVariant struct {
	entry    *Entry
	requires []rawRef
	result   rawRef
}

type indexBuilder struct {
	access  host.Accessor
	schema  *config.Schema
	idx     *Index
	pending []pendingVariant
}

func (b *indexBuilder) readRaw(value any) (rawRef, bool) {
	if value == nil {
		return rawRef{}, false
	}
	code, hasCode := b.access.EnumInt(value)
	name, _ := b.access.Name(value)
	if !hasCode && name == "" {
		return rawRef{}, false
	}
	return rawRef{code: code, hasCode: hasCode, name: name}, true
}

// variants returns the per-key records: a collection value yields each
// element, anything else is a single record.
func (b *indexBuilder) variants(value any) []any {
	if value == nil {
		return nil
	}
	if _, ok := b.access.Len(value); !ok {
		return []any{value}
	}
	var out []any
	for _, item := range host.Items(b.access, value) {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

func (b *indexBuilder) readWeapons(registry any) {
	rs := b.schema.Weapon
	for key, value := range b.access.Enumerate(registry) {
		raw, ok := b.readRaw(key)
		if !ok || !raw.hasCode {
			slog.Debug("skipping weapon with unreadable key", "key", raw.name)
			continue
		}
		entry := &Entry{Ref: model.Weapon(raw.code), Identifier: raw.name}
		for _, data := range b.variants(value) {
			if entry.Name == "" {
				b.fillEntry(entry, data, rs)
			}
			pv := pendingVariant{entry: entry}
			if reqs, ok := b.access.Member(data, rs.Requires); ok {
				for _, item := range host.Items(b.access, reqs) {
					if req, ok := b.readRaw(item); ok {
						pv.requires = append(pv.requires, req)
					}
				}
			}
			if result, ok := b.access.Member(data, rs.EvolvesInto); ok {
				pv.result, _ = b.readRaw(result)
			}
			if len(pv.requires) > 0 || pv.result != (rawRef{}) {
				b.pending = append(b.pending, pv)
			}
		}
		b.addEntry(entry)
		b.idx.weapons = append(b.idx.weapons, entry)
	}
}

func (b *indexBuilder) readPowerUps(registry any) {
	rs := b.schema.PowerUp
	for key, value := range b.access.Enumerate(registry) {
		raw, ok := b.readRaw(key)
		if !ok || !raw.hasCode {
			continue
		}
		entry := &Entry{Ref: model.PowerUp(raw.code), Identifier: raw.name}
		if data := b.variants(value); len(data) > 0 {
			b.fillEntry(entry, data[0], rs)
		}
		b.addEntry(entry)
		b.idx.powerUps = append(b.idx.powerUps, entry)
	}
}

func (b *indexBuilder) fillEntry(entry *Entry, data any, rs config.RecordSchema) {
	entry.Name, _ = host.String(b.access, data, rs.Name)
	if rs.Description != "" {
		entry.Description, _ = host.String(b.access, data, rs.Description)
	}
	if rs.Texture != "" {
		entry.Texture, _ = host.String(b.access, data, rs.Texture)
	}
	entry.Frame, _ = host.String(b.access, data, rs.Frame)
}

func (b *indexBuilder) addEntry(entry *Entry) {
	if _, exists := b.idx.entries[entry.Ref]; exists {
		return
	}
	b.idx.entries[entry.Ref] = entry
	b.idx.addID(entry.Ref, entry.Identifier)
}

// resolve binds requirement and result slots once both registries are read.
// Requirements are tried against weapons by code, then power-ups and weapons
// by identifier.
func (b *indexBuilder) resolve() {
	for _, entry := range b.idx.weapons {
		b.idx.addSprite(entry.Ref, entry.Frame)
	}
	for _, entry := range b.idx.powerUps {
		b.idx.addSprite(entry.Ref, entry.Frame)
	}

	for _, pv := range b.pending {
		variant := Variant{ResultID: pv.result.name}
		if ref, ok := b.resolveRaw(pv.result, model.KindWeapon); ok {
			variant.Result = ref
			if variant.ResultID == "" {
				variant.ResultID = b.idx.entries[ref].Identifier
			}
		}
		for _, raw := range pv.requires {
			req := Requirement{ID: raw.name}
			if ref, ok := b.resolveRaw(raw, model.KindWeapon, model.KindPowerUp); ok {
				req.Ref = ref
			}
			variant.Requires = append(variant.Requires, req)
		}
		pv.entry.Variants = append(pv.entry.Variants, variant)

		base := pv.entry.Ref
		for _, req := range variant.Requires {
			if req.Ref.IsZero() {
				continue
			}
			users := b.idx.ingredients[req.Ref]
			if len(users) > 0 && users[len(users)-1] == base {
				continue
			}
			b.idx.ingredients[req.Ref] = append(users, base)
		}
	}
	b.pending = nil
}

func (b *indexBuilder) resolveRaw(raw rawRef, kinds ...model.Kind) (model.EntityRef, bool) {
	if raw.hasCode {
		if _, ok := b.idx.entries[model.Weapon(raw.code)]; ok {
			return model.Weapon(raw.code), true
		}
	}
	if raw.name == "" {
		return model.EntityRef{}, false
	}
	for _, kind := range kinds {
		if ref, ok := b.idx.byID(kind, raw.name); ok {
			return ref, true
		}
	}
	return model.EntityRef{}, false
}

func (b *indexBuilder) readRecords(registry any) {
	as := b.schema.Affinity
	for key, value := range b.access.Enumerate(registry) {
		raw, ok := b.readRaw(key)
		if !ok || !raw.hasCode {
			continue
		}
		record := &model.AffinityRecord{
			Ref:        model.Record(raw.code),
			Identifier: raw.name,
			Weapons:    make(model.RefSet),
			Items:      make(model.RefSet),
		}
		data := b.variants(value)
		if len(data) == 0 {
			continue
		}
		record.Name, _ = host.String(b.access, data[0], as.Name)
		if as.Description != "" {
			record.Description, _ = host.String(b.access, data[0], as.Description)
		}
		if weapons, ok := b.access.Member(data[0], as.Weapons); ok {
			b.readDeclared(weapons, model.KindWeapon, record.Weapons)
		}
		if as.Items != "" {
			if items, ok := b.access.Member(data[0], as.Items); ok {
				b.readDeclared(items, model.KindPowerUp, record.Items)
			}
		}
		if _, exists := b.idx.records[record.Ref]; exists {
			continue
		}
		b.idx.records[record.Ref] = record
		b.idx.recordOrder = append(b.idx.recordOrder, record.Ref)
		b.idx.addID(record.Ref, record.Identifier)
	}
}

// readDeclared decodes a declared membership list. Values whose integer
// cannot be read fall back to the identifier map, so decorated or
// differently-cased names collapse onto one identity.
func (b *indexBuilder) readDeclared(coll any, kind model.Kind, into model.RefSet) {
	for _, item := range host.Items(b.access, coll) {
		raw, ok := b.readRaw(item)
		if !ok {
			continue
		}
		if raw.hasCode {
			into.Add(model.EntityRef{Kind: kind, Code: raw.code})
			continue
		}
		if ref, ok := b.idx.byID(kind, raw.name); ok {
			into.Add(ref)
		}
	}
}
