package gamedata

import (
	"evolens/internal/cache"
	"evolens/internal/host"
	"evolens/internal/model"
)

// Owned reports whether the current session's inventory holds ref. It reads
// live state on every call; anything unreachable counts as not owned.
func (c *Catalog) Owned(ref model.EntityRef) bool {
	session, ok := cache.Lookup[any](c.store, cache.PerSession, cache.KeySession)
	if !ok || session == nil {
		return false
	}
	for _, inv := range c.schema.Inventory {
		if inv.EntityKind() != ref.Kind {
			continue
		}
		equipment, ok := host.Path(c.access, session, inv.Path...)
		if !ok || equipment == nil {
			continue
		}
		for _, item := range host.Items(c.access, equipment) {
			code, ok := host.MemberInt(c.access, item, inv.EntryType)
			if ok && code == ref.Code {
				return true
			}
		}
	}
	return false
}
