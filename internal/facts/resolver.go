package facts

import (
	"log/slog"
	"strconv"

	"evolens/internal/cache"
	"evolens/internal/gamedata"
	"evolens/internal/model"
)

const (
	SourceDeclared = "declared"
	SourceCaptured = "captured"
	SourceScanned  = "scanned"
)

// Source is one evidence source for a record. Sources are consulted in a
// fixed order and each one fails independently of the others.
type Source interface {
	Name() string
	Evidence(record model.EntityRef) model.Evidence
}

// Scanner derives evidence for a record from what the host currently renders.
// ok is false when there is nothing to scan yet; such a result is not kept.
type Scanner interface {
	Scan(record *model.AffinityRecord) (ev model.Evidence, ok bool)
}

type Options struct {
	Scan bool
}

type Resolver struct {
	catalog *gamedata.Catalog
	store   *cache.Store
	sources []Source
}

func New(catalog *gamedata.Catalog, store *cache.Store, scanner Scanner, opts Options) *Resolver {
	r := &Resolver{catalog: catalog, store: store}
	r.sources = []Source{
		declaredSource{catalog: catalog},
		capturedSource{store: store},
	}
	if opts.Scan && scanner != nil {
		r.sources = append(r.sources, scannedSource{catalog: catalog, store: store, scanner: scanner})
	}
	return r
}

// Sources lists source names in evaluation order.
func (r *Resolver) Sources() []string {
	names := make([]string, 0, len(r.sources))
	for _, src := range r.sources {
		names = append(names, src.Name())
	}
	return names
}

// IsAffected walks the sources in order and stops at the first one that
// lists entity. Later sources, including a lazy scan, only run when the
// earlier ones say no.
func (r *Resolver) IsAffected(entity, record model.EntityRef) bool {
	for _, src := range r.sources {
		if evidence(src, record).Has(entity) {
			return true
		}
	}
	return false
}

// AffectedSet is declared ∪ captured ∪ scanned, keyed by identity.
func (r *Resolver) AffectedSet(record model.EntityRef) model.RefSet {
	out := make(model.RefSet)
	for _, src := range r.sources {
		for ref := range evidence(src, record).All() {
			out.Add(ref)
		}
	}
	return out
}

// Evidence returns the per-source breakdown for record as copies; cached
// sets are never handed out.
func (r *Resolver) Evidence(record model.EntityRef) model.EvidenceSet {
	set := model.EvidenceSet{
		Declared: model.NewEvidence(),
		Captured: model.NewEvidence(),
		Scanned:  model.NewEvidence(),
	}
	for _, src := range r.sources {
		ev := evidence(src, record).Clone()
		switch src.Name() {
		case SourceDeclared:
			set.Declared = ev
		case SourceCaptured:
			set.Captured = ev
		case SourceScanned:
			set.Scanned = ev
		}
	}
	return set
}

// Capture records refs as observed on screen while record was displayed.
// Captured evidence only grows until the session is cleared.
func (r *Resolver) Capture(record model.EntityRef, refs ...model.EntityRef) {
	if record.Kind != model.KindAffinityRecord || len(refs) == 0 {
		return
	}
	captured(r.store, record).Add(refs...)
}

func evidence(src Source, record model.EntityRef) (ev model.Evidence) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Warn("evidence source failed", "source", src.Name(), "record", record.String(), "panic", recovered)
			ev = model.NewEvidence()
		}
	}()
	ev = src.Evidence(record)
	if ev.Weapons == nil || ev.Items == nil {
		return model.NewEvidence()
	}
	return ev
}

type declaredSource struct {
	catalog *gamedata.Catalog
}

func (declaredSource) Name() string { return SourceDeclared }

func (s declaredSource) Evidence(record model.EntityRef) model.Evidence {
	return s.catalog.Declared(record)
}

type capturedSource struct {
	store *cache.Store
}

func (capturedSource) Name() string { return SourceCaptured }

func (s capturedSource) Evidence(record model.EntityRef) model.Evidence {
	ev, ok := cache.Lookup[model.Evidence](s.store, cache.PerSession, capturedKey(record))
	if !ok {
		return model.NewEvidence()
	}
	return ev
}

func captured(store *cache.Store, record model.EntityRef) model.Evidence {
	ev, _ := cache.GetOrBuild(store, cache.PerSession, capturedKey(record), func() (model.Evidence, bool) {
		return model.NewEvidence(), true
	})
	return ev
}

type scannedSource struct {
	catalog *gamedata.Catalog
	store   *cache.Store
	scanner Scanner
}

func (scannedSource) Name() string { return SourceScanned }

// Evidence scans at most once per record per session. An empty result is
// cached like any other; a scan that had no game data or no screen to read
// is not.
func (s scannedSource) Evidence(record model.EntityRef) model.Evidence {
	ev, ok := cache.GetOrBuild(s.store, cache.PerSession, scannedKey(record), func() (model.Evidence, bool) {
		if _, ok := s.catalog.Index(); !ok {
			return model.Evidence{}, false
		}
		rec, ok := s.catalog.Record(record)
		if !ok {
			return model.NewEvidence(), true
		}
		return s.scan(rec)
	})
	if !ok {
		return model.NewEvidence()
	}
	return ev
}

func (s scannedSource) scan(record *model.AffinityRecord) (ev model.Evidence, ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Warn("screen scan failed", "record", record.Identifier, "panic", recovered)
			ev, ok = model.NewEvidence(), true
		}
	}()
	ev, ok = s.scanner.Scan(record)
	if !ok {
		return model.NewEvidence(), false
	}
	if ev.Weapons == nil || ev.Items == nil {
		return model.NewEvidence(), true
	}
	return ev, true
}

func capturedKey(record model.EntityRef) string {
	return "facts/captured/" + strconv.Itoa(record.Code)
}

func scannedKey(record model.EntityRef) string {
	return "facts/scanned/" + strconv.Itoa(record.Code)
}
