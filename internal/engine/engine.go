package engine

import (
	"log/slog"

	"evolens/internal/asset"
	"evolens/internal/cache"
	"evolens/internal/config"
	"evolens/internal/facts"
	"evolens/internal/formula"
	"evolens/internal/gamedata"
	"evolens/internal/host"
	"evolens/internal/model"
)

// Handles are the raw host objects a lifecycle hook pushes in. Nil fields
// are left untouched by Attach.
type Handles struct {
	DataManager any
	Resources   any
	Session     any
	Selected    any
	Screen      any
}

type Option func(*options)

type options struct {
	store   *cache.Store
	access  host.Accessor
	scanner facts.Scanner
	recipes []formula.Recipe
}

func WithStore(store *cache.Store) Option {
	return func(o *options) { o.store = store }
}

func WithAccessor(access host.Accessor) Option {
	return func(o *options) { o.access = access }
}

func WithScanner(scanner facts.Scanner) Option {
	return func(o *options) { o.scanner = scanner }
}

func WithRecipes(recipes []formula.Recipe) Option {
	return func(o *options) { o.recipes = recipes }
}

// Engine is the single entry point for the UI layer. It never hands out raw
// host handles; assets carry theirs as an opaque value.
type Engine struct {
	cfg      *config.ProjectConfig
	schema   *config.Schema
	store    *cache.Store
	access   host.Accessor
	catalog  *gamedata.Catalog
	facts    *facts.Resolver
	formulas *formula.Resolver
	assets   *asset.Resolver
}

func New(cfg *config.ProjectConfig, schema *config.Schema, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if schema == nil {
		schema = config.DefaultSchema()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = cache.New()
	}
	if o.access == nil {
		o.access = host.NewReflect(o.store, host.WithEnumPayloadOffset(uintptr(cfg.Host.EnumPayloadOffset)))
	}

	e := &Engine{cfg: cfg, schema: schema, store: o.store, access: o.access}
	e.catalog = gamedata.New(e.access, schema, e.store)
	if o.scanner == nil {
		o.scanner = facts.NewUIScanner(e.access, schema, e.store, e.catalog, cfg.Scan)
	}
	e.facts = facts.New(e.catalog, e.store, o.scanner, facts.Options{Scan: cfg.Scan.IsEnabled()})
	e.assets = asset.New(e.access, schema, e.store, cfg.Assets)

	var formulaOpts []formula.Option
	if o.recipes != nil {
		formulaOpts = append(formulaOpts, formula.WithRecipes(o.recipes))
	}
	e.formulas = formula.New(e.catalog, e.assets, formulaOpts...)
	return e
}

// StartRun marks a run or scene boundary.
func (e *Engine) StartRun() {
	e.ClearSession()
}

func (e *Engine) ClearSession() {
	e.store.ClearSession()
}

func (e *Engine) Attach(h Handles) {
	if h.DataManager != nil {
		e.SetDataManager(h.DataManager)
	}
	if h.Resources != nil {
		e.SetResources(h.Resources)
	}
	if h.Session != nil {
		e.SetSession(h.Session)
	}
	if h.Selected != nil {
		e.SelectAffinity(h.Selected)
	}
	if h.Screen != nil {
		e.SetScreen(h.Screen)
	}
}

// SetDataManager keeps the first data manager seen. Indices built from it
// are persistent, so a later handle would not be reflected anyway.
func (e *Engine) SetDataManager(handle any) {
	if _, exists := e.store.Get(cache.Persistent, cache.KeyDataManager); exists {
		return
	}
	e.store.Put(cache.Persistent, cache.KeyDataManager, handle)
}

func (e *Engine) SetResources(handle any) {
	e.store.Put(cache.Persistent, cache.KeyResources, handle)
}

func (e *Engine) SetSession(handle any) {
	e.store.Put(cache.PerSession, cache.KeySession, handle)
}

// SelectAffinity stores the selected-record handle and decodes which record
// it points at. It reports false when the record cannot be decoded.
func (e *Engine) SelectAffinity(handle any) bool {
	e.store.Put(cache.PerSession, cache.KeySelected, handle)
	e.store.Delete(cache.PerSession, cache.KeySelectedRecord)

	code, ok := host.MemberInt(e.access, handle, e.schema.Selection.Type)
	if !ok {
		code, ok = e.access.EnumInt(handle)
	}
	if !ok {
		slog.Debug("selected affinity not decodable")
		return false
	}
	e.store.Put(cache.PerSession, cache.KeySelectedRecord, model.Record(code))
	return true
}

func (e *Engine) SelectedRecord() (model.EntityRef, bool) {
	return cache.Lookup[model.EntityRef](e.store, cache.PerSession, cache.KeySelectedRecord)
}

func (e *Engine) SetScreen(handle any) {
	e.store.Put(cache.PerSession, cache.KeyScreen, handle)
}

// Observe records refs seen on screen while the selected record is shown.
func (e *Engine) Observe(refs ...model.EntityRef) bool {
	record, ok := e.SelectedRecord()
	if !ok {
		return false
	}
	e.facts.Capture(record, refs...)
	return true
}

func (e *Engine) Capture(record model.EntityRef, refs ...model.EntityRef) {
	e.facts.Capture(record, refs...)
}

func (e *Engine) IsAffected(entity, record model.EntityRef) bool {
	return e.facts.IsAffected(entity, record)
}

func (e *Engine) AffectedSet(record model.EntityRef) model.RefSet {
	return e.facts.AffectedSet(record)
}

func (e *Engine) Evidence(record model.EntityRef) model.EvidenceSet {
	return e.facts.Evidence(record)
}

func (e *Engine) Sources() []string {
	return e.facts.Sources()
}

func (e *Engine) BuildFormulas(ref model.EntityRef) model.FormulaList {
	return e.formulas.Build(ref)
}

func (e *Engine) Classify(ref model.EntityRef) formula.Role {
	return e.formulas.Classify(ref)
}

func (e *Engine) ResolveAsset(atlas, frame string) (model.Asset, bool) {
	return e.assets.Resolve(atlas, frame)
}

func (e *Engine) AssetSteps() []string {
	steps := e.assets.Steps()
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, step.Name)
	}
	return names
}

func (e *Engine) Lookup(identifier string) (model.EntityRef, bool) {
	return e.catalog.Lookup(identifier)
}

func (e *Engine) FindRecord(name string) (*model.AffinityRecord, bool) {
	return e.catalog.FindRecord(name)
}

func (e *Engine) Records() []*model.AffinityRecord {
	return e.catalog.Records()
}

func (e *Engine) DisplayName(ref model.EntityRef) string {
	return e.catalog.DisplayName(ref)
}

func (e *Engine) Identifier(ref model.EntityRef) string {
	return e.catalog.Identifier(ref)
}

func (e *Engine) Owned(ref model.EntityRef) bool {
	return e.catalog.Owned(ref)
}

func (e *Engine) Stats() cache.Stats {
	return e.store.Stats()
}

func (e *Engine) SessionID() string {
	return e.store.SessionID()
}
