package asset

import (
	"log/slog"
	"strings"

	"evolens/internal/cache"
	"evolens/internal/config"
	"evolens/internal/gamedata"
	"evolens/internal/host"
	"evolens/internal/model"
)

const (
	StepAtlasLookup     = "atlas-lookup"
	StepGlobalScan      = "global-scan"
	StepRelaxedScan     = "relaxed-scan"
	StepFallbackAtlases = "fallback-atlases"
)

// Step is one strategy in the lookup chain. Steps hold no state between
// calls, so any of them can be retried on its own.
type Step struct {
	Name string
	Run  func(resources any, atlas, frame string) (model.Asset, bool)
}

// Resolver finds sprites in the host's resource table. Hits are memoised
// for the process lifetime; misses are retried on the next call.
type Resolver struct {
	access host.Accessor
	schema config.ResourceSchema
	store  *cache.Store
	cfg    config.AssetConfig
	steps  []Step
}

func New(access host.Accessor, schema *config.Schema, store *cache.Store, cfg config.AssetConfig) *Resolver {
	if schema == nil {
		schema = config.DefaultSchema()
	}
	r := &Resolver{access: access, schema: schema.Resources, store: store, cfg: cfg}
	r.steps = []Step{
		{Name: StepAtlasLookup, Run: r.atlasLookup},
		{Name: StepGlobalScan, Run: r.globalScan},
		{Name: StepRelaxedScan, Run: r.relaxedScan},
		{Name: StepFallbackAtlases, Run: r.fallbackAtlases},
	}
	return r
}

func (r *Resolver) Steps() []Step {
	return r.steps
}

func (r *Resolver) Resolve(atlas, frame string) (model.Asset, bool) {
	if strings.TrimSpace(frame) == "" {
		return model.Asset{}, false
	}
	return cache.GetOrBuild(r.store, cache.Persistent, assetKey(atlas, frame), func() (model.Asset, bool) {
		resources, ok := cache.Lookup[any](r.store, cache.Persistent, cache.KeyResources)
		if !ok || resources == nil {
			return model.Asset{}, false
		}
		for _, step := range r.steps {
			if asset, ok := step.Run(resources, atlas, frame); ok {
				slog.Debug("asset resolved", "atlas", atlas, "frame", frame, "step", step.Name)
				return asset, true
			}
		}
		slog.Debug("asset not found", "atlas", atlas, "frame", frame)
		return model.Asset{}, false
	})
}

func (r *Resolver) atlasLookup(resources any, atlas, frame string) (model.Asset, bool) {
	if atlas == "" {
		return model.Asset{}, false
	}
	for _, name := range gamedata.NameVariants(frame) {
		if asset, ok := r.lookup(resources, atlas, name); ok {
			return asset, true
		}
	}
	return model.Asset{}, false
}

func (r *Resolver) globalScan(resources any, atlas, frame string) (model.Asset, bool) {
	if atlas == "" {
		return model.Asset{}, false
	}
	want := gamedata.Fold(atlas)
	return r.scan(resources, frame, func(spriteAtlas string) bool {
		return strings.Contains(gamedata.Fold(spriteAtlas), want)
	})
}

// assetKey separates atlas and frame with a byte neither name can hold.
func assetKey(atlas, frame string) string {
	return "asset/" + atlas + "\x00" + frame
}

func (r *Resolver) relaxedScan(resources any, _, frame string) (model.Asset, bool) {
	return r.scan(resources, frame, func(string) bool { return true })
}

func (r *Resolver) fallbackAtlases(resources any, _, frame string) (model.Asset, bool) {
	prefixes := r.cfg.NamePrefixes
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	for _, atlas := range r.cfg.FallbackAtlases {
		for _, prefix := range prefixes {
			for _, name := range gamedata.NameVariants(frame) {
				if asset, ok := r.lookup(resources, atlas, prefix+name); ok {
					return asset, true
				}
			}
		}
	}
	return model.Asset{}, false
}

func (r *Resolver) lookup(resources any, atlas, frame string) (model.Asset, bool) {
	handle, ok := r.access.Call(resources, r.schema.Lookup, atlas, frame)
	if !ok || handle == nil {
		return model.Asset{}, false
	}
	return model.Asset{Handle: handle, Atlas: atlas, Frame: frame}, true
}

func (r *Resolver) scan(resources any, frame string, atlasOK func(string) bool) (model.Asset, bool) {
	sprites, ok := r.access.Member(resources, r.schema.Sprites)
	if !ok || sprites == nil {
		return model.Asset{}, false
	}
	for _, sprite := range host.Items(r.access, sprites) {
		if sprite == nil {
			continue
		}
		name, ok := host.String(r.access, sprite, r.schema.SpriteName)
		if !ok || !sameFrame(name, frame) {
			continue
		}
		atlas, _ := r.atlasOf(sprite)
		if !atlasOK(atlas) {
			continue
		}
		return model.Asset{Handle: sprite, Atlas: atlas, Frame: name}, true
	}
	return model.Asset{}, false
}

func (r *Resolver) atlasOf(sprite any) (string, bool) {
	texture, ok := host.Path(r.access, sprite, r.schema.SpriteTexture)
	if !ok || texture == nil {
		return "", false
	}
	return host.String(r.access, texture, r.schema.TextureName)
}

// sameFrame compares case-insensitively, with or without an extension on
// either side.
func sameFrame(name, frame string) bool {
	if gamedata.Fold(name) == gamedata.Fold(frame) {
		return true
	}
	return gamedata.Fold(gamedata.StripExt(name)) == gamedata.Fold(gamedata.StripExt(frame))
}
