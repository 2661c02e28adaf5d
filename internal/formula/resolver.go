package formula

import (
	"log/slog"
	"slices"

	"evolens/internal/gamedata"
	"evolens/internal/model"
)

type Role int

const (
	RoleBase Role = iota
	RoleIngredient
)

func (r Role) String() string {
	if r == RoleIngredient {
		return "ingredient"
	}
	return "base"
}

// AssetSource resolves an atlas and frame into a renderable asset.
type AssetSource interface {
	Resolve(atlas, frame string) (model.Asset, bool)
}

type Option func(*Resolver)

func WithRecipes(recipes []Recipe) Option {
	return func(r *Resolver) { r.recipes = recipes }
}

// Resolver builds crafting formulas on demand. Nothing is cached: ownership
// is read live on every call.
type Resolver struct {
	catalog *gamedata.Catalog
	assets  AssetSource
	recipes []Recipe
}

func New(catalog *gamedata.Catalog, assets AssetSource, opts ...Option) *Resolver {
	r := &Resolver{catalog: catalog, assets: assets, recipes: DefaultRecipes}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify reports whether ref is required by at least one base item.
func (r *Resolver) Classify(ref model.EntityRef) Role {
	if len(r.catalog.RequiredBy(ref)) > 0 {
		return RoleIngredient
	}
	return RoleBase
}

func (r *Resolver) Build(ref model.EntityRef) model.FormulaList {
	entry, ok := r.catalog.Entry(ref)
	if !ok {
		return model.FormulaList{}
	}

	if recipe, ok := r.special(entry); ok {
		var list model.FormulaList
		if f, ok := r.fromRecipe(recipe); ok {
			list.Formulas = append(list.Formulas, f)
		}
		return list
	}

	var formulas []model.CraftingFormula
	role := r.Classify(ref)
	switch role {
	case RoleIngredient:
		formulas = r.asIngredient(ref)
	default:
		formulas = r.asBase(entry)
	}
	formulas = append(formulas, r.recipesListing(entry)...)
	formulas = dedup(formulas)

	slices.SortStableFunc(formulas, func(a, b model.CraftingFormula) int {
		switch {
		case a.PrimaryOwned == b.PrimaryOwned:
			return 0
		case a.PrimaryOwned:
			return -1
		default:
			return 1
		}
	})

	slog.Debug("formulas built", "entity", ref.String(), "role", role.String(), "count", len(formulas))
	return model.FormulaList{Formulas: formulas}
}

func (r *Resolver) special(entry *gamedata.Entry) (Recipe, bool) {
	for _, recipe := range r.recipes {
		if recipe.matches(entry.Identifier, entry.Name) {
			return recipe, true
		}
	}
	return Recipe{}, false
}

// asBase builds the formula owned by a base item: itself first, then every
// requirement that resolves. Unresolvable requirements are left out.
func (r *Resolver) asBase(entry *gamedata.Entry) []model.CraftingFormula {
	self, ok := r.ingredient(entry.Ref, entry.Identifier)
	if !ok {
		return nil
	}
	var out []model.CraftingFormula
	for _, variant := range entry.Variants {
		ingredients := []model.Ingredient{self}
		for _, req := range variant.Requires {
			if in, ok := r.ingredient(req.Ref, req.ID); ok {
				ingredients = append(ingredients, in)
			}
		}
		if len(ingredients) < 2 {
			continue
		}
		if f, ok := r.formula(ingredients, variant.Result, variant.ResultID); ok {
			out = append(out, f)
		}
	}
	return out
}

// asIngredient builds one formula per base item variant that requires ref.
// Every ingredient must resolve or the variant is skipped.
func (r *Resolver) asIngredient(ref model.EntityRef) []model.CraftingFormula {
	var out []model.CraftingFormula
	for _, base := range r.catalog.BaseItems() {
		for _, variant := range base.Variants {
			if !variant.Uses(ref) {
				continue
			}
			self, ok := r.ingredient(base.Ref, base.Identifier)
			if !ok {
				continue
			}
			ingredients := []model.Ingredient{self}
			complete := true
			for _, req := range variant.Requires {
				in, ok := r.ingredient(req.Ref, req.ID)
				if !ok {
					complete = false
					break
				}
				ingredients = append(ingredients, in)
			}
			if !complete {
				continue
			}
			if f, ok := r.formula(ingredients, variant.Result, variant.ResultID); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

func (r *Resolver) recipesListing(entry *gamedata.Entry) []model.CraftingFormula {
	var out []model.CraftingFormula
	for _, recipe := range r.recipes {
		if !recipe.lists(entry.Identifier) {
			continue
		}
		if f, ok := r.fromRecipe(recipe); ok {
			out = append(out, f)
		}
	}
	return out
}

func (r *Resolver) fromRecipe(recipe Recipe) (model.CraftingFormula, bool) {
	var ingredients []model.Ingredient
	for _, id := range recipe.Components {
		ref, ok := r.catalog.Lookup(id)
		if !ok {
			continue
		}
		if in, ok := r.ingredient(ref, id); ok {
			ingredients = append(ingredients, in)
		}
	}
	if len(ingredients) == 0 {
		return model.CraftingFormula{}, false
	}
	result, _ := r.catalog.Lookup(recipe.Result)
	return r.formula(ingredients, result, recipe.Result)
}

// formula drops results that do not resolve to an asset, which is how
// content that is not installed disappears.
func (r *Resolver) formula(ingredients []model.Ingredient, result model.EntityRef, resultID string) (model.CraftingFormula, bool) {
	if result.IsZero() {
		return model.CraftingFormula{}, false
	}
	asset, ok := r.asset(result)
	if !ok {
		return model.CraftingFormula{}, false
	}
	if resultID == "" {
		if entry, ok := r.catalog.Entry(result); ok {
			resultID = entry.Identifier
		}
	}
	return model.CraftingFormula{
		Ingredients:  ingredients,
		Result:       asset,
		ResultRef:    result,
		ResultID:     resultID,
		PrimaryOwned: ingredients[0].Owned,
	}, true
}

func (r *Resolver) ingredient(ref model.EntityRef, id string) (model.Ingredient, bool) {
	if ref.IsZero() {
		return model.Ingredient{}, false
	}
	asset, ok := r.asset(ref)
	if !ok {
		return model.Ingredient{}, false
	}
	if id == "" {
		if entry, ok := r.catalog.Entry(ref); ok {
			id = entry.Identifier
		}
	}
	return model.Ingredient{Ref: ref, ID: id, Asset: asset, Owned: r.catalog.Owned(ref)}, true
}

func (r *Resolver) asset(ref model.EntityRef) (model.Asset, bool) {
	entry, ok := r.catalog.Entry(ref)
	if !ok || r.assets == nil {
		return model.Asset{}, false
	}
	asset, ok := r.assets.Resolve(entry.Texture, entry.Frame)
	if !ok || !asset.Valid() {
		return model.Asset{}, false
	}
	return asset, true
}

func dedup(formulas []model.CraftingFormula) []model.CraftingFormula {
	seen := make(map[string]bool, len(formulas))
	out := formulas[:0]
	for _, f := range formulas {
		key := f.ResultID
		if key == "" {
			key = f.ResultRef.String()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
