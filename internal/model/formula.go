package model

// Asset is a renderable visual resolved from the host. Handle is opaque to
// everything above the engine.
type Asset struct {
	Handle any
	Atlas  string
	Frame  string
}

func (a Asset) Valid() bool { return a.Handle != nil }

type Ingredient struct {
	Ref   EntityRef
	ID    string
	Asset Asset
	Owned bool
}

// CraftingFormula is built per query and never mutated afterwards.
type CraftingFormula struct {
	Ingredients  []Ingredient
	Result       Asset
	ResultRef    EntityRef
	ResultID     string
	PrimaryOwned bool
}

func (f CraftingFormula) Primary() (Ingredient, bool) {
	if len(f.Ingredients) == 0 {
		return Ingredient{}, false
	}
	return f.Ingredients[0], true
}

// FormulaList is the full ordered result; truncation is left to the caller.
type FormulaList struct {
	Formulas []CraftingFormula
}

func (l FormulaList) Count() int { return len(l.Formulas) }

// Head returns at most n formulas and how many were left out.
func (l FormulaList) Head(n int) ([]CraftingFormula, int) {
	if n < 0 || n >= len(l.Formulas) {
		return l.Formulas, 0
	}
	return l.Formulas[:n], len(l.Formulas) - n
}
