package formula

import (
	"strings"

	"evolens/internal/gamedata"
)

// Recipe is a formula the data manager never declares because its
// components are pickups rather than registry entries.
type Recipe struct {
	Match      string
	Components []string
	Result     string
}

var DefaultRecipes = []Recipe{
	{Match: "LANCET", Components: []string{"LANCET", "SILVER", "GOLD"}, Result: "CORRIDOR"},
	{Match: "LAUREL", Components: []string{"LAUREL", "LEFT", "RIGHT"}, Result: "SHROUD"},
}

func (r Recipe) matches(identifier, name string) bool {
	want := gamedata.Fold(r.Match)
	if want == "" {
		return false
	}
	return strings.Contains(gamedata.Fold(identifier), want) ||
		strings.Contains(gamedata.Fold(name), want)
}

func (r Recipe) lists(identifier string) bool {
	folded := gamedata.Fold(identifier)
	for _, component := range r.Components {
		if gamedata.Fold(component) == folded {
			return true
		}
	}
	return false
}
