package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"evolens/internal/model"
)

// Schema names the host members the engine reads. The host's own schema is
// never validated or versioned; this only says where to look.
type Schema struct {
	Version     int               `yaml:"version"`
	DataManager DataManagerSchema `yaml:"data_manager"`
	Weapon      RecordSchema      `yaml:"weapon"`
	PowerUp     RecordSchema      `yaml:"power_up"`
	Affinity    AffinitySchema    `yaml:"affinity"`
	Inventory   []InventoryPath   `yaml:"inventory"`
	Selection   SelectionSchema   `yaml:"selection"`
	UI          UISchema          `yaml:"ui"`
	Resources   ResourceSchema    `yaml:"resources"`
}

type DataManagerSchema struct {
	Weapons    string `yaml:"weapons"`
	PowerUps   string `yaml:"power_ups"`
	Affinities string `yaml:"affinities"`
}

type RecordSchema struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Texture     string `yaml:"texture"`
	Frame       string `yaml:"frame"`
	Requires    string `yaml:"requires"`
	EvolvesInto string `yaml:"evolves_into"`
}

type AffinitySchema struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Texture     string `yaml:"texture"`
	Frame       string `yaml:"frame"`
	Weapons     string `yaml:"weapons"`
	Items       string `yaml:"items"`
}

type InventoryPath struct {
	Kind      string   `yaml:"kind"`
	Path      []string `yaml:"path"`
	EntryType string   `yaml:"entry_type"`
}

func (p InventoryPath) EntityKind() model.Kind {
	kind, err := model.ParseKind(p.Kind)
	if err != nil {
		return 0
	}
	return kind
}

type SelectionSchema struct {
	Type string `yaml:"type"`
}

type UISchema struct {
	Parent   string `yaml:"parent"`
	Children string `yaml:"children"`
	Text     string `yaml:"text"`
	Image    string `yaml:"image"`
}

type ResourceSchema struct {
	Lookup        string `yaml:"lookup"`
	Sprites       string `yaml:"sprites"`
	SpriteName    string `yaml:"sprite_name"`
	SpriteTexture string `yaml:"sprite_texture"`
	TextureName   string `yaml:"texture_name"`
}

func DefaultSchema() *Schema {
	return &Schema{
		Version: 1,
		DataManager: DataManagerSchema{
			Weapons:    "AllWeaponData",
			PowerUps:   "AllPowerUpsData",
			Affinities: "AllArcanaData",
		},
		Weapon: RecordSchema{
			Name:        "name",
			Description: "description",
			Texture:     "texture",
			Frame:       "frameName",
			Requires:    "evoSynergy",
			EvolvesInto: "evoInto",
		},
		PowerUp: RecordSchema{
			Name:        "Name",
			Description: "Description",
			Texture:     "Texture",
			Frame:       "FrameName",
		},
		Affinity: AffinitySchema{
			Name:        "name",
			Description: "description",
			Texture:     "texture",
			Frame:       "frameName",
			Weapons:     "weapons",
			Items:       "items",
		},
		Inventory: []InventoryPath{
			{Kind: "weapon", Path: []string{"ActiveCharacter", "WeaponsManager", "ActiveEquipment"}, EntryType: "Type"},
			{Kind: "power_up", Path: []string{"ActiveCharacter", "AccessoriesManager", "ActiveEquipment"}, EntryType: "Type"},
		},
		Selection: SelectionSchema{Type: "Type"},
		UI: UISchema{
			Parent:   "parent",
			Children: "children",
			Text:     "text",
			Image:    "sprite",
		},
		Resources: ResourceSchema{
			Lookup:        "GetSprite",
			Sprites:       "AllSprites",
			SpriteName:    "name",
			SpriteTexture: "texture",
			TextureName:   "name",
		},
	}
}

// LoadSchema overlays the file on DefaultSchema, so a file only needs the
// members that differ.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	schema := DefaultSchema()
	if err := yaml.Unmarshal(data, schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := validateSchema(schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	return schema, nil
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}

	required := map[string]string{
		"data_manager.weapons":    s.DataManager.Weapons,
		"data_manager.power_ups":  s.DataManager.PowerUps,
		"data_manager.affinities": s.DataManager.Affinities,
		"weapon.name":             s.Weapon.Name,
		"weapon.frame":            s.Weapon.Frame,
		"weapon.requires":         s.Weapon.Requires,
		"weapon.evolves_into":     s.Weapon.EvolvesInto,
		"power_up.name":           s.PowerUp.Name,
		"power_up.frame":          s.PowerUp.Frame,
		"affinity.name":           s.Affinity.Name,
		"affinity.weapons":        s.Affinity.Weapons,
		"ui.parent":               s.UI.Parent,
		"ui.children":             s.UI.Children,
		"ui.text":                 s.UI.Text,
		"ui.image":                s.UI.Image,
		"resources.lookup":        s.Resources.Lookup,
		"resources.sprites":       s.Resources.Sprites,
		"resources.sprite_name":   s.Resources.SpriteName,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s member name is required", field)
		}
	}

	for i, inv := range s.Inventory {
		if _, err := model.ParseKind(inv.Kind); err != nil {
			return fmt.Errorf("inventory %d: %w", i, err)
		}
		if len(inv.Path) == 0 {
			return fmt.Errorf("inventory %d path is required", i)
		}
		if strings.TrimSpace(inv.EntryType) == "" {
			return fmt.Errorf("inventory %d entry_type is required", i)
		}
	}

	return nil
}
