package snapshot

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// syntheticCodeBase numbers identifiers that are referenced but not
// registered, such as requirements that only exist as pickups.
const syntheticCodeBase = 1000

var (
	ErrInvalidYAML = errors.New("invalid snapshot YAML")
	ErrMissingID   = errors.New("entry missing required 'id' field")
	ErrDuplicateID = errors.New("duplicate id")
)

type Document struct {
	Weapons  []WeaponDoc  `yaml:"weapons"`
	PowerUps []PowerUpDoc `yaml:"power_ups"`
	Arcana   []ArcanaDoc  `yaml:"arcana"`
	Session  *SessionDoc  `yaml:"session"`
	Screen   *NodeDoc     `yaml:"screen"`
	Sprites  []SpriteDoc  `yaml:"sprites"`
}

type WeaponDoc struct {
	ID       string             `yaml:"id"`
	Code     int                `yaml:"code"`
	Variants []WeaponVariantDoc `yaml:"variants"`
}

type WeaponVariantDoc struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Texture     string   `yaml:"texture"`
	Frame       string   `yaml:"frame"`
	Requires    []string `yaml:"requires"`
	EvolvesInto string   `yaml:"evolves_into"`
}

type PowerUpDoc struct {
	ID          string `yaml:"id"`
	Code        int    `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Texture     string `yaml:"texture"`
	Frame       string `yaml:"frame"`
}

type ArcanaDoc struct {
	ID          string   `yaml:"id"`
	Code        int      `yaml:"code"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Texture     string   `yaml:"texture"`
	Frame       string   `yaml:"frame"`
	Weapons     []string `yaml:"weapons"`
	Items       []string `yaml:"items"`
}

type SessionDoc struct {
	Weapons     []string `yaml:"weapons"`
	Accessories []string `yaml:"accessories"`
	Selected    string   `yaml:"selected"`
}

type NodeDoc struct {
	Name     string    `yaml:"name"`
	Text     string    `yaml:"text"`
	Image    string    `yaml:"image"`
	Atlas    string    `yaml:"atlas"`
	Children []NodeDoc `yaml:"children"`
}

type SpriteDoc struct {
	Atlas string `yaml:"atlas"`
	Frame string `yaml:"frame"`
}

// Host carries the raw handles a lifecycle hook would push into the engine.
// Nil fields mean the snapshot did not provide that part.
type Host struct {
	DataManager any
	Resources   any
	Session     any
	Selected    any
	Screen      any
}

func Load(path string) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	h, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", path, err)
	}
	return h, nil
}

func Parse(data []byte) (*Host, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return Build(&doc)
}

func Build(doc *Document) (*Host, error) {
	b := newBuilder()
	if err := b.registerIDs(doc); err != nil {
		return nil, err
	}

	h := &Host{
		DataManager: b.dataManager(doc),
		Resources:   b.resources(doc.Sprites),
	}
	if doc.Session != nil {
		h.Session = b.session(doc.Session)
		if doc.Session.Selected != "" {
			h.Selected = &arcanaSelection{Type: b.arcanaEnums.get(doc.Session.Selected)}
		}
	}
	if doc.Screen != nil {
		h.Screen = b.node(doc.Screen, nil)
	}
	return h, nil
}

type enumSpace struct {
	values    map[string]*enumValue
	synthetic int32
}

func newEnumSpace() *enumSpace {
	return &enumSpace{values: make(map[string]*enumValue), synthetic: syntheticCodeBase}
}

func (s *enumSpace) register(id string, code int) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	if _, exists := s.values[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	s.values[id] = &enumValue{value__: int32(code), name: id}
	return nil
}

// get returns the registered value for id, minting a synthetic one for ids
// the snapshot only references.
func (s *enumSpace) get(id string) *enumValue {
	if value, ok := s.values[id]; ok {
		return value
	}
	value := &enumValue{value__: s.synthetic, name: id}
	s.synthetic++
	s.values[id] = value
	return value
}

type builder struct {
	weaponEnums  *enumSpace
	powerUpEnums *enumSpace
	arcanaEnums  *enumSpace
}

func newBuilder() *builder {
	return &builder{
		weaponEnums:  newEnumSpace(),
		powerUpEnums: newEnumSpace(),
		arcanaEnums:  newEnumSpace(),
	}
}

func (b *builder) registerIDs(doc *Document) error {
	for i, w := range doc.Weapons {
		if err := b.weaponEnums.register(w.ID, w.Code); err != nil {
			return fmt.Errorf("weapon %d: %w", i, err)
		}
	}
	for i, p := range doc.PowerUps {
		if err := b.powerUpEnums.register(p.ID, p.Code); err != nil {
			return fmt.Errorf("power-up %d: %w", i, err)
		}
	}
	for i, a := range doc.Arcana {
		if err := b.arcanaEnums.register(a.ID, a.Code); err != nil {
			return fmt.Errorf("arcana %d: %w", i, err)
		}
	}
	return nil
}

func (b *builder) dataManager(doc *Document) *dataManager {
	dm := &dataManager{
		weapons:  newDictionary(),
		powerUps: newDictionary(),
		arcana:   newDictionary(),
	}

	for _, w := range doc.Weapons {
		variants := newList()
		for _, v := range w.Variants {
			data := &weaponData{
				name:        v.Name,
				description: v.Description,
				texture:     v.Texture,
				frameName:   v.Frame,
			}
			for _, req := range v.Requires {
				data.evoSynergy = append(data.evoSynergy, b.weaponEnums.get(req))
			}
			if v.EvolvesInto != "" {
				data.evoInto = b.weaponEnums.get(v.EvolvesInto)
			}
			variants.add(data)
		}
		dm.weapons.add(b.weaponEnums.get(w.ID), variants)
	}

	for _, p := range doc.PowerUps {
		dm.powerUps.add(b.powerUpEnums.get(p.ID), newList(&powerUpData{
			Name:        p.Name,
			Description: p.Description,
			Texture:     p.Texture,
			FrameName:   p.Frame,
		}))
	}

	for _, a := range doc.Arcana {
		data := &arcanaData{
			name:        a.Name,
			description: a.Description,
			texture:     a.Texture,
			frameName:   a.Frame,
			weapons:     newList(),
		}
		for _, id := range a.Weapons {
			data.weapons.add(b.weaponEnums.get(id))
		}
		for _, id := range a.Items {
			data.items = append(data.items, b.powerUpEnums.get(id))
		}
		dm.arcana.add(b.arcanaEnums.get(a.ID), data)
	}

	return dm
}

func (b *builder) session(doc *SessionDoc) *gameSession {
	weapons := newList()
	for _, id := range doc.Weapons {
		weapons.add(&equipment{Type: b.weaponEnums.get(id)})
	}
	accessories := newList()
	for _, id := range doc.Accessories {
		accessories.add(&equipment{Type: b.powerUpEnums.get(id)})
	}
	return &gameSession{character: &character{
		WeaponsManager:     &equipmentManager{ActiveEquipment: weapons},
		AccessoriesManager: &equipmentManager{ActiveEquipment: accessories},
	}}
}

func (b *builder) node(doc *NodeDoc, parent *uiNode) *uiNode {
	n := &uiNode{name: doc.Name, text: doc.Text, parent: parent, children: newList()}
	if doc.Image != "" {
		n.sprite = &sprite{name: doc.Image, texture: &texture{name: doc.Atlas}}
	}
	for i := range doc.Children {
		n.children.add(b.node(&doc.Children[i], n))
	}
	return n
}

func (b *builder) resources(docs []SpriteDoc) *resourceManager {
	rm := &resourceManager{sprites: newList(), byKey: make(map[string]*sprite)}
	for _, doc := range docs {
		s := &sprite{name: doc.Frame, texture: &texture{name: doc.Atlas}}
		rm.sprites.add(s)
		if _, exists := rm.byKey[spriteKey(doc.Atlas, doc.Frame)]; !exists {
			rm.byKey[spriteKey(doc.Atlas, doc.Frame)] = s
		}
	}
	return rm
}
