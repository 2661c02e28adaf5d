package snapshot

// The types below imitate how a managed host exposes its objects: private
// fields, boxed enums and collection objects instead of native slices and
// maps. They are only ever read through host.Accessor.

type enumValue struct {
	value__ int32
	name    string
}

func (e *enumValue) String() string { return e.name }

type list struct {
	items []any
}

func newList(items ...any) *list { return &list{items: items} }

func (l *list) Count() int     { return len(l.items) }
func (l *list) Item(i int) any { return l.items[i] }

func (l *list) add(item any) { l.items = append(l.items, item) }

type dictionary struct {
	keys   *list
	values map[any]any
}

func newDictionary() *dictionary {
	return &dictionary{keys: newList(), values: make(map[any]any)}
}

func (d *dictionary) Keys() *list { return d.keys }

func (d *dictionary) Item(key any) (any, bool) {
	value, ok := d.values[key]
	return value, ok
}

func (d *dictionary) add(key, value any) {
	if _, exists := d.values[key]; !exists {
		d.keys.add(key)
	}
	d.values[key] = value
}

type dataManager struct {
	weapons  *dictionary
	powerUps *dictionary
	arcana   *dictionary
}

func (d *dataManager) AllWeaponData() *dictionary   { return d.weapons }
func (d *dataManager) AllPowerUpsData() *dictionary { return d.powerUps }
func (d *dataManager) AllArcanaData() *dictionary   { return d.arcana }

type weaponData struct {
	name        string
	description string
	texture     string
	frameName   string
	evoSynergy  []*enumValue
	evoInto     *enumValue
}

type powerUpData struct {
	Name        string
	Description string
	Texture     string
	FrameName   string
}

type arcanaData struct {
	name        string
	description string
	texture     string
	frameName   string
	weapons     *list
	items       []*enumValue
}

type equipment struct {
	Type *enumValue
}

type equipmentManager struct {
	ActiveEquipment *list
}

type character struct {
	WeaponsManager     *equipmentManager
	AccessoriesManager *equipmentManager
}

type gameSession struct {
	character *character
}

func (s *gameSession) ActiveCharacter() *character { return s.character }

type arcanaSelection struct {
	Type *enumValue
}

type texture struct {
	name string
}

type sprite struct {
	name    string
	texture *texture
}

type uiNode struct {
	name     string
	text     string
	sprite   *sprite
	parent   *uiNode
	children *list
}

type resourceManager struct {
	sprites *list
	byKey   map[string]*sprite
}

func spriteKey(atlas, frame string) string { return atlas + "\x00" + frame }

func (r *resourceManager) AllSprites() *list { return r.sprites }

func (r *resourceManager) GetSprite(atlas, frame string) (*sprite, bool) {
	s, ok := r.byKey[spriteKey(atlas, frame)]
	return s, ok
}
