package model

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type Kind int

const (
	KindWeapon Kind = iota + 1
	KindPowerUp
	KindAffinityRecord
)

func (k Kind) String() string {
	switch k {
	case KindWeapon:
		return "weapon"
	case KindPowerUp:
		return "power_up"
	case KindAffinityRecord:
		return "affinity"
	default:
		return "unknown"
	}
}

func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "weapon":
		return KindWeapon, nil
	case "power_up", "powerup", "item":
		return KindPowerUp, nil
	case "affinity", "arcana", "record":
		return KindAffinityRecord, nil
	default:
		return 0, fmt.Errorf("unknown entity kind: %q", value)
	}
}

// EntityRef is the canonical identity of a game entity. Display names are
// never used as keys.
type EntityRef struct {
	Kind Kind
	Code int
}

func Weapon(code int) EntityRef  { return EntityRef{Kind: KindWeapon, Code: code} }
func PowerUp(code int) EntityRef { return EntityRef{Kind: KindPowerUp, Code: code} }
func Record(code int) EntityRef  { return EntityRef{Kind: KindAffinityRecord, Code: code} }

func (r EntityRef) IsZero() bool { return r.Kind == 0 }

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.Code)
}

func CompareRefs(a, b EntityRef) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Code, b.Code)
}

type RefSet map[EntityRef]struct{}

func NewRefSet(refs ...EntityRef) RefSet {
	set := make(RefSet, len(refs))
	for _, ref := range refs {
		set[ref] = struct{}{}
	}
	return set
}

func (s RefSet) Add(refs ...EntityRef) {
	for _, ref := range refs {
		s[ref] = struct{}{}
	}
}

func (s RefSet) Has(ref EntityRef) bool {
	_, ok := s[ref]
	return ok
}

// Union returns a new set; neither operand is modified.
func (s RefSet) Union(others ...RefSet) RefSet {
	out := make(RefSet, len(s))
	for ref := range s {
		out[ref] = struct{}{}
	}
	for _, other := range others {
		for ref := range other {
			out[ref] = struct{}{}
		}
	}
	return out
}

func (s RefSet) Sorted() []EntityRef {
	refs := make([]EntityRef, 0, len(s))
	for ref := range s {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, CompareRefs)
	return refs
}

type AffinityRecord struct {
	Ref         EntityRef
	Identifier  string
	Name        string
	Description string
	Weapons     RefSet
	Items       RefSet
}

// Clone returns a copy that shares no maps with r.
func (r *AffinityRecord) Clone() *AffinityRecord {
	c := *r
	c.Weapons = r.Weapons.Union()
	c.Items = r.Items.Union()
	return &c
}

type Evidence struct {
	Weapons RefSet
	Items   RefSet
}

func NewEvidence() Evidence {
	return Evidence{Weapons: make(RefSet), Items: make(RefSet)}
}

// Add files the ref under weapons or items according to its kind.
func (e Evidence) Add(refs ...EntityRef) {
	for _, ref := range refs {
		if ref.Kind == KindWeapon {
			e.Weapons.Add(ref)
		} else {
			e.Items.Add(ref)
		}
	}
}

func (e Evidence) Has(ref EntityRef) bool {
	return e.Weapons.Has(ref) || e.Items.Has(ref)
}

func (e Evidence) All() RefSet {
	return e.Weapons.Union(e.Items)
}

func (e Evidence) Clone() Evidence {
	return Evidence{Weapons: e.Weapons.Union(), Items: e.Items.Union()}
}

func (e Evidence) Len() int {
	return len(e.Weapons) + len(e.Items)
}

// EvidenceSet is the per-record view over the three evidence sources.
type EvidenceSet struct {
	Declared Evidence
	Captured Evidence
	Scanned  Evidence
}

func (s EvidenceSet) All() RefSet {
	return s.Declared.All().Union(s.Captured.All(), s.Scanned.All())
}
