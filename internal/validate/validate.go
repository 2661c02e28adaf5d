package validate

import (
	"fmt"
	"strings"

	"evolens/internal/config"
	"evolens/internal/engine"
	"evolens/internal/host"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingHandle   = "missing_handle"
	codeMissingMember   = "missing_member"
	codeEmptyCollection = "empty_collection"
	codeUndecodableKey  = "undecodable_key"
	codeUndecodableType = "undecodable_type"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Path     string
}

type Report struct {
	Issues []Issue
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Run probes the host graph for every member the schema names. It only
// reads; the first entry of each collection stands in for the rest.
func Run(schema *config.Schema, access host.Accessor, handles engine.Handles) (*Report, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}
	if access == nil {
		return nil, fmt.Errorf("accessor is required")
	}

	p := &prober{access: access, issues: make([]Issue, 0)}
	p.dataManager(schema, handles.DataManager)
	p.session(schema, handles.Session)
	p.selection(schema, handles.Selected)
	p.screen(schema, handles.Screen)
	p.resources(schema, handles.Resources)
	return &Report{Issues: p.issues}, nil
}

type prober struct {
	access host.Accessor
	issues []Issue
}

func (p *prober) add(severity Severity, code, path, format string, args ...any) {
	p.issues = append(p.issues, Issue{
		Severity: severity,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	})
}

func (p *prober) handle(name string, value any, severity Severity) bool {
	if value != nil {
		return true
	}
	p.add(severity, codeMissingHandle, name, "no %s handle", strings.ReplaceAll(name, "_", " "))
	return false
}

func (p *prober) member(obj any, path, name string) (any, bool) {
	value, ok := p.access.Member(obj, name)
	if !ok {
		p.add(SeverityError, codeMissingMember, join(path, name), "member %s not found", name)
		return nil, false
	}
	return value, true
}

func (p *prober) members(obj any, path string, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		p.member(obj, path, name)
	}
}

func (p *prober) dataManager(schema *config.Schema, dm any) {
	if !p.handle("data_manager", dm, SeverityError) {
		return
	}
	path := "data_manager"
	w, pu, a := schema.Weapon, schema.PowerUp, schema.Affinity
	p.registry(dm, path, schema.DataManager.Weapons, w.Name, w.Description, w.Texture, w.Frame, w.Requires, w.EvolvesInto)
	p.registry(dm, path, schema.DataManager.PowerUps, pu.Name, pu.Description, pu.Texture, pu.Frame)
	p.registry(dm, path, schema.DataManager.Affinities, a.Name, a.Description, a.Weapons, a.Items)
}

// registry checks that a keyed collection has enum keys and that its first
// record carries every named member.
func (p *prober) registry(dm any, path, name string, recordMembers ...string) {
	registry, ok := p.member(dm, path, name)
	if !ok {
		return
	}
	path = join(path, name)

	for key, value := range p.access.Enumerate(registry) {
		id, _ := p.access.Name(key)
		if _, ok := p.access.EnumInt(key); !ok {
			p.add(SeverityError, codeUndecodableKey, path, "key %q has no integer value", id)
		}
		record := value
		if _, ok := p.access.Len(value); ok {
			record, ok = p.access.Index(value, 0)
			if !ok {
				p.add(SeverityWarn, codeEmptyCollection, fmt.Sprintf("%s[%s]", path, id), "no variants")
				return
			}
		}
		p.members(record, fmt.Sprintf("%s[%s]", path, id), recordMembers...)
		return
	}
	p.add(SeverityWarn, codeEmptyCollection, path, "%s is empty or not enumerable", name)
}

func (p *prober) session(schema *config.Schema, session any) {
	if !p.handle("session", session, SeverityWarn) {
		return
	}
	for _, inv := range schema.Inventory {
		path := join("session", strings.Join(inv.Path, "."))
		equipment, ok := host.Path(p.access, session, inv.Path...)
		if !ok {
			p.add(SeverityError, codeMissingMember, path, "%s inventory not reachable", inv.Kind)
			continue
		}
		first, ok := p.access.Index(equipment, 0)
		if !ok {
			continue
		}
		if _, ok := host.MemberInt(p.access, first, inv.EntryType); !ok {
			p.add(SeverityError, codeUndecodableType, join(path+"[0]", inv.EntryType), "%s entry type not decodable", inv.Kind)
		}
	}
}

func (p *prober) selection(schema *config.Schema, selected any) {
	if !p.handle("selected_affinity", selected, SeverityWarn) {
		return
	}
	if _, ok := host.MemberInt(p.access, selected, schema.Selection.Type); ok {
		return
	}
	if _, ok := p.access.EnumInt(selected); ok {
		return
	}
	p.add(SeverityError, codeUndecodableType, join("selected_affinity", schema.Selection.Type), "selected record not decodable")
}

func (p *prober) screen(schema *config.Schema, root any) {
	if !p.handle("screen", root, SeverityWarn) {
		return
	}
	p.members(root, "screen", schema.UI.Parent, schema.UI.Children, schema.UI.Text, schema.UI.Image)
}

func (p *prober) resources(schema *config.Schema, resources any) {
	if !p.handle("resources", resources, SeverityWarn) {
		return
	}
	rs := schema.Resources
	sprites, ok := p.member(resources, "resources", rs.Sprites)
	if !ok {
		return
	}
	path := join("resources", rs.Sprites)
	sprite, ok := p.access.Index(sprites, 0)
	if !ok {
		p.add(SeverityWarn, codeEmptyCollection, path, "no sprites")
		return
	}
	path += "[0]"
	p.member(sprite, path, rs.SpriteName)
	texture, ok := p.member(sprite, path, rs.SpriteTexture)
	if ok && texture != nil {
		p.member(texture, join(path, rs.SpriteTexture), rs.TextureName)
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
