package facts

import (
	"log/slog"
	"strings"

	"evolens/internal/cache"
	"evolens/internal/config"
	"evolens/internal/gamedata"
	"evolens/internal/host"
	"evolens/internal/model"
)

// UIScanner recovers a record's affected entities from the screen that
// displays it: find the record's title label, climb to the enclosing card
// and map every image on that card back to an entity.
type UIScanner struct {
	access  host.Accessor
	schema  *config.Schema
	store   *cache.Store
	catalog *gamedata.Catalog
	cfg     config.ScanConfig
}

func NewUIScanner(access host.Accessor, schema *config.Schema, store *cache.Store, catalog *gamedata.Catalog, cfg config.ScanConfig) *UIScanner {
	if schema == nil {
		schema = config.DefaultSchema()
	}
	if cfg.MinCardImages <= 0 {
		cfg.MinCardImages = config.DefaultMinCardImages
	}
	if cfg.MaxAncestorDepth <= 0 {
		cfg.MaxAncestorDepth = config.DefaultMaxAncestorDepth
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = config.DefaultMaxNodes
	}
	return &UIScanner{access: access, schema: schema, store: store, catalog: catalog, cfg: cfg}
}

type label struct {
	node any
	text string
}

type matcher struct {
	name  string
	match func(text, want string) bool
}

var matchers = []matcher{
	{"exact", func(text, want string) bool { return text == want }},
	{"stripped", func(text, want string) bool {
		return strings.TrimSpace(gamedata.StripRichText(text)) == strings.TrimSpace(want)
	}},
	{"contains", func(text, want string) bool {
		return containsFolded(gamedata.StripRichText(text), want)
	}},
	{"short_name", func(text, want string) bool {
		return containsFolded(gamedata.StripRichText(text), gamedata.ShortName(want))
	}},
}

func containsFolded(text, want string) bool {
	want = gamedata.Fold(want)
	return want != "" && strings.Contains(gamedata.Fold(text), want)
}

func (s *UIScanner) Scan(record *model.AffinityRecord) (model.Evidence, bool) {
	found := model.NewEvidence()
	root, ok := cache.Lookup[any](s.store, cache.PerSession, cache.KeyScreen)
	if !ok || root == nil {
		return found, false
	}
	if record == nil {
		return found, true
	}

	lbl, strategy, ok := s.findLabel(root, record)
	if !ok {
		slog.Debug("record label not on screen", "record", record.Identifier)
		return found, true
	}

	depth, images, ok := s.findCard(lbl.node)
	if !ok {
		slog.Debug("no card around record label", "record", record.Identifier, "label", lbl.text)
		return found, true
	}

	for _, img := range images {
		name, ok := s.spriteName(img)
		if !ok {
			continue
		}
		if ref, ok := s.catalog.SpriteRef(name); ok && ref.Kind != model.KindAffinityRecord {
			found.Add(ref)
		}
	}

	// The card heuristic has no independent check; a wrong ancestor yields
	// plausible but unrelated evidence.
	slog.Debug("record card scanned",
		"record", record.Identifier,
		"match", strategy,
		"depth", depth,
		"images", len(images),
		"found", found.Len(),
		"verified", false)
	return found, true
}

func (s *UIScanner) findLabel(root any, record *model.AffinityRecord) (label, string, bool) {
	labels := s.labels(root)
	names := []string{record.Name}
	if record.Identifier != "" && record.Identifier != record.Name {
		names = append(names, record.Identifier)
	}
	for _, m := range matchers {
		for _, want := range names {
			if strings.TrimSpace(want) == "" {
				continue
			}
			for _, l := range labels {
				if m.match(l.text, want) {
					return l, m.name, true
				}
			}
		}
	}
	return label{}, "", false
}

// labels collects text-bearing nodes breadth first, visiting at most
// MaxNodes nodes.
func (s *UIScanner) labels(root any) []label {
	var out []label
	s.walk(root, func(node any) {
		text, ok := host.String(s.access, node, s.schema.UI.Text)
		if ok && strings.TrimSpace(text) != "" {
			out = append(out, label{node: node, text: text})
		}
	})
	return out
}

func (s *UIScanner) findCard(node any) (int, []any, bool) {
	current := node
	for depth := 1; depth <= s.cfg.MaxAncestorDepth; depth++ {
		parent, ok := s.access.Member(current, s.schema.UI.Parent)
		if !ok || parent == nil {
			return 0, nil, false
		}
		images := s.images(parent)
		if len(images) >= s.cfg.MinCardImages {
			return depth, images, true
		}
		current = parent
	}
	return 0, nil, false
}

func (s *UIScanner) images(root any) []any {
	var out []any
	s.walk(root, func(node any) {
		img, ok := s.access.Member(node, s.schema.UI.Image)
		if ok && img != nil {
			out = append(out, img)
		}
	})
	return out
}

func (s *UIScanner) spriteName(img any) (string, bool) {
	if name, ok := img.(string); ok {
		return name, name != ""
	}
	name, ok := host.String(s.access, img, s.schema.Resources.SpriteName)
	return name, ok && name != ""
}

func (s *UIScanner) walk(root any, visit func(node any)) {
	queue := []any{root}
	for seen := 0; len(queue) > 0 && seen < s.cfg.MaxNodes; seen++ {
		node := queue[0]
		queue = queue[1:]
		visit(node)

		children, ok := s.access.Member(node, s.schema.UI.Children)
		if !ok || children == nil {
			continue
		}
		for _, child := range host.Items(s.access, children) {
			if child != nil {
				queue = append(queue, child)
			}
		}
	}
}
