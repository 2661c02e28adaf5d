package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"evolens/internal/model"
)

type IsAffectedInput struct {
	Entity string `json:"entity" jsonschema:"weapon or power-up identifier"`
	Record string `json:"record" jsonschema:"affinity record identifier or display name"`
}

type AffectedSetInput struct {
	Record string `json:"record" jsonschema:"affinity record identifier or display name"`
}

type BuildFormulasInput struct {
	Entity string `json:"entity" jsonschema:"weapon or power-up identifier"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum formulas to return, 0 for all"`
}

type ResolveAssetInput struct {
	Atlas string `json:"atlas" jsonschema:"texture atlas name"`
	Frame string `json:"frame" jsonschema:"frame name, with or without extension"`
}

type ClearSessionInput struct{}

type ListRecordsInput struct{}

type EntityOutput struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Code int    `json:"code"`
	Name string `json:"name"`
}

type IsAffectedOutput struct {
	Entity   EntityOutput `json:"entity"`
	Record   EntityOutput `json:"record"`
	Affected bool         `json:"affected"`
}

type EvidenceOutput struct {
	Declared []EntityOutput `json:"declared"`
	Captured []EntityOutput `json:"captured"`
	Scanned  []EntityOutput `json:"scanned"`
}

type AffectedSetOutput struct {
	Record   EntityOutput   `json:"record"`
	Entities []EntityOutput `json:"entities"`
	Evidence EvidenceOutput `json:"evidence"`
}

type IngredientOutput struct {
	ID    string `json:"id"`
	Atlas string `json:"atlas"`
	Frame string `json:"frame"`
	Owned bool   `json:"owned"`
}

type FormulaOutput struct {
	Ingredients  []IngredientOutput `json:"ingredients"`
	Result       string             `json:"result"`
	ResultAtlas  string             `json:"result_atlas"`
	ResultFrame  string             `json:"result_frame"`
	PrimaryOwned bool               `json:"primary_owned"`
}

type BuildFormulasOutput struct {
	Entity   EntityOutput    `json:"entity"`
	Role     string          `json:"role"`
	Formulas []FormulaOutput `json:"formulas"`
	Total    int             `json:"total"`
	Overflow int             `json:"overflow"`
}

type ResolveAssetOutput struct {
	Found bool   `json:"found"`
	Atlas string `json:"atlas,omitempty"`
	Frame string `json:"frame,omitempty"`
}

type ClearSessionOutput struct {
	SessionID string `json:"session_id"`
}

type ListRecordsOutput struct {
	Records []EntityOutput `json:"records"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "is_affected",
		Description: "Check whether an entity is affected by an affinity record",
	}, s.handleIsAffected)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "affected_set",
		Description: "List every entity affected by an affinity record, with per-source evidence",
	}, s.handleAffectedSet)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "build_formulas",
		Description: "Build the crafting formulas an entity takes part in",
	}, s.handleBuildFormulas)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "resolve_asset",
		Description: "Resolve an atlas and frame to a sprite",
	}, s.handleResolveAsset)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "clear_session",
		Description: "Drop all per-run state, as at the start of a new run",
	}, s.handleClearSession)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_records",
		Description: "List known affinity records",
	}, s.handleListRecords)
}

func (s *Server) handleIsAffected(ctx context.Context, req *sdk.CallToolRequest, input IsAffectedInput) (*sdk.CallToolResult, IsAffectedOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, err := s.entity(input.Entity)
	if err != nil {
		return nil, IsAffectedOutput{}, err
	}
	record, err := s.record(input.Record)
	if err != nil {
		return nil, IsAffectedOutput{}, err
	}
	return nil, IsAffectedOutput{
		Entity:   s.output(entity),
		Record:   s.output(record),
		Affected: s.engine.IsAffected(entity, record),
	}, nil
}

func (s *Server) handleAffectedSet(ctx context.Context, req *sdk.CallToolRequest, input AffectedSetInput) (*sdk.CallToolResult, AffectedSetOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.record(input.Record)
	if err != nil {
		return nil, AffectedSetOutput{}, err
	}
	affected := s.engine.AffectedSet(record)
	evidence := s.engine.Evidence(record)
	return nil, AffectedSetOutput{
		Record:   s.output(record),
		Entities: s.outputs(affected),
		Evidence: EvidenceOutput{
			Declared: s.outputs(evidence.Declared.All()),
			Captured: s.outputs(evidence.Captured.All()),
			Scanned:  s.outputs(evidence.Scanned.All()),
		},
	}, nil
}

func (s *Server) handleBuildFormulas(ctx context.Context, req *sdk.CallToolRequest, input BuildFormulasInput) (*sdk.CallToolResult, BuildFormulasOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.Limit < 0 {
		return nil, BuildFormulasOutput{}, fmt.Errorf("limit must not be negative")
	}
	entity, err := s.entity(input.Entity)
	if err != nil {
		return nil, BuildFormulasOutput{}, err
	}

	list := s.engine.BuildFormulas(entity)
	limit := input.Limit
	if limit == 0 {
		limit = -1
	}
	shown, overflow := list.Head(limit)

	out := BuildFormulasOutput{
		Entity:   s.output(entity),
		Role:     s.engine.Classify(entity).String(),
		Formulas: make([]FormulaOutput, 0, len(shown)),
		Total:    list.Count(),
		Overflow: overflow,
	}
	for _, f := range shown {
		out.Formulas = append(out.Formulas, formulaOutput(f))
	}
	return nil, out, nil
}

func (s *Server) handleResolveAsset(ctx context.Context, req *sdk.CallToolRequest, input ResolveAssetInput) (*sdk.CallToolResult, ResolveAssetOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.Frame == "" {
		return nil, ResolveAssetOutput{}, fmt.Errorf("frame is required")
	}
	asset, ok := s.engine.ResolveAsset(input.Atlas, input.Frame)
	if !ok {
		return nil, ResolveAssetOutput{}, nil
	}
	return nil, ResolveAssetOutput{Found: true, Atlas: asset.Atlas, Frame: asset.Frame}, nil
}

func (s *Server) handleClearSession(ctx context.Context, req *sdk.CallToolRequest, input ClearSessionInput) (*sdk.CallToolResult, ClearSessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.ClearSession()
	return nil, ClearSessionOutput{SessionID: s.engine.SessionID()}, nil
}

func (s *Server) handleListRecords(ctx context.Context, req *sdk.CallToolRequest, input ListRecordsInput) (*sdk.CallToolResult, ListRecordsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.engine.Records()
	out := ListRecordsOutput{Records: make([]EntityOutput, 0, len(records))}
	for _, record := range records {
		out.Records = append(out.Records, s.output(record.Ref))
	}
	return nil, out, nil
}

func (s *Server) entity(identifier string) (model.EntityRef, error) {
	if identifier == "" {
		return model.EntityRef{}, fmt.Errorf("entity is required")
	}
	ref, ok := s.engine.Lookup(identifier)
	if !ok || ref.Kind == model.KindAffinityRecord {
		return model.EntityRef{}, fmt.Errorf("entity not found: %s", identifier)
	}
	return ref, nil
}

func (s *Server) record(name string) (model.EntityRef, error) {
	if name == "" {
		return model.EntityRef{}, fmt.Errorf("record is required")
	}
	record, ok := s.engine.FindRecord(name)
	if !ok {
		return model.EntityRef{}, fmt.Errorf("record not found: %s", name)
	}
	return record.Ref, nil
}

func (s *Server) output(ref model.EntityRef) EntityOutput {
	return EntityOutput{
		ID:   s.engine.Identifier(ref),
		Kind: ref.Kind.String(),
		Code: ref.Code,
		Name: s.engine.DisplayName(ref),
	}
}

func (s *Server) outputs(set model.RefSet) []EntityOutput {
	out := make([]EntityOutput, 0, len(set))
	for _, ref := range set.Sorted() {
		out = append(out, s.output(ref))
	}
	return out
}

func formulaOutput(f model.CraftingFormula) FormulaOutput {
	out := FormulaOutput{
		Ingredients:  make([]IngredientOutput, 0, len(f.Ingredients)),
		Result:       f.ResultID,
		ResultAtlas:  f.Result.Atlas,
		ResultFrame:  f.Result.Frame,
		PrimaryOwned: f.PrimaryOwned,
	}
	for _, in := range f.Ingredients {
		out.Ingredients = append(out.Ingredients, IngredientOutput{
			ID:    in.ID,
			Atlas: in.Asset.Atlas,
			Frame: in.Asset.Frame,
			Owned: in.Owned,
		})
	}
	return out
}
