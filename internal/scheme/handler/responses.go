package handler

import (
	"time"

	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/models"
)

// CriterionResponse describes one criterion and how the profile fared on it.
type CriterionResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Attribute   string `json:"attribute"`
	Description string `json:"description,omitempty"`
	Outcome     string `json:"outcome"`
}

// MatchResponse is one eligible program.
type MatchResponse struct {
	ProgramID         string              `json:"program_id"`
	Name              string              `json:"name"`
	Score             float64             `json:"score"`
	SatisfiedOptional int                 `json:"satisfied_optional"`
	Deadline          *time.Time          `json:"deadline,omitempty"`
	RequiredDocuments []string            `json:"required_documents"`
	UnmetOptional     []CriterionResponse `json:"unmet_optional"`
}

// EligibleResponse is the HTTP response for POST /schemes/eligible.
type EligibleResponse struct {
	AsOf     time.Time       `json:"as_of"`
	Programs []MatchResponse `json:"programs"`
}

// GapResponse is one near-miss program.
type GapResponse struct {
	ProgramID       string              `json:"program_id"`
	Name            string              `json:"name"`
	FailedMandatory []CriterionResponse `json:"failed_mandatory"`
	UnknownCount    int                 `json:"unknown_count"`
}

// GapsResponse is the HTTP response for POST /schemes/gaps.
type GapsResponse struct {
	AsOf time.Time     `json:"as_of"`
	Gaps []GapResponse `json:"gaps"`
}

// MappingResponse is the HTTP response for POST /schemes/{programID}/fields.
type MappingResponse struct {
	ProgramID string            `json:"program_id"`
	SchemaID  string            `json:"schema_id"`
	Values    map[string]string `json:"values"`
	Missing   []string          `json:"missing"`
	Invalid   []string          `json:"invalid"`
	Complete  bool              `json:"complete"`
}

// ViolationResponse is one reason a mapping may not be rendered.
type ViolationResponse struct {
	Key     string `json:"key,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidateResponse is the HTTP response for POST /schemes/{programID}/validate.
type ValidateResponse struct {
	Valid      bool                `json:"valid"`
	Violations []ViolationResponse `json:"violations"`
}

// DocumentsResponse is the HTTP response for GET /schemes/{programID}/documents.
type DocumentsResponse struct {
	ProgramID string   `json:"program_id"`
	Documents []string `json:"documents"`
}

// ProgramSummary lists a program in the catalog view.
type ProgramSummary struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Open     bool       `json:"open"`
	HasForm  bool       `json:"has_form"`
}

// CatalogResponse describes the snapshot being served.
type CatalogResponse struct {
	Version     uint64           `json:"version"`
	SnapshotID  string           `json:"snapshot_id"`
	Source      string           `json:"source,omitempty"`
	LoadedAt    *time.Time       `json:"loaded_at,omitempty"`
	SchemaCount int              `json:"schema_count"`
	Programs    []ProgramSummary `json:"programs"`
}

func toCriteria(results []models.CriterionResult) []CriterionResponse {
	out := make([]CriterionResponse, 0, len(results))
	for _, r := range results {
		out = append(out, CriterionResponse{
			ID:          r.Criterion.ID,
			Kind:        string(r.Criterion.Kind),
			Attribute:   r.Criterion.Attribute,
			Description: r.Criterion.Description,
			Outcome:     r.Outcome.String(),
		})
	}
	return out
}

// EligibleFrom converts ranked match results for the wire.
func EligibleFrom(results []models.MatchResult, asOf time.Time) *EligibleResponse {
	programs := make([]MatchResponse, 0, len(results))
	for _, r := range results {
		programs = append(programs, MatchResponse{
			ProgramID:         r.Program.ID,
			Name:              r.Program.Name,
			Score:             r.Score,
			SatisfiedOptional: r.SatisfiedOptional,
			Deadline:          r.Program.Deadline,
			RequiredDocuments: nonNil(r.Program.RequiredDocuments),
			UnmetOptional:     toCriteria(r.UnmetOptional),
		})
	}
	return &EligibleResponse{AsOf: asOf, Programs: programs}
}

// GapsFrom converts near misses for the wire.
func GapsFrom(gaps []models.Gap, asOf time.Time) *GapsResponse {
	out := make([]GapResponse, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, GapResponse{
			ProgramID:       g.Program.ID,
			Name:            g.Program.Name,
			FailedMandatory: toCriteria(g.FailedMandatory),
			UnknownCount:    g.UnknownCount(),
		})
	}
	return &GapsResponse{AsOf: asOf, Gaps: out}
}

// MappingFrom converts a mapping result for the wire. Empty lists stay [].
func MappingFrom(r models.MappingResult) *MappingResponse {
	values := r.Values
	if values == nil {
		values = map[string]string{}
	}
	return &MappingResponse{
		ProgramID: r.ProgramID,
		SchemaID:  r.SchemaID,
		Values:    values,
		Missing:   nonNil(r.Missing),
		Invalid:   nonNil(r.Invalid),
		Complete:  r.Complete,
	}
}

// ValidateFrom reports a mapping as valid when there are no violations.
func ValidateFrom(violations []models.Violation) *ValidateResponse {
	out := make([]ViolationResponse, 0, len(violations))
	for _, v := range violations {
		out = append(out, ViolationResponse{Key: v.Key, Rule: string(v.Rule), Message: v.Message})
	}
	return &ValidateResponse{Valid: len(out) == 0, Violations: out}
}

// CatalogFrom summarizes snap, marking which programs are open at asOf.
func CatalogFrom(snap *catalog.Snapshot, asOf time.Time) *CatalogResponse {
	resp := &CatalogResponse{
		Version:     snap.Version(),
		SnapshotID:  snap.ID().String(),
		Source:      snap.Source(),
		SchemaCount: snap.SchemaCount(),
	}
	if loaded := snap.LoadedAt(); !loaded.IsZero() {
		resp.LoadedAt = &loaded
	}
	programs := snap.Programs()
	resp.Programs = make([]ProgramSummary, 0, len(programs))
	for _, p := range programs {
		resp.Programs = append(resp.Programs, ProgramSummary{
			ID:       p.ID,
			Name:     p.Name,
			Deadline: p.Deadline,
			Open:     p.IsOpen(asOf),
			HasForm:  p.SchemaRef != "",
		})
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
