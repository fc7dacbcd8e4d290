package handler

import (
	"time"

	"schemematch/internal/scheme/models"
	dErrors "schemematch/pkg/domain-errors"
)

const (
	maxIDLength  = 128
	maxGapLimit  = 50
	maxFieldKeys = 512
)

// ProfileRequest is the body of POST /schemes/eligible.
type ProfileRequest struct {
	Profile *models.Profile `json:"profile"`
	// AsOf overrides the evaluation time; defaults to the request time.
	AsOf *time.Time `json:"as_of,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *ProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Profile == nil {
		return dErrors.New(dErrors.CodeValidation, "profile is required")
	}
	return r.Profile.Validate()
}

func (r *ProfileRequest) asOfOr(now time.Time) time.Time {
	if r.AsOf == nil {
		return now
	}
	return *r.AsOf
}

// GapsRequest is the body of POST /schemes/gaps.
type GapsRequest struct {
	ProfileRequest
	// Limit caps the number of gaps; 0 uses the default.
	Limit int `json:"limit,omitempty"`
}

func (r *GapsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Limit < 0 || r.Limit > maxGapLimit {
		return dErrors.Newf(dErrors.CodeValidation, "limit must be between 0 and %d", maxGapLimit)
	}
	return r.ProfileRequest.Validate()
}

// MapFieldsRequest is the body of POST /schemes/{programID}/fields.
type MapFieldsRequest struct {
	Profile *models.Profile `json:"profile"`
}

func (r *MapFieldsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Profile == nil {
		return dErrors.New(dErrors.CodeValidation, "profile is required")
	}
	return r.Profile.Validate()
}

// ValidateRequest is the body of POST /schemes/{programID}/validate: a
// mapping result as returned by the fields endpoint, possibly edited.
type ValidateRequest struct {
	SchemaID string            `json:"schema_id,omitempty"`
	Values   map[string]string `json:"values"`
	Missing  []string          `json:"missing,omitempty"`
	Invalid  []string          `json:"invalid,omitempty"`
	Complete bool              `json:"complete"`
}

func (r *ValidateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Values)+len(r.Missing)+len(r.Invalid) > maxFieldKeys {
		return dErrors.Newf(dErrors.CodeValidation, "at most %d field keys are accepted", maxFieldKeys)
	}
	return nil
}

func (r *ValidateRequest) toResult(programID string) models.MappingResult {
	values := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return models.MappingResult{
		ProgramID: programID,
		SchemaID:  r.SchemaID,
		Values:    values,
		Missing:   append([]string(nil), r.Missing...),
		Invalid:   append([]string(nil), r.Invalid...),
		Complete:  r.Complete,
	}
}
