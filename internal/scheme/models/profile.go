package models

import (
	"strings"

	dErrors "schemematch/pkg/domain-errors"
)

// PostalCodeLength is the fixed length of a postal code.
const PostalCodeLength = 6

// Attribute paths readable by criteria and field definitions.
const (
	AttrName           = "name"
	AttrAge            = "age"
	AttrGender         = "gender"
	AttrLocation       = "location"
	AttrState          = "location.state"
	AttrDistrict       = "location.district"
	AttrSubDistrict    = "location.sub_district"
	AttrSettlement     = "location.settlement"
	AttrPostalCode     = "location.postal_code"
	AttrOccupation     = "occupation"
	AttrAnnualIncome   = "annual_income"
	AttrFamilySize     = "family_size"
	AttrIncomeCategory = "income_category"

	// DocumentsPrefix prefixes document-derived completeness flags, e.g. "documents.aadhaar".
	DocumentsPrefix = "documents."
)

var attributeKinds = map[string]ValueKind{
	AttrName:           ValueString,
	AttrAge:            ValueNumber,
	AttrGender:         ValueString,
	AttrLocation:       ValuePath,
	AttrState:          ValueString,
	AttrDistrict:       ValueString,
	AttrSubDistrict:    ValueString,
	AttrSettlement:     ValueString,
	AttrPostalCode:     ValueString,
	AttrOccupation:     ValueString,
	AttrAnnualIncome:   ValueNumber,
	AttrFamilySize:     ValueNumber,
	AttrIncomeCategory: ValueString,
}

// AttributeKind reports the value kind an attribute path resolves to, and
// whether the path is known at all.
func AttributeKind(path string) (ValueKind, bool) {
	if name, ok := strings.CutPrefix(path, DocumentsPrefix); ok {
		return ValueBool, name != ""
	}
	kind, ok := attributeKinds[path]
	return kind, ok
}

// Location is the applicant's administrative hierarchy.
type Location struct {
	State       *string `json:"state,omitempty"`
	District    *string `json:"district,omitempty"`
	SubDistrict *string `json:"sub_district,omitempty"`
	Settlement  *string `json:"settlement,omitempty"`
	PostalCode  *string `json:"postal_code,omitempty"`
}

// Profile is the applicant attribute bag handed to the core by the upstream
// profile builder. A nil field is absent; there are no implicit defaults.
//
// Invariants (checked by Validate):
//   - Age, if present, is >= 0
//   - PostalCode, if present, is PostalCodeLength ASCII digits
//   - AnnualIncome and FamilySize, if present, are >= 0
//
// The core never mutates a Profile.
type Profile struct {
	Name           *string         `json:"name,omitempty"`
	Age            *int            `json:"age,omitempty"`
	Gender         *string         `json:"gender,omitempty"`
	Location       *Location       `json:"location,omitempty"`
	Occupation     *string         `json:"occupation,omitempty"`
	AnnualIncome   *float64        `json:"annual_income,omitempty"`
	FamilySize     *int            `json:"family_size,omitempty"`
	IncomeCategory *string         `json:"income_category,omitempty"`
	Documents      map[string]bool `json:"documents,omitempty"`
}

// Validate checks the profile invariants.
func (p *Profile) Validate() error {
	if p == nil {
		return dErrors.New(dErrors.CodeValidation, "profile is required")
	}
	if p.Age != nil && *p.Age < 0 {
		return dErrors.New(dErrors.CodeValidation, "age must not be negative")
	}
	if p.AnnualIncome != nil && *p.AnnualIncome < 0 {
		return dErrors.New(dErrors.CodeValidation, "annual_income must not be negative")
	}
	if p.FamilySize != nil && *p.FamilySize < 0 {
		return dErrors.New(dErrors.CodeValidation, "family_size must not be negative")
	}
	if p.Location != nil && p.Location.PostalCode != nil && !isPostalCode(*p.Location.PostalCode) {
		return dErrors.Newf(dErrors.CodeValidation, "postal_code must be %d digits", PostalCodeLength)
	}
	return nil
}

func isPostalCode(s string) bool {
	if len(s) != PostalCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Lookup resolves an attribute path. Unknown paths and unset attributes are
// both absent; catalog compilation rejects unknown paths up front.
func (p *Profile) Lookup(path string) Value {
	if p == nil {
		return Absent()
	}
	if name, ok := strings.CutPrefix(path, DocumentsPrefix); ok {
		if v, ok := p.Documents[name]; ok {
			return BoolValue(v)
		}
		return Absent()
	}

	switch path {
	case AttrName:
		return optString(p.Name)
	case AttrAge:
		return optInt(p.Age)
	case AttrGender:
		return optString(p.Gender)
	case AttrOccupation:
		return optString(p.Occupation)
	case AttrAnnualIncome:
		if p.AnnualIncome == nil {
			return Absent()
		}
		return NumberValue(*p.AnnualIncome)
	case AttrFamilySize:
		return optInt(p.FamilySize)
	case AttrIncomeCategory:
		return optString(p.IncomeCategory)
	case AttrLocation:
		return PathValue(p.AdministrativePath())
	}

	if p.Location == nil {
		return Absent()
	}
	switch path {
	case AttrState:
		return optString(p.Location.State)
	case AttrDistrict:
		return optString(p.Location.District)
	case AttrSubDistrict:
		return optString(p.Location.SubDistrict)
	case AttrSettlement:
		return optString(p.Location.Settlement)
	case AttrPostalCode:
		return optString(p.Location.PostalCode)
	}
	return Absent()
}

// AdministrativePath returns state, district, sub-district and settlement, in
// that order, stopping at the first level that is absent.
func (p *Profile) AdministrativePath() []string {
	if p == nil || p.Location == nil {
		return nil
	}
	levels := []*string{p.Location.State, p.Location.District, p.Location.SubDistrict, p.Location.Settlement}
	path := make([]string, 0, len(levels))
	for _, level := range levels {
		if level == nil || strings.TrimSpace(*level) == "" {
			break
		}
		path = append(path, *level)
	}
	return path
}

func optString(s *string) Value {
	if s == nil {
		return Absent()
	}
	return StringValue(*s)
}

func optInt(n *int) Value {
	if n == nil {
		return Absent()
	}
	return NumberValue(float64(*n))
}
