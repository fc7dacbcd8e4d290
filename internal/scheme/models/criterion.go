package models

import "fmt"

// CriterionKind is the closed set of predicate kinds.
type CriterionKind string

const (
	CriterionRange      CriterionKind = "range"
	CriterionMembership CriterionKind = "membership"
	CriterionEquality   CriterionKind = "equality"
	CriterionBoolean    CriterionKind = "boolean"
	CriterionGeoMatch   CriterionKind = "geo-match"
)

// ParseCriterionKind returns the kind named by s.
func ParseCriterionKind(s string) (CriterionKind, error) {
	switch kind := CriterionKind(s); kind {
	case CriterionRange, CriterionMembership, CriterionEquality, CriterionBoolean, CriterionGeoMatch:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown criterion kind %q", s)
	}
}

// Criterion is one testable condition over exactly one profile attribute.
// Exactly one parameter block, the one matching Kind, is set.
type Criterion struct {
	ID          string
	Kind        CriterionKind
	Attribute   string
	Mandatory   bool
	Description string

	Range      *RangeParams
	Membership *MembershipParams
	Equality   *EqualityParams
	Boolean    *BooleanParams
	Geo        *GeoParams
}

// RangeParams bounds a numeric attribute. Both bounds are inclusive; a nil
// bound leaves that side open.
type RangeParams struct {
	Min *float64 `mapstructure:"min"`
	Max *float64 `mapstructure:"max"`
}

// MembershipParams lists allowed values, stored folded.
type MembershipParams struct {
	Allowed []string `mapstructure:"allowed"`
}

// EqualityParams holds the expected value, stored folded.
type EqualityParams struct {
	Value string `mapstructure:"value"`
}

// BooleanParams holds the expected flag value.
type BooleanParams struct {
	Expected bool `mapstructure:"expected"`
}

// GeoParams holds the target administrative path, outermost level first, stored folded.
type GeoParams struct {
	Path []string `mapstructure:"path"`
}

// Outcome is the three-valued result of evaluating a criterion.
// The zero value is OutcomeUnknown.
type Outcome uint8

const (
	OutcomeUnknown Outcome = iota
	OutcomeSatisfied
	OutcomeUnsatisfied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSatisfied:
		return "satisfied"
	case OutcomeUnsatisfied:
		return "unsatisfied"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome by name in JSON and logs.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
