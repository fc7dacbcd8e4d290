// Package criteria evaluates single eligibility predicates against a profile.
//
// Evaluation is three-valued. A criterion whose attribute is absent from the
// profile is OutcomeUnknown, never OutcomeUnsatisfied, so callers can tell
// "does not qualify" apart from "cannot tell yet".
//
// The kind set is closed; every switch over models.CriterionKind has a default
// branch that reports a configuration error instead of guessing.
package criteria

import (
	"strconv"

	"schemematch/internal/scheme/models"
	pstrings "schemematch/pkg/platform/strings"
)

// Evaluate applies c to p. The error is always a configuration error: an
// unknown kind, a missing parameter block, or an attribute the kind cannot read.
func Evaluate(c *models.Criterion, p *models.Profile) (models.Outcome, error) {
	if err := Validate(c); err != nil {
		return models.OutcomeUnknown, err
	}

	v := p.Lookup(c.Attribute)
	if v.IsAbsent() {
		return models.OutcomeUnknown, nil
	}

	switch c.Kind {
	case models.CriterionRange:
		return evalRange(c.Range, v), nil
	case models.CriterionMembership:
		return evalMembership(c.Membership, v), nil
	case models.CriterionEquality:
		return evalEquality(c.Equality, v), nil
	case models.CriterionBoolean:
		return outcome(v.Bool() == c.Boolean.Expected), nil
	case models.CriterionGeoMatch:
		return evalGeo(c.Geo, v), nil
	default:
		return models.OutcomeUnknown, unknownKind(c)
	}
}

func evalRange(params *models.RangeParams, v models.Value) models.Outcome {
	n := v.Num()
	if params.Min != nil && n < *params.Min {
		return models.OutcomeUnsatisfied
	}
	if params.Max != nil && n > *params.Max {
		return models.OutcomeUnsatisfied
	}
	return models.OutcomeSatisfied
}

func evalMembership(params *models.MembershipParams, v models.Value) models.Outcome {
	got := pstrings.Fold(v.Text())
	for _, allowed := range params.Allowed {
		if pstrings.Fold(allowed) == got {
			return models.OutcomeSatisfied
		}
	}
	return models.OutcomeUnsatisfied
}

func evalEquality(params *models.EqualityParams, v models.Value) models.Outcome {
	if v.Kind() == models.ValueNumber {
		want, err := strconv.ParseFloat(pstrings.Fold(params.Value), 64)
		if err != nil {
			return models.OutcomeUnsatisfied
		}
		return outcome(v.Num() == want)
	}
	return outcome(pstrings.EqualFold(v.Str(), params.Value))
}

// evalGeo matches when the target path is a prefix of (or equal to) the
// profile's administrative path. A profile path that stops short of the target
// but agrees so far cannot be decided.
func evalGeo(params *models.GeoParams, v models.Value) models.Outcome {
	have := v.Path()
	for i, want := range params.Path {
		if i >= len(have) {
			return models.OutcomeUnknown
		}
		if !pstrings.EqualFold(have[i], want) {
			return models.OutcomeUnsatisfied
		}
	}
	return models.OutcomeSatisfied
}

func outcome(ok bool) models.Outcome {
	if ok {
		return models.OutcomeSatisfied
	}
	return models.OutcomeUnsatisfied
}
