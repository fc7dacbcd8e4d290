package criteria

import (
	"schemematch/internal/scheme/models"
	dErrors "schemematch/pkg/domain-errors"
	pstrings "schemematch/pkg/platform/strings"
)

// readable lists, per kind, the attribute value kinds it can evaluate.
var readable = map[models.CriterionKind][]models.ValueKind{
	models.CriterionRange:      {models.ValueNumber},
	models.CriterionMembership: {models.ValueString, models.ValueNumber},
	models.CriterionEquality:   {models.ValueString, models.ValueNumber},
	models.CriterionBoolean:    {models.ValueBool},
	models.CriterionGeoMatch:   {models.ValuePath},
}

// Validate checks that c is well formed for the current build: a known kind,
// its parameter block, and an attribute of a kind it can read.
func Validate(c *models.Criterion) error {
	if c == nil {
		return dErrors.New(dErrors.CodeConfiguration, "criterion is nil")
	}

	var missing bool
	switch c.Kind {
	case models.CriterionRange:
		missing = c.Range == nil
		if !missing && c.Range.Min != nil && c.Range.Max != nil && *c.Range.Min > *c.Range.Max {
			return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: range min exceeds max", c.ID)
		}
	case models.CriterionMembership:
		missing = c.Membership == nil
		if !missing && len(c.Membership.Allowed) == 0 {
			return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: membership allows nothing", c.ID)
		}
		if !missing && hasBlank(c.Membership.Allowed) {
			return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: membership has a blank member", c.ID)
		}
	case models.CriterionEquality:
		missing = c.Equality == nil
	case models.CriterionBoolean:
		missing = c.Boolean == nil
	case models.CriterionGeoMatch:
		missing = c.Geo == nil
		if !missing && len(c.Geo.Path) == 0 {
			return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: geo-match target path is empty", c.ID)
		}
		if !missing && hasBlank(c.Geo.Path) {
			return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: geo-match target path has a blank level", c.ID)
		}
	default:
		return unknownKind(c)
	}
	if missing {
		return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: %s parameters are missing", c.ID, c.Kind)
	}

	attrKind, ok := models.AttributeKind(c.Attribute)
	if !ok {
		return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: unknown attribute %q", c.ID, c.Attribute)
	}
	for _, k := range readable[c.Kind] {
		if k == attrKind {
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: %s cannot read %s attribute %q",
		c.ID, c.Kind, attrKind, c.Attribute)
}

func unknownKind(c *models.Criterion) error {
	return dErrors.Newf(dErrors.CodeConfiguration, "criterion %s: unknown kind %q", c.ID, c.Kind)
}

func hasBlank(values []string) bool {
	for _, v := range values {
		if pstrings.Fold(v) == "" {
			return true
		}
	}
	return false
}
