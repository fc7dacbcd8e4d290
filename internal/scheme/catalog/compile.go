package catalog

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/mitchellh/mapstructure"

	"schemematch/internal/scheme/models"
	dErrors "schemematch/pkg/domain-errors"
	pstrings "schemematch/pkg/platform/strings"
)

// SupportedFormat is the range of document versions this build can compile.
const SupportedFormat = ">= 1.0.0, < 2.0.0"

var supportedFormat = semver.MustParse("1.0.0")

var formatConstraint = mustConstraint(SupportedFormat)

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Compiled is a document turned into typed models, ready for Catalog.Refresh.
type Compiled struct {
	Version  *semver.Version
	Programs []models.Program
	Schemas  []models.FieldSchema
}

// Compile decodes a wire document. Any malformed entry rejects the whole
// document with a configuration error; nothing is partially accepted.
func Compile(doc *Document) (*Compiled, error) {
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "catalog document is nil")
	}
	version, err := checkFormat(doc.Version)
	if err != nil {
		return nil, err
	}

	out := &Compiled{
		Version:  version,
		Programs: make([]models.Program, 0, len(doc.Programs)),
		Schemas:  make([]models.FieldSchema, 0, len(doc.Schemas)),
	}
	for i := range doc.Schemas {
		schema, err := compileSchema(&doc.Schemas[i])
		if err != nil {
			return nil, err
		}
		out.Schemas = append(out.Schemas, schema)
	}
	for i := range doc.Programs {
		program, err := compileProgram(&doc.Programs[i])
		if err != nil {
			return nil, err
		}
		out.Programs = append(out.Programs, program)
	}
	return out, nil
}

// checkFormat accepts an empty version as 1.0.0 for hand-written files.
func checkFormat(raw string) (*semver.Version, error) {
	if strings.TrimSpace(raw) == "" {
		return supportedFormat, nil
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid catalog format version")
	}
	if !formatConstraint.Check(v) {
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "catalog format %s is not supported (want %s)", v, SupportedFormat)
	}
	return v, nil
}

func compileProgram(spec *ProgramSpec) (models.Program, error) {
	p := models.Program{
		ID:                strings.TrimSpace(spec.ID),
		Name:              strings.TrimSpace(spec.Name),
		Description:       spec.Description,
		RequiredDocuments: pstrings.DedupeAndTrim(spec.RequiredDocuments),
		SchemaRef:         strings.TrimSpace(spec.Schema),
		Criteria:          make([]models.Criterion, 0, len(spec.Criteria)),
	}
	if p.ID == "" {
		return p, dErrors.New(dErrors.CodeConfiguration, "program without id")
	}
	if p.Name == "" {
		return p, dErrors.Newf(dErrors.CodeConfiguration, "program %s has no name", p.ID)
	}
	if spec.Deadline != "" {
		deadline, err := ParseDeadline(spec.Deadline)
		if err != nil {
			return p, dErrors.Wrap(err, dErrors.CodeConfiguration, "program "+p.ID)
		}
		p.Deadline = &deadline
	}

	seen := make(map[string]struct{}, len(spec.Criteria))
	for i := range spec.Criteria {
		c, err := compileCriterion(&spec.Criteria[i])
		if err != nil {
			return p, dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("program %s criterion %d", p.ID, i+1))
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("%s#%d", p.ID, i+1)
		}
		if _, dup := seen[c.ID]; dup {
			return p, dErrors.Newf(dErrors.CodeConfiguration, "program %s: duplicate criterion id %q", p.ID, c.ID)
		}
		seen[c.ID] = struct{}{}
		p.Criteria = append(p.Criteria, c)
	}
	return p, nil
}

// ParseDeadline accepts RFC 3339 or a bare date. A bare date is the last
// instant of that day in UTC.
func ParseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline %q is neither a date nor RFC 3339", raw)
	}
	return day.Add(24*time.Hour - time.Nanosecond), nil
}

func compileCriterion(spec *CriterionSpec) (models.Criterion, error) {
	kind, err := models.ParseCriterionKind(strings.TrimSpace(spec.Kind))
	if err != nil {
		return models.Criterion{}, err
	}
	c := models.Criterion{
		ID:          strings.TrimSpace(spec.ID),
		Kind:        kind,
		Attribute:   strings.TrimSpace(spec.Attribute),
		Mandatory:   spec.Mandatory,
		Description: spec.Description,
	}

	switch kind {
	case models.CriterionRange:
		c.Range = &models.RangeParams{}
		err = decodeParams(spec.Params, c.Range)
	case models.CriterionMembership:
		c.Membership = &models.MembershipParams{}
		err = decodeParams(spec.Params, c.Membership)
		if err == nil {
			c.Membership.Allowed, err = foldSet(c.Membership.Allowed)
		}
	case models.CriterionEquality:
		c.Equality = &models.EqualityParams{}
		err = decodeParams(spec.Params, c.Equality)
		if err == nil {
			c.Equality.Value = pstrings.Fold(c.Equality.Value)
		}
	case models.CriterionBoolean:
		c.Boolean = &models.BooleanParams{Expected: true}
		err = decodeParams(spec.Params, c.Boolean)
	case models.CriterionGeoMatch:
		c.Geo = &models.GeoParams{}
		err = decodeParams(spec.Params, c.Geo)
		if err == nil {
			c.Geo.Path, err = foldPath(c.Geo.Path)
		}
	default:
		err = fmt.Errorf("unknown criterion kind %q", kind)
	}
	return c, err
}

// decodeParams decodes a free-form parameter map into out. Unknown keys are
// errors so a typo cannot silently widen a criterion. Scalars are coerced
// (YAML "18" to 18, a lone string to a one-element list).
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// foldSet folds an allow-list. Blank members are rejected rather than dropped.
func foldSet(allowed []string) ([]string, error) {
	for i, v := range allowed {
		if pstrings.Fold(v) == "" {
			return nil, fmt.Errorf("allowed value %d is blank", i+1)
		}
	}
	return pstrings.DedupeFold(allowed), nil
}

// foldPath folds every level of a region path. A blank level is an error:
// skipping it would widen the target region.
func foldPath(path []string) ([]string, error) {
	out := make([]string, 0, len(path))
	for i, level := range path {
		folded := pstrings.Fold(level)
		if folded == "" {
			return nil, fmt.Errorf("path level %d is blank", i+1)
		}
		out = append(out, folded)
	}
	return out, nil
}

func compileSchema(spec *SchemaSpec) (models.FieldSchema, error) {
	schema := models.FieldSchema{
		ID:     strings.TrimSpace(spec.ID),
		Fields: make([]models.FieldDefinition, 0, len(spec.Fields)),
	}
	if schema.ID == "" {
		return schema, dErrors.New(dErrors.CodeConfiguration, "schema without id")
	}
	for i := range spec.Fields {
		f := &spec.Fields[i]
		def := models.FieldDefinition{
			Key:      strings.TrimSpace(f.Key),
			Label:    f.Label,
			Source:   strings.TrimSpace(f.Source),
			Required: f.Required,
		}
		if f.Transform != nil {
			t, err := compileTransform(f.Transform)
			if err != nil {
				return schema, dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("schema %s field %s", schema.ID, def.Key))
			}
			def.Transform = t
		}
		schema.Fields = append(schema.Fields, def)
	}
	for _, rule := range spec.Constraints {
		schema.Constraints = append(schema.Constraints, models.Constraint{
			If:          strings.TrimSpace(rule.If),
			Then:        pstrings.DedupeAndTrim(rule.Then),
			Description: rule.Description,
		})
	}
	return schema, nil
}

func compileTransform(spec *TransformSpec) (*models.Transform, error) {
	switch models.TransformKind(strings.TrimSpace(spec.Kind)) {
	case models.TransformFormat:
		t := &models.Transform{Kind: models.TransformFormat, Format: models.FormatText}
		if spec.Format != "" {
			style := models.FormatStyle(strings.ToLower(strings.TrimSpace(spec.Format)))
			switch style {
			case models.FormatText, models.FormatUpper, models.FormatLower,
				models.FormatTitle, models.FormatInteger, models.FormatDigits:
				t.Format = style
			default:
				return nil, fmt.Errorf("unknown format %q", spec.Format)
			}
		}
		if spec.Pattern != "" {
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return nil, fmt.Errorf("pattern: %w", err)
			}
			t.Pattern = re
		}
		return t, nil
	case models.TransformEnum:
		if len(spec.Mapping) == 0 {
			return nil, fmt.Errorf("enum transform has no mapping")
		}
		mapping := make(map[string]string, len(spec.Mapping))
		for from, to := range spec.Mapping {
			key := pstrings.Fold(from)
			if prev, dup := mapping[key]; dup && prev != to {
				return nil, fmt.Errorf("enum keys %q collide after normalization", from)
			}
			mapping[key] = to
		}
		return &models.Transform{Kind: models.TransformEnum, Mapping: mapping}, nil
	default:
		return nil, fmt.Errorf("unknown transform kind %q", spec.Kind)
	}
}
