// Package mapper resolves a program's output fields from a profile and checks
// whether the result is complete enough to render.
package mapper

import (
	"fmt"
	"sort"

	"schemematch/internal/scheme/models"
	dErrors "schemematch/pkg/domain-errors"
	pstrings "schemematch/pkg/platform/strings"
)

// MapFields resolves every field of schema from p. Values holds only fields
// that resolved to a well-formed value. A required field that is absent or
// malformed is listed in Missing; any malformed field is listed in Invalid.
//
// The error is a configuration error: a nil schema, a schema that is not the
// program's, or a transform this build does not know.
func MapFields(program *models.Program, schema *models.FieldSchema, p *models.Profile) (models.MappingResult, error) {
	if program == nil {
		return models.MappingResult{}, dErrors.New(dErrors.CodeConfiguration, "program is nil")
	}
	if schema == nil {
		return models.MappingResult{}, dErrors.Newf(dErrors.CodeConfiguration, "program %s has no field schema", program.ID)
	}
	if program.SchemaRef != "" && program.SchemaRef != schema.ID {
		return models.MappingResult{}, dErrors.Newf(dErrors.CodeConfiguration,
			"program %s uses schema %s, got %s", program.ID, program.SchemaRef, schema.ID)
	}

	result := models.MappingResult{
		ProgramID: program.ID,
		SchemaID:  schema.ID,
		Values:    make(map[string]string, len(schema.Fields)),
		Missing:   []string{},
		Invalid:   []string{},
	}
	for i := range schema.Fields {
		f := &schema.Fields[i]
		v := p.Lookup(f.Source)
		if v.IsAbsent() {
			if f.Required {
				result.Missing = append(result.Missing, f.Key)
			}
			continue
		}

		value, ok, err := apply(f.Transform, v)
		if err != nil {
			return models.MappingResult{}, dErrors.Wrap(err, dErrors.CodeConfiguration, fmt.Sprintf("schema %s field %s", schema.ID, f.Key))
		}
		if !ok {
			result.Invalid = append(result.Invalid, f.Key)
			if f.Required {
				result.Missing = append(result.Missing, f.Key)
			}
			continue
		}
		result.Values[f.Key] = value
	}
	result.Complete = len(result.Missing) == 0
	return result, nil
}

// Validate checks result against schema without trusting result.Complete:
// required fields must have values, every "requires" constraint must hold, and
// no value may be set for a key the schema does not declare. An empty slice
// means the result may be rendered.
func Validate(schema *models.FieldSchema, result models.MappingResult) []models.Violation {
	violations := []models.Violation{}
	has := func(key string) bool {
		v, ok := result.Values[key]
		return ok && pstrings.Collapse(v) != ""
	}

	complete := true
	for _, f := range schema.Fields {
		if f.Required && !has(f.Key) {
			complete = false
			violations = append(violations, models.Violation{
				Key:     f.Key,
				Rule:    models.RuleMissingRequired,
				Message: fmt.Sprintf("required field %s has no value", f.Key),
			})
		}
	}

	for _, rule := range schema.Constraints {
		if !has(rule.If) {
			continue
		}
		for _, key := range rule.Then {
			if has(key) {
				continue
			}
			msg := rule.Description
			if msg == "" {
				msg = fmt.Sprintf("%s requires %s", rule.If, key)
			}
			violations = append(violations, models.Violation{Key: key, Rule: models.RuleConstraint, Message: msg})
		}
	}

	undeclared := make([]string, 0)
	for key := range result.Values {
		if _, ok := schema.Field(key); !ok {
			undeclared = append(undeclared, key)
		}
	}
	sort.Strings(undeclared)
	for _, key := range undeclared {
		violations = append(violations, models.Violation{
			Key:     key,
			Rule:    models.RuleUndeclaredField,
			Message: fmt.Sprintf("schema %s does not declare %s", schema.ID, key),
		})
	}

	if result.Complete && !complete {
		violations = append(violations, models.Violation{
			Rule:    models.RuleCompleteFlag,
			Message: "result is marked complete but required fields are missing",
		})
	}
	return violations
}

// RequiredDocuments returns a copy of the documents the program asks for.
func RequiredDocuments(program *models.Program) []string {
	if program == nil {
		return []string{}
	}
	return append([]string{}, program.RequiredDocuments...)
}
