package models

import "regexp"

// TransformKind selects how a resolved value is turned into a field value.
type TransformKind string

const (
	TransformFormat TransformKind = "format"
	TransformEnum   TransformKind = "enum"
)

// FormatStyle is the normalization applied by a format transform.
type FormatStyle string

const (
	FormatText    FormatStyle = "text"
	FormatUpper   FormatStyle = "upper"
	FormatLower   FormatStyle = "lower"
	FormatTitle   FormatStyle = "title"
	FormatInteger FormatStyle = "integer"
	FormatDigits  FormatStyle = "digits"
)

// Transform converts a resolved attribute into a field value or rejects it as malformed.
type Transform struct {
	Kind    TransformKind
	Format  FormatStyle
	Pattern *regexp.Regexp
	// Mapping is keyed by folded source value.
	Mapping map[string]string
}

// FieldDefinition resolves one target field from one profile attribute.
type FieldDefinition struct {
	Key       string
	Label     string
	Source    string
	Required  bool
	Transform *Transform
}

// Constraint is a cross-field rule: when If is present, every key in Then must be present.
type Constraint struct {
	If          string
	Then        []string
	Description string
}

// FieldSchema is the ordered field layout of a program's output document.
// Target keys are unique within a schema.
type FieldSchema struct {
	ID          string
	Fields      []FieldDefinition
	Constraints []Constraint
}

// Field returns the definition for key.
func (s *FieldSchema) Field(key string) (*FieldDefinition, bool) {
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			return &s.Fields[i], true
		}
	}
	return nil, false
}
