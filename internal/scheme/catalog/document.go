package catalog

// Document is the wire form of a catalog as stored by every catalog source
// (file, postgres rows, redis, s3). Criterion and transform parameters are
// free-form maps decoded per kind by Compile.
type Document struct {
	Version  string        `json:"version" yaml:"version"`
	Programs []ProgramSpec `json:"programs" yaml:"programs"`
	Schemas  []SchemaSpec  `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// ProgramSpec describes one program.
type ProgramSpec struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Deadline is RFC 3339 or a bare date (2006-01-02). A bare date closes at
	// the end of that day, UTC.
	Deadline          string          `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	RequiredDocuments []string        `json:"required_documents,omitempty" yaml:"required_documents,omitempty"`
	Schema            string          `json:"schema,omitempty" yaml:"schema,omitempty"`
	Criteria          []CriterionSpec `json:"criteria" yaml:"criteria"`
}

// CriterionSpec describes one criterion. ID defaults to "<program>#<position>".
type CriterionSpec struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`
	Kind        string         `json:"kind" yaml:"kind"`
	Attribute   string         `json:"attribute" yaml:"attribute"`
	Mandatory   bool           `json:"mandatory" yaml:"mandatory"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Params      map[string]any `json:"params" yaml:"params"`
}

// SchemaSpec describes a field schema.
type SchemaSpec struct {
	ID          string           `json:"id" yaml:"id"`
	Fields      []FieldSpec      `json:"fields" yaml:"fields"`
	Constraints []ConstraintSpec `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// FieldSpec describes one target field.
type FieldSpec struct {
	Key       string         `json:"key" yaml:"key"`
	Label     string         `json:"label,omitempty" yaml:"label,omitempty"`
	Source    string         `json:"source" yaml:"source"`
	Required  bool           `json:"required" yaml:"required"`
	Transform *TransformSpec `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// TransformSpec describes a field transform. Format and Pattern apply to
// kind "format", Mapping to kind "enum".
type TransformSpec struct {
	Kind    string            `json:"kind" yaml:"kind"`
	Format  string            `json:"format,omitempty" yaml:"format,omitempty"`
	Pattern string            `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Mapping map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
}

// ConstraintSpec is a "requires" rule: when If is present, Then must be too.
type ConstraintSpec struct {
	If          string   `json:"if" yaml:"if"`
	Then        []string `json:"then" yaml:"then"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}
