// Package catalog holds the program catalog as atomically swapped, immutable
// snapshots.
//
// Refresh builds a complete new Snapshot off to the side and publishes it with a
// single pointer store. Readers call Snapshot once per operation and never lock,
// so no reader can observe a mix of old and new programs.
package catalog

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"schemematch/internal/scheme/criteria"
	"schemematch/internal/scheme/models"
	dErrors "schemematch/pkg/domain-errors"
)

// Catalog is the only mutable state in the matching core.
type Catalog struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[Snapshot]
	clock   func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the clock used to stamp snapshots.
func WithClock(clock func() time.Time) Option {
	return func(c *Catalog) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New returns a catalog holding the empty version-0 snapshot.
func New(opts ...Option) *Catalog {
	c := &Catalog{clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.current.Store(emptySnapshot())
	return c
}

// Snapshot returns the currently published snapshot.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

type refreshConfig struct {
	source string
}

// RefreshOption annotates a refresh.
type RefreshOption func(*refreshConfig)

// WithSource records where the definitions were loaded from.
func WithSource(source string) RefreshOption {
	return func(cfg *refreshConfig) {
		cfg.source = source
	}
}

// Refresh replaces the whole program set. Inputs are copied, validated and
// published atomically. On error the current snapshot stays in place.
//
// Validation covers structural invariants: unique non-empty program ids,
// unique schema ids, unique target keys within a schema, and well-formed
// criteria. A program whose schema ref does not resolve is accepted; the
// mapping call that needs it fails instead.
func (c *Catalog) Refresh(programs []models.Program, schemas []models.FieldSchema, opts ...RefreshOption) (*Snapshot, error) {
	cfg := &refreshConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := build(programs, schemas)
	if err != nil {
		return nil, err
	}
	next.version = c.current.Load().version + 1
	next.id = uuid.New()
	next.loadedAt = c.clock()
	next.source = cfg.source

	c.current.Store(next)
	return next, nil
}

// RefreshDocument compiles doc and publishes it.
func (c *Catalog) RefreshDocument(doc *Document, opts ...RefreshOption) (*Snapshot, error) {
	compiled, err := Compile(doc)
	if err != nil {
		return nil, err
	}
	return c.Refresh(compiled.Programs, compiled.Schemas, opts...)
}

func build(programs []models.Program, schemas []models.FieldSchema) (*Snapshot, error) {
	snap := &Snapshot{
		programs: make([]*models.Program, 0, len(programs)),
		byID:     make(map[string]*models.Program, len(programs)),
		schemas:  make(map[string]*models.FieldSchema, len(schemas)),
	}

	for i := range schemas {
		schema := copySchema(schemas[i])
		if strings.TrimSpace(schema.ID) == "" {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "schema at index %d has no id", i)
		}
		if _, dup := snap.schemas[schema.ID]; dup {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "duplicate schema id %q", schema.ID)
		}
		if err := checkSchema(schema); err != nil {
			return nil, err
		}
		snap.schemas[schema.ID] = schema
	}

	for i := range programs {
		p := copyProgram(programs[i])
		if strings.TrimSpace(p.ID) == "" {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "program at index %d has no id", i)
		}
		if _, dup := snap.byID[p.ID]; dup {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "duplicate program id %q", p.ID)
		}
		for j := range p.Criteria {
			if err := criteria.Validate(&p.Criteria[j]); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "program "+p.ID)
			}
		}
		snap.byID[p.ID] = p
		snap.programs = append(snap.programs, p)
	}

	sort.SliceStable(snap.programs, func(i, j int) bool {
		a, b := snap.programs[i], snap.programs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return snap, nil
}

func checkSchema(schema *models.FieldSchema) error {
	keys := make(map[string]struct{}, len(schema.Fields))
	for _, f := range schema.Fields {
		if strings.TrimSpace(f.Key) == "" {
			return dErrors.Newf(dErrors.CodeConfiguration, "schema %s: field with empty target key", schema.ID)
		}
		if _, dup := keys[f.Key]; dup {
			return dErrors.Newf(dErrors.CodeConfiguration, "schema %s: duplicate target key %q", schema.ID, f.Key)
		}
		if _, ok := models.AttributeKind(f.Source); !ok {
			return dErrors.Newf(dErrors.CodeConfiguration, "schema %s: field %s reads unknown attribute %q", schema.ID, f.Key, f.Source)
		}
		keys[f.Key] = struct{}{}
	}
	for _, rule := range schema.Constraints {
		for _, key := range append([]string{rule.If}, rule.Then...) {
			if _, ok := keys[key]; !ok {
				return dErrors.Newf(dErrors.CodeConfiguration, "schema %s: constraint references undeclared key %q", schema.ID, key)
			}
		}
	}
	return nil
}

func copyProgram(p models.Program) *models.Program {
	out := p
	out.Criteria = make([]models.Criterion, len(p.Criteria))
	for i := range p.Criteria {
		out.Criteria[i] = copyCriterion(p.Criteria[i])
	}
	out.RequiredDocuments = append([]string(nil), p.RequiredDocuments...)
	if p.Deadline != nil {
		d := *p.Deadline
		out.Deadline = &d
	}
	return &out
}

func copySchema(s models.FieldSchema) *models.FieldSchema {
	out := s
	out.Fields = make([]models.FieldDefinition, len(s.Fields))
	for i, f := range s.Fields {
		if f.Transform != nil {
			f.Transform = copyTransform(f.Transform)
		}
		out.Fields[i] = f
	}
	out.Constraints = make([]models.Constraint, len(s.Constraints))
	for i, c := range s.Constraints {
		c.Then = append([]string(nil), c.Then...)
		out.Constraints[i] = c
	}
	return &out
}

// copyCriterion copies c and its parameter block.
func copyCriterion(c models.Criterion) models.Criterion {
	if c.Range != nil {
		r := models.RangeParams{Min: copyFloat(c.Range.Min), Max: copyFloat(c.Range.Max)}
		c.Range = &r
	}
	if c.Membership != nil {
		c.Membership = &models.MembershipParams{Allowed: append([]string(nil), c.Membership.Allowed...)}
	}
	if c.Equality != nil {
		e := *c.Equality
		c.Equality = &e
	}
	if c.Boolean != nil {
		b := *c.Boolean
		c.Boolean = &b
	}
	if c.Geo != nil {
		c.Geo = &models.GeoParams{Path: append([]string(nil), c.Geo.Path...)}
	}
	return c
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// copyTransform copies t. A compiled pattern is safe to share.
func copyTransform(t *models.Transform) *models.Transform {
	out := *t
	out.Mapping = maps.Clone(t.Mapping)
	return &out
}
