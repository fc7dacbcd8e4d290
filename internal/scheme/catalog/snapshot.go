package catalog

import (
	"time"

	"github.com/google/uuid"

	"schemematch/internal/scheme/models"
)

// Snapshot is an immutable, versioned view of the whole catalog. Readers may
// hold one for as long as they like; a refresh never changes it.
type Snapshot struct {
	version  uint64
	id       uuid.UUID
	loadedAt time.Time
	source   string

	// programs is ordered by name, then id.
	programs []*models.Program
	byID     map[string]*models.Program
	schemas  map[string]*models.FieldSchema
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		byID:    map[string]*models.Program{},
		schemas: map[string]*models.FieldSchema{},
	}
}

// Version is 0 for the empty startup snapshot and increases by one per published refresh.
func (s *Snapshot) Version() uint64 { return s.version }

// ID uniquely identifies this snapshot across process restarts.
func (s *Snapshot) ID() uuid.UUID { return s.id }

func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Source names where the snapshot's definitions came from, e.g. "postgres".
func (s *Snapshot) Source() string { return s.source }

// Len returns the number of programs, open or closed.
func (s *Snapshot) Len() int { return len(s.programs) }

// Programs returns every program, open or closed, in name order.
func (s *Snapshot) Programs() []*models.Program {
	return append([]*models.Program(nil), s.programs...)
}

// ActivePrograms returns the programs open at asOf, in name order. Whether a
// program is open is a property of asOf, not of stored state.
func (s *Snapshot) ActivePrograms(asOf time.Time) []*models.Program {
	active := make([]*models.Program, 0, len(s.programs))
	for _, p := range s.programs {
		if p.IsOpen(asOf) {
			active = append(active, p)
		}
	}
	return active
}

// Program looks up a program by id.
func (s *Snapshot) Program(id string) (*models.Program, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Schema looks up a field schema by id.
func (s *Snapshot) Schema(id string) (*models.FieldSchema, bool) {
	schema, ok := s.schemas[id]
	return schema, ok
}

// SchemaCount returns the number of field schemas.
func (s *Snapshot) SchemaCount() int { return len(s.schemas) }
