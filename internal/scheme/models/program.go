package models

import "time"

// Program is a benefit offering as held in a catalog snapshot.
//
// Invariants:
//   - ID is unique within a snapshot
//   - A program whose deadline is before the evaluation time is closed and
//     never matched, whatever its criteria say
//
// Programs are shared read-only by every reader of a snapshot.
type Program struct {
	ID                string
	Name              string
	Description       string
	Criteria          []Criterion
	Deadline          *time.Time
	RequiredDocuments []string
	SchemaRef         string
}

// IsOpen reports whether the program accepts applications at asOf.
func (p *Program) IsOpen(asOf time.Time) bool {
	return p.Deadline == nil || !p.Deadline.Before(asOf)
}

// DaysUntilDeadline returns the fractional days from asOf to the deadline, and
// false when the program has no deadline.
func (p *Program) DaysUntilDeadline(asOf time.Time) (float64, bool) {
	if p.Deadline == nil {
		return 0, false
	}
	return p.Deadline.Sub(asOf).Hours() / 24, true
}

// MandatoryCount returns the number of mandatory criteria.
func (p *Program) MandatoryCount() int {
	n := 0
	for i := range p.Criteria {
		if p.Criteria[i].Mandatory {
			n++
		}
	}
	return n
}
