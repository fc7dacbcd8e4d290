// Package matcher selects and ranks the programs a profile qualifies for.
//
// The matcher is stateless. Every operation reads a single catalog snapshot,
// so results are consistent even while a refresh is being published.
package matcher

import (
	"sort"
	"time"

	"schemematch/internal/scheme/catalog"
	"schemematch/internal/scheme/criteria"
	"schemematch/internal/scheme/models"
)

// DefaultGapLimit caps ExplainGaps when the caller passes a limit <= 0.
const DefaultGapLimit = 5

// Config holds the ranking weights.
type Config struct {
	// OptionalWeight is added per satisfied optional criterion.
	OptionalWeight float64
	// DeadlineWeight is subtracted per day left before the deadline, so
	// programs closing sooner rank higher.
	DeadlineWeight float64
	// FarDeadlineDays stands in for the days left when a program has no deadline.
	FarDeadlineDays float64
}

// DefaultConfig returns the production weights.
func DefaultConfig() Config {
	return Config{
		OptionalWeight:  1.0,
		DeadlineWeight:  0.1,
		FarDeadlineDays: 3650,
	}
}

// Matcher evaluates profiles against catalog snapshots.
type Matcher struct {
	cfg Config
}

// New returns a matcher. A non-positive FarDeadlineDays falls back to the default.
func New(cfg Config) *Matcher {
	if cfg.FarDeadlineDays <= 0 {
		cfg.FarDeadlineDays = DefaultConfig().FarDeadlineDays
	}
	return &Matcher{cfg: cfg}
}

// Config returns the weights in use.
func (m *Matcher) Config() Config { return m.cfg }

// Evaluate returns one result per program open at asOf, in snapshot order.
// The only error is a configuration error from a malformed criterion.
func (m *Matcher) Evaluate(p *models.Profile, snap *catalog.Snapshot, asOf time.Time) ([]models.MatchResult, error) {
	active := snap.ActivePrograms(asOf)
	results := make([]models.MatchResult, 0, len(active))
	for _, program := range active {
		r, err := m.evaluateProgram(p, program, asOf)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (m *Matcher) evaluateProgram(p *models.Profile, program *models.Program, asOf time.Time) (models.MatchResult, error) {
	result := models.MatchResult{Program: program}
	for i := range program.Criteria {
		c := &program.Criteria[i]
		outcome, err := criteria.Evaluate(c, p)
		if err != nil {
			return models.MatchResult{}, err
		}
		switch {
		case outcome == models.OutcomeSatisfied && !c.Mandatory:
			result.SatisfiedOptional++
		case outcome == models.OutcomeSatisfied:
		case c.Mandatory:
			// Unknown fails closed: eligibility needs positive evidence.
			result.FailedMandatory = append(result.FailedMandatory, models.CriterionResult{Criterion: *c, Outcome: outcome})
		default:
			result.UnmetOptional = append(result.UnmetOptional, models.CriterionResult{Criterion: *c, Outcome: outcome})
		}
	}
	result.Eligible = len(result.FailedMandatory) == 0
	result.Score = m.score(program, result.SatisfiedOptional, asOf)
	return result, nil
}

func (m *Matcher) score(program *models.Program, satisfiedOptional int, asOf time.Time) float64 {
	days, ok := program.DaysUntilDeadline(asOf)
	if !ok {
		days = m.cfg.FarDeadlineDays
	}
	return m.cfg.OptionalWeight*float64(satisfiedOptional) - m.cfg.DeadlineWeight*days
}

// FindEligible returns the eligible programs ranked by score descending, ties
// broken by name ascending. No match is an empty slice, not an error.
func (m *Matcher) FindEligible(p *models.Profile, snap *catalog.Snapshot, asOf time.Time) ([]models.MatchResult, error) {
	all, err := m.Evaluate(p, snap, asOf)
	if err != nil {
		return nil, err
	}
	eligible := make([]models.MatchResult, 0, len(all))
	for _, r := range all {
		if r.Eligible {
			eligible = append(eligible, r)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return lessByName(a.Program, b.Program)
	})
	return eligible, nil
}

// ExplainGaps returns the open programs the profile narrowly misses, fewest
// failed mandatory criteria first, ties by name. limit <= 0 means DefaultGapLimit.
func (m *Matcher) ExplainGaps(p *models.Profile, snap *catalog.Snapshot, asOf time.Time, limit int) ([]models.Gap, error) {
	if limit <= 0 {
		limit = DefaultGapLimit
	}
	all, err := m.Evaluate(p, snap, asOf)
	if err != nil {
		return nil, err
	}
	gaps := make([]models.Gap, 0, len(all))
	for _, r := range all {
		if !r.Eligible {
			gaps = append(gaps, models.Gap{Program: r.Program, FailedMandatory: r.FailedMandatory})
		}
	}
	sort.SliceStable(gaps, func(i, j int) bool {
		a, b := gaps[i], gaps[j]
		if len(a.FailedMandatory) != len(b.FailedMandatory) {
			return len(a.FailedMandatory) < len(b.FailedMandatory)
		}
		return lessByName(a.Program, b.Program)
	})
	if len(gaps) > limit {
		gaps = gaps[:limit]
	}
	return gaps, nil
}

func lessByName(a, b *models.Program) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
