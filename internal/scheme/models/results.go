package models

// CriterionResult pairs a criterion with its outcome for one profile.
type CriterionResult struct {
	Criterion Criterion
	Outcome   Outcome
}

// MatchResult is the evaluation of one program against one profile.
// FailedMandatory is empty iff Eligible. Never persisted by the core.
type MatchResult struct {
	Program           *Program
	Eligible          bool
	Score             float64
	SatisfiedOptional int
	FailedMandatory   []CriterionResult
	UnmetOptional     []CriterionResult
}

// Gap explains why a program is a near miss.
type Gap struct {
	Program         *Program
	FailedMandatory []CriterionResult
}

// UnknownCount returns how many failed criteria failed for lack of data
// rather than on the data itself.
func (g Gap) UnknownCount() int {
	n := 0
	for _, r := range g.FailedMandatory {
		if r.Outcome == OutcomeUnknown {
			n++
		}
	}
	return n
}

// MappingResult is a program's field values resolved from a profile.
//
// Invariant: Complete is true iff Missing is empty, i.e. every required field
// resolved to a non-absent, well-formed value.
type MappingResult struct {
	ProgramID string
	SchemaID  string
	Values    map[string]string
	Missing   []string
	Invalid   []string
	Complete  bool
}

// ViolationRule names the check a Violation failed.
type ViolationRule string

const (
	RuleMissingRequired ViolationRule = "missing_required"
	RuleConstraint      ViolationRule = "constraint"
	RuleUndeclaredField ViolationRule = "undeclared_field"
	RuleCompleteFlag    ViolationRule = "complete_flag"
)

// Violation is one reason a mapping result may not be rendered.
type Violation struct {
	Key     string
	Rule    ViolationRule
	Message string
}
