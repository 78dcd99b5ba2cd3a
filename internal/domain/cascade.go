package domain

// CascadeEntity names the parent kind removed by a cascade.
type CascadeEntity string

const (
	CascadeEntityClient CascadeEntity = "client"
	CascadeEntityModule CascadeEntity = "module"
)

// CascadeOutcome distinguishes complete from partial cascades.
type CascadeOutcome string

const (
	CascadeFullyDeleted     CascadeOutcome = "fully_deleted"
	CascadePartiallyDeleted CascadeOutcome = "partially_deleted"
)

// CascadeStepFailure records one dependent deletion that did not succeed.
type CascadeStepFailure struct {
	Step  string
	Error string
}

// CascadeResult reports what a cascade left behind, from post-condition counts.
type CascadeResult struct {
	Entity    CascadeEntity
	ID        string
	Outcome   CascadeOutcome
	Remaining map[string]int
	Failures  []CascadeStepFailure
}

// Complete reports whether nothing survived the cascade.
func (r *CascadeResult) Complete() bool {
	return r.Outcome == CascadeFullyDeleted
}
