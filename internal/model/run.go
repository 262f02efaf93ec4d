package model

import (
	"fmt"
	"time"
)

// RunStatus is the pipeline state machine. Transitions move strictly down
// the list; StatusFailed is reachable from any non-terminal state.
type RunStatus string

const (
	StatusInit        RunStatus = "init"
	StatusSearching   RunStatus = "searching"
	StatusCollecting  RunStatus = "collecting"
	StatusAnalyzing   RunStatus = "analyzing"
	StatusClassifying RunStatus = "classifying"
	StatusSelecting   RunStatus = "selecting"
	StatusDone        RunStatus = "done"
	StatusFailed      RunStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// EarlyStopMode controls whether the orchestrator may skip planned collects
// once every minimum role target is already satisfied.
type EarlyStopMode string

const (
	EarlyStopAccuracyFirst EarlyStopMode = "accuracy_first"
	EarlyStopCostFirst     EarlyStopMode = "cost_first"
)

// Target identifies the company being researched.
type Target struct {
	CompanyName string   `json:"company_name"`
	Aliases     []string `json:"aliases,omitempty"`
}

// CreditsUsed reports provider billing units consumed by a run.
type CreditsUsed struct {
	Search  int `json:"search"`
	Collect int `json:"collect"`
}

// Warning codes. Structural degradation is surfaced here, never as errors:
// a partial buyer group is still useful output.
const (
	WarnNoCandidatesFound = "no_candidates_found"
	WarnBudgetExhausted   = "budget_exhausted"
	WarnRoleGapUnfilled   = "role_gap"
)

// BudgetWarning formats a budget_exhausted warning for the given phase.
func BudgetWarning(phase string) string {
	return fmt.Sprintf("%s:%s", WarnBudgetExhausted, phase)
}

// RoleGapWarning formats a role_gap warning for the given role.
func RoleGapWarning(r Role) string {
	return fmt.Sprintf("%s:%s", WarnRoleGapUnfilled, r)
}

// Report is the final output of a pipeline run, handed to external
// persistence and export collaborators.
type Report struct {
	RunID        string        `json:"run_id"`
	Target       Target        `json:"target"`
	ProfileName  string        `json:"profile_name"`
	BuyerGroup   BuyerGroup    `json:"buyer_group"`
	CreditsUsed  CreditsUsed   `json:"credits_used"`
	EstimatedUSD float64       `json:"estimated_usd"`
	Warnings     []string      `json:"warnings"`
	DryRun       bool          `json:"dry_run,omitempty"`
	Phases       []PhaseResult `json:"phases"`
	ProcessingMS int64         `json:"processing_ms"`
}

// Run is one stored pipeline execution.
type Run struct {
	ID        string    `json:"id"`
	Target    Target    `json:"target"`
	Profile   string    `json:"profile"`
	Status    RunStatus `json:"status"`
	Report    *Report   `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PhaseStatus is the state of one pipeline phase.
type PhaseStatus string

const (
	PhaseRunning  PhaseStatus = "running"
	PhaseComplete PhaseStatus = "complete"
	PhaseFailed   PhaseStatus = "failed"
	PhaseSkipped  PhaseStatus = "skipped"
)

// PhaseResult records timing and outcome metadata for one phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
