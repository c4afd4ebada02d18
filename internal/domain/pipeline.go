package domain

import "time"

// Pipeline step names. A plan is always "analyze" followed by one of the
// convert steps.
const (
	StepAnalyze         = "analyze"
	StepConvertFast     = "convert_fast"
	StepConvertBalanced = "convert_balanced"
	StepConvertQuality  = "convert_quality"
)

// StrategyForStep maps a convert step name to the strategy it runs.
func StrategyForStep(step string) (Strategy, bool) {
	switch step {
	case StepConvertFast:
		return StrategyFast, true
	case StepConvertBalanced:
		return StrategyBalanced, true
	case StepConvertQuality:
		return StrategyQuality, true
	default:
		return "", false
	}
}

// PipelinePlan is an ordered list of step names with predicted quality and
// cost, derived from a DocumentAnalysis. Immutable once computed.
type PipelinePlan struct {
	Strategy         Strategy `json:"strategy"`
	Steps            []string `json:"steps"`
	EstimatedQuality int      `json:"estimated_quality"` // 0-100
	EstimatedCost    int      `json:"estimated_cost"`    // positive, relative units
}

// StepResult reports the outcome of one pipeline step. Failures travel as
// data; steps never raise across component boundaries.
type StepResult struct {
	Step     string        `json:"step"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`

	// Transient marks failures worth retrying at the orchestrator level,
	// e.g. a missing or timed-out external tool.
	Transient bool `json:"-"`
}
