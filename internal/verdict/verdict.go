// Package verdict derives the final check-run conclusion from sanitized
// findings and repo policy.
package verdict

import "github.com/nchouser54/ai-pr-reviewer/internal/model"

// Conclusion is the final check-run state.
type Conclusion string

const (
	ConclusionSuccess Conclusion = "success"
	ConclusionNeutral Conclusion = "neutral"
	ConclusionFailure Conclusion = "failure"
)

// findingSeverity maps a finding's priority to the Severity scale used by
// RepoPolicy thresholds: priority 0 (critical) -> high, 1 -> medium, 2 -> low.
func findingSeverity(f model.Finding) model.Severity {
	switch f.Priority {
	case 0:
		return model.SeverityHigh
	case 1:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// Derive implements the verdict semantics of spec §4.8: threshold `none`
// always yields neutral; otherwise failure iff any finding's severity is at
// or above the threshold.
func Derive(findings []model.Finding, policy model.RepoPolicy) Conclusion {
	threshold := policy.FailureOnSeverity
	if threshold == "" || threshold == model.SeverityNone {
		return ConclusionNeutral
	}
	for _, f := range findings {
		if findingSeverity(f).AtLeast(threshold) {
			return ConclusionFailure
		}
	}
	return ConclusionNeutral
}
