package ui

import (
	"github.com/muurk/stouch/internal/automation"
)

// AutomationProgress lays out a finished run: completed steps with their
// detail, the failing step with its reason, and the rest as skipped.
func AutomationProgress(seq automation.Sequence, res automation.Result) *Progress {
	names := make([]string, len(seq))
	for i, step := range seq {
		names[i] = step.String()
	}
	p := NewProgress("", names...)

	for _, done := range res.Completed {
		p.UpdateStep(done.Index+1, StepComplete, done.Detail)
	}
	if f := res.Failure; f != nil {
		p.UpdateStep(f.Index+1, StepFailed, f.Reason)
		for i := f.Index + 1; i < len(seq); i++ {
			p.UpdateStep(i+1, StepSkipped, "")
		}
	}
	return p
}
