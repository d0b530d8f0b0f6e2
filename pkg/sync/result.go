package sync

import (
	"fmt"
	"strings"
)

// Result is the outcome of one file-level action within an operation.
type Result struct {
	Action Action
	Err    error
}

// Report aggregates the per-path results of one orchestrator operation.
// Failures of individual files are recorded here instead of aborting the
// remaining plan: board flash can run out of space or hit a transient I/O
// error on one file without invalidating the rest of the sync.
type Report struct {
	Results []Result
}

// Record appends the outcome of one action.
func (r *Report) Record(action Action, err error) {
	r.Results = append(r.Results, Result{Action: action, Err: err})
}

// OK returns true only if every action succeeded.
func (r Report) OK() bool {
	for _, result := range r.Results {
		if result.Err != nil {
			return false
		}
	}
	return true
}

// Failures returns the results that failed.
func (r Report) Failures() []Result {
	var failed []Result
	for _, result := range r.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}

// Summary returns a one-line description of the operation's outcome,
// followed by one line per failure.
func (r Report) Summary() string {
	failures := r.Failures()
	total := len(r.Results)
	if len(failures) == 0 {
		return fmt.Sprintf("%d of %d actions succeeded", total, total)
	}

	lines := []string{
		fmt.Sprintf("%d of %d actions succeeded, failures:", total-len(failures), total),
	}
	for _, failure := range failures {
		lines = append(lines, fmt.Sprintf("  %s %s: %s",
			failure.Action.Op, failure.Action.Path, failure.Err))
	}
	return strings.Join(lines, "\n")
}
