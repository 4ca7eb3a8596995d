package domain

import "time"

// Failure records why a meter was not notified.
type Failure struct {
	Name   string
	Reason string
}

// RunResult summarises one pass over all configured meters.
type RunResult struct {
	RunID      string
	Sent       int
	Failures   []Failure
	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether at least one meter was notified. Partial failures still count
// as a successful run.
func (r RunResult) OK() bool {
	return r.Sent > 0
}

func (r RunResult) Total() int {
	return r.Sent + len(r.Failures)
}
