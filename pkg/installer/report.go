package installer

import "github.com/google/uuid"

// Status is the outcome of one package within a transaction.
type Status string

const (
	StatusInstalled Status = "installed"
	StatusSkipped   Status = "skipped" // metadata-only package
	StatusFailed    Status = "failed"
	StatusRemoved   Status = "removed"
	StatusNotFound  Status = "not-found" // nothing to remove
)

// Outcome records what happened to one package.
type Outcome struct {
	ID     string
	Status Status
	Size   int
	Err    error
}

// Report summarizes an install or remove transaction. ID is unique per
// transaction and is passed to the install hooks.
type Report struct {
	ID       string
	Outcomes []Outcome
}

func newReport() *Report {
	return &Report{ID: uuid.NewString()}
}

func (r *Report) add(o Outcome) { r.Outcomes = append(r.Outcomes, o) }

// Count returns the number of outcomes with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the number of packages that failed. Skipped packages and
// missing artifacts on removal are not failures.
func (r *Report) Failed() int { return r.Count(StatusFailed) }
