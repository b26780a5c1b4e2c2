package output

import "harbortags/internal/rank"

// Project statuses.
const (
	StatusOK     = "ok"
	StatusDenied = "denied"
	StatusFailed = "failed"
)

// Report is the finished aggregate handed to sinks once per run.
type Report struct {
	Repo     string          `json:"repo"`
	Projects []ProjectResult `json:"projects"`
}

// ProjectResult is one project's section of a Report.
type ProjectResult struct {
	Project string       `json:"project"`
	Status  string       `json:"status"`
	Fetched int          `json:"fetched"`
	Tags    []rank.Label `json:"tags"`
	Error   string       `json:"error,omitempty"`
}

// Failed returns the failed project results, in report order.
func (r *Report) Failed() []ProjectResult {
	var out []ProjectResult
	for _, p := range r.Projects {
		if p.Status == StatusFailed {
			out = append(out, p)
		}
	}
	return out
}
