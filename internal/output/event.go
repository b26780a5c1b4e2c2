package output

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - project.result / project.failed (one per project, in report order)
// - run.finished
//
// JSON and YAML modes write the aggregate Report instead.
type Event struct {
	Type    string `json:"type"`
	Repo    string `json:"repo,omitempty"`
	Project string `json:"project,omitempty"`
	*ProjectResult
	Projects int `json:"projects,omitempty"`
	Failed   int `json:"failed,omitempty"`
	ExitCode int `json:"exit_code,omitempty"`
}

const (
	EventRunStarted    = "run.started"
	EventProjectResult = "project.result"
	EventProjectFailed = "project.failed"
	EventRunFinished   = "run.finished"
)

func eventsFromReport(r *Report) []Event {
	events := make([]Event, 0, len(r.Projects))
	for i := range r.Projects {
		p := r.Projects[i]
		typ := EventProjectResult
		if p.Status == StatusFailed {
			typ = EventProjectFailed
		}
		events = append(events, Event{Type: typ, Repo: r.Repo, Project: p.Project, ProjectResult: &p})
	}
	return events
}
