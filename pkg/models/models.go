package models

import "time"

// ItemState is the terminal (or pending) state of a single retrieval item
type ItemState string

const (
	StatePending   ItemState = "pending"
	StateSucceeded ItemState = "succeeded"
	StateFailed    ItemState = "failed"
	StateSkipped   ItemState = "skipped"
)

// ItemResult represents the outcome of retrieving one asset URL
type ItemResult struct {
	ID       string        `json:"id"`
	URL      string        `json:"url"`
	FilePath string        `json:"file_path"`
	State    ItemState     `json:"state"`
	Size     int64         `json:"size"`
	Error    error         `json:"-"`
	Started  time.Time     `json:"started_at"`
	Duration time.Duration `json:"duration_ns"`
}

// ErrorString returns the error message or an empty string
func (r ItemResult) ErrorString() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}

// Tally counts retrieval outcomes. The three buckets always sum to the
// number of items processed.
type Tally struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Total returns the number of items accounted for
func (t Tally) Total() int {
	return t.Succeeded + t.Failed + t.Skipped
}

// Run summarizes one discovery and/or retrieval execution
type Run struct {
	ID         string       `json:"run_id"`
	TargetURL  string       `json:"target_url,omitempty"`
	OutputDir  string       `json:"output_dir"`
	Discovered int          `json:"discovered"`
	Tally      Tally        `json:"tally"`
	Items      []ItemResult `json:"items"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}
