package models

import "time"

// JobStatus is the lifecycle stage of a render job.
type JobStatus string

const (
	StatusQueued  JobStatus = "queued"
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Job is the registry entry for one render request.
type Job struct {
	ID        string     `json:"id"`
	Kind      ScriptKind `json:"kind"`
	Status    JobStatus  `json:"status"`
	Message   string     `json:"message,omitempty"`
	VideoPath string     `json:"video_path,omitempty"`
	Script    string     `json:"script,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RenderRecord is the archived summary of a finished render.
type RenderRecord struct {
	ID        string     `json:"id"`
	Kind      ScriptKind `json:"kind"`
	Script    string     `json:"script"`
	SourceURL string     `json:"source_url,omitempty"`
	Duration  float64    `json:"duration_sec"`
	Cues      int        `json:"cues"`
	Keywords  []string   `json:"keywords,omitempty"`
	VideoPath string     `json:"video_path"`
	Timestamp time.Time  `json:"timestamp"`
}
