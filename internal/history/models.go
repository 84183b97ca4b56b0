package history

import "time"

// Status represents the lifecycle of a recorded export run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one export attempt of an episode folder.
type Run struct {
	ID           int64
	JobID        string
	EpisodeDir   string
	Chapter      int
	OutputPath   string
	BaselineLUFS float64
	Status       Status
	ErrorKind    string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
