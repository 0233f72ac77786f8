package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what a job does.
type Kind string

const (
	KindAnalysis      Kind = "analysis"
	KindPreprocessing Kind = "preprocessing"
	KindTraining      Kind = "training"
)

// Status tracks a job through its lifecycle.
// Transitions: pending -> running -> completed | failed. Terminal states never change.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether a status allows no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one unit of background work. Result is set exactly once, at
// completion; Error is set exactly once, at failure.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	Dataset     string          `json:"dataset,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Clone returns a deep copy so callers can read a job without racing the store.
func (j *Job) Clone() *Job {
	out := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		out.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	out.Payload = append(json.RawMessage(nil), j.Payload...)
	out.Result = append(json.RawMessage(nil), j.Result...)
	return &out
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Kind   Kind
	Status Status
}

func (f Filter) matches(j *Job) bool {
	if f.Kind != "" && j.Kind != f.Kind {
		return false
	}
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	return true
}
