package enhance

import "time"

// Status is a job's lifecycle phase.
type Status string

// Job statuses, in forward order.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether a status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank orders statuses for the never-regress check.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

// Job is one enhancement request against the remote inference queue.
// Created on submit, mutated only by the poll handler, terminal once
// completed or failed.
type Job struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	SlotID          string        `json:"slotId"`
	FeatureKey      string        `json:"featureKey"`
	Status          Status        `json:"status"`
	RemoteRequestID string        `json:"remoteRequestId"`
	ModelID         string        `json:"modelId"`
	InputURL        string        `json:"inputUrl"`
	OutputURL       string        `json:"outputUrl,omitempty"`
	ErrorCode       string        `json:"errorCode,omitempty"`
	ErrorMessage    string        `json:"errorMessage,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
	ProcessingTime  time.Duration `json:"processingTime,omitempty"`
}

// advance moves the job's status forward. Attempts to move backwards are
// ignored, which is what makes polls that observe stale remote state
// harmless.
func (j *Job) advance(to Status) {
	if to.rank() > j.Status.rank() {
		j.Status = to
	}
}

// PollResult is the wire contract a poll returns to the UI's polling loop.
type PollResult struct {
	Status           Status `json:"status"`
	OutputURL        string `json:"outputUrl,omitempty"`
	Error            string `json:"error,omitempty"`
	ErrorCode        string `json:"errorCode,omitempty"`
	ProcessingTimeMs int64  `json:"processingTimeMs,omitempty"`
}

func resultOf(j *Job) *PollResult {
	r := &PollResult{
		Status:    j.Status,
		OutputURL: j.OutputURL,
		Error:     j.ErrorMessage,
		ErrorCode: j.ErrorCode,
	}
	if j.ProcessingTime > 0 {
		r.ProcessingTimeMs = j.ProcessingTime.Milliseconds()
	}
	return r
}
