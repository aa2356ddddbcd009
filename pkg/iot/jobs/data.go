package jobs

import "encoding/json"

// Status is a job execution status. Terminal statuses permit no further
// successful updates.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFailed     Status = "FAILED"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusCanceled   Status = "CANCELED"
	StatusTimedOut   Status = "TIMED_OUT"
	StatusRejected   Status = "REJECTED"
	StatusRemoved    Status = "REMOVED"
)

// Terminal reports whether s allows no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled, StatusTimedOut, StatusRejected, StatusRemoved:
		return true
	default:
		return false
	}
}

// Execution is the full state of one job execution on one device.
type Execution struct {
	// JobID is the unique identifier assigned to the job when it was created.
	JobID string `json:"jobId,omitempty"`

	// ThingName is the name of the thing executing the job.
	ThingName string `json:"thingName,omitempty"`

	// Document is the content of the job document.
	Document json.RawMessage `json:"jobDocument,omitempty"`

	Status Status `json:"status,omitempty"`

	// StatusDetails is a collection of name/value pairs describing the
	// status of the job execution.
	StatusDetails map[string]string `json:"statusDetails,omitempty"`

	QueuedAt      *Time `json:"queuedAt,omitempty"`
	StartedAt     *Time `json:"startedAt,omitempty"`
	LastUpdatedAt *Time `json:"lastUpdatedAt,omitempty"`

	// Version is incremented each time the execution is updated by a device.
	Version int32 `json:"versionNumber,omitempty"`

	// ExecutionNumber identifies this execution of the job on this device.
	ExecutionNumber int64 `json:"executionNumber,omitempty"`
}

// ExecutionState is the subset of execution state echoed back by updates.
type ExecutionState struct {
	Status        Status            `json:"status,omitempty"`
	StatusDetails map[string]string `json:"statusDetails,omitempty"`
	Version       int32             `json:"versionNumber,omitempty"`
}

// ExecutionSummary is the compact form returned by get-pending-jobs.
type ExecutionSummary struct {
	JobID           string `json:"jobId,omitempty"`
	QueuedAt        *Time  `json:"queuedAt,omitempty"`
	StartedAt       *Time  `json:"startedAt,omitempty"`
	LastUpdatedAt   *Time  `json:"lastUpdatedAt,omitempty"`
	Version         int32  `json:"versionNumber,omitempty"`
	ExecutionNumber int64  `json:"executionNumber,omitempty"`
}

type getPendingRequest struct {
	ClientToken string `json:"clientToken"`
}

type getPendingResponse struct {
	InProgressJobs []ExecutionSummary `json:"inProgressJobs"`
	QueuedJobs     []ExecutionSummary `json:"queuedJobs"`
	Timestamp      *Time              `json:"timestamp,omitempty"`
	ClientToken    string             `json:"clientToken,omitempty"`
}

type startNextRequest struct {
	StatusDetails map[string]string `json:"statusDetails,omitempty"`

	// StepTimeoutInMinutes bounds this attempt; when it expires without a
	// terminal update the service marks the execution TIMED_OUT.
	StepTimeoutInMinutes *int64 `json:"stepTimeoutInMinutes,omitempty"`

	ClientToken string `json:"clientToken"`
}

type startNextResponse struct {
	Execution   *Execution `json:"execution,omitempty"`
	Timestamp   *Time      `json:"timestamp,omitempty"`
	ClientToken string     `json:"clientToken,omitempty"`
}

type describeRequest struct {
	// ExecutionNumber selects a particular execution; zero means latest.
	ExecutionNumber int64 `json:"executionNumber,omitempty"`

	// IncludeJobDocument defaults to true on the service side.
	IncludeJobDocument *bool `json:"includeJobDocument,omitempty"`

	ClientToken string `json:"clientToken"`
}

type describeResponse struct {
	Execution   *Execution `json:"execution,omitempty"`
	Timestamp   *Time      `json:"timestamp,omitempty"`
	ClientToken string     `json:"clientToken,omitempty"`
}

type updateRequest struct {
	Status        Status            `json:"status"`
	StatusDetails map[string]string `json:"statusDetails,omitempty"`

	// ExpectedVersion must match the service-side version or the update is
	// rejected with VersionMismatch.
	ExpectedVersion int32 `json:"expectedVersion"`

	ExecutionNumber          int64  `json:"executionNumber,omitempty"`
	IncludeJobExecutionState *bool  `json:"includeJobExecutionState,omitempty"`
	IncludeJobDocument       *bool  `json:"includeJobDocument,omitempty"`
	StepTimeoutInMinutes     *int64 `json:"stepTimeoutInMinutes,omitempty"`

	ClientToken string `json:"clientToken"`
}

type updateResponse struct {
	ExecutionState *ExecutionState `json:"executionState,omitempty"`
	Document       json.RawMessage `json:"jobDocument,omitempty"`
	Timestamp      *Time           `json:"timestamp,omitempty"`
	ClientToken    string          `json:"clientToken,omitempty"`
}
