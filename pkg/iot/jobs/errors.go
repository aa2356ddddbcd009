package jobs

import (
	"fmt"
	"strconv"

	"github.com/belugaiot/beluga/pkg/errors"
)

// Error codes for Jobs operations.
const (
	CodeGetRejected       = "JOBS_GET_REJECTED"
	CodeStartNextRejected = "JOBS_START_NEXT_REJECTED"
	CodeUpdateRejected    = "JOBS_UPDATE_REJECTED"
	CodeExecutionMissing  = "JOBS_EXECUTION_MISSING"
	CodeIDMissing         = "JOBS_ID_MISSING"
	CodeVersionMissing    = "JOBS_VERSION_MISSING"
	CodeSerialization     = "JOBS_SERIALIZATION"
)

// ErrJobIDMissing is returned by Update when the job has no id.
var ErrJobIDMissing = errors.New(CodeIDMissing, "the job id is missing, which is required to perform the requested operation", nil)

// ErrJobVersion is returned by Update when the job has no known version.
var ErrJobVersion = errors.New(CodeVersionMissing, "the job version is missing", nil)

// ErrGetRejected creates an error for a rejected get-pending-jobs request.
func ErrGetRejected(rejected *RejectedError) *errors.AppError {
	return errors.New(CodeGetRejected, "request to get jobs was rejected", rejected)
}

// ErrStartNextRejected creates an error for a rejected start-next request.
func ErrStartNextRejected(rejected *RejectedError) *errors.AppError {
	return errors.New(CodeStartNextRejected, "request to start the next job from the queue was rejected", rejected)
}

// ErrUpdateRejected creates an error for a rejected update request.
func ErrUpdateRejected(jobID string, rejected *RejectedError) *errors.AppError {
	return errors.New(CodeUpdateRejected, "request to update job "+strconv.Quote(jobID)+" was rejected", rejected)
}

// ErrExecutionMissing creates an error for an accepted reply without an
// execution body.
func ErrExecutionMissing(jobID string) *errors.AppError {
	return errors.New(CodeExecutionMissing, "the job "+strconv.Quote(jobID)+" is missing execution information", nil)
}

// ErrSerialization creates an error for payloads that failed to encode or
// decode.
func ErrSerialization(err error) *errors.AppError {
	return errors.New(CodeSerialization, "failed to serialize/deserialize payload", err)
}

// RejectedCode enumerates why the service rejected a request.
type RejectedCode string

const (
	RejectedInvalidTopic           RejectedCode = "InvalidTopic"
	RejectedInvalidJSON            RejectedCode = "InvalidJson"
	RejectedInvalidRequest         RejectedCode = "InvalidRequest"
	RejectedInvalidStateTransition RejectedCode = "InvalidStateTransition"
	RejectedResourceNotFound       RejectedCode = "ResourceNotFound"
	RejectedVersionMismatch        RejectedCode = "VersionMismatch"
	RejectedInternalError          RejectedCode = "InternalError"
	RejectedRequestThrottled       RejectedCode = "RequestThrottled"
	RejectedTerminalStateReached   RejectedCode = "TerminalStateReached"
)

// RejectedError is the body the service publishes on a rejected topic.
type RejectedError struct {
	Code RejectedCode `json:"code"`

	// ClientToken correlates this response to the original request.
	ClientToken string `json:"clientToken,omitempty"`

	// Message provides additional information.
	Message string `json:"message,omitempty"`

	// Timestamp is when the service generated the response.
	Timestamp *Time `json:"timestamp,omitempty"`

	// ExecutionState is included only for InvalidStateTransition and
	// VersionMismatch rejections.
	ExecutionState *ExecutionState `json:"executionState,omitempty"`
}

func (e *RejectedError) Error() string {
	msg := fmt.Sprintf("rejected with code %q", e.Code)
	if e.Message != "" {
		msg += fmt.Sprintf(", message %q", e.Message)
	}
	if e.ClientToken != "" {
		msg += fmt.Sprintf(", token %q", e.ClientToken)
	}
	return msg
}
