package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/belugaiot/beluga/pkg/iot/mqtt"
)

// Job is the cached state of one job execution plus the machinery to report
// progress on it. The update reply topics are subscribed lazily on the first
// Update and kept for the job's lifetime.
//
// A Job is not safe for concurrent use; callers serialise updates.
type Job struct {
	mqtt  *mqtt.Client
	thing string

	id              string
	status          Status
	version         int32
	executionNumber int64
	details         map[string]string
	document        json.RawMessage
	queuedAt        time.Time
	startedAt       time.Time
	lastUpdatedAt   time.Time

	updateSub *mqtt.OwnedSubscriber
}

func newJobFromExecution(client *mqtt.Client, thing string, exec Execution) *Job {
	j := &Job{
		mqtt:            client,
		thing:           thing,
		id:              exec.JobID,
		status:          exec.Status,
		version:         exec.Version,
		executionNumber: exec.ExecutionNumber,
		details:         exec.StatusDetails,
		document:        exec.Document,
	}
	if exec.QueuedAt != nil {
		j.queuedAt = exec.QueuedAt.Time
	}
	if exec.StartedAt != nil {
		j.startedAt = exec.StartedAt.Time
	}
	if exec.LastUpdatedAt != nil {
		j.lastUpdatedAt = exec.LastUpdatedAt.Time
	}
	return j
}

func newJobFromSummary(client *mqtt.Client, thing string, summary ExecutionSummary) *Job {
	j := &Job{
		mqtt:            client,
		thing:           thing,
		id:              summary.JobID,
		version:         summary.Version,
		executionNumber: summary.ExecutionNumber,
	}
	if summary.QueuedAt != nil {
		j.queuedAt = summary.QueuedAt.Time
	}
	if summary.StartedAt != nil {
		j.startedAt = summary.StartedAt.Time
	}
	if summary.LastUpdatedAt != nil {
		j.lastUpdatedAt = summary.LastUpdatedAt.Time
	}
	return j
}

// Update reports a status transition for this execution, expecting the
// currently cached version on the service side. When the accepted reply
// carries an execution state the local cache is replaced with it; otherwise
// the local version advances by one. A rejected update leaves the cache
// untouched.
func (j *Job) Update(ctx context.Context, status Status, details map[string]string) error {
	if j.id == "" {
		return ErrJobIDMissing
	}
	if j.version == 0 {
		return ErrJobVersion
	}

	if j.updateSub == nil {
		sub, err := j.mqtt.SubscribeManyOwned(ctx, []string{
			topicJobUpdateAccepted(j.thing, j.id),
			topicJobUpdateRejected(j.thing, j.id),
		}, mqtt.AtLeastOnce)
		if err != nil {
			return err
		}
		j.updateSub = sub
	}

	sub := j.updateSub.Clone()
	defer sub.Close()

	token := newToken()
	payload, err := json.Marshal(updateRequest{
		Status:          status,
		StatusDetails:   details,
		ExpectedVersion: j.version,
		ClientToken:     token,
	})
	if err != nil {
		return ErrSerialization(err)
	}
	if err := j.mqtt.Publish(ctx, topicJobUpdate(j.thing, j.id), mqtt.AtLeastOnce, false, payload); err != nil {
		return err
	}

	accepted, rejected, err := awaitReply(ctx, sub,
		topicJobUpdateAccepted(j.thing, j.id), topicJobUpdateRejected(j.thing, j.id), token)
	if err != nil {
		return err
	}
	if rejected != nil {
		return ErrUpdateRejected(j.id, rejected)
	}

	var resp updateResponse
	if err := json.Unmarshal(accepted, &resp); err != nil {
		return ErrSerialization(err)
	}
	j.apply(&resp)
	return nil
}

// apply folds an accepted update reply into the cached state. A reply with
// an execution state is authoritative; without one the version advances
// optimistically by exactly one.
func (j *Job) apply(resp *updateResponse) {
	if state := resp.ExecutionState; state != nil {
		j.status = state.Status
		j.details = state.StatusDetails
		j.version = state.Version
		if resp.Document != nil {
			j.document = resp.Document
		}
	} else {
		j.version++
	}
	if resp.Timestamp != nil {
		j.lastUpdatedAt = resp.Timestamp.Time
	}
}

// Close releases the lazily created update subscription, scheduling its
// topics for a deferred broker unsubscribe.
func (j *Job) Close() {
	if j.updateSub != nil {
		j.updateSub.Close()
		j.updateSub = nil
	}
}

// ID returns the job id, or "" when unknown.
func (j *Job) ID() string { return j.id }

// Status returns the cached execution status.
func (j *Job) Status() Status { return j.status }

// Version returns the cached execution version; zero means unknown.
func (j *Job) Version() int32 { return j.version }

// ExecutionNumber identifies this execution of the job on this device.
func (j *Job) ExecutionNumber() int64 { return j.executionNumber }

// Details returns the cached status details.
func (j *Job) Details() map[string]string { return j.details }

// Document returns the opaque job document.
func (j *Job) Document() json.RawMessage { return j.document }

// QueuedAt returns when the execution was enqueued.
func (j *Job) QueuedAt() time.Time { return j.queuedAt }

// StartedAt returns when the execution was started.
func (j *Job) StartedAt() time.Time { return j.startedAt }

// LastUpdatedAt returns when the execution was last updated.
func (j *Job) LastUpdatedAt() time.Time { return j.lastUpdatedAt }
