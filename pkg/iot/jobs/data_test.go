package jobs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusSucceeded, StatusFailed, StatusCanceled, StatusTimedOut, StatusRejected, StatusRemoved} {
		assert.True(t, s.Terminal(), string(s))
	}
	for _, s := range []Status{StatusQueued, StatusInProgress} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestUpdateRequestWireShape(t *testing.T) {
	data, err := json.Marshal(updateRequest{
		Status:          StatusSucceeded,
		StatusDetails:   map[string]string{"step": "done"},
		ExpectedVersion: 2,
		ClientToken:     "AbCdEfGhIjKlMnO",
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "SUCCEEDED", raw["status"])
	assert.Equal(t, float64(2), raw["expectedVersion"])
	assert.Equal(t, "AbCdEfGhIjKlMnO", raw["clientToken"])
	assert.NotContains(t, raw, "stepTimeoutInMinutes", "unset optionals stay off the wire")
	assert.NotContains(t, raw, "executionNumber")
}

func TestExecutionParsesServiceReply(t *testing.T) {
	payload := []byte(`{
		"execution": {
			"jobId": "job-1",
			"thingName": "thing-1",
			"status": "QUEUED",
			"versionNumber": 1,
			"executionNumber": 1,
			"jobDocument": {"operation": "reboot"}
		},
		"timestamp": 1685850120,
		"clientToken": "AbCdEfGhIjKlMnO"
	}`)

	var resp startNextResponse
	require.NoError(t, json.Unmarshal(payload, &resp))
	require.NotNil(t, resp.Execution)
	assert.Equal(t, "job-1", resp.Execution.JobID)
	assert.Equal(t, StatusQueued, resp.Execution.Status)
	assert.Equal(t, int32(1), resp.Execution.Version)
	assert.JSONEq(t, `{"operation": "reboot"}`, string(resp.Execution.Document))
}

func TestRejectedErrorParsesAndDescribes(t *testing.T) {
	payload := []byte(`{
		"code": "VersionMismatch",
		"message": "expected version 2",
		"clientToken": "AbCdEfGhIjKlMnO",
		"timestamp": 1685850120.5,
		"executionState": {"status": "IN_PROGRESS", "versionNumber": 3}
	}`)

	var rejected RejectedError
	require.NoError(t, json.Unmarshal(payload, &rejected))
	assert.Equal(t, RejectedVersionMismatch, rejected.Code)
	require.NotNil(t, rejected.ExecutionState)
	assert.Equal(t, int32(3), rejected.ExecutionState.Version)

	msg := rejected.Error()
	assert.Contains(t, msg, "VersionMismatch")
	assert.Contains(t, msg, "expected version 2")
}

func TestTokenShape(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		token := newToken()
		require.Len(t, token, 15)
		for _, r := range token {
			assert.True(t, strings.ContainsRune(tokenAlphabet, r), "token %q", token)
		}
		seen[token] = struct{}{}
	}
	assert.Len(t, seen, 100, "tokens must not repeat")
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "$aws/things/thing-1/jobs/get", topicGet("thing-1"))
	assert.Equal(t, "$aws/things/thing-1/jobs/get/accepted", topicGetAccepted("thing-1"))
	assert.Equal(t, "$aws/things/thing-1/jobs/start-next/rejected", topicStartNextRejected("thing-1"))
	assert.Equal(t, "$aws/things/thing-1/jobs/job-1/get", topicJobGet("thing-1", "job-1"))
	assert.Equal(t, "$aws/things/thing-1/jobs/job-1/update/accepted", topicJobUpdateAccepted("thing-1", "job-1"))
}
