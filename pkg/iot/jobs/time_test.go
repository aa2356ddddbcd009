package jobs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRoundTripKeepsSubMicrosecondPrecision(t *testing.T) {
	orig := time.Date(2023, 6, 4, 3, 42, 0, 123_456_789, time.UTC)

	data, err := json.Marshal(NewTime(orig))
	require.NoError(t, err)

	var got Time
	require.NoError(t, json.Unmarshal(data, &got))

	// An IEEE 754 double keeps sub-microsecond precision at current epochs.
	assert.WithinDuration(t, orig, got.Time, time.Microsecond)
}

func TestTimeMarshalsAsFloatSeconds(t *testing.T) {
	orig := time.Unix(1_685_850_120, 500_000_000).UTC()

	data, err := json.Marshal(NewTime(orig))
	require.NoError(t, err)
	assert.Equal(t, "1685850120.5", string(data))
}

func TestTimeWholeSeconds(t *testing.T) {
	orig := time.Unix(1_700_000_000, 0).UTC()

	data, err := json.Marshal(NewTime(orig))
	require.NoError(t, err)

	var got Time
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, got.Equal(orig))
}

func TestTimeNull(t *testing.T) {
	var got Time
	require.NoError(t, json.Unmarshal([]byte("null"), &got))
	assert.True(t, got.IsZero())

	data, err := json.Marshal(Time{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestTimeInsideStruct(t *testing.T) {
	payload := []byte(`{"queuedAt":1685850120.1234567,"jobId":"job-1"}`)

	var exec Execution
	require.NoError(t, json.Unmarshal(payload, &exec))
	require.NotNil(t, exec.QueuedAt)

	want := time.Date(2023, 6, 4, 3, 42, 0, 123_456_700, time.UTC)
	assert.WithinDuration(t, want, exec.QueuedAt.Time, time.Microsecond)
	assert.Nil(t, exec.StartedAt)
}
