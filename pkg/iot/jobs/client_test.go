package jobs

import (
	"context"
	"testing"

	"github.com/belugaiot/beluga/pkg/iot/mqtt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReplies feeds a fixed sequence of publications to awaitReply.
type scriptedReplies struct {
	queue []mqtt.Publication
}

func (s *scriptedReplies) Recv(ctx context.Context) (mqtt.Publication, error) {
	if len(s.queue) == 0 {
		<-ctx.Done()
		return mqtt.Publication{}, ctx.Err()
	}
	p := s.queue[0]
	s.queue = s.queue[1:]
	return p, nil
}

const (
	acceptedTopic = "$aws/things/thing-1/jobs/get/accepted"
	rejectedTopic = "$aws/things/thing-1/jobs/get/rejected"
)

func TestAwaitReplyMatchesToken(t *testing.T) {
	src := &scriptedReplies{queue: []mqtt.Publication{
		{Topic: acceptedTopic, Payload: []byte(`{"clientToken":"tok-wanted-1234","queuedJobs":[]}`)},
	}}

	accepted, rejected, err := awaitReply(context.Background(), src, acceptedTopic, rejectedTopic, "tok-wanted-1234")
	require.NoError(t, err)
	assert.Nil(t, rejected)
	assert.Contains(t, string(accepted), "tok-wanted-1234")
}

func TestAwaitReplySkipsForeignTokens(t *testing.T) {
	src := &scriptedReplies{queue: []mqtt.Publication{
		{Topic: acceptedTopic, Payload: []byte(`{"clientToken":"someone-elses-15"}`)},
		{Topic: rejectedTopic, Payload: []byte(`{"code":"InternalError","clientToken":"someone-elses-15"}`)},
		{Topic: acceptedTopic, Payload: []byte(`{"clientToken":"tok-wanted-1234"}`)},
	}}

	accepted, rejected, err := awaitReply(context.Background(), src, acceptedTopic, rejectedTopic, "tok-wanted-1234")
	require.NoError(t, err)
	assert.Nil(t, rejected)
	assert.Contains(t, string(accepted), "tok-wanted-1234")
	assert.Empty(t, src.queue, "foreign replies consumed and discarded")
}

func TestAwaitReplyReturnsMatchedRejection(t *testing.T) {
	src := &scriptedReplies{queue: []mqtt.Publication{
		{Topic: rejectedTopic, Payload: []byte(`{"code":"VersionMismatch","message":"stale","clientToken":"tok-wanted-1234"}`)},
	}}

	accepted, rejected, err := awaitReply(context.Background(), src, acceptedTopic, rejectedTopic, "tok-wanted-1234")
	require.NoError(t, err)
	assert.Nil(t, accepted)
	require.NotNil(t, rejected)
	assert.Equal(t, RejectedVersionMismatch, rejected.Code)
}

func TestAwaitReplyIgnoresUnrelatedTopics(t *testing.T) {
	src := &scriptedReplies{queue: []mqtt.Publication{
		{Topic: "$aws/things/thing-1/jobs/start-next/accepted", Payload: []byte(`{"clientToken":"tok-wanted-1234"}`)},
		{Topic: acceptedTopic, Payload: []byte(`{"clientToken":"tok-wanted-1234"}`)},
	}}

	accepted, _, err := awaitReply(context.Background(), src, acceptedTopic, rejectedTopic, "tok-wanted-1234")
	require.NoError(t, err)
	assert.NotNil(t, accepted)
}

func TestAwaitReplyPropagatesRecvFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedReplies{}
	_, _, err := awaitReply(ctx, src, acceptedTopic, rejectedTopic, "tok-wanted-1234")
	assert.ErrorIs(t, err, context.Canceled)
}
