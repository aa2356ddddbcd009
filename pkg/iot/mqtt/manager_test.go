package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord() *record {
	return &record{sender: newSender(10), qos: AtLeastOnce}
}

func TestManagerSetGet(t *testing.T) {
	m := newSubscriptionManager()
	rec := newRecord()
	m.set("topic", rec)

	got, ok := m.get("topic")
	require.True(t, ok)
	assert.Same(t, rec, got)
}

func TestManagerDiff(t *testing.T) {
	m := newSubscriptionManager()
	m.set("topic1", newRecord())
	m.set("topic2", newRecord())
	m.set("topic3", newRecord())

	assert.Equal(t, []string{"topic4", "topic5"}, m.diff([]string{"topic4", "topic5", "topic2"}))
	assert.Empty(t, m.diff([]string{"topic2", "topic3"}))
}

func TestManagerUnsubscribeClearsBothSets(t *testing.T) {
	m := newSubscriptionManager()
	m.set("topic", newRecord())
	m.schedule("topic")

	_, ok := m.unsubscribe("topic")
	assert.False(t, ok, "schedule already dropped the record")
	assert.Empty(t, m.takeScheduled())
}

func TestManagerScheduleClosesSender(t *testing.T) {
	m := newSubscriptionManager()
	rec := newRecord()
	r := rec.sender.attach()
	m.set("topic", rec)

	m.schedule("topic")

	_, ok := m.get("topic")
	assert.False(t, ok)
	_, open := <-r.ch
	assert.False(t, open, "receiver must observe closed")

	scheduled := m.takeScheduled()
	assert.Equal(t, []string{"topic"}, scheduled)
	assert.Empty(t, m.takeScheduled(), "drained")
}

func TestManagerResubscribeClearsScheduled(t *testing.T) {
	m := newSubscriptionManager()
	m.schedule("topic")
	m.set("topic", newRecord())

	assert.Empty(t, m.takeScheduled(), "re-subscribing cancels the deferred unsubscribe")
}

func TestManagerSnapshot(t *testing.T) {
	m := newSubscriptionManager()
	m.set("a", &record{sender: newSender(10), qos: AtMostOnce})
	m.set("b", &record{sender: newSender(10), qos: ExactlyOnce})

	assert.Equal(t, map[string]QoS{"a": AtMostOnce, "b": ExactlyOnce}, m.snapshot())
}

func TestManagerCloseAll(t *testing.T) {
	m := newSubscriptionManager()
	rec := newRecord()
	r := rec.sender.attach()
	m.set("topic", rec)

	m.closeAll()

	_, ok := m.get("topic")
	assert.False(t, ok)
	_, open := <-r.ch
	assert.False(t, open)
}
