package mqtt

// record is one live subscription: the fan-out sender plus the QoS the topic
// was subscribed with, kept for replay after a reconnect.
type record struct {
	sender *sender
	qos    QoS
}

// subscriptionManager tracks the live subscription records and the topics
// whose broker unsubscribe has been deferred. It is not goroutine-safe; the
// client serialises access with its own mutex.
type subscriptionManager struct {
	subscribed map[string]*record
	scheduled  map[string]struct{}
}

func newSubscriptionManager() *subscriptionManager {
	return &subscriptionManager{
		subscribed: make(map[string]*record),
		scheduled:  make(map[string]struct{}),
	}
}

func (m *subscriptionManager) get(topic string) (*record, bool) {
	rec, ok := m.subscribed[topic]
	return rec, ok
}

func (m *subscriptionManager) set(topic string, rec *record) {
	delete(m.scheduled, topic)
	m.subscribed[topic] = rec
}

// remove drops the record without touching the scheduled set and without
// closing the sender; callers decide both.
func (m *subscriptionManager) remove(topic string) (*record, bool) {
	rec, ok := m.subscribed[topic]
	if ok {
		delete(m.subscribed, topic)
	}
	return rec, ok
}

// unsubscribe drops the record and clears any deferred-unsubscribe intent.
func (m *subscriptionManager) unsubscribe(topic string) (*record, bool) {
	delete(m.scheduled, topic)
	return m.remove(topic)
}

// diff returns the subset of topics that have no subscription record, i.e.
// the ones the broker has not seen a SUBSCRIBE for.
func (m *subscriptionManager) diff(topics []string) []string {
	var missing []string
	for _, topic := range topics {
		if _, ok := m.subscribed[topic]; !ok {
			missing = append(missing, topic)
		}
	}
	return missing
}

// schedule records the intent to unsubscribe from topic without contacting
// the broker. The record is dropped immediately (receivers observe closed);
// the broker UNSUBSCRIBE happens on the next reconciliation cycle.
func (m *subscriptionManager) schedule(topic string) {
	if rec, ok := m.remove(topic); ok {
		rec.sender.close()
	}
	m.scheduled[topic] = struct{}{}
}

// takeScheduled drains and returns the deferred-unsubscribe set.
func (m *subscriptionManager) takeScheduled() []string {
	if len(m.scheduled) == 0 {
		return nil
	}
	topics := make([]string, 0, len(m.scheduled))
	for topic := range m.scheduled {
		topics = append(topics, topic)
	}
	m.scheduled = make(map[string]struct{})
	return topics
}

// snapshot returns every live record keyed by topic, for subscription replay.
func (m *subscriptionManager) snapshot() map[string]QoS {
	out := make(map[string]QoS, len(m.subscribed))
	for topic, rec := range m.subscribed {
		out[topic] = rec.qos
	}
	return out
}

// closeAll closes every sender and drops every record.
func (m *subscriptionManager) closeAll() {
	for topic, rec := range m.subscribed {
		rec.sender.close()
		delete(m.subscribed, topic)
	}
}
