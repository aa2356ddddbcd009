package mqtt

import (
	"context"
	"sync"
)

// Subscriber receives publications for one or more subscribed topics. Every
// subscriber sees each matching publication delivered after it was created;
// when the buffer overflows the oldest entries are evicted, so Recv always
// returns the freshest backlog.
//
// A Subscriber must be Closed when no longer needed so the fan-out stops
// buffering for it. Closing does not unsubscribe the topic from the broker;
// use OwnedSubscriber for that.
type Subscriber struct {
	r       *receiver
	senders []*sender
}

func newSubscriber(r *receiver, senders []*sender) *Subscriber {
	return &Subscriber{r: r, senders: senders}
}

// Recv returns the next publication on any of the subscriber's topics. It
// blocks until a publication arrives, the context is cancelled, or the
// subscription is dropped, in which case it returns ErrClosed once the
// buffer is drained.
func (s *Subscriber) Recv(ctx context.Context) (Publication, error) {
	select {
	case p, ok := <-s.r.ch:
		if !ok {
			return Publication{}, ErrClosed
		}
		return p, nil
	case <-ctx.Done():
		return Publication{}, ctx.Err()
	}
}

// Clone returns an independent subscriber attached to the same topics. The
// clone starts with an empty buffer and receives only publications delivered
// after the clone was made.
func (s *Subscriber) Clone() *Subscriber {
	r := newReceiver(cap(s.r.ch))
	for _, snd := range s.senders {
		snd.join(r)
	}
	return newSubscriber(r, s.senders)
}

// Close detaches the subscriber from its topics. Pending Recv calls observe
// ErrClosed.
func (s *Subscriber) Close() {
	s.r.close()
	for _, snd := range s.senders {
		snd.detach(s.r)
	}
}

// OwnedSubscriber is a Subscriber that owns its topics: closing it schedules
// a deferred broker unsubscribe for each of them, applied on the client's
// next reconciliation cycle.
type OwnedSubscriber struct {
	*Subscriber
	topics []string
	client *Client
	once   sync.Once
}

// Close closes the underlying subscriber and schedules the owned topics for
// unsubscribe. It is safe to call multiple times.
func (o *OwnedSubscriber) Close() {
	o.once.Do(func() {
		o.Subscriber.Close()
		o.client.ScheduleUnsubscribe(o.topics...)
	})
}

// Topics returns the topics this subscriber owns.
func (o *OwnedSubscriber) Topics() []string {
	out := make([]string, len(o.topics))
	copy(out, o.topics)
	return out
}
