package jobs

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/belugaiot/beluga/pkg/iot/mqtt"
	"github.com/belugaiot/beluga/pkg/logger"
)

// Client is the device-side half of the Jobs request/response protocol. It
// shares the MQTT client by reference and keeps standing subscriptions for
// the get and start-next reply topics; per-job topics are subscribed on
// demand by the Job objects it hands out.
//
// At most one in-flight request of each kind is supported; callers
// serialise.
type Client struct {
	mqtt  *mqtt.Client
	thing string

	getSub       *mqtt.Subscriber
	startNextSub *mqtt.Subscriber
	closeOnce    sync.Once
}

// New subscribes to the jobs reply topics and returns a ready client.
func New(ctx context.Context, client *mqtt.Client) (*Client, error) {
	thing := client.ThingName()

	getSub, err := client.SubscribeMany(ctx, []string{
		topicGetAccepted(thing),
		topicGetRejected(thing),
	}, mqtt.AtLeastOnce)
	if err != nil {
		return nil, err
	}

	startNextSub, err := client.SubscribeMany(ctx, []string{
		topicStartNextAccepted(thing),
		topicStartNextRejected(thing),
	}, mqtt.AtLeastOnce)
	if err != nil {
		getSub.Close()
		return nil, err
	}

	return &Client{
		mqtt:         client,
		thing:        thing,
		getSub:       getSub,
		startNextSub: startNextSub,
	}, nil
}

// Close releases the client's standing subscriptions. The broker-side
// unsubscribes are deferred to the MQTT client's next reconciliation cycle.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.getSub.Close()
		c.startNextSub.Close()
		c.mqtt.ScheduleUnsubscribe(
			topicGetAccepted(c.thing),
			topicGetRejected(c.thing),
			topicStartNextAccepted(c.thing),
			topicStartNextRejected(c.thing),
		)
	})
}

// PendingExecutions asks the service for every pending execution on this
// thing and returns the in-progress and queued lists, in that order.
func (c *Client) PendingExecutions(ctx context.Context) ([]*Job, []*Job, error) {
	sub := c.getSub.Clone()
	defer sub.Close()

	token := newToken()
	payload, err := json.Marshal(getPendingRequest{ClientToken: token})
	if err != nil {
		return nil, nil, ErrSerialization(err)
	}
	if err := c.mqtt.Publish(ctx, topicGet(c.thing), mqtt.AtLeastOnce, false, payload); err != nil {
		return nil, nil, err
	}

	accepted, rejected, err := awaitReply(ctx, sub, topicGetAccepted(c.thing), topicGetRejected(c.thing), token)
	if err != nil {
		return nil, nil, err
	}
	if rejected != nil {
		return nil, nil, ErrGetRejected(rejected)
	}

	var resp getPendingResponse
	if err := json.Unmarshal(accepted, &resp); err != nil {
		return nil, nil, ErrSerialization(err)
	}

	inProgress := make([]*Job, 0, len(resp.InProgressJobs))
	for _, summary := range resp.InProgressJobs {
		inProgress = append(inProgress, newJobFromSummary(c.mqtt, c.thing, summary))
	}
	queued := make([]*Job, 0, len(resp.QueuedJobs))
	for _, summary := range resp.QueuedJobs {
		queued = append(queued, newJobFromSummary(c.mqtt, c.thing, summary))
	}
	return inProgress, queued, nil
}

// InProgressExecutions returns only the in-progress half of PendingExecutions.
func (c *Client) InProgressExecutions(ctx context.Context) ([]*Job, error) {
	inProgress, _, err := c.PendingExecutions(ctx)
	return inProgress, err
}

// QueuedExecutions returns only the queued half of PendingExecutions.
func (c *Client) QueuedExecutions(ctx context.Context) ([]*Job, error) {
	_, queued, err := c.PendingExecutions(ctx)
	return queued, err
}

// StartNext claims the next queued execution, moving it to IN_PROGRESS. It
// returns nil without error when no execution is pending. The optional
// details are stored as the execution's status details.
func (c *Client) StartNext(ctx context.Context, details map[string]string) (*Job, error) {
	sub := c.startNextSub.Clone()
	defer sub.Close()

	token := newToken()
	payload, err := json.Marshal(startNextRequest{StatusDetails: details, ClientToken: token})
	if err != nil {
		return nil, ErrSerialization(err)
	}
	if err := c.mqtt.Publish(ctx, topicStartNext(c.thing), mqtt.AtLeastOnce, false, payload); err != nil {
		return nil, err
	}

	accepted, rejected, err := awaitReply(ctx, sub, topicStartNextAccepted(c.thing), topicStartNextRejected(c.thing), token)
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		return nil, ErrStartNextRejected(rejected)
	}

	var resp startNextResponse
	if err := json.Unmarshal(accepted, &resp); err != nil {
		return nil, ErrSerialization(err)
	}
	if resp.Execution == nil {
		return nil, nil
	}
	return newJobFromExecution(c.mqtt, c.thing, *resp.Execution), nil
}

// Describe fetches the current state of one job execution by id.
func (c *Client) Describe(ctx context.Context, jobID string) (*Job, error) {
	sub, err := c.mqtt.SubscribeManyOwned(ctx, []string{
		topicJobGetAccepted(c.thing, jobID),
		topicJobGetRejected(c.thing, jobID),
	}, mqtt.AtLeastOnce)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	token := newToken()
	payload, err := json.Marshal(describeRequest{ClientToken: token})
	if err != nil {
		return nil, ErrSerialization(err)
	}
	if err := c.mqtt.Publish(ctx, topicJobGet(c.thing, jobID), mqtt.AtLeastOnce, false, payload); err != nil {
		return nil, err
	}

	accepted, rejected, err := awaitReply(ctx, sub.Subscriber,
		topicJobGetAccepted(c.thing, jobID), topicJobGetRejected(c.thing, jobID), token)
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		return nil, ErrGetRejected(rejected)
	}

	var resp describeResponse
	if err := json.Unmarshal(accepted, &resp); err != nil {
		return nil, ErrSerialization(err)
	}
	if resp.Execution == nil {
		return nil, ErrExecutionMissing(jobID)
	}
	return newJobFromExecution(c.mqtt, c.thing, *resp.Execution), nil
}

// replySource is the slice of the subscriber surface the correlation loop
// needs; *mqtt.Subscriber satisfies it.
type replySource interface {
	Recv(ctx context.Context) (mqtt.Publication, error)
}

// awaitReply blocks until sub yields a reply on acceptedTopic or
// rejectedTopic whose clientToken equals token. Replies carrying a foreign
// token are logged and skipped; the first matched reply wins.
func awaitReply(ctx context.Context, sub replySource, acceptedTopic, rejectedTopic, token string) ([]byte, *RejectedError, error) {
	for {
		p, err := sub.Recv(ctx)
		if err != nil {
			return nil, nil, err
		}

		switch p.Topic {
		case acceptedTopic:
			got, err := peekToken(p.Payload)
			if err != nil {
				return nil, nil, ErrSerialization(err)
			}
			if got != token {
				logger.L().Warn("client token mismatch, discarding reply",
					"topic", p.Topic, "expected", token, "received", got)
				continue
			}
			return p.Payload, nil, nil
		case rejectedTopic:
			var rejected RejectedError
			if err := json.Unmarshal(p.Payload, &rejected); err != nil {
				return nil, nil, ErrSerialization(err)
			}
			if rejected.ClientToken != "" && rejected.ClientToken != token {
				logger.L().Warn("client token mismatch, discarding rejection",
					"topic", p.Topic, "expected", token, "received", rejected.ClientToken)
				continue
			}
			return nil, &rejected, nil
		default:
			logger.L().Warn("unexpected publication while awaiting reply", "topic", p.Topic)
		}
	}
}

func peekToken(payload []byte) (string, error) {
	var probe struct {
		ClientToken string `json:"clientToken"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return "", err
	}
	return probe.ClientToken, nil
}
