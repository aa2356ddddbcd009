package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/belugaiot/beluga/pkg/concurrency"
	"github.com/belugaiot/beluga/pkg/logger"
)

const (
	// DefaultPort is the standard mutual-TLS MQTT port.
	DefaultPort = 8883
	// DefaultCapacity is the per-subscriber buffer size.
	DefaultCapacity = 10

	defaultKeepAlive      = 30 * time.Second
	disconnectQuiesceMs   = 250
	defaultConnectTimeout = 30 * time.Second
)

// Config carries everything needed to establish the broker connection. The
// PEM blocks are held in memory only; nothing is persisted.
type Config struct {
	// Endpoint is the broker host, e.g. "xxxx.iot.us-east-1.amazonaws.com".
	Endpoint string `env:"IOT_ENDPOINT" validate:"required"`

	// Port defaults to 8883.
	Port int `env:"IOT_PORT"`

	// ThingName is the device identity; it doubles as the MQTT client id.
	ThingName string `env:"IOT_THING_NAME" validate:"required"`

	// CA is the PEM-encoded certificate authority bundle.
	CA []byte `validate:"required"`

	// Certificate is the PEM-encoded device certificate.
	Certificate []byte `validate:"required"`

	// PrivateKey is the PEM-encoded device private key.
	PrivateKey []byte `validate:"required"`

	// Capacity bounds each subscriber's buffer; defaults to 10.
	Capacity int `env:"IOT_SUBSCRIBER_CAPACITY"`

	// KeepAlive is the MQTT keep-alive interval.
	KeepAlive time.Duration

	// ConnectTimeout bounds the initial connect handshake.
	ConnectTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Port == 0 {
		out.Port = DefaultPort
	}
	if out.Capacity == 0 {
		out.Capacity = DefaultCapacity
	}
	if out.KeepAlive == 0 {
		out.KeepAlive = defaultKeepAlive
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = defaultConnectTimeout
	}
	return out
}

// Client is a topic-multiplexed MQTT client. It is safe for concurrent use;
// the zero value is not usable, construct with New.
type Client struct {
	cfg    Config
	paho   paho.Client
	status atomic.Int32

	mu      sync.Mutex // guards manager
	manager *subscriptionManager

	reconcileCh chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// New builds a client from cfg. The broker is not contacted until Connect.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Endpoint == "" {
		return nil, ErrInvalidConfig("missing endpoint", nil)
	}
	if cfg.ThingName == "" {
		return nil, ErrInvalidConfig("missing thing name", nil)
	}

	tlsCfg, err := newTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:         cfg,
		manager:     newSubscriptionManager(),
		reconcileCh: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("ssl://%s:%d", cfg.Endpoint, cfg.Port)).
		SetClientID(cfg.ThingName).
		SetTLSConfig(tlsCfg).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetResumeSubs(true).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	c.paho = paho.NewClient(opts)

	concurrency.SafeGo(context.Background(), c.reconcileLoop)

	return c, nil
}

func newTLSConfig(cfg Config) (*tls.Config, error) {
	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(cfg.CA); !ok {
		return nil, ErrInvalidConfig("failed to append CA certificate", nil)
	}

	cert, err := tls.X509KeyPair(cfg.Certificate, cfg.PrivateKey)
	if err != nil {
		return nil, ErrInvalidConfig("failed to load client certificate and key", err)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Connect establishes the broker session. Reconnects after interruptions are
// handled in the background; Connect is called once.
func (c *Client) Connect(ctx context.Context) error {
	if Status(c.status.Load()) == StatusClosed {
		return ErrNotConnected(StatusClosed)
	}
	if err := c.wait(ctx, c.paho.Connect()); err != nil {
		return ErrProtocol("connect", err)
	}
	c.status.Store(int32(StatusConnected))
	return nil
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	return Status(c.status.Load())
}

// ThingName returns the device identity the client was built with.
func (c *Client) ThingName() string {
	return c.cfg.ThingName
}

// Publish enqueues payload on topic. It does not wait for subscriber-side
// delivery; completion ordering is broker-defined.
func (c *Client) Publish(ctx context.Context, topic string, qos QoS, retain bool, payload []byte) error {
	if err := validateTopic(topic); err != nil {
		return err
	}
	if s := c.Status(); s != StatusConnected {
		return ErrNotConnected(s)
	}
	if err := c.wait(ctx, c.paho.Publish(topic, byte(qos), retain, payload)); err != nil {
		return ErrProtocol("publish", err)
	}
	return nil
}

// Subscribe attaches a new subscriber to topic. The broker sees at most one
// SUBSCRIBE per topic: later calls for the same topic reuse the existing
// subscription record and only add an in-process receiver.
func (c *Client) Subscribe(ctx context.Context, topic string, qos QoS) (*Subscriber, error) {
	return c.subscribeMany(ctx, []string{topic}, qos)
}

// SubscribeMany attaches a single subscriber to every topic in topics; Recv
// yields publications from any of them. Only topics without an existing
// record are sent to the broker.
func (c *Client) SubscribeMany(ctx context.Context, topics []string, qos QoS) (*Subscriber, error) {
	return c.subscribeMany(ctx, topics, qos)
}

// SubscribeOwned is Subscribe, but the returned handle owns the topic:
// closing it schedules a deferred broker unsubscribe.
func (c *Client) SubscribeOwned(ctx context.Context, topic string, qos QoS) (*OwnedSubscriber, error) {
	return c.SubscribeManyOwned(ctx, []string{topic}, qos)
}

// SubscribeManyOwned is SubscribeMany with topic ownership.
func (c *Client) SubscribeManyOwned(ctx context.Context, topics []string, qos QoS) (*OwnedSubscriber, error) {
	sub, err := c.subscribeMany(ctx, topics, qos)
	if err != nil {
		return nil, err
	}
	owned := make([]string, len(topics))
	copy(owned, topics)
	return &OwnedSubscriber{Subscriber: sub, topics: owned, client: c}, nil
}

func (c *Client) subscribeMany(ctx context.Context, topics []string, qos QoS) (*Subscriber, error) {
	if len(topics) == 0 {
		return nil, ErrInvalidTopic("")
	}
	for _, topic := range topics {
		if err := validateTopic(topic); err != nil {
			return nil, err
		}
	}
	if s := c.Status(); s != StatusConnected {
		return nil, ErrNotConnected(s)
	}

	// Create or reuse the records and attach a single shared receiver
	// before contacting the broker, so a publication racing the SUBACK is
	// already routable.
	c.mu.Lock()
	r := newReceiver(c.cfg.Capacity)
	senders := make([]*sender, 0, len(topics))
	created := c.manager.diff(topics)
	for _, topic := range topics {
		rec, ok := c.manager.get(topic)
		if !ok {
			rec = &record{sender: newSender(c.cfg.Capacity), qos: qos}
			c.manager.set(topic, rec)
		}
		rec.sender.join(r)
		senders = append(senders, rec.sender)
	}
	c.mu.Unlock()

	if len(created) > 0 {
		filters := make(map[string]byte, len(created))
		for _, topic := range created {
			filters[topic] = byte(qos)
		}
		if err := c.wait(ctx, c.paho.SubscribeMultiple(filters, c.route)); err != nil {
			c.rollback(created)
			return nil, ErrProtocol("subscribe", err)
		}
	}

	return newSubscriber(r, senders), nil
}

// rollback removes records created by a subscribe that the broker rejected.
func (c *Client) rollback(topics []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		if rec, ok := c.manager.remove(topic); ok {
			rec.sender.close()
		}
	}
}

// Unsubscribe issues a broker UNSUBSCRIBE for every topic and drops the
// subscription records; pending Recv calls on their subscribers observe
// ErrClosed.
func (c *Client) Unsubscribe(ctx context.Context, topics ...string) error {
	if s := c.Status(); s != StatusConnected {
		return ErrNotConnected(s)
	}
	if err := c.wait(ctx, c.paho.Unsubscribe(topics...)); err != nil {
		return ErrProtocol("unsubscribe", err)
	}
	c.mu.Lock()
	for _, topic := range topics {
		if rec, ok := c.manager.unsubscribe(topic); ok {
			rec.sender.close()
		}
	}
	c.mu.Unlock()
	return nil
}

// ScheduleUnsubscribe records the intent to unsubscribe without contacting
// the broker; the next reconciliation cycle applies it. Existing subscribers
// for the topics observe ErrClosed immediately.
func (c *Client) ScheduleUnsubscribe(topics ...string) {
	if len(topics) == 0 {
		return
	}
	c.mu.Lock()
	for _, topic := range topics {
		c.manager.schedule(topic)
	}
	c.mu.Unlock()

	select {
	case c.reconcileCh <- struct{}{}:
	default:
	}
}

// route delivers one inbound publication to the topic's fan-out. A topic
// whose subscribers are all gone loses its record; the broker-side
// subscription is left alone (re-subscribing later is idempotent).
func (c *Client) route(_ paho.Client, msg paho.Message) {
	pub := Publication{
		Topic:     msg.Topic(),
		Payload:   append([]byte(nil), msg.Payload()...),
		Duplicate: msg.Duplicate(),
		QoS:       QoS(msg.Qos()),
		Retained:  msg.Retained(),
	}

	c.mu.Lock()
	rec, ok := c.manager.get(pub.Topic)
	if !ok {
		c.mu.Unlock()
		return
	}
	if !rec.sender.send(pub) {
		c.manager.remove(pub.Topic)
		c.mu.Unlock()
		logger.L().Warn("dropped subscription with no receivers", "topic", pub.Topic)
		return
	}
	c.mu.Unlock()
}

// onConnect runs on every (re)connect. Replaying the recorded subscriptions
// keeps the contract even when the broker opened a fresh session.
func (c *Client) onConnect(client paho.Client) {
	c.status.Store(int32(StatusConnected))

	c.mu.Lock()
	topics := c.manager.snapshot()
	c.mu.Unlock()
	if len(topics) == 0 {
		return
	}

	filters := make(map[string]byte, len(topics))
	for topic, qos := range topics {
		filters[topic] = byte(qos)
	}
	concurrency.SafeGo(context.Background(), func() {
		token := client.SubscribeMultiple(filters, c.route)
		token.Wait()
		if err := token.Error(); err != nil {
			logger.L().Error("subscription replay failed", "error", err)
		}
	})
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	// Only while the session is live; a Close-triggered drop stays Closed.
	c.status.CompareAndSwap(int32(StatusConnected), int32(StatusInterrupted))
	logger.L().Warn("broker connection lost", "error", err)
}

// reconcileLoop applies deferred unsubscribes off the callers' paths.
func (c *Client) reconcileLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.reconcileCh:
			c.flushScheduled()
		}
	}
}

func (c *Client) flushScheduled() {
	c.mu.Lock()
	topics := c.manager.takeScheduled()
	c.mu.Unlock()
	if len(topics) == 0 {
		return
	}
	if c.Status() != StatusConnected {
		logger.L().Debug("skipping deferred unsubscribe while disconnected", "topics", topics)
		return
	}
	token := c.paho.Unsubscribe(topics...)
	token.Wait()
	if err := token.Error(); err != nil {
		logger.L().Warn("deferred unsubscribe failed", "error", err, "topics", topics)
	}
}

// Close flushes scheduled unsubscribes, tears down every subscription and
// disconnects from the broker. The client cannot be reused afterwards.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.flushScheduled()
		close(c.done)

		c.mu.Lock()
		c.manager.closeAll()
		c.mu.Unlock()

		c.status.Store(int32(StatusClosed))
		if c.paho.IsConnectionOpen() {
			c.paho.Disconnect(disconnectQuiesceMs)
		}
	})
}

// wait blocks on a paho token honouring ctx. Context cancellation surfaces
// as the bare context error so callers can tell it apart from broker
// failures.
func (c *Client) wait(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrNotConnected(StatusClosed)
	}
}

func validateTopic(topic string) error {
	if topic == "" || strings.ContainsRune(topic, 0) {
		return ErrInvalidTopic(topic)
	}
	return nil
}
