package tunnel

import (
	"context"
	"fmt"
	"sync"

	"github.com/belugaiot/beluga/pkg/concurrency"
	"github.com/belugaiot/beluga/pkg/errors"
	"github.com/belugaiot/beluga/pkg/iot/mqtt"
	"github.com/belugaiot/beluga/pkg/logger"
)

// Manager listens for tunnel notifications and runs one session per
// notification under a supervised task set. Session failures are logged; the
// manager keeps listening until Shutdown or until the constructor context is
// cancelled.
type Manager struct {
	tracker      concurrency.Tracker
	cancel       context.CancelFunc
	sub          *mqtt.Subscriber
	shutdownOnce sync.Once
}

func topicNotify(thing string) string {
	return fmt.Sprintf("$aws/things/%s/tunnels/notify", thing)
}

// NewManager subscribes to the thing's tunnels/notify topic and starts
// listening. Each notification gets a fresh Service from newService.
// Cancelling ctx cancels every in-flight session; call Shutdown to also wait
// for them.
func NewManager(ctx context.Context, client *mqtt.Client, newService func() Service) (*Manager, error) {
	sub, err := client.Subscribe(ctx, topicNotify(client.ThingName()), mqtt.AtLeastOnce)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m := &Manager{cancel: cancel, sub: sub}

	m.tracker.Go(runCtx, func(ctx context.Context) {
		m.listen(ctx, newService)
	})

	return m, nil
}

func (m *Manager) listen(ctx context.Context, newService func() Service) {
	for {
		p, err := m.sub.Recv(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return
		case errors.HasCode(err, mqtt.CodeSubscriberClosed):
			// The only unrecoverable receive failure.
			logger.L().Warn("tunnel notification subscriber closed")
			return
		default:
			logger.L().Error("failed to receive tunnel notification", "error", err)
			continue
		}

		payload := p.Payload
		ok := m.tracker.Go(ctx, func(ctx context.Context) {
			m.runSession(ctx, payload, newService())
		})
		if !ok {
			return
		}
	}
}

func (m *Manager) runSession(ctx context.Context, payload []byte, svc Service) {
	sess, err := Open(ctx, payload)
	if err != nil {
		logger.L().Error("failed to open tunnel session", "error", err)
		return
	}
	logger.L().Debug("tunnel session established", "session", sess.ID())

	if err := sess.Run(ctx, svc); err != nil && ctx.Err() == nil {
		logger.L().Error("tunnel session ended", "session", sess.ID(), "error", err)
		return
	}
	logger.L().Debug("tunnel session finished", "session", sess.ID())
}

// Shutdown cancels every in-flight session and waits for them to finish. It
// is safe to call more than once; later calls just wait.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.cancel()
		m.sub.Close()
		m.tracker.Close()
	})
	m.tracker.Wait()
}
