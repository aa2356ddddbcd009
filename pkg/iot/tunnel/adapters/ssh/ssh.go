// Package ssh adapts a local SSH daemon as a tunnel service: bytes flowing
// out of the tunnel are written to a TCP connection on the loopback
// interface, and bytes read from it are pushed back into the tunnel.
package ssh

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/belugaiot/beluga/pkg/concurrency"
	"github.com/belugaiot/beluga/pkg/iot/tunnel"
	"github.com/belugaiot/beluga/pkg/logger"
)

const (
	// DestinationPort is the local sshd port a destination tunnel bridges to.
	DestinationPort = 22
	// SourcePort is the conventional local listener port on the source side.
	SourcePort = 8022

	readBufferSize = 2048
)

// Service bridges a tunnel stream to an SSH daemon on 127.0.0.1.
type Service struct {
	port int
}

// Destination returns a service targeting the local sshd on port 22.
func Destination() *Service {
	return &Service{port: DestinationPort}
}

// New returns a service targeting the given local port.
func New(port int) *Service {
	return &Service{port: port}
}

// Port returns the local TCP port the service connects to.
func (s *Service) Port() int {
	return s.port
}

// Connect dials the local daemon and starts the two pump goroutines. The
// closed channel is signalled when the bridge stops, i.e. when the TCP side
// or the tunnel side of the stream terminates.
func (s *Service) Connect(ctx context.Context, wsIn chan<- []byte, wsOut <-chan []byte, closed chan<- struct{}) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return tunnel.ErrService("couldn't connect to the local ssh daemon", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	var g errgroup.Group

	// TCP -> tunnel.
	g.Go(func() error {
		defer cancel()
		buf := make([]byte, readBufferSize)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return tunnel.ErrService("couldn't read from the ssh socket", err)
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case wsIn <- data:
			case <-runCtx.Done():
				return runCtx.Err()
			}
		}
	})

	// tunnel -> TCP.
	g.Go(func() error {
		defer cancel()
		for {
			select {
			case data, ok := <-wsOut:
				if !ok {
					return nil
				}
				if _, err := conn.Write(data); err != nil {
					return tunnel.ErrService("couldn't write to the ssh socket", err)
				}
			case <-runCtx.Done():
				return runCtx.Err()
			}
		}
	})

	// Closing the connection unblocks the pending Read once either pump
	// stops or the session is cancelled.
	concurrency.SafeGo(ctx, func() {
		<-runCtx.Done()
		conn.Close()
	})

	concurrency.SafeGo(ctx, func() {
		if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
			logger.L().Warn("ssh bridge ended", "error", err)
		}
		select {
		case closed <- struct{}{}:
		default:
		}
	})

	return nil
}
