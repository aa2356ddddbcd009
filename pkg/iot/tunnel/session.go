package tunnel

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/belugaiot/beluga/pkg/concurrency"
	"github.com/belugaiot/beluga/pkg/logger"
)

const (
	subprotocol = "aws.iot.securetunneling-3.0"

	// channelCapacity bounds the in-flight byte chunks in each direction.
	channelCapacity = 10
)

// Session is one established tunnel: a WebSocket to the regional tunneling
// endpoint, ready to bridge a single stream to a local service.
type Session struct {
	id string
	ws *websocket.Conn
}

// Open validates the notification payload and dials the tunneling endpoint.
// Validation failures (wrong client mode, missing SSH service) are returned
// before any connection attempt.
func Open(ctx context.Context, payload []byte) (*Session, error) {
	n, err := parseNotification(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("wss://data.tunneling.iot.%s.amazonaws.com/tunnel?local-proxy-mode=%s",
		n.Region, destinationMode)
	header := http.Header{}
	header.Set("access-token", n.ClientAccessToken)

	dialer := websocket.Dialer{Subprotocols: []string{subprotocol}}
	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, ErrWebSocket("dial", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	return &Session{id: uuid.NewString(), ws: ws}, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Run drives the session until the stream is reset, the context is
// cancelled, or an error ends it. Stream, session and connection resets from
// the peer are a graceful end (nil); the local service terminating is not.
func (s *Session) Run(ctx context.Context, svc Service) error {
	defer s.ws.Close()

	wsIn := make(chan []byte, channelCapacity)  // service -> tunnel
	wsOut := make(chan []byte, channelCapacity) // tunnel -> service
	closed := make(chan struct{}, 1)

	frames := make(chan *Frame)
	readErr := make(chan error, 1)
	readerDone := make(chan struct{})
	defer close(readerDone)

	concurrency.SafeGo(ctx, func() {
		for {
			_, data, err := s.ws.ReadMessage()
			if err != nil {
				select {
				case readErr <- err:
				case <-readerDone:
				}
				return
			}
			decoded, err := DecodeFrames(data)
			if err != nil {
				select {
				case readErr <- err:
				case <-readerDone:
				}
				return
			}
			for _, f := range decoded {
				select {
				case frames <- f:
				case <-readerDone:
					return
				}
			}
		}
	})

	// Unblock the blocking ReadMessage when the context ends first.
	concurrency.SafeGo(ctx, func() {
		select {
		case <-ctx.Done():
			s.ws.Close()
		case <-readerDone:
		}
	})

	var streamID int32
	started := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, ok := err.(*websocket.CloseError); ok {
				return ErrWebSocketClosed
			}
			return ErrWebSocket("read", err)

		case f := <-frames:
			done, err := s.handleFrame(ctx, f, svc, &streamID, &started, wsIn, wsOut, closed)
			if done || err != nil {
				return err
			}

		case data := <-wsIn:
			out := &Frame{Type: TypeData, StreamID: streamID, Ignorable: false, Payload: data}
			var buf bytes.Buffer
			if err := EncodeFrame(&buf, out); err != nil {
				return err
			}
			if err := s.ws.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
				return ErrWebSocket("write", err)
			}

		case <-closed:
			return ErrServiceClosed
		}
	}
}

// handleFrame runs the inbound message state machine. It reports done=true
// for a graceful end of the session.
func (s *Session) handleFrame(ctx context.Context, f *Frame, svc Service,
	streamID *int32, started *bool,
	wsIn chan<- []byte, wsOut chan []byte, closed chan<- struct{}) (bool, error) {
	switch f.Type {
	case TypeData:
		select {
		case wsOut <- f.Payload:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		return false, nil

	case TypeStreamStart:
		if *started {
			return false, ErrService("restart of the same tunnel isn't supported", nil)
		}
		*started = true
		*streamID = f.StreamID
		if err := svc.Connect(ctx, wsIn, wsOut, closed); err != nil {
			return false, err
		}
		return false, nil

	case TypeStreamReset, TypeSessionReset, TypeConnectionReset:
		logger.L().Debug("tunnel reset by peer", "session", s.id, "type", f.Type.String())
		return true, nil

	case TypeServiceIDs, TypeConnectionStart:
		return false, nil

	default:
		return false, ErrUnknownMessage
	}
}
