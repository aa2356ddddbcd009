package tunnel

import "context"

// Service bridges the tunnel byte stream to a local endpoint. The session
// calls Connect exactly once, when the peer starts the stream.
//
// Connect must: open the local connection, forward bytes read locally into
// wsIn, write bytes received from wsOut to the local connection, and signal
// closed when the local side terminates. It returns once the bridge is
// running; the pumps themselves run in the background.
type Service interface {
	Connect(ctx context.Context, wsIn chan<- []byte, wsOut <-chan []byte, closed chan<- struct{}) error
}
