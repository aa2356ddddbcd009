package ssh_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belugaiot/beluga/pkg/iot/tunnel/adapters/ssh"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, 22, ssh.Destination().Port())
	assert.Equal(t, 2222, ssh.New(2222).Port())
}

func TestConnectBridgesBothDirections(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	wsIn := make(chan []byte, 10)
	wsOut := make(chan []byte, 10)
	closed := make(chan struct{}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	svc := ssh.New(port)
	require.NoError(t, svc.Connect(ctx, wsIn, wsOut, closed))

	local := <-accepted
	defer local.Close()

	// Tunnel -> local service.
	wsOut <- []byte("hello")
	buf := make([]byte, 16)
	require.NoError(t, local.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := local.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	// Local service -> tunnel.
	_, err = local.Write([]byte("response"))
	require.NoError(t, err)
	select {
	case data := <-wsIn:
		assert.Equal(t, "response", string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("no data surfaced from the local service")
	}

	// Terminating the TCP side signals close.
	local.Close()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("close was never signalled")
	}
}

func TestConnectFailsWhenNothingListens(t *testing.T) {
	// Grab a free port and release it so the dial has nothing to hit.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = ssh.New(port).Connect(ctx, make(chan []byte, 1), make(chan []byte, 1), make(chan struct{}, 1))
	require.Error(t, err)
}
