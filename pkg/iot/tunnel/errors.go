package tunnel

import "github.com/belugaiot/beluga/pkg/errors"

// Error codes for tunnel operations.
const (
	CodeClientMode       = "TUNNEL_CLIENT_MODE"
	CodeNoSSHService     = "TUNNEL_NO_SSH_SERVICE"
	CodeNotifyDecode     = "TUNNEL_NOTIFY_DECODE"
	CodeWebSocket        = "TUNNEL_WEBSOCKET"
	CodeWebSocketClosed  = "TUNNEL_WEBSOCKET_CLOSED"
	CodeUnknownMessage   = "TUNNEL_UNKNOWN_MESSAGE"
	CodeFrameDecode      = "TUNNEL_FRAME_DECODE"
	CodeEncodedLength    = "TUNNEL_ENCODED_LENGTH"
	CodeService          = "TUNNEL_SERVICE"
	CodeServiceClosed    = "TUNNEL_SERVICE_CLOSED"
)

// ErrClientMode rejects notifications whose client mode is not "destination".
var ErrClientMode = errors.New(CodeClientMode, "bad client mode, must be the destination mode", nil)

// ErrNoSSHService rejects notifications whose service list lacks "SSH".
var ErrNoSSHService = errors.New(CodeNoSSHService, "services missing the SSH service", nil)

// ErrWebSocketClosed is returned when the tunnel peer closed the WebSocket.
var ErrWebSocketClosed = errors.New(CodeWebSocketClosed, "websocket closed", nil)

// ErrUnknownMessage is returned for frames of an unknown message type.
var ErrUnknownMessage = errors.New(CodeUnknownMessage, "websocket received unknown message", nil)

// ErrEncodedLength is returned when a frame does not fit a u16 length prefix.
var ErrEncodedLength = errors.New(CodeEncodedLength, "encoded frame length out of range", nil)

// ErrServiceClosed is returned when the local service ended the stream.
var ErrServiceClosed = errors.New(CodeServiceClosed, "underlying communication service is closed", nil)

// ErrNotifyDecode creates an error for an undecodable tunnel notification.
func ErrNotifyDecode(err error) *errors.AppError {
	return errors.New(CodeNotifyDecode, "couldn't deserialize initial tunnel request", err)
}

// ErrWebSocket creates an error for WebSocket transport failures.
func ErrWebSocket(op string, err error) *errors.AppError {
	return errors.New(CodeWebSocket, "websocket "+op+" failed", err)
}

// ErrFrameDecode creates an error for malformed protobuf frames.
func ErrFrameDecode(err error) *errors.AppError {
	return errors.New(CodeFrameDecode, "failed to decode tunnel frame", err)
}

// ErrService creates an error for local service failures.
func ErrService(msg string, err error) *errors.AppError {
	return errors.New(CodeService, msg, err)
}
