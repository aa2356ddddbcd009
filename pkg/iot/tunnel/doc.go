// Package tunnel implements the destination side of AWS IoT Secure Tunneling.
//
// The Manager subscribes to the thing's tunnel notification topic and runs
// one Session per notification: a WebSocket to the regional tunneling
// endpoint carrying u16-length-prefixed protobuf frames, bridged to a local
// TCP service through the Service interface. Sessions are supervised; a
// failing session is logged and the manager keeps listening.
package tunnel
