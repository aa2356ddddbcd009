package mqtt

import (
	"strconv"

	"github.com/belugaiot/beluga/pkg/errors"
)

// Error codes for MQTT operations.
const (
	CodeNotConnected     = "MQTT_NOT_CONNECTED"
	CodeInvalidTopic     = "MQTT_INVALID_TOPIC"
	CodeProtocol         = "MQTT_PROTOCOL"
	CodeSubscriberClosed = "MQTT_SUBSCRIBER_CLOSED"
	CodeInvalidConfig    = "MQTT_INVALID_CONFIG"
)

// ErrClosed is returned from Subscriber.Recv after the subscription record
// backing the subscriber has been dropped and its buffer drained.
var ErrClosed = errors.New(CodeSubscriberClosed, "subscription closed", nil)

// ErrNotConnected creates an error for operations attempted while the client
// is not in the Connected state.
func ErrNotConnected(status Status) *errors.AppError {
	return errors.New(CodeNotConnected, "client is not connected (status "+status.String()+")", nil)
}

// ErrInvalidTopic creates an error for malformed topics.
func ErrInvalidTopic(topic string) *errors.AppError {
	return errors.New(CodeInvalidTopic, "invalid topic "+strconv.Quote(topic), nil)
}

// ErrProtocol creates an error for requests the broker rejected or failed.
func ErrProtocol(op string, err error) *errors.AppError {
	return errors.New(CodeProtocol, "broker rejected "+op, err)
}

// ErrInvalidConfig creates an error for invalid client configuration.
func ErrInvalidConfig(msg string, err error) *errors.AppError {
	return errors.New(CodeInvalidConfig, "invalid mqtt configuration: "+msg, err)
}
