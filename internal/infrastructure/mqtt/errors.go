package mqtt

import "errors"

// Errors returned by the client; check them with errors.Is.
var (
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrTimeout          = errors.New("mqtt: operation timed out")

	// Publish and subscribe failures wrap the broker's token error.
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// Argument checks, made before anything reaches the broker.
	ErrInvalidQoS   = errors.New("mqtt: QoS must be 0, 1 or 2")
	ErrInvalidTopic = errors.New("mqtt: empty topic")
)
