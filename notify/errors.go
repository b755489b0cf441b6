package notify

import "errors"

var (
	// ErrConnectionFailed is returned when the broker cannot be reached.
	ErrConnectionFailed = errors.New("notify: mqtt connection failed")

	// ErrPublishFailed is returned when the event could not be delivered.
	ErrPublishFailed = errors.New("notify: mqtt publish failed")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("notify: topic cannot be empty")
)
