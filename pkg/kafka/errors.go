package kafka

import "errors"

var (
	ErrProducerClosed = errors.New("kafka producer is closed")

	ErrConsumerClosed = errors.New("kafka consumer is closed")

	ErrEmptyKey = errors.New("message key cannot be empty")

	ErrEmptyValue = errors.New("message value cannot be empty")

	// ErrNoMessage means a poll window elapsed without anything to fetch.
	// It is the consumer's idle signal, not a failure.
	ErrNoMessage = errors.New("no message available")
)
