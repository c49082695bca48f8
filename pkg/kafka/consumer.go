package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "drivebid/pkg/kafka/config"
)

// Consumer exposes pull-style access to a topic: the caller fetches one
// message, durably processes it, then commits. A crash between processing and
// commit redelivers the message, so downstream handling carries at-least-once
// semantics.
type Consumer struct {
	reader    *kafka.Reader
	dlqWriter *kafka.Writer
	topic     string
	groupID   string
	closed    bool
	mu        sync.RWMutex
}

func NewConsumer(cfg *kafka_config.Config, topic, groupID, dlqTopic string) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    cfg.ConsumerMinBytes,
		MaxBytes:    cfg.ConsumerMaxBytes,
		MaxWait:     cfg.ConsumerMaxWait,
		StartOffset: cfg.ConsumerStartOffset,
		Logger:      kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger: kafka.LoggerFunc(log.Printf),
	})

	consumer := &Consumer{
		reader:  reader,
		topic:   topic,
		groupID: groupID,
	}

	if dlqTopic != "" {
		consumer.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
			ErrorLogger:  kafka.LoggerFunc(log.Printf),
		}
	}

	return consumer, nil
}

// FetchOne waits up to maxWait for a single message. ErrNoMessage signals an
// empty poll window; the returned message is NOT committed.
func (c *Consumer) FetchOne(ctx context.Context, maxWait time.Duration) (*Message, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrConsumerClosed
	}
	c.mu.RUnlock()

	fetchCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	kafkaMsg, err := c.reader.FetchMessage(fetchCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrNoMessage
		}
		return nil, err
	}

	msg := fromKafkaMessage(kafkaMsg)
	return &msg, nil
}

// Commit marks the message processed. Until it succeeds the message will be
// redelivered on restart.
func (c *Consumer) Commit(ctx context.Context, msg *Message) error {
	return c.reader.CommitMessages(ctx, msg.raw)
}

// SendToDLQ parks a message that can never be processed (malformed payload,
// validation failure). The caller still commits afterwards.
func (c *Consumer) SendToDLQ(ctx context.Context, msg *Message, cause error) error {
	if c.dlqWriter == nil {
		return nil
	}

	dlqMsg := Message{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   make(map[string]string, len(msg.Headers)+3),
		Timestamp: time.Now(),
	}
	for k, v := range msg.Headers {
		dlqMsg.Headers[k] = v
	}
	dlqMsg.Headers[HeaderOriginalTopic] = c.topic
	dlqMsg.Headers["dlq-error"] = cause.Error()
	dlqMsg.Headers["dlq-consumer-group"] = c.groupID

	return c.dlqWriter.WriteMessages(ctx, toKafkaMessage(dlqMsg))
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := c.reader.Close()
	if c.dlqWriter != nil {
		if dlqErr := c.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}

// Lag reports how far the consumer trails the topic head. Growing lag is the
// accepted degradation mode under submission bursts.
func (c *Consumer) Lag() int64 {
	return c.reader.Stats().Lag
}
