package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes keyed JSON messages to a single topic.
type Producer struct {
	writer *kafka.Writer
}

type options struct {
	batchTimeout time.Duration
	requiredAcks kafka.RequiredAcks
}

type Option func(*options)

func WithBatchTimeout(d time.Duration) Option {
	return func(o *options) { o.batchTimeout = d }
}

func WithRequiredAcks(acks kafka.RequiredAcks) Option {
	return func(o *options) { o.requiredAcks = acks }
}

func NewProducer(brokers []string, topic string, opts ...Option) *Producer {
	o := &options{
		batchTimeout: 100 * time.Millisecond,
		requiredAcks: kafka.RequireOne,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: o.batchTimeout,
			RequiredAcks: o.requiredAcks,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}

func (p *Producer) Close() error { return p.writer.Close() }
