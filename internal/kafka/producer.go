package kafka

import (
	"context"
	"time"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/segmentio/kafka-go"
)

// Producer publishes dispatch requests. It is a thin wrapper around a
// kafka-go Writer.
type Producer struct {
	w *kafka.Writer
}

// NewDispatchProducer writes to cfg.DispatchTopic. Keys are hashed onto
// partitions and every write waits for all in-sync replicas.
func NewDispatchProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.DispatchTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return &Producer{w: w}
}

// Publish writes one message. Messages with the same key land on the same partition.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	return p.w.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}

func (p *Producer) Close() error { return p.w.Close() }
