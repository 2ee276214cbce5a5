package kafka

import (
	"context"
	"time"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/segmentio/kafka-go"
)

const defaultGroupID = "smspanel-dispatch"

type Message = kafka.Message

// Consumer reads dispatch requests as a member of a consumer group. Offsets
// are committed explicitly once a request has been handled.
type Consumer struct {
	r     *kafka.Reader
	group string
}

// NewDispatchConsumer joins cfg.GroupID on the dispatch topic. Unset sizes
// fall back to 1KB/10MB and the commit interval to one second.
func NewDispatchConsumer(cfg config.KafkaConfig) *Consumer {
	group := cfg.GroupID
	if group == "" {
		group = defaultGroupID
	}
	rc := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        group,
		Topic:          cfg.DispatchTopic,
		MinBytes:       1 << 10,
		MaxBytes:       10 << 20,
		CommitInterval: time.Second,
		MaxWait:        50 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
	}
	if cfg.MinBytes > 0 {
		rc.MinBytes = cfg.MinBytes
	}
	if cfg.MaxBytes > 0 {
		rc.MaxBytes = cfg.MaxBytes
	}
	if cfg.CommitInterval > 0 {
		rc.CommitInterval = time.Duration(cfg.CommitInterval) * time.Millisecond
	}
	return &Consumer{r: kafka.NewReader(rc), group: group}
}

func (c *Consumer) Group() string { return c.group }

func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	return c.r.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, m Message) error {
	return c.r.CommitMessages(ctx, m)
}

func (c *Consumer) Close() error { return c.r.Close() }
