package kafka

import (
	"testing"
	"time"

	"github.com/jmehdipour/sms-panel/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestNewDispatchConsumerDefaults(t *testing.T) {
	c := NewDispatchConsumer(config.KafkaConfig{
		Brokers:       []string{"127.0.0.1:9092"},
		DispatchTopic: "campaign.dispatch",
	})
	defer c.Close()

	rc := c.r.Config()
	assert.Equal(t, defaultGroupID, c.Group())
	assert.Equal(t, "campaign.dispatch", rc.Topic)
	assert.Equal(t, 1<<10, rc.MinBytes)
	assert.Equal(t, 10<<20, rc.MaxBytes)
	assert.Equal(t, time.Second, rc.CommitInterval)
}

func TestNewDispatchConsumerOverrides(t *testing.T) {
	c := NewDispatchConsumer(config.KafkaConfig{
		Brokers:        []string{"127.0.0.1:9092"},
		GroupID:        "g1",
		DispatchTopic:  "t1",
		MinBytes:       10,
		MaxBytes:       100,
		CommitInterval: 250,
	})
	defer c.Close()

	rc := c.r.Config()
	assert.Equal(t, "g1", c.Group())
	assert.Equal(t, 10, rc.MinBytes)
	assert.Equal(t, 100, rc.MaxBytes)
	assert.Equal(t, 250*time.Millisecond, rc.CommitInterval)
}

func TestNewDispatchProducer(t *testing.T) {
	p := NewDispatchProducer(config.KafkaConfig{Brokers: []string{"127.0.0.1:9092"}, DispatchTopic: "t1"})
	defer p.Close()

	assert.Equal(t, "t1", p.w.Topic)
	assert.IsType(t, &kafka.Hash{}, p.w.Balancer)
}
