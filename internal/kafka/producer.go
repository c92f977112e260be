package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-ordering/internal/config"
	"ms-ordering/internal/models"
)

// Producer streams order lifecycle events to Kafka so external consumers
// (reporting, notifications) get a durable feed alongside the SSE fan-out.
type Producer struct {
	Writer *kafka.Writer
	Topics config.TopicConfig
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

func (p *Producer) PublishOrderCreated(order models.OrderView) error {
	return p.publish(p.Topics.OrderCreated, order.OrderID, order)
}

func (p *Producer) PublishOrderUpdated(order models.OrderView) error {
	return p.publish(p.Topics.OrderUpdated, order.OrderID, order)
}

func (p *Producer) PublishOrdersDeleted(event models.OrdersDeletedEvent) error {
	return p.publish(p.Topics.OrderDeleted, string(event.Status), event)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopProducer satisfies the publisher interface when Kafka is disabled.
type NopProducer struct{}

func (NopProducer) PublishOrderCreated(models.OrderView) error           { return nil }
func (NopProducer) PublishOrderUpdated(models.OrderView) error           { return nil }
func (NopProducer) PublishOrdersDeleted(models.OrdersDeletedEvent) error { return nil }
