// pkg/kafka/user_producer.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"user-service/internal/usecase"
)

const DefaultTopicUserEvents = "user.events"

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_events_published_total",
			Help: "Total number of user change events published to the bus",
		},
		[]string{"event_type"},
	)

	eventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "user_event_publish_errors_total",
			Help: "Total number of failed user change event publishes",
		},
	)
)

type UserEventKafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewUserEventProducer(brokers []string, topic string, logger *zap.Logger) (*UserEventKafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll // Wait for all replicas
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	if topic == "" {
		topic = DefaultTopicUserEvents
	}

	return &UserEventKafkaProducer{producer: producer, topic: topic, logger: logger}, nil
}

// NewUserEventProducerFrom wraps an existing sarama producer; used by tests.
func NewUserEventProducerFrom(producer sarama.SyncProducer, topic string, logger *zap.Logger) *UserEventKafkaProducer {
	return &UserEventKafkaProducer{producer: producer, topic: topic, logger: logger}
}

type sendResult struct {
	partition int32
	offset    int64
	err       error
}

// PublishUserEvent sends one change event to the bus, keyed by user id so a
// single account's events land on one partition. No ordering guarantee is
// made to consumers across accounts or across mutations. SendMessage itself
// takes no context, so the send runs in a goroutine and the caller's
// deadline is enforced here; an abandoned send finishes (or fails) in the
// background on sarama's own timeouts.
func (p *UserEventKafkaProducer) PublishUserEvent(ctx context.Context, event *usecase.UserEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		eventPublishErrors.Inc()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Payload.UserID),
		Value: sarama.ByteEncoder(data),
	}

	resCh := make(chan sendResult, 1)
	go func() {
		partition, offset, err := p.producer.SendMessage(kafkaMsg)
		resCh <- sendResult{partition: partition, offset: offset, err: err}
	}()

	var res sendResult
	select {
	case res = <-resCh:
	case <-ctx.Done():
		eventPublishErrors.Inc()
		return fmt.Errorf("publish abandoned: %w", ctx.Err())
	}

	partition, offset := res.partition, res.offset
	if res.err != nil {
		eventPublishErrors.Inc()
		return fmt.Errorf("failed to send event: %w", res.err)
	}

	eventsPublished.WithLabelValues(event.EventType).Inc()
	p.logger.Debug("event published",
		zap.String("event_type", event.EventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *UserEventKafkaProducer) Close() error {
	return p.producer.Close()
}
