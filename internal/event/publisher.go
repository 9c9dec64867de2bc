package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"game-service/internal/utils"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher hands committed game events to whoever delivers notifications.
type Publisher interface {
	PublishEvent(ctx context.Context, event GameEvent) error
}

// NewGameEvent stamps an event with an id and time.
func NewGameEvent(eventType GameEventType, userID string, at time.Time, additional map[string]any) GameEvent {
	return GameEvent{
		ID:         uuid.NewString(),
		EventType:  eventType,
		UserID:     userID,
		OccurredAt: at,
		Additional: additional,
	}
}

// RabbitMQPublisher publishes game events to the game_events queue
type RabbitMQPublisher struct {
	conn              *RabbitMQConnection
	mu                sync.Mutex
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

func NewRabbitMQPublisher(conn *RabbitMQConnection) (*RabbitMQPublisher, error) {
	_, err := conn.Channel.QueueDeclare(
		GameQueue, // queue name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RabbitMQPublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}, nil
}

func (p *RabbitMQPublisher) PublishEvent(ctx context.Context, event GameEvent) error {
	body, err := utils.SerializeModel(event)
	if err != nil {
		p.recordFailure()
		return fmt.Errorf("failed to marshal game event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",        // exchange
		GameQueue, // routing key (queue name)
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.ID,
			Body:         body,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish game event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("Game event published",
		"queue", GameQueue,
		"event_type", event.EventType,
		"user_id", event.UserID,
	)

	return nil
}

func (p *RabbitMQPublisher) recordFailure() {
	p.mu.Lock()
	p.messagesFailed++
	p.mu.Unlock()
}

// HealthCheck returns the health status of the publisher
func (p *RabbitMQPublisher) HealthCheck() PublisherHealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	isHealthy := p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()

	return PublisherHealthStatus{
		IsHealthy:         isHealthy,
		MessagesPublished: p.messagesPublished,
		MessagesFailed:    p.messagesFailed,
		LastPublishTime:   p.lastPublishTime,
		Queue:             GameQueue,
	}
}

// PublisherHealthStatus represents the health status of the publisher
type PublisherHealthStatus struct {
	IsHealthy         bool      `json:"is_healthy"`
	MessagesPublished int64     `json:"messages_published"`
	MessagesFailed    int64     `json:"messages_failed"`
	LastPublishTime   time.Time `json:"last_publish_time"`
	Queue             string    `json:"queue"`
}

// NoopPublisher drops events; used when the broker is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, event GameEvent) error {
	slog.Debug("game event dropped, broker disabled", "event_type", event.EventType, "user_id", event.UserID)
	return nil
}

// MemoryPublisher keeps events in memory for local mode inspection and tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []GameEvent
}

func (m *MemoryPublisher) PublishEvent(ctx context.Context, event GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryPublisher) Events() []GameEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GameEvent(nil), m.events...)
}

// OfType returns the recorded events of one type.
func (m *MemoryPublisher) OfType(eventType GameEventType) []GameEvent {
	var out []GameEvent
	for _, e := range m.Events() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
