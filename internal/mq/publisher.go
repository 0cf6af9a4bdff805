package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы событий сессии.
const (
	MessageTypeSessionStarted   MessageType = "session.started"
	MessageTypeAnswerRecorded   MessageType = "answer.recorded"
	MessageTypeSessionMoved     MessageType = "session.moved"
	MessageTypeSessionCompleted MessageType = "session.completed"
	MessageTypeSessionAbandoned MessageType = "session.abandoned"
)

// Publisher публикует события сессий в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// SessionPayload — payload событий session.started, session.completed
// и session.abandoned.
type SessionPayload struct {
	SessionID       uuid.UUID `json:"session_id"`
	QuestionnaireID uuid.UUID `json:"questionnaire_id"`
	Version         int       `json:"version"`
	StepID          string    `json:"step_id,omitempty"`
}

// AnswerRecordedPayload — payload события answer.recorded.
type AnswerRecordedPayload struct {
	SessionID uuid.UUID         `json:"session_id"`
	StepID    string            `json:"step_id"`
	Values    []json.RawMessage `json:"values"`

	// Affected — шаги, видимость которых зависит от этого ответа.
	Affected []string `json:"affected,omitempty"`
}

// SessionMovedPayload — payload события session.moved.
type SessionMovedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Direction string    `json:"direction"` // next или previous
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishEvent публикует событие сессии. Routing key совпадает с типом.
func (p *Publisher) PublishEvent(ctx context.Context, msgType MessageType, payload any) error {
	return p.Publish(ctx, ExchangeSessions, RoutingKey(msgType), NewMessage(msgType, payload))
}

// PublishSessionStarted публикует событие о начале сессии.
func (p *Publisher) PublishSessionStarted(ctx context.Context, payload SessionPayload) error {
	return p.PublishEvent(ctx, MessageTypeSessionStarted, payload)
}

// PublishAnswerRecorded публикует событие о записанном ответе.
func (p *Publisher) PublishAnswerRecorded(ctx context.Context, payload AnswerRecordedPayload) error {
	return p.PublishEvent(ctx, MessageTypeAnswerRecorded, payload)
}

// PublishSessionMoved публикует событие о переходе на другой шаг.
func (p *Publisher) PublishSessionMoved(ctx context.Context, payload SessionMovedPayload) error {
	return p.PublishEvent(ctx, MessageTypeSessionMoved, payload)
}

// PublishSessionCompleted публикует событие о завершении сессии.
func (p *Publisher) PublishSessionCompleted(ctx context.Context, payload SessionPayload) error {
	return p.PublishEvent(ctx, MessageTypeSessionCompleted, payload)
}

// PublishSessionAbandoned публикует событие о брошенной сессии.
func (p *Publisher) PublishSessionAbandoned(ctx context.Context, payload SessionPayload) error {
	return p.PublishEvent(ctx, MessageTypeSessionAbandoned, payload)
}

// NewMessage создаёт сообщение с новым ID и текущим временем.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
