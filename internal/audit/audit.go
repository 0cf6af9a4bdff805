// Package audit записывает события сессий в журнал.
//
// Consumer читает очередь pathway.sessions.audit и сохраняет каждое
// событие как AuditEntry. ID записи совпадает с ID сообщения, поэтому
// повторная доставка не создаёт дубликатов.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/mq"
	"github.com/shaiso/Pathway/internal/telemetry"
)

// Store — хранилище журнала.
type Store interface {
	Insert(ctx context.Context, e *domain.AuditEntry) error
}

// Consumer — потребитель событий сессий.
type Consumer struct {
	store    Store
	consumer *mq.Consumer
	logger   *slog.Logger
}

// Config — конфигурация Consumer.
type Config struct {
	Store    Store
	Conn     *mq.Connection
	Prefetch int
	Logger   *slog.Logger
}

// NewConsumer создаёт Consumer.
func NewConsumer(cfg Config) *Consumer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 20
	}

	c := &Consumer{store: cfg.Store, logger: logger}
	c.consumer = mq.NewConsumer(cfg.Conn, logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueSessionsAudit),
		Handler:  c.Handle,
		Prefetch: prefetch,
	})
	return c
}

// Start запускает потребление. Блокируется до отмены ctx.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("audit consumer starting", "queue", mq.QueueSessionsAudit)
	return c.consumer.Start(ctx)
}

// Stop останавливает потребление.
func (c *Consumer) Stop() {
	c.consumer.Stop()
}

// Handle записывает одно событие.
func (c *Consumer) Handle(ctx context.Context, delivery *mq.Delivery) error {
	entry, err := EntryFromMessage(&delivery.Message)
	if err != nil {
		return err
	}

	if err := c.store.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	telemetry.AuditEvents.WithLabelValues(entry.Event).Inc()
	c.logger.Debug("audit entry written",
		"session_id", entry.SessionID,
		"event", entry.Event,
		"step_id", entry.StepID,
	)
	return nil
}

// eventFields — общие поля payload событий сессии.
type eventFields struct {
	SessionID uuid.UUID `json:"session_id"`
	StepID    string    `json:"step_id"`
	To        string    `json:"to"`
}

// EntryFromMessage превращает сообщение в запись журнала.
func EntryFromMessage(msg *mq.Message) (*domain.AuditEntry, error) {
	id, err := uuid.Parse(msg.ID)
	if err != nil {
		return nil, fmt.Errorf("message id %q: %w", msg.ID, err)
	}

	fields, err := mq.ParsePayload[eventFields](msg)
	if err != nil {
		return nil, err
	}
	if fields.SessionID == uuid.Nil {
		return nil, fmt.Errorf("message %s: payload has no session_id", msg.ID)
	}

	payload, err := mq.ParsePayload[map[string]any](msg)
	if err != nil {
		return nil, err
	}

	stepID := fields.StepID
	if msg.Type == mq.MessageTypeSessionMoved {
		stepID = fields.To
	}

	createdAt := msg.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &domain.AuditEntry{
		ID:        id,
		SessionID: fields.SessionID,
		Event:     string(msg.Type),
		StepID:    stepID,
		Payload:   payload,
		CreatedAt: createdAt,
	}, nil
}
