package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeSessions Exchange = "pathway.sessions"
	ExchangeDLQ      Exchange = "pathway.dlq"
)

// Queues — имена очередей.
const (
	QueueSessionsAudit Queue = "pathway.sessions.audit"
	QueueDLQAudit      Queue = "pathway.dlq.audit"
)

// Routing keys. События сессий публикуются с ключом, равным типу сообщения.
const (
	RoutingKeySessionStarted   RoutingKey = RoutingKey(MessageTypeSessionStarted)
	RoutingKeyAnswerRecorded   RoutingKey = RoutingKey(MessageTypeAnswerRecorded)
	RoutingKeySessionMoved     RoutingKey = RoutingKey(MessageTypeSessionMoved)
	RoutingKeySessionCompleted RoutingKey = RoutingKey(MessageTypeSessionCompleted)
	RoutingKeySessionAbandoned RoutingKey = RoutingKey(MessageTypeSessionAbandoned)

	// RoutingKeyAllSessions — все события сессий (topic pattern).
	RoutingKeyAllSessions RoutingKey = "#"

	RoutingKeyDLQAudit RoutingKey = "audit"
)

// SetupTopology объявляет exchanges, queues и bindings.
// Операция идемпотентна: повторный вызов с теми же параметрами ничего не меняет.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeSessions, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// Сообщения, которые audit consumer не смог записать, уходят в DLQ
		{QueueSessionsAudit, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQAudit),
		}},
		{QueueDLQAudit, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueSessionsAudit, RoutingKeyAllSessions, ExchangeSessions},
		{QueueDLQAudit, RoutingKeyDLQAudit, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Pathway RabbitMQ Topology:

    pathway.sessions (topic)
    └── pathway.sessions.audit [routing: #]
            Consumer: pathway-audit
            DLQ: pathway.dlq.audit

    pathway.dlq (direct)
    └── pathway.dlq.audit [routing: audit]
            Manual processing
  `
}
