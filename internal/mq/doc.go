// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий сессий
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - session.started    — сессия начата
//   - answer.recorded    — записан ответ на шаг
//   - session.moved      — сессия перешла на другой шаг
//   - session.completed  — пройден последний видимый шаг
//   - session.abandoned  — сессия брошена
//
// Exchanges:
//   - pathway.sessions   — события сессий (topic)
//   - pathway.dlq        — dead letter queue
package mq
