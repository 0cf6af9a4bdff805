package domain

import (
	"time"

	"github.com/google/uuid"
)

// Answer — записанный ответ на шаг в рамках сессии.
//
// Ответы только добавляются. Шаг может иметь несколько ответов
// (например, вопрос с множественным выбором); Position задаёт их порядок.
type Answer struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// SessionID — сессия.
	SessionID uuid.UUID `json:"session_id"`

	// StepID — шаг, на который дан ответ.
	StepID string `json:"step_id"`

	// Value — значение ответа.
	Value AnswerValue `json:"value"`

	// Position — порядковый номер ответа внутри сессии.
	Position int `json:"position"`

	// RecordedAt — время записи.
	RecordedAt time.Time `json:"recorded_at"`
}

// AuditEntry — запись журнала событий сессии.
type AuditEntry struct {
	// ID — уникальный идентификатор записи (совпадает с ID сообщения).
	ID uuid.UUID `json:"id"`

	// SessionID — сессия.
	SessionID uuid.UUID `json:"session_id"`

	// Event — тип события ("session.started", "answer.recorded", ...).
	Event string `json:"event"`

	// StepID — шаг, к которому относится событие (если есть).
	StepID string `json:"step_id,omitempty"`

	// Payload — исходный payload события.
	Payload map[string]any `json:"payload,omitempty"`

	// CreatedAt — время события.
	CreatedAt time.Time `json:"created_at"`
}
