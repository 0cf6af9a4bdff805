package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session — прохождение версии опросника одним респондентом.
//
// Session хранит только позицию (CurrentStep). Ответы живут отдельно
// (Answer) и образуют ResultStore сессии.
type Session struct {
	// ID — уникальный идентификатор сессии.
	ID uuid.UUID `json:"id"`

	// QuestionnaireID — опросник.
	QuestionnaireID uuid.UUID `json:"questionnaire_id"`

	// Version — версия опросника.
	Version int `json:"version"`

	// Status — текущий статус.
	Status SessionStatus `json:"status"`

	// CurrentStep — ID шага, который сейчас показан.
	// Пустая строка — сессия ещё не дошла до первого шага.
	CurrentStep string `json:"current_step,omitempty"`

	// StartedAt — время начала.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (COMPLETED или ABANDONED).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// IsFinished возвращает true, если сессия завершена.
func (s *Session) IsFinished() bool {
	return s.Status.IsTerminal()
}

// Duration возвращает продолжительность прохождения.
// Возвращает 0, если сессия ещё не завершена.
func (s *Session) Duration() time.Duration {
	if s.StartedAt == nil || s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(*s.StartedAt)
}

// MarkStarted переводит сессию в IN_PROGRESS.
func (s *Session) MarkStarted() {
	now := time.Now()
	s.Status = SessionStatusInProgress
	s.StartedAt = &now
}

// MoveTo переводит сессию на шаг stepID.
func (s *Session) MoveTo(stepID string) {
	s.CurrentStep = stepID
}

// MarkCompleted завершает сессию: шагов впереди не осталось.
func (s *Session) MarkCompleted() {
	now := time.Now()
	s.Status = SessionStatusCompleted
	s.CurrentStep = ""
	s.FinishedAt = &now
}

// MarkAbandoned помечает сессию брошенной.
func (s *Session) MarkAbandoned() {
	now := time.Now()
	s.Status = SessionStatusAbandoned
	s.FinishedAt = &now
}
