package domain

// SessionStatus — статус прохождения опросника.
//
// Жизненный цикл:
//
//	IN_PROGRESS → COMPLETED
//	            ↘ ABANDONED
type SessionStatus string

const (
	// SessionStatusInProgress — сессия идёт, респондент отвечает на вопросы.
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"

	// SessionStatusCompleted — пройден последний видимый шаг.
	SessionStatusCompleted SessionStatus = "COMPLETED"

	// SessionStatusAbandoned — сессия брошена.
	SessionStatusAbandoned SessionStatus = "ABANDONED"
)

// IsTerminal возвращает true, если статус финальный.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusAbandoned:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление SessionStatus.
func (s SessionStatus) String() string {
	return string(s)
}

// ParseSessionStatus парсит строку в SessionStatus.
// Неизвестные значения трактуются как IN_PROGRESS.
func ParseSessionStatus(s string) SessionStatus {
	switch s {
	case "COMPLETED":
		return SessionStatusCompleted
	case "ABANDONED":
		return SessionStatusAbandoned
	default:
		return SessionStatusInProgress
	}
}
