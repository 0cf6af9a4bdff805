package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Questionnaire — опросник.
//
// Один опросник может иметь множество версий (QuestionnaireVersion).
// Каждая сессия (Session) проходит конкретную версию.
type Questionnaire struct {
	// ID — уникальный идентификатор опросника.
	ID uuid.UUID `json:"id"`

	// Name — уникальное машинное имя (например, "phq-9", "intake").
	Name string `json:"name"`

	// Title — заголовок для пользователя.
	Title string `json:"title,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// QuestionnaireVersion — версия опросника с исходным FHIR-определением.
//
// Definition хранится как есть (JSON ресурса Questionnaire); шаги
// и условия показа извлекаются из него при загрузке.
type QuestionnaireVersion struct {
	// QuestionnaireID — ссылка на опросник.
	QuestionnaireID uuid.UUID `json:"questionnaire_id"`

	// Version — номер версии (1, 2, 3, ...).
	Version int `json:"version"`

	// Definition — JSON ресурса Questionnaire.
	Definition json.RawMessage `json:"definition"`

	// CreatedAt — время создания версии.
	CreatedAt time.Time `json:"created_at"`
}
