package fhir

import "errors"

// Ошибки извлечения условий enableWhen.
var (
	// ErrExtensionInvalidInContext — sub-extension использован в контексте,
	// который его тег не поддерживает (структурно неверная запись).
	ErrExtensionInvalidInContext = errors.New("extension invalid in context")

	// ErrExtensionIncomplete — нет обязательной части записи (#question или #answer).
	ErrExtensionIncomplete = errors.New("extension incomplete")

	// ErrUnsupportedAnswerType — тип ответа не приводится к domain.AnswerValue.
	ErrUnsupportedAnswerType = errors.New("unsupported answer type")
)

// Ошибки разбора ресурса.
var (
	// ErrNotQuestionnaire — resourceType не Questionnaire.
	ErrNotQuestionnaire = errors.New("resource is not a Questionnaire")

	// ErrNoItems — опросник без вопросов.
	ErrNoItems = errors.New("questionnaire has no items")
)

// ExtractionError — ошибка извлечения с контекстом элемента.
type ExtractionError struct {
	LinkID  string // linkId элемента, для которого извлекались условия
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ExtractionError) Error() string {
	return e.Err.Error() + ": " + e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func newExtractionError(linkID, message string, err error) *ExtractionError {
	return &ExtractionError{
		LinkID:  linkID,
		Message: message,
		Err:     err,
	}
}
