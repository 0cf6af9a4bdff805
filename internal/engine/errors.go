package engine

import "errors"

// Ошибки анализа условий task.
var (
	// ErrUnknownQuestion — условие ссылается на несуществующий шаг.
	ErrUnknownQuestion = errors.New("requirement references unknown step")

	// ErrSelfRequirement — шаг зависит от собственного ответа.
	ErrSelfRequirement = errors.New("step requires its own answer")

	// ErrForwardRequirement — вопрос-условие стоит после зависимого шага,
	// поэтому при проходе вперёд шаг не может быть показан.
	ErrForwardRequirement = errors.New("requirement references a later step")

	// ErrCyclicRequirement — циклическая зависимость между условиями.
	ErrCyclicRequirement = errors.New("cyclic requirement detected")
)

// Ошибки рендеринга текста шага.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")
)

// ValidationError — находка анализа с контекстом.
type ValidationError struct {
	StepID  string // ID шага, где найдена проблема
	Message string // описание
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StepID != "" {
		return "step " + e.StepID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку анализа.
func NewValidationError(stepID, message string, err error) *ValidationError {
	return &ValidationError{
		StepID:  stepID,
		Message: message,
		Err:     err,
	}
}
