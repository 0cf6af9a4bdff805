package session

import "errors"

// Ошибки сервиса сессий.
var (
	// ErrSessionFinished — сессия уже завершена или брошена.
	ErrSessionFinished = errors.New("session is finished")

	// ErrUnknownStep — шага нет в опроснике сессии.
	ErrUnknownStep = errors.New("step not found in questionnaire")

	// ErrStepHidden — условия шага не выполнены, ответ на него не принимается.
	ErrStepHidden = errors.New("step is hidden by its requirements")

	// ErrNoValues — в ответе нет ни одного значения.
	ErrNoValues = errors.New("answer has no values")

	// ErrInvalidValue — значение ответа не является AnswerValue.
	ErrInvalidValue = errors.New("invalid answer value")

	// ErrNoPreviousStep — перед текущим шагом нет видимых шагов.
	ErrNoPreviousStep = errors.New("no previous visible step")

	// ErrInvalidDefinition — определение опросника не удалось разобрать.
	ErrInvalidDefinition = errors.New("invalid questionnaire definition")
)
