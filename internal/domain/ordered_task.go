package domain

import (
	"errors"
	"fmt"
)

// Ошибки построения OrderedTask.
var (
	// ErrEmptyTask — task не содержит шагов.
	ErrEmptyTask = errors.New("task has no steps")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")
)

// OrderedTask — линейная последовательность шагов, по которой ходит навигатор.
//
// Последовательность фиксируется при создании и не меняется
// в течение всей сессии.
type OrderedTask struct {
	steps []ConditionalStep
	index map[string]int
}

// NewOrderedTask создаёт OrderedTask из шагов.
// Шаги копируются; ID должны быть непустыми и уникальными.
func NewOrderedTask(steps []ConditionalStep) (*OrderedTask, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyTask
	}

	t := &OrderedTask{
		steps: make([]ConditionalStep, len(steps)),
		index: make(map[string]int, len(steps)),
	}

	for i, step := range steps {
		if step.ID == "" {
			return nil, fmt.Errorf("step %d: %w", i, ErrEmptyStepID)
		}
		if _, exists := t.index[step.ID]; exists {
			return nil, fmt.Errorf("step %s: %w", step.ID, ErrDuplicateStepID)
		}

		// Копируем requirements, чтобы вызывающий не мог изменить task снаружи
		step.Requirements = append([]Requirement(nil), step.Requirements...)
		t.steps[i] = step
		t.index[step.ID] = i
	}

	return t, nil
}

// Len возвращает количество шагов.
func (t *OrderedTask) Len() int {
	return len(t.steps)
}

// At возвращает шаг по позиции.
// Возвращённый шаг принадлежит task и не должен изменяться.
func (t *OrderedTask) At(i int) *ConditionalStep {
	if i < 0 || i >= len(t.steps) {
		return nil
	}
	return &t.steps[i]
}

// Index возвращает позицию шага. ok=false, если шага нет.
func (t *OrderedTask) Index(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Step возвращает шаг по ID или nil.
func (t *OrderedTask) Step(id string) *ConditionalStep {
	i, ok := t.index[id]
	if !ok {
		return nil
	}
	return &t.steps[i]
}

// Steps возвращает копию последовательности шагов.
func (t *OrderedTask) Steps() []ConditionalStep {
	out := make([]ConditionalStep, len(t.steps))
	copy(out, t.steps)
	return out
}
