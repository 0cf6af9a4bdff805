package engine

import "github.com/shaiso/Pathway/internal/domain"

// Позиции-маркеры для навигации.
const (
	// Start — позиция "до первого шага" для NextStep.
	Start = ""

	// End — позиция "после последнего шага" для PreviousStep.
	End = "\x00end"
)

// Satisfaction — результат проверки условий шага.
type Satisfaction int

const (
	// NotApplicable — у шага нет условий.
	NotApplicable Satisfaction = iota

	// Satisfied — все условия выполнены.
	Satisfied

	// Unsatisfied — хотя бы одно условие не выполнено.
	Unsatisfied
)

// String возвращает имя результата.
func (s Satisfaction) String() string {
	switch s {
	case Satisfied:
		return "satisfied"
	case Unsatisfied:
		return "unsatisfied"
	default:
		return "not_applicable"
	}
}

// Visible возвращает true, если шаг с таким результатом показывается.
func (s Satisfaction) Visible() bool {
	return s != Unsatisfied
}

// Navigator вычисляет следующий и предыдущий видимый шаг OrderedTask.
//
// Navigator не хранит состояния: каждый вызов — чистая функция
// от (текущая позиция, снимок ResultStore). Поэтому его можно вызывать
// из нескольких горутин, пока снимок не изменяется.
type Navigator struct {
	task *domain.OrderedTask
}

// NewNavigator создаёт Navigator для task.
func NewNavigator(task *domain.OrderedTask) *Navigator {
	return &Navigator{task: task}
}

// Task возвращает task навигатора.
func (n *Navigator) Task() *domain.OrderedTask {
	return n.task
}

// NextStep возвращает следующий видимый шаг после current.
//
// current == Start означает "до первого шага". ok=false, если впереди
// видимых шагов нет (task пройден) или current неизвестен.
// Скрытые шаги пропускаются циклом, без рекурсии.
func (n *Navigator) NextStep(current string, store ResultStore) (*domain.ConditionalStep, bool) {
	i := -1
	if current != Start {
		idx, ok := n.task.Index(current)
		if !ok {
			return nil, false
		}
		i = idx
	}
	return n.walk(i, +1, store)
}

// PreviousStep возвращает предыдущий видимый шаг перед current.
//
// current == End означает "после последнего шага".
func (n *Navigator) PreviousStep(current string, store ResultStore) (*domain.ConditionalStep, bool) {
	i := n.task.Len()
	if current != End {
		idx, ok := n.task.Index(current)
		if !ok {
			return nil, false
		}
		i = idx
	}
	return n.walk(i, -1, store)
}

// walk идёт от позиции from в направлении dir до первого видимого шага.
// Число итераций ограничено длиной task.
func (n *Navigator) walk(from, dir int, store ResultStore) (*domain.ConditionalStep, bool) {
	store = storeOrEmpty(store)

	for i := from + dir; i >= 0 && i < n.task.Len(); i += dir {
		step := n.task.At(i)
		if IsSatisfied(step, store).Visible() {
			return step, true
		}
	}

	return nil, false
}

// IsSatisfied проверяет условия шага по записанным ответам.
//
// Условие выполнено, если среди ответов на QuestionID есть хотя бы один,
// равный Expected. Неотвеченный вопрос — условие не выполнено.
// Первое невыполненное условие прерывает проверку.
func IsSatisfied(step *domain.ConditionalStep, store ResultStore) Satisfaction {
	if len(step.Requirements) == 0 {
		return NotApplicable
	}

	store = storeOrEmpty(store)
	for _, req := range step.Requirements {
		if !containsAnswer(store.Answers(req.QuestionID), req.Expected) {
			return Unsatisfied
		}
	}

	return Satisfied
}

// IsSatisfied — то же, что пакетная IsSatisfied.
func (n *Navigator) IsSatisfied(step *domain.ConditionalStep, store ResultStore) Satisfaction {
	return IsSatisfied(step, store)
}

func containsAnswer(answers []domain.AnswerValue, expected domain.AnswerValue) bool {
	for _, a := range answers {
		if a.Equal(expected) {
			return true
		}
	}
	return false
}

// VisiblePath возвращает все шаги, видимые при проходе вперёд от начала.
func (n *Navigator) VisiblePath(store ResultStore) []*domain.ConditionalStep {
	var path []*domain.ConditionalStep

	current := Start
	for {
		step, ok := n.NextStep(current, store)
		if !ok {
			return path
		}
		path = append(path, step)
		current = step.ID
	}
}

// Progress возвращает позицию current среди видимых шагов (с 1) и их общее число.
// pos=0, если current сейчас не виден.
func (n *Navigator) Progress(current string, store ResultStore) (pos, total int) {
	path := n.VisiblePath(store)
	for i, step := range path {
		if step.ID == current {
			pos = i + 1
			break
		}
	}
	return pos, len(path)
}
