package engine

import "github.com/shaiso/Pathway/internal/domain"

// ResultStore — источник записанных ответов, только для чтения.
//
// Навигатор никогда не изменяет ResultStore. Владелец хранилища
// (слой представления, сессия) добавляет ответы снаружи.
type ResultStore interface {
	// Answers возвращает ответы на шаг в порядке записи.
	// Для шага без ответов возвращает пустой слайс.
	Answers(stepID string) []domain.AnswerValue
}

// MapStore — снимок ответов в памяти (stepID → ответы).
type MapStore map[string][]domain.AnswerValue

// Answers реализует ResultStore.
func (m MapStore) Answers(stepID string) []domain.AnswerValue {
	return m[stepID]
}

// Record добавляет ответы на шаг.
func (m MapStore) Record(stepID string, values ...domain.AnswerValue) {
	m[stepID] = append(m[stepID], values...)
}

// emptyStore — ResultStore без ответов, подставляется вместо nil.
type emptyStore struct{}

func (emptyStore) Answers(string) []domain.AnswerValue { return nil }

func storeOrEmpty(store ResultStore) ResultStore {
	if store == nil {
		return emptyStore{}
	}
	return store
}
