package domain

// Requirement — одно условие показа шага.
//
// Шаг с идентификатором QuestionID должен был дать ответ, равный Expected.
type Requirement struct {
	// QuestionID — идентификатор шага-вопроса, от ответа на который зависит показ.
	QuestionID string `json:"question"`

	// Expected — ответ, при котором условие выполнено.
	Expected AnswerValue `json:"answer"`
}

// ConditionalStep — шаг линейной последовательности, возможно с условиями показа.
//
// Requirements проверяются как логическое AND; порядок сохраняется только
// для детерминированности. Пустой список означает безусловный шаг.
type ConditionalStep struct {
	// ID — уникальный идентификатор шага в рамках task (linkId вопроса).
	ID string `json:"id"`

	// Text — текст шага. Может содержать Go template со ссылками на ответы.
	Text string `json:"text,omitempty"`

	// Requirements — условия показа шага.
	Requirements []Requirement `json:"requirements,omitempty"`
}

// IsConditional возвращает true, если у шага есть условия показа.
func (s *ConditionalStep) IsConditional() bool {
	return len(s.Requirements) > 0
}

// DependsOn возвращает идентификаторы вопросов, от которых зависит шаг,
// без повторов, в порядке первого упоминания.
func (s *ConditionalStep) DependsOn() []string {
	seen := make(map[string]bool, len(s.Requirements))
	ids := make([]string, 0, len(s.Requirements))
	for _, req := range s.Requirements {
		if seen[req.QuestionID] {
			continue
		}
		seen[req.QuestionID] = true
		ids = append(ids, req.QuestionID)
	}
	return ids
}
