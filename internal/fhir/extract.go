package fhir

import (
	"fmt"

	"github.com/shaiso/Pathway/internal/domain"
)

// EnableWhenURL — URL extension с условием показа элемента.
//
// Каждая такая extension на item — одна запись условия с двумя
// sub-extensions: "#question" (valueString) и "#answer"
// (valueBoolean или valueCoding).
const EnableWhenURL = "http://hl7.org/fhir/StructureDefinition/questionnaire-enableWhen"

// Фрагменты URL sub-extensions записи enableWhen.
const (
	FragmentQuestion = "question"
	FragmentAnswer   = "answer"
)

// ExtractRequirements извлекает условия показа элемента.
//
// Возвращает ok=false, если у элемента нет ни одной extension enableWhen.
// Первая ошибка прерывает извлечение для всего элемента.
func ExtractRequirements(item Item) ([]domain.Requirement, bool, error) {
	entries := item.ExtensionsByURL(EnableWhenURL)
	if len(entries) == 0 {
		return nil, false, nil
	}

	reqs := make([]domain.Requirement, 0, len(entries))
	for _, entry := range entries {
		req, err := extractEntry(item.LinkID, entry)
		if err != nil {
			return nil, true, err
		}
		reqs = append(reqs, req)
	}

	return reqs, true, nil
}

// ExtractRequirementsLenient — вариант ExtractRequirements, который
// пропускает неверные записи и собирает их ошибки.
func ExtractRequirementsLenient(item Item) ([]domain.Requirement, []error) {
	var (
		reqs []domain.Requirement
		errs []error
	)

	for _, entry := range item.ExtensionsByURL(EnableWhenURL) {
		req, err := extractEntry(item.LinkID, entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reqs = append(reqs, req)
	}

	return reqs, errs
}

// extractEntry превращает одну запись enableWhen в Requirement.
func extractEntry(linkID string, entry Extension) (domain.Requirement, error) {
	question, answer := splitEntry(entry)

	if answer == nil {
		return domain.Requirement{}, newExtractionError(linkID,
			fmt.Sprintf("%s enableWhen has no #answer", linkID), ErrExtensionIncomplete)
	}

	expected, err := answerValue(linkID, *answer)
	if err != nil {
		return domain.Requirement{}, err
	}

	var questionID string
	if question != nil && question.Value != nil {
		questionID, _ = question.Value.Data().(string)
	}
	if questionID == "" {
		return domain.Requirement{}, newExtractionError(linkID,
			fmt.Sprintf("%s enableWhen has no #question identifier", linkID), ErrExtensionIncomplete)
	}

	return domain.Requirement{QuestionID: questionID, Expected: expected}, nil
}

// splitEntry находит в записи sub-extension вопроса и кандидата на ответ.
// Кандидат — первая sub-extension, которая не является "#question".
func splitEntry(entry Extension) (question, answer *Extension) {
	for i := range entry.Extensions {
		sub := &entry.Extensions[i]
		if sub.Fragment() == FragmentQuestion {
			if question == nil {
				question = sub
			}
			continue
		}
		if answer == nil {
			answer = sub
		}
	}
	return question, answer
}

// answerValue приводит payload sub-extension "#answer" к AnswerValue.
func answerValue(linkID string, ext Extension) (domain.AnswerValue, error) {
	if ext.Fragment() != FragmentAnswer {
		return domain.AnswerValue{}, newExtractionError(linkID,
			fmt.Sprintf("%s extension %q cannot be used as enableWhen answer", linkID, ext.URL),
			ErrExtensionInvalidInContext)
	}

	switch ext.ValueKey {
	case "valueBoolean":
		if v, ok := ext.Value.Data().(bool); ok {
			return domain.BooleanAnswer(v), nil
		}
		return domain.AnswerValue{}, newExtractionError(linkID,
			fmt.Sprintf("%s valueBoolean is not a boolean", linkID), ErrUnsupportedAnswerType)

	case "valueCoding":
		code := stringAt(ext.Value, "code")
		if code == "" {
			return domain.AnswerValue{}, newExtractionError(linkID,
				fmt.Sprintf("%s coded answer missing code", linkID), ErrExtensionIncomplete)
		}
		return domain.CodedAnswer(stringAt(ext.Value, "system"), code), nil

	case "":
		return domain.AnswerValue{}, newExtractionError(linkID,
			fmt.Sprintf("%s enableWhen answer has no value", linkID), ErrUnsupportedAnswerType)

	default:
		return domain.AnswerValue{}, newExtractionError(linkID,
			fmt.Sprintf("%s answer type %s is not supported", linkID, ext.ValueKey), ErrUnsupportedAnswerType)
	}
}
