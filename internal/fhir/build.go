package fhir

import (
	"fmt"
	"log/slog"

	"github.com/shaiso/Pathway/internal/domain"
)

// BuildResult — результат сборки task из опросника.
type BuildResult struct {
	// Task — линейная последовательность шагов.
	Task *domain.OrderedTask

	// Skipped — ошибки извлечения условий. Соответствующие шаги
	// собраны как безусловные.
	Skipped []error
}

// BuildTask собирает OrderedTask из опросника.
//
// Items обходятся в глубину в порядке документа. Группы (type=group)
// не становятся шагами: их условия добавляются к условиям вложенных items.
// Ошибка извлечения условий элемента логируется, и шаг становится
// безусловным — сборка всего task при этом не прерывается.
func BuildTask(q *Questionnaire, logger *slog.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b := &taskBuilder{logger: logger}
	for _, item := range q.Items {
		b.visit(item, nil)
	}

	task, err := domain.NewOrderedTask(b.steps)
	if err != nil {
		return nil, fmt.Errorf("build task %s: %w", q.Name, err)
	}

	return &BuildResult{Task: task, Skipped: b.skipped}, nil
}

type taskBuilder struct {
	logger  *slog.Logger
	steps   []domain.ConditionalStep
	skipped []error
}

// visit добавляет item (или содержимое группы) в последовательность шагов.
// inherited — условия родительских групп.
func (b *taskBuilder) visit(item Item, inherited []domain.Requirement) {
	reqs := b.requirements(item)
	combined := make([]domain.Requirement, 0, len(inherited)+len(reqs))
	combined = append(combined, inherited...)
	combined = append(combined, reqs...)

	if item.Type == ItemTypeGroup {
		for _, child := range item.Items {
			b.visit(child, combined)
		}
		return
	}

	b.steps = append(b.steps, domain.ConditionalStep{
		ID:           item.LinkID,
		Text:         item.Text,
		Requirements: combined,
	})

	// Вложенные вопросы (item внутри вопроса) идут сразу за родителем
	for _, child := range item.Items {
		b.visit(child, combined)
	}
}

func (b *taskBuilder) requirements(item Item) []domain.Requirement {
	reqs, ok, err := ExtractRequirements(item)
	if err != nil {
		b.logger.Warn("enableWhen extraction failed, step will be unconditional",
			"link_id", item.LinkID,
			"error", err,
		)
		b.skipped = append(b.skipped, err)
		return nil
	}
	if !ok {
		return nil
	}
	return reqs
}
