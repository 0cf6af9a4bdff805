package session

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/engine"
	"github.com/shaiso/Pathway/internal/fhir"
	"github.com/shaiso/Pathway/internal/telemetry"
)

// Compiled — версия опросника, подготовленная для навигации.
//
// Compiled не изменяется после создания и может использоваться
// несколькими сессиями одновременно.
type Compiled struct {
	// Task — линейная последовательность шагов.
	Task *domain.OrderedTask

	// Navigator — навигатор по Task.
	Navigator *engine.Navigator

	// Graph — граф условий. nil, если условия содержат цикл
	// или ссылки на неизвестные шаги (см. Findings).
	Graph *engine.Graph

	// Findings — результаты анализа условий.
	Findings []*engine.ValidationError

	// Skipped — ошибки извлечения условий; такие шаги безусловные.
	Skipped []error
}

// Affected возвращает шаги, видимость которых зависит от ответа на stepID.
func (c *Compiled) Affected(stepID string) []string {
	if c.Graph == nil {
		return nil
	}
	return c.Graph.Affected(stepID)
}

// Compile разбирает JSON ресурса Questionnaire и готовит его к навигации.
func Compile(definition json.RawMessage, logger *slog.Logger) (*Compiled, error) {
	q, err := fhir.ParseQuestionnaire(definition)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return CompileQuestionnaire(q, logger)
}

// CompileQuestionnaire готовит уже разобранный опросник к навигации.
func CompileQuestionnaire(q *fhir.Questionnaire, logger *slog.Logger) (*Compiled, error) {
	result, err := fhir.BuildTask(q, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	telemetry.ExtractionFailures.Add(float64(len(result.Skipped)))

	c := &Compiled{
		Task:      result.Task,
		Navigator: engine.NewNavigator(result.Task),
		Findings:  engine.Analyze(result.Task),
		Skipped:   result.Skipped,
	}

	// Граф нужен только для Affected; при ошибке сессия работает без него
	if graph, err := engine.BuildGraph(result.Task); err == nil {
		c.Graph = graph
	}

	return c, nil
}
