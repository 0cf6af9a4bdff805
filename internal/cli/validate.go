package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Pathway/internal/domain"
	"github.com/shaiso/Pathway/internal/fhir"
	"github.com/shaiso/Pathway/internal/session"
)

// NewValidateCmd создаёт команду локальной проверки файла опросника.
//
// В отличие от остальных команд, validate не обращается к API:
// файл разбирается и анализируется в процессе.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a FHIR Questionnaire file (JSON or YAML) without publishing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			compiled, err := compileFile(args[0])
			if err != nil {
				return err
			}

			for _, skipped := range compiled.Skipped {
				out.Warn(skipped.Error())
			}

			rows := make([][]string, compiled.Task.Len())
			for i := range rows {
				step := compiled.Task.At(i)
				rows[i] = []string{strconv.Itoa(i + 1), step.ID, describeRequirements(step.Requirements)}
			}
			out.Print([]string{"#", "STEP", "SHOWN WHEN"}, rows, compiled.Task.Steps())

			if len(compiled.Findings) > 0 {
				for _, f := range compiled.Findings {
					out.Error(f.Error())
				}
				return fmt.Errorf("%d problem(s) found", len(compiled.Findings))
			}

			out.Success(fmt.Sprintf("%s: %d steps, ok", args[0], compiled.Task.Len()))
			return nil
		},
	}
}

// compileFile читает и компилирует файл опросника.
func compileFile(path string) (*session.Compiled, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questionnaire file: %w", err)
	}

	var q *fhir.Questionnaire
	if contentTypeFor(path) == "application/yaml" {
		q, err = fhir.ParseQuestionnaireYAML(data)
	} else {
		q, err = fhir.ParseQuestionnaire(data)
	}
	if err != nil {
		return nil, err
	}

	// Ошибки извлечения выводятся как предупреждения, лог не нужен
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.CompileQuestionnaire(q, logger)
}

// describeRequirements форматирует условия шага: "smoker=true, kind=cig".
func describeRequirements(reqs []domain.Requirement) string {
	if len(reqs) == 0 {
		return "always"
	}

	parts := make([]string, len(reqs))
	for i, r := range reqs {
		value := r.Expected.String()
		if _, code, ok := r.Expected.Coding(); ok {
			value = code
		}
		parts[i] = r.QuestionID + "=" + value
	}
	return strings.Join(parts, ", ")
}
