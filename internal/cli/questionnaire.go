package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var questionnaireHeaders = []string{"ID", "NAME", "TITLE", "CREATED"}

// NewQuestionnaireCmd создаёт группу команд для управления опросниками.
func NewQuestionnaireCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "questionnaire",
		Aliases: []string{"q"},
		Short:   "Manage questionnaires",
	}

	cmd.AddCommand(
		newQuestionnaireListCmd(clientFn, outputFn),
		newQuestionnaireCreateCmd(clientFn, outputFn),
		newQuestionnaireShowCmd(clientFn, outputFn),
		newQuestionnaireDeleteCmd(clientFn, outputFn),
		newQuestionnaireImportCmd(clientFn, outputFn),
		newQuestionnaireVersionsCmd(clientFn, outputFn),
	)

	return cmd
}

func questionnaireRow(q QuestionnaireResponse) []string {
	return []string{q.ID, q.Name, q.Title, q.CreatedAt}
}

func newQuestionnaireListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all questionnaires",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			list, err := client.ListQuestionnaires()
			if err != nil {
				return err
			}

			rows := make([][]string, len(list))
			for i, q := range list {
				rows[i] = questionnaireRow(q)
			}

			out.Print(questionnaireHeaders, rows, list)
			return nil
		},
	}
}

func newQuestionnaireCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, title string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new questionnaire",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			q, err := client.CreateQuestionnaire(name, title)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Questionnaire created: %s", q.ID))
			out.Print(questionnaireHeaders, [][]string{questionnaireRow(*q)}, q)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Questionnaire name (required)")
	cmd.Flags().StringVar(&title, "title", "", "Questionnaire title")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newQuestionnaireShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show questionnaire details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			q, err := client.GetQuestionnaire(args[0])
			if err != nil {
				return err
			}

			out.Print(questionnaireHeaders, [][]string{questionnaireRow(*q)}, q)
			return nil
		},
	}
}

func newQuestionnaireDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a questionnaire",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteQuestionnaire(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Questionnaire %s deleted", args[0]))
			return nil
		},
	}
}

func newQuestionnaireImportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string
	var force bool

	cmd := &cobra.Command{
		Use:   "import ID",
		Short: "Publish a new questionnaire version from a FHIR Questionnaire file (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read questionnaire file: %w", err)
			}

			version, err := client.ImportVersion(args[0], data, contentTypeFor(file), force)
			if err != nil {
				return err
			}

			for _, w := range version.Warnings {
				out.Warn(w)
			}
			out.Success(fmt.Sprintf("Version %d published for questionnaire %s", version.Version, version.QuestionnaireID))
			out.Print(
				[]string{"QUESTIONNAIRE_ID", "VERSION", "STEPS", "CREATED"},
				[][]string{{version.QuestionnaireID, strconv.Itoa(version.Version), strconv.Itoa(version.Steps), version.CreatedAt}},
				version,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to Questionnaire JSON or YAML file (required)")
	cmd.Flags().BoolVar(&force, "force", false, "Publish even if some conditions can never be met")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newQuestionnaireVersionsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "versions ID",
		Short: "List questionnaire versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			versions, err := client.ListVersions(args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(versions))
			for i, v := range versions {
				rows[i] = []string{strconv.Itoa(v.Version), v.CreatedAt}
			}

			out.Print([]string{"VERSION", "CREATED"}, rows, versions)
			return nil
		},
	}
}

// contentTypeFor выбирает Content-Type по расширению файла.
func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/json"
	}
}
