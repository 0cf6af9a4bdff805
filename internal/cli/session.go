package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewSessionCmd создаёт группу команд для прохождения опросников.
func NewSessionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Take questionnaires step by step",
	}

	cmd.AddCommand(
		newSessionStartCmd(clientFn, outputFn),
		newSessionShowCmd(clientFn, outputFn),
		newSessionAnswerCmd(clientFn, outputFn),
		newSessionNextCmd(clientFn, outputFn),
		newSessionPrevCmd(clientFn, outputFn),
		newSessionAbandonCmd(clientFn, outputFn),
		newSessionAnswersCmd(clientFn, outputFn),
		newSessionPathCmd(clientFn, outputFn),
	)

	return cmd
}

// printView выводит сессию и её текущий шаг.
func printView(out *Output, view *SessionViewResponse) {
	step, text, progress := "-", "", ""
	if view.Step != nil {
		step, text = view.Step.ID, view.Step.Text
	}
	if view.Progress != nil {
		progress = fmt.Sprintf("%d/%d", view.Progress.Position, view.Progress.Total)
	}

	out.Print(
		[]string{"SESSION", "STATUS", "STEP", "PROGRESS", "TEXT"},
		[][]string{{view.Session.ID, view.Session.Status, step, progress, text}},
		view,
	)
}

func newSessionStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "start QUESTIONNAIRE_ID",
		Short: "Start a new session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			view, err := client.StartSession(args[0], version)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Session started: %s", view.Session.ID))
			printView(out, view)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Questionnaire version (default: latest)")

	return cmd
}

func newSessionShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show session and its current step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFn().GetSession(args[0])
			if err != nil {
				return err
			}

			printView(outputFn(), view)
			return nil
		},
	}
}

func newSessionAnswerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var bools []string
	var codes []string

	cmd := &cobra.Command{
		Use:   "answer ID STEP_ID",
		Short: "Record an answer for a step",
		Long: `Record one or more answer values for a step.

Values are given with --bool (true/false) or --code ([SYSTEM|]CODE),
both repeatable:

  pathway session answer SESSION smoker --bool true
  pathway session answer SESSION kind --code http://loinc.org|LA1234-5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			values, err := parseAnswerValues(bools, codes)
			if err != nil {
				return err
			}

			view, err := client.RecordAnswer(args[0], RecordAnswerRequest{StepID: args[1], Values: values})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Answer recorded for step %s", args[1]))
			printView(out, view)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&bools, "bool", nil, "Boolean answer value (true/false)")
	cmd.Flags().StringArrayVar(&codes, "code", nil, "Coded answer value: CODE or SYSTEM|CODE")

	return cmd
}

func newSessionNextCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "next ID",
		Short: "Move to the next visible step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			view, err := clientFn().Next(args[0])
			if err != nil {
				return err
			}

			if view.Step == nil {
				out.Success("Session completed")
			}
			printView(out, view)
			return nil
		},
	}
}

func newSessionPrevCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:     "prev ID",
		Aliases: []string{"previous"},
		Short:   "Move back to the previous visible step",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFn().Previous(args[0])
			if err != nil {
				return err
			}

			printView(outputFn(), view)
			return nil
		},
	}
}

func newSessionAbandonCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon ID",
		Short: "Abandon a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			sess, err := clientFn().Abandon(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Session %s abandoned", sess.ID))
			return nil
		},
	}
}

func newSessionAnswersCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "answers ID",
		Short: "List recorded answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answers, err := clientFn().ListAnswers(args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(answers))
			for i, a := range answers {
				rows[i] = []string{strconv.Itoa(a.Position), a.StepID, string(a.Value), a.RecordedAt}
			}

			outputFn().Print([]string{"#", "STEP", "VALUE", "RECORDED"}, rows, answers)
			return nil
		},
	}
}

func newSessionPathCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "path ID",
		Short: "Show steps visible with the current answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := clientFn().Path(args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(steps))
			for i, s := range steps {
				rows[i] = []string{strconv.Itoa(i + 1), s.ID, s.Text}
			}

			outputFn().Print([]string{"#", "STEP", "TEXT"}, rows, steps)
			return nil
		},
	}
}

// parseAnswerValues собирает значения ответа из флагов --bool и --code.
func parseAnswerValues(bools, codes []string) ([]AnswerValue, error) {
	values := make([]AnswerValue, 0, len(bools)+len(codes))

	for _, raw := range bools {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --bool value %q", raw)
		}
		values = append(values, AnswerValue{"boolean": b})
	}

	for _, raw := range codes {
		coding := map[string]string{}
		system, code, found := strings.Cut(raw, "|")
		if !found {
			code, system = system, ""
		}
		if code == "" {
			return nil, fmt.Errorf("invalid --code value %q", raw)
		}
		coding["code"] = code
		if system != "" {
			coding["system"] = system
		}
		values = append(values, AnswerValue{"coding": coding})
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("at least one --bool or --code value is required")
	}
	return values, nil
}
