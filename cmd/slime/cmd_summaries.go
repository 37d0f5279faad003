package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
)

func newSummariesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "summaries",
		Aliases: []string{"summary"},
		Short:   "Edit and generate project summaries",
		Long: `Edit the four summary fields of a project:
  project_summary, executive_summary, assessment_overview,
  detailed_assessment_summary`,
	}
	cmd.AddCommand(
		newSummariesShowCmd(a),
		newSummariesSetCmd(a),
		newSummariesGenerateCmd(a),
	)
	return cmd
}

func newSummariesShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT",
		Short: "Show a project's summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			s, err := a.summaries.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSummaryFields(cmd, s.Fields())
			return nil
		},
	}
}

func newSummariesSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set PROJECT FIELD=TEXT...",
		Short: "Set and save summary fields",
		Long: `Set summary fields and save them. A single assignment saves only that
field; several assignments are saved together.`,
		Example: `  slime summaries set 5 executive_summary="Two critical findings."`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}

			type assignment struct {
				field entities.SummaryField
				text  string
			}
			assignments := make([]assignment, 0, len(args)-1)
			for _, kv := range args[1:] {
				field, text, err := parseAssignment(kv)
				if err != nil {
					return err
				}
				f := entities.SummaryField(field)
				if !f.Valid() {
					return errs.Validation("SetSummary", fmt.Sprintf("unknown summary field %q", field))
				}
				assignments = append(assignments, assignment{field: f, text: text})
			}

			editor, err := a.summaries.OpenEditor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			for _, as := range assignments {
				if err := editor.Set(as.field, as.text); err != nil {
					return err
				}
			}
			if len(assignments) == 1 {
				return editor.SaveField(cmd.Context(), assignments[0].field)
			}
			return editor.SaveAll(cmd.Context())
		},
	}
}

func newSummariesGenerateCmd(a *app) *cobra.Command {
	var (
		start, end string
		save       bool
	)
	cmd := &cobra.Command{
		Use:   "generate PROJECT",
		Short: "Draft the executive, assessment and detailed summaries",
		Long: `Draft summaries from the project's finding overviews. The drafts are
printed and only saved with --save.`,
		Example: `  slime summaries generate 5 --start 2026-07-01 --end 2026-07-14 --save`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			startDate, err := parseDate("start", start)
			if err != nil {
				return err
			}
			endDate, err := parseDate("end", end)
			if err != nil {
				return err
			}

			editor, err := a.summaries.OpenEditor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			generated, err := editor.Generate(cmd.Context(), startDate, endDate)
			if err != nil {
				return err
			}
			printSummaryFields(cmd, generated.Fields())
			if save {
				return editor.SaveAll(cmd.Context())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Assessment start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Assessment end date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&save, "save", false, "Save the generated summaries")
	return cmd
}

func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(entities.DateLayout, value)
	if err != nil {
		return time.Time{}, errs.Validation("ParseDate", fmt.Sprintf("%s must be a date like 2006-01-02", name))
	}
	return t, nil
}

func printSummaryFields(cmd *cobra.Command, fields map[entities.SummaryField]string) {
	out := cmd.OutOrStdout()
	for _, field := range entities.SummaryFields {
		text, ok := fields[field]
		if !ok {
			continue
		}
		fmt.Fprintln(out, styleTitle.Render(field.Title()))
		if strings.TrimSpace(text) == "" {
			fmt.Fprintf(out, "%s\n\n", styleMuted.Render("(empty)"))
			continue
		}
		fmt.Fprintf(out, "%s\n\n", text)
	}
}
