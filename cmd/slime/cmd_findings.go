package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/services"
)

func newFindingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "findings",
		Aliases: []string{"finding", "f"},
		Short:   "List, edit and generate findings",
	}
	cmd.AddCommand(
		newFindingsListCmd(a),
		newFindingsShowCmd(a),
		newFindingsEditCmd(a),
		newFindingsDeleteCmd(a),
		newFindingsGenerateCmd(a),
		newFindingsCorrectCmd(a),
	)
	return cmd
}

func newFindingsListCmd(a *app) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List findings",
		Long: `List findings with search, sort and pagination.

Search matches title and overview. Sort keys: id, title, overview,
report_type, or any report field name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadFindings(cmd.Context()); err != nil {
				return err
			}
			printFindings(cmd.OutOrStdout(), a.findings.List(flags.query(a.cfg.Pages.Findings)))
			return nil
		},
	}
	flags.register(cmd, 0)
	return cmd
}

func newFindingsShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a finding's report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			f, err := a.findings.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				text, err := f.Report.Pretty()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}
			fmt.Fprint(out, services.RenderFindingMarkdown(*f, 1))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report document as JSON")
	return cmd
}

func newFindingsEditCmd(a *app) *cobra.Command {
	var (
		sets []string
		file string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a finding's report and save it",
		Long: `Edit report fields and save the whole report.

--file replaces the draft with a JSON report document. --set Field=value
changes a single field; values that are JSON arrays or objects are decoded.`,
		Example: `  slime findings edit 12 --set Risk_Rating=High
  slime findings edit 12 --file report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			if file == "" && len(sets) == 0 {
				return errs.Validation("EditFinding", "nothing to change: use --set or --file")
			}

			editor, err := a.findings.OpenEditor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			if file != "" {
				//nolint:gosec // G304: file is the user's report document
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read report file: %w", err)
				}
				if err := editor.SetText(string(data)); err != nil {
					return err
				}
			}
			for _, kv := range sets {
				field, value, err := parseAssignment(kv)
				if err != nil {
					return err
				}
				if err := editor.Set(field, reportValue(value)); err != nil {
					return err
				}
			}

			if len(editor.DirtyFields()) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes")
				return nil
			}
			return editor.Save(cmd.Context())
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field=value assignment (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "JSON report document to load")
	return cmd
}

func newFindingsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a finding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			_, err := a.findings.Delete(cmd.Context(), args[0])
			return err
		},
	}
}

func newFindingsGenerateCmd(a *app) *cobra.Command {
	var (
		req        entities.ReportRequest
		reportType string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draft a new finding report with the assistant",
		Example: `  slime findings generate --type red_team --overview "Kerberoastable service accounts" --obfuscate-domains`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			req.ReportType = entities.ReportType(reportType)
			f, err := a.findings.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created finding %s\n\n", f.ID)
			printReport(cmd.OutOrStdout(), f.Report)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportType, "type", string(entities.ReportTypePurpleTeam), "Report type: purple_team or red_team")
	cmd.Flags().StringVar(&req.Overview, "overview", "", "Overview of the finding")
	cmd.Flags().BoolVar(&req.ObfuscateUsernames, "obfuscate-usernames", false, "Obfuscate usernames in the report")
	cmd.Flags().BoolVar(&req.ObfuscateMachines, "obfuscate-machines", false, "Obfuscate machine names in the report")
	cmd.Flags().BoolVar(&req.ObfuscateDomains, "obfuscate-domains", false, "Obfuscate domains in the report")
	return cmd
}

func newFindingsCorrectCmd(a *app) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "correct ID",
		Short: "Correct the grammar of a finding's report",
		Long: `Send the report for grammar correction and print the corrected draft.
With --save the corrected report is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			editor, err := a.findings.OpenEditor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			if err := editor.CorrectGrammar(cmd.Context()); err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), editor.Report())
			if save && len(editor.DirtyFields()) > 0 {
				return editor.Save(cmd.Context())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Save the corrected report")
	return cmd
}

func parseAssignment(kv string) (string, string, error) {
	field, value, ok := strings.Cut(kv, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return "", "", errs.Validation("ParseAssignment", fmt.Sprintf("expected Field=value, got %q", kv))
	}
	return field, value, nil
}

// reportValue decodes JSON arrays and objects; anything else is kept as text
func reportValue(value string) any {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return value
}
