package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/slime/internal/domain/entities"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects and their findings",
	}
	cmd.AddCommand(
		newProjectsListCmd(a),
		newProjectsShowCmd(a),
		newProjectsCreateCmd(a),
		newProjectsEditCmd(a),
		newProjectsToggleCmd(a),
		newProjectsAvailableCmd(a),
		newProjectsDeleteCmd(a),
		newProjectsRemoveFindingCmd(a),
	)
	return cmd
}

func newProjectsListCmd(a *app) *cobra.Command {
	var flags listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Long: `List projects with search, sort and pagination.

Search matches name and description. Sort keys: id, name, description, findings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadProjects(cmd.Context()); err != nil {
				return err
			}
			printProjects(cmd.OutOrStdout(), a.projects.List(flags.query(a.cfg.Pages.Projects)))
			return nil
		},
	}
	flags.register(cmd, 0)
	return cmd
}

func newProjectsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a project with its findings and summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			details, err := a.projects.Details(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleTitle.Render(details.Project.Name))
			if details.Project.Description != "" {
				fmt.Fprintln(out, details.Project.Description)
			}
			fmt.Fprintln(out)

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tTITLE")
			for _, f := range details.Findings {
				fmt.Fprintf(tw, "%s\t%s\n", f.ID, oneLine(f.DisplayTitle()))
			}
			_ = tw.Flush()
			fmt.Fprintln(out)

			if !details.HasSummary {
				fmt.Fprintln(out, styleMuted.Render("No summaries yet"))
				return nil
			}
			for _, field := range entities.SummaryFields {
				text := strings.TrimSpace(details.Summary.Field(field))
				if text == "" {
					continue
				}
				fmt.Fprintln(out, styleTitle.Render(field.Title()))
				fmt.Fprintf(out, "%s\n\n", text)
			}
			return nil
		},
	}
}

func newProjectsCreateCmd(a *app) *cobra.Command {
	var input entities.ProjectInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			p, err := a.projects.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&input.Description, "description", "", "Project description")
	return cmd
}

func newProjectsEditCmd(a *app) *cobra.Command {
	var (
		name, description string
		toggles           []string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a project's name, description and findings",
		Example: `  slime projects edit 5 --name "Acme internal" --toggle 12 --toggle 14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			editor, err := a.projects.OpenEditor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			if cmd.Flags().Changed("name") {
				if err := editor.SetName(name); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("description") {
				if err := editor.SetDescription(description); err != nil {
					return err
				}
			}
			for _, id := range toggles {
				if err := editor.Toggle(id); err != nil {
					return err
				}
			}
			if !editor.Dirty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes")
				return nil
			}
			return editor.Save(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New project name")
	cmd.Flags().StringVar(&description, "description", "", "New project description")
	cmd.Flags().StringArrayVar(&toggles, "toggle", nil, "Finding id to add or remove (repeatable)")
	return cmd
}

func newProjectsToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID FINDING...",
		Short: "Add or remove findings from a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			editor, err := a.projects.OpenEditor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			for _, id := range args[1:] {
				if err := editor.Toggle(id); err != nil {
					return err
				}
			}
			if err := editor.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Findings: %s\n", strings.Join(editor.Selected(), ", "))
			return nil
		},
	}
}

func newProjectsAvailableCmd(a *app) *cobra.Command {
	var (
		term string
		page int
	)
	cmd := &cobra.Command{
		Use:   "available ID",
		Short: "List findings that can be added to a project",
		Long: `List the finding catalogue for association. Selected findings are marked
with [x]. The search term matches titles, or ids partially.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			editor, err := a.projects.OpenEditor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer editor.Close()

			result := editor.Available(term, page)
			out := cmd.OutOrStdout()
			tw := newTable(out)
			for _, f := range result.Items {
				mark := "[ ]"
				if editor.Contains(f.ID) {
					mark = "[x]"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, f.ID, oneLine(f.DisplayTitle()))
			}
			_ = tw.Flush()
			printPageFooter(out, result.Page, result.TotalPages, result.Total, "findings")
			return nil
		},
	}
	cmd.Flags().StringVarP(&term, "search", "s", "", "Filter by title or id")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	return cmd
}

func newProjectsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			_, err := a.projects.Delete(cmd.Context(), args[0])
			return err
		},
	}
}

func newProjectsRemoveFindingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-finding ID FINDING",
		Short: "Remove a finding from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireOnline(); err != nil {
				return err
			}
			_, err := a.projects.RemoveFinding(cmd.Context(), args[0], args[1])
			return err
		},
	}
}
