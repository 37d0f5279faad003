package services

import (
	"fmt"
	"strings"

	"github.com/ochairo/slime/internal/domain/entities"
)

// ProjectReport is the material of an exported project report
type ProjectReport struct {
	Project  entities.Project
	Summary  *entities.ProjectSummary
	Findings []entities.Finding
}

// RenderFindingMarkdown renders one finding with its report fields in
// canonical order. Absent fields are skipped.
func RenderFindingMarkdown(f entities.Finding, level int) string {
	var b strings.Builder
	heading := strings.Repeat("#", max(level, 1))

	title := f.DisplayTitle()
	if title == "" {
		title = "Finding " + f.ID
	}
	fmt.Fprintf(&b, "%s %s\n\n", heading, title)

	for _, field := range f.Report.OrderedFields() {
		if field == entities.FieldTitle {
			continue
		}
		text := strings.TrimSpace(entities.FormatValue(f.Report[field]))
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s# %s\n\n%s\n\n", heading, fieldLabel(field), text)
	}
	if len(f.Report) == 0 && f.Overview != "" {
		fmt.Fprintf(&b, "%s\n\n", f.Overview)
	}
	return b.String()
}

// RenderProjectMarkdown renders the project, its summary fields and every
// finding as a single Markdown document
func RenderProjectMarkdown(r ProjectReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Project.Name)
	if d := strings.TrimSpace(r.Project.Description); d != "" {
		fmt.Fprintf(&b, "%s\n\n", d)
	}

	if r.Summary != nil {
		for _, field := range entities.SummaryFields {
			text := strings.TrimSpace(r.Summary.Field(field))
			if text == "" {
				continue
			}
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", field.Title(), text)
		}
	}

	if len(r.Findings) > 0 {
		b.WriteString("## Findings\n\n")
		for _, f := range r.Findings {
			b.WriteString(RenderFindingMarkdown(f, 3))
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FindingsOverview joins the overviews of findings with blank lines, the
// context sent when drafting project summaries
func FindingsOverview(findings []entities.Finding) string {
	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		text := strings.TrimSpace(f.Overview)
		if text == "" {
			text = strings.TrimSpace(entities.FormatValue(f.Report[entities.FieldOverview]))
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func fieldLabel(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
