package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/services"
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	styleTitle   = lipgloss.NewStyle().Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
)

func renderNotification(n entities.Notification) string {
	switch n.Severity {
	case entities.SeveritySuccess:
		return styleSuccess.Render("✓ " + n.Message)
	case entities.SeverityWarning:
		return styleWarning.Render("⚠ " + n.Message)
	default:
		return styleError.Render("✗ " + n.Message)
	}
}

// listFlags are the query flags shared by the list commands
type listFlags struct {
	search   string
	sortKey  string
	desc     bool
	page     int
	pageSize int
}

func (f *listFlags) register(cmd *cobra.Command, defaultPageSize int) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Case-insensitive search term")
	cmd.Flags().StringVar(&f.sortKey, "sort", "", "Sort key")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "Sort descending")
	cmd.Flags().IntVarP(&f.page, "page", "p", 1, "Page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", defaultPageSize, "Items per page")
}

func (f *listFlags) query(configured int) services.Query {
	size := f.pageSize
	if size <= 0 {
		size = configured
	}
	q := services.Query{Search: f.search, Page: f.page, PageSize: size}
	if f.sortKey != "" {
		q.Sort = services.SortConfig{Key: f.sortKey, Direction: services.SortAsc}
		if f.desc {
			q.Sort.Direction = services.SortDesc
		}
	}
	return q
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func printFindings(w io.Writer, page services.Page[entities.Finding]) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tOVERVIEW")
	for _, f := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, oneLine(f.DisplayTitle()), oneLine(f.Overview))
	}
	_ = tw.Flush()
	printPageFooter(w, page.Page, page.TotalPages, page.Total, "findings")
}

func printProjects(w io.Writer, page services.Page[entities.Project]) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, p := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, oneLine(p.Name), oneLine(entities.Truncate(p.Description, 80)))
	}
	_ = tw.Flush()
	printPageFooter(w, page.Page, page.TotalPages, page.Total, "projects")
}

func printPageFooter(w io.Writer, page, totalPages, total int, noun string) {
	fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("Page %d/%d (%d %s)", page, totalPages, total, noun)))
}

func printReport(w io.Writer, report entities.Report) {
	for _, field := range report.OrderedFields() {
		text := strings.TrimSpace(entities.FormatValue(report[field]))
		if text == "" {
			continue
		}
		fmt.Fprintln(w, styleTitle.Render(strings.ReplaceAll(field, "_", " ")))
		fmt.Fprintf(w, "%s\n\n", text)
	}
}
