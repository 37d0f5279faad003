package orchestrators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/services"
)

func TestProjectsOrchestrator_CreateValidatesName(t *testing.T) {
	h := newHarness(t)
	o := NewProjectsOrchestrator(h.deps)

	_, err := o.Create(context.Background(), entities.ProjectInput{Description: "no name"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Zero(t, h.gateway.called("CreateProject"))
	assert.Empty(t, h.notifier.Entries())

	p, err := o.Create(context.Background(), entities.ProjectInput{Name: "Acme external"})
	require.NoError(t, err)
	assert.True(t, o.Store().Contains(p.ID))
	assert.Equal(t, 1, h.gateway.called("ListProjects"))
	assert.Equal(t, "Project created", h.lastNotification(t).Message)
}

func TestProjectsOrchestrator_ListSearch(t *testing.T) {
	h := newHarness(t)
	h.seedProject()
	h.gateway.projects["6"] = entities.Project{ID: "6", Name: "Globex", Description: "Red team"}
	o := NewProjectsOrchestrator(h.deps)
	_, err := o.Refresh(context.Background())
	require.NoError(t, err)

	page := o.List(services.Query{Search: "RED"})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "6", page.Items[0].ID)
}

func TestProjectsOrchestrator_Details(t *testing.T) {
	h := newHarness(t)
	h.seedFindings()
	h.seedProject()
	o := NewProjectsOrchestrator(h.deps)

	details, err := o.Details(context.Background(), "5")
	require.NoError(t, err)

	assert.Equal(t, "Acme internal", details.Project.Name)
	assert.False(t, details.HasSummary)
	assert.Equal(t, "5", details.Summary.ProjectID)
	assert.Len(t, details.Catalogue, 3)
	require.Len(t, details.Findings, 2)
	assert.Equal(t, "SQL injection", details.Findings[0].Title)
	assert.Equal(t, "Login form injectable\n\nTLS 1.0 enabled", details.FindingsOverview())

	h.gateway.summaries["5"] = entities.ProjectSummary{ProjectID: "5", ExecutiveSummary: "Two highs."}
	details, err = o.Details(context.Background(), "5")
	require.NoError(t, err)
	assert.True(t, details.HasSummary)
	assert.Equal(t, "Two highs.", details.Summary.ExecutiveSummary)
}

func TestProjectsOrchestrator_DetailsFailure(t *testing.T) {
	h := newHarness(t)
	h.seedProject()
	h.gateway.failWith("ListFindings", errs.Rejection("ListFindings", 502, "Bad Gateway"))
	o := NewProjectsOrchestrator(h.deps)

	_, err := o.Details(context.Background(), "5")
	require.Error(t, err)
	assert.Equal(t, []entities.Severity{entities.SeverityError}, h.severities())
	assert.Zero(t, o.Store().Len())
}

func TestProjectEditor_ToggleScenario(t *testing.T) {
	h := newHarness(t)
	h.seedFindings()
	h.seedProject()
	o := NewProjectsOrchestrator(h.deps)

	editor, err := o.OpenEditor(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, editor.Selected())

	require.NoError(t, editor.Toggle("2"))
	assert.Equal(t, []string{"1"}, editor.Selected())
	assert.False(t, editor.Contains("2"))

	require.NoError(t, editor.Toggle("2"))
	assert.Equal(t, []string{"1", "2"}, editor.Selected())

	require.NoError(t, editor.Toggle("3"))
	require.NoError(t, editor.SetName("Acme internal 2025"))
	require.NoError(t, editor.Save(context.Background()))

	assert.Equal(t, entities.ProjectInput{
		Name:        "Acme internal 2025",
		Description: "Q3 assessment",
		Findings:    []string{"1", "2", "3"},
	}, h.gateway.lastProject)
	assert.False(t, editor.Dirty())

	stored, err := o.Store().Get("5")
	require.NoError(t, err)
	assert.Equal(t, "Acme internal 2025", stored.Name)
	assert.Len(t, stored.Findings, 3)
}

func TestProjectEditor_SaveRejectsEmptyName(t *testing.T) {
	h := newHarness(t)
	h.seedProject()
	o := NewProjectsOrchestrator(h.deps)

	editor, err := o.OpenEditor(context.Background(), "5")
	require.NoError(t, err)
	require.NoError(t, editor.SetName(""))

	err = editor.Save(context.Background())
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Zero(t, h.gateway.called("UpdateProject"))
	assert.Equal(t, services.StateEditing, editor.State())
}

func TestProjectEditor_Available(t *testing.T) {
	h := newHarness(t)
	h.seedFindings()
	h.seedProject()
	h.deps.AssociationPageSize = 2
	o := NewProjectsOrchestrator(h.deps)

	editor, err := o.OpenEditor(context.Background(), "5")
	require.NoError(t, err)

	page := editor.Available("", 1)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	page = editor.Available("kerb", 1)
	assert.Equal(t, []string{"3"}, findingIDs(page.Items))

	page = editor.Available("2", 1)
	assert.Equal(t, []string{"2"}, findingIDs(page.Items))
}

func TestProjectsOrchestrator_RemoveFinding(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		h := newHarness(t)
		h.seedFindings()
		h.seedProject()
		o := NewProjectsOrchestrator(h.deps)

		removed, err := o.RemoveFinding(context.Background(), "5", "1")
		require.NoError(t, err)
		assert.True(t, removed)
		assert.Equal(t, []string{"2"}, h.gateway.lastProject.Findings)
		assert.Equal(t, "Acme internal", h.gateway.lastProject.Name)

		stored, err := o.Store().Get("5")
		require.NoError(t, err)
		require.Len(t, stored.Findings, 1)
		assert.Equal(t, "2", stored.Findings[0].ID)
	})

	t.Run("declined", func(t *testing.T) {
		h := newHarness(t)
		h.seedFindings()
		h.seedProject()
		h.confirmer.answer = false
		o := NewProjectsOrchestrator(h.deps)

		removed, err := o.RemoveFinding(context.Background(), "5", "1")
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Zero(t, h.gateway.called("UpdateProject"))
	})

	t.Run("not associated", func(t *testing.T) {
		h := newHarness(t)
		h.seedFindings()
		h.seedProject()
		o := NewProjectsOrchestrator(h.deps)

		_, err := o.RemoveFinding(context.Background(), "5", "3")
		assert.True(t, errs.Is(err, errs.KindNotFound))
		assert.Empty(t, h.confirmer.prompts)
	})
}

func TestProjectsOrchestrator_Delete(t *testing.T) {
	h := newHarness(t)
	h.seedProject()
	o := NewProjectsOrchestrator(h.deps)
	_, _ = o.Refresh(context.Background())

	deleted, err := o.Delete(context.Background(), "5")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Zero(t, o.Store().Len())
}
