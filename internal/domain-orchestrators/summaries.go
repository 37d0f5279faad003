package orchestrators

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces"
	"github.com/ochairo/slime/internal/domain/services"
)

// SummariesOrchestrator opens the summary editors of projects
type SummariesOrchestrator struct {
	base
	sessions *services.Sessions[string, entities.SummaryField, string]
}

// NewSummariesOrchestrator creates a new summaries orchestrator
func NewSummariesOrchestrator(deps Deps) *SummariesOrchestrator {
	return &SummariesOrchestrator{
		base:     newBase(deps),
		sessions: services.NewSessions[string, entities.SummaryField, string](),
	}
}

// Show returns the project's summary record. A project without one yields
// an empty summary.
func (o *SummariesOrchestrator) Show(ctx context.Context, projectID string) (*entities.ProjectSummary, error) {
	s, err := o.Gateway.GetProjectSummary(ctx, projectID)
	if errs.Is(err, errs.KindNotFound) {
		return &entities.ProjectSummary{ProjectID: projectID}, nil
	}
	if err != nil {
		return nil, o.remoteFailure("GetProjectSummary", err, interfaces.F("project_id", projectID))
	}
	return s, nil
}

// OpenEditor loads a project with its summary and opens the summary
// editing session
func (o *SummariesOrchestrator) OpenEditor(ctx context.Context, projectID string) (*SummaryEditor, error) {
	var (
		project *entities.Project
		summary *entities.ProjectSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := o.Gateway.GetProject(gctx, projectID)
		project = p
		return err
	})
	g.Go(func() error {
		s, err := o.Gateway.GetProjectSummary(gctx, projectID)
		if errs.Is(err, errs.KindNotFound) {
			s, err = &entities.ProjectSummary{ProjectID: projectID}, nil
		}
		summary = s
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, o.remoteFailure("OpenSummaryEditor", err, interfaces.F("project_id", projectID))
	}

	draft := o.sessions.Open(projectID, func() *services.Draft[entities.SummaryField, string] {
		return services.NewDraft(summary.Fields(), nil)
	})
	if err := draft.Edit(); err != nil {
		return nil, err
	}
	return &SummaryEditor{o: o, project: *project, draft: draft}, nil
}

// SummaryEditor edits the four summary fields of a project. Each field is
// saved independently or all at once.
type SummaryEditor struct {
	o       *SummariesOrchestrator
	project entities.Project
	draft   *services.Draft[entities.SummaryField, string]
}

// Project returns the project the summary belongs to
func (e *SummaryEditor) Project() entities.Project { return e.project }

// State returns the session state
func (e *SummaryEditor) State() services.DraftState { return e.draft.State() }

// LastError returns the error of the last failed save
func (e *SummaryEditor) LastError() error { return e.draft.LastError() }

// Value returns the draft value of field
func (e *SummaryEditor) Value(field entities.SummaryField) string { return e.draft.Value(field) }

// SavedValue returns the saved value of field
func (e *SummaryEditor) SavedValue(field entities.SummaryField) string {
	return e.draft.SavedValue(field)
}

// Dirty reports whether field has unsaved edits
func (e *SummaryEditor) Dirty(field entities.SummaryField) bool { return e.draft.Dirty(field) }

// DirtyFields returns the fields with unsaved edits
func (e *SummaryEditor) DirtyFields() []entities.SummaryField { return e.draft.DirtyFields() }

// Set changes the draft of one field
func (e *SummaryEditor) Set(field entities.SummaryField, value string) error {
	if !field.Valid() {
		return errs.Validation("SetSummary", fmt.Sprintf("unknown summary field %q", field))
	}
	if err := e.draft.Edit(); err != nil {
		return err
	}
	return e.draft.Set(field, value)
}

// SaveField saves one field. Other drafts are left untouched.
func (e *SummaryEditor) SaveField(ctx context.Context, field entities.SummaryField) error {
	if !field.Valid() {
		return errs.Validation("SaveSummary", fmt.Sprintf("unknown summary field %q", field))
	}
	return e.save(ctx, fmt.Sprintf("%s saved", field.Title()), field)
}

// SaveAll saves every field
func (e *SummaryEditor) SaveAll(ctx context.Context) error {
	return e.save(ctx, "All summaries saved")
}

func (e *SummaryEditor) save(ctx context.Context, message string, fields ...entities.SummaryField) error {
	if err := e.draft.Edit(); err != nil {
		return err
	}
	ticket, err := e.draft.BeginSave(fields...)
	if err != nil {
		return err
	}

	// Unrequested fields carry their saved values so a whole-record write
	// does not clear them.
	payload := e.draft.Saved()
	for field, value := range ticket.Values() {
		payload[field] = value
	}

	updated, err := e.o.Gateway.UpdateProjectSummary(ctx, e.project.ID, payload)
	if err != nil {
		_ = e.draft.Fail(ticket, err)
		return e.o.remoteFailure("UpdateProjectSummary", err, interfaces.F("project_id", e.project.ID))
	}

	var authoritative map[entities.SummaryField]string
	if updated != nil {
		authoritative = updated.Fields()
	}
	if err := e.draft.Commit(ticket, authoritative); err != nil {
		e.o.Logger.Warn("ignored late save result", interfaces.F("project_id", e.project.ID), interfaces.F("error", err))
		return err
	}
	e.o.succeeded("UpdateProjectSummary", message,
		interfaces.F("project_id", e.project.ID), interfaces.F("fields", ticket.Fields()))
	return nil
}

// Generate drafts the executive, assessment and detailed summaries from the
// project's findings. The results land in the drafts, unsaved; the project
// summary draft is sent as context and left untouched.
func (e *SummaryEditor) Generate(ctx context.Context, start, end time.Time) (*entities.GeneratedSummaries, error) {
	req := entities.SummaryRequest{
		ProjectID:        e.project.ID,
		ProjectName:      e.project.Name,
		FindingsOverview: services.FindingsOverview(e.project.EmbeddedFindings()),
		ProjectSummary:   e.draft.Value(entities.SummaryProjectSummary),
		StartDate:        start,
		EndDate:          end,
	}
	if err := e.o.validate("GenerateSummaries", req); err != nil {
		return nil, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, errs.Validation("GenerateSummaries", "end date must not be before start date")
	}

	generated, err := e.o.Gateway.GenerateSummaries(ctx, req)
	if err != nil {
		return nil, e.o.remoteFailure("GenerateSummaries", err, interfaces.F("project_id", e.project.ID))
	}

	if err := e.draft.Edit(); err != nil {
		return nil, err
	}
	for field, text := range generated.Fields() {
		if err := e.draft.Set(field, text); err != nil {
			return nil, err
		}
	}
	e.o.succeeded("GenerateSummaries", "Summaries generated", interfaces.F("project_id", e.project.ID))
	return generated, nil
}

// Cancel discards every draft
func (e *SummaryEditor) Cancel() {
	e.draft.Cancel()
}

// Close ends the session
func (e *SummaryEditor) Close() {
	e.o.sessions.Close(e.project.ID)
}
