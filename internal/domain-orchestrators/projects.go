package orchestrators

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces"
	"github.com/ochairo/slime/internal/domain/services"
)

// Project editor fields
const (
	ProjectFieldName        = "name"
	ProjectFieldDescription = "description"
	ProjectFieldFindings    = "findings"
)

// ProjectsOrchestrator coordinates the project list, project details and
// the finding association editor
type ProjectsOrchestrator struct {
	base
	store     *services.EntityStore[entities.Project]
	catalogue *services.EntityStore[entities.Finding]
	view      *services.QueryView[entities.Project]
	assoc     *services.AssociationManager
	sessions  *services.Sessions[string, string, any]
}

// NewProjectsOrchestrator creates a new projects orchestrator
func NewProjectsOrchestrator(deps Deps) *ProjectsOrchestrator {
	return &ProjectsOrchestrator{
		base:      newBase(deps),
		store:     services.NewProjectStore(),
		catalogue: services.NewFindingStore(),
		view:      services.NewProjectQueryView(),
		assoc:     services.NewAssociationManager(),
		sessions:  services.NewSessions[string, string, any](),
	}
}

// Store exposes the local project collection
func (o *ProjectsOrchestrator) Store() *services.EntityStore[entities.Project] {
	return o.store
}

// Refresh replaces the local collection with the backend's list
func (o *ProjectsOrchestrator) Refresh(ctx context.Context) ([]entities.Project, error) {
	projects, err := o.Gateway.ListProjects(ctx)
	if err != nil {
		return nil, o.remoteFailure("ListProjects", err)
	}
	o.store.Replace(projects)

	if o.Snapshots != nil {
		if err := o.Snapshots.SaveProjects(ctx, o.store.List()); err != nil {
			o.Logger.Warn("failed to cache projects", interfaces.F("error", err))
		}
	}
	return o.store.List(), nil
}

// LoadCached fills the local collection from the snapshot cache
func (o *ProjectsOrchestrator) LoadCached(ctx context.Context) ([]entities.Project, error) {
	if o.Snapshots == nil {
		return nil, errs.New(errs.KindNotFound, "LoadCachedProjects", "the local cache is disabled")
	}
	snap, err := o.Snapshots.LoadProjects(ctx)
	if err != nil {
		return nil, err
	}
	o.store.Replace(snap.Items)
	return o.store.List(), nil
}

// List returns the requested page of the local collection
func (o *ProjectsOrchestrator) List(q services.Query) services.Page[entities.Project] {
	return o.view.View(o.store.List(), q)
}

// Create creates a project and refreshes the list
func (o *ProjectsOrchestrator) Create(ctx context.Context, input entities.ProjectInput) (*entities.Project, error) {
	if err := o.validate("CreateProject", input); err != nil {
		return nil, err
	}

	p, err := o.Gateway.CreateProject(ctx, input)
	if err != nil {
		return nil, o.remoteFailure("CreateProject", err, interfaces.F("name", input.Name))
	}
	o.store.Upsert(*p)
	o.succeeded("CreateProject", "Project created", interfaces.F("project_id", p.ID))

	if _, err := o.Refresh(ctx); err != nil {
		o.Logger.Warn("project list not refreshed after create", interfaces.F("error", err))
	}
	return p, nil
}

// Delete removes a project once the confirmer approves
func (o *ProjectsOrchestrator) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := o.confirm(ctx, fmt.Sprintf("Delete project %s?", id))
	if err != nil || !ok {
		return false, err
	}

	if err := o.Gateway.DeleteProject(ctx, id); err != nil {
		return false, o.remoteFailure("DeleteProject", err, interfaces.F("project_id", id))
	}
	_ = o.store.Remove(id)
	o.sessions.Close(id)
	o.succeeded("DeleteProject", "Project deleted", interfaces.F("project_id", id))
	return true, nil
}

// ProjectDetails is the project details view
type ProjectDetails struct {
	Project entities.Project

	// Summary is empty, with HasSummary false, when the project has none yet
	Summary    entities.ProjectSummary
	HasSummary bool

	// Findings are the project's findings, in reference order
	Findings []entities.Finding

	// Catalogue is every finding known to the backend
	Catalogue []entities.Finding
}

// FindingsOverview joins the overviews of the project's findings
func (d *ProjectDetails) FindingsOverview() string {
	return services.FindingsOverview(d.Findings)
}

// Details loads the project, its summary and the finding catalogue
// concurrently
func (o *ProjectsOrchestrator) Details(ctx context.Context, id string) (*ProjectDetails, error) {
	var (
		project   *entities.Project
		summary   *entities.ProjectSummary
		catalogue []entities.Finding
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := o.Gateway.GetProject(gctx, id)
		project = p
		return err
	})
	g.Go(func() error {
		s, err := o.Gateway.GetProjectSummary(gctx, id)
		if errs.Is(err, errs.KindNotFound) {
			return nil
		}
		summary = s
		return err
	})
	g.Go(func() error {
		list, err := o.Gateway.ListFindings(gctx)
		catalogue = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, o.remoteFailure("ProjectDetails", err, interfaces.F("project_id", id))
	}

	o.catalogue.Replace(catalogue)
	o.remember(*project)

	details := &ProjectDetails{
		Project:   project.Clone(),
		Findings:  o.resolve(project.Findings),
		Catalogue: o.catalogue.List(),
	}
	if summary != nil {
		details.Summary = *summary
		details.HasSummary = true
	} else {
		details.Summary = entities.ProjectSummary{ProjectID: id}
	}
	return details, nil
}

// RemoveFinding detaches a finding from a project through a confirmed
// project update. It reports whether the update was sent.
func (o *ProjectsOrchestrator) RemoveFinding(ctx context.Context, projectID, findingID string) (bool, error) {
	project, err := o.Gateway.GetProject(ctx, projectID)
	if err != nil {
		return false, o.remoteFailure("GetProject", err, interfaces.F("project_id", projectID))
	}
	if !o.assoc.Contains(project.Findings, findingID) {
		return false, errs.New(errs.KindNotFound, "RemoveFinding",
			fmt.Sprintf("finding %s is not part of project %s", findingID, projectID))
	}

	ok, err := o.confirm(ctx, fmt.Sprintf("Remove finding %s from project %s?", findingID, project.Name))
	if err != nil || !ok {
		return false, err
	}

	refs := o.assoc.Toggle(project.Findings, findingID)
	input := entities.ProjectInput{
		Name:        project.Name,
		Description: project.Description,
		Findings:    o.assoc.Normalize(refs),
	}
	updated, err := o.Gateway.UpdateProject(ctx, projectID, input)
	if err != nil {
		return false, o.remoteFailure("UpdateProject", err, interfaces.F("project_id", projectID))
	}

	if updated != nil {
		o.remember(*updated)
	} else {
		p := project.Clone()
		p.Findings = refs
		o.remember(p)
	}
	o.succeeded("UpdateProject", "Finding removed from project",
		interfaces.F("project_id", projectID), interfaces.F("finding_id", findingID))
	return true, nil
}

// OpenEditor loads a project with the finding catalogue and opens its
// editing session
func (o *ProjectsOrchestrator) OpenEditor(ctx context.Context, id string) (*ProjectEditor, error) {
	var (
		project   *entities.Project
		catalogue []entities.Finding
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := o.Gateway.GetProject(gctx, id)
		project = p
		return err
	})
	g.Go(func() error {
		list, err := o.Gateway.ListFindings(gctx)
		catalogue = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, o.remoteFailure("OpenProjectEditor", err, interfaces.F("project_id", id))
	}
	o.catalogue.Replace(catalogue)
	o.remember(*project)

	draft := o.sessions.Open(id, func() *services.Draft[string, any] {
		return services.NewDraft(projectFields(*project), cloneProjectValue)
	})
	if err := draft.Edit(); err != nil {
		return nil, err
	}
	return &ProjectEditor{o: o, id: id, draft: draft}, nil
}

// remember upserts p, keeping embedded findings known locally.
func (o *ProjectsOrchestrator) remember(p entities.Project) {
	o.store.Upsert(p.Clone())
	for _, f := range p.EmbeddedFindings() {
		if f.Title == "" {
			f.Title = f.DisplayTitle()
		}
		o.catalogue.Upsert(f)
	}
}

// resolve maps references to findings, preferring embedded copies and then
// the catalogue. Unknown ids resolve to a bare finding.
func (o *ProjectsOrchestrator) resolve(refs []entities.FindingRef) []entities.Finding {
	out := make([]entities.Finding, 0, len(refs))
	for _, ref := range refs {
		var f entities.Finding
		switch {
		case ref.Embedded != nil:
			f = ref.Embedded.Clone()
			if known, err := o.catalogue.Get(ref.ID); err == nil && f.Title == "" {
				f.Title = known.Title
			}
		default:
			known, err := o.catalogue.Get(ref.ID)
			if err != nil {
				known = entities.Finding{ID: ref.ID}
			}
			f = known
		}
		if f.Title == "" {
			f.Title = f.DisplayTitle()
		}
		out = append(out, f)
	}
	return out
}

func projectFields(p entities.Project) map[string]any {
	return map[string]any{
		ProjectFieldName:        p.Name,
		ProjectFieldDescription: p.Description,
		ProjectFieldFindings:    slices.Clone(p.Findings),
	}
}

func cloneProjectValue(v any) any {
	if refs, ok := v.([]entities.FindingRef); ok {
		return slices.Clone(refs)
	}
	return v
}

// ProjectEditor is the editing session of a project's name, description
// and finding references
type ProjectEditor struct {
	o     *ProjectsOrchestrator
	id    string
	draft *services.Draft[string, any]
}

// ID returns the edited project's id
func (e *ProjectEditor) ID() string { return e.id }

// State returns the session state
func (e *ProjectEditor) State() services.DraftState { return e.draft.State() }

// Name returns the draft name
func (e *ProjectEditor) Name() string {
	s, _ := e.draft.Value(ProjectFieldName).(string)
	return s
}

// Description returns the draft description
func (e *ProjectEditor) Description() string {
	s, _ := e.draft.Value(ProjectFieldDescription).(string)
	return s
}

// Refs returns the draft finding references
func (e *ProjectEditor) Refs() []entities.FindingRef {
	refs, _ := e.draft.Value(ProjectFieldFindings).([]entities.FindingRef)
	return refs
}

// Selected returns the normalized ids of the draft references
func (e *ProjectEditor) Selected() []string {
	return e.o.assoc.Normalize(e.Refs())
}

// Contains reports whether the draft references findingID
func (e *ProjectEditor) Contains(findingID string) bool {
	return e.o.assoc.Contains(e.Refs(), findingID)
}

// SetName changes the draft name
func (e *ProjectEditor) SetName(name string) error {
	return e.set(ProjectFieldName, name)
}

// SetDescription changes the draft description
func (e *ProjectEditor) SetDescription(description string) error {
	return e.set(ProjectFieldDescription, description)
}

// Toggle adds findingID to the draft references, or removes it when present
func (e *ProjectEditor) Toggle(findingID string) error {
	return e.set(ProjectFieldFindings, e.o.assoc.Toggle(e.Refs(), findingID))
}

// Available returns a page of the catalogue filtered by title or id
func (e *ProjectEditor) Available(term string, page int) services.Page[entities.Finding] {
	matches := e.o.assoc.FilterAvailable(e.o.catalogue.List(), term)
	return services.Paginate(matches, page, e.o.AssociationPageSize)
}

// Dirty reports whether the draft differs from the saved project
func (e *ProjectEditor) Dirty() bool {
	return len(e.draft.DirtyFields()) > 0
}

// Save sends the draft name, description and normalized finding ids
func (e *ProjectEditor) Save(ctx context.Context) error {
	input := entities.ProjectInput{
		Name:        e.Name(),
		Description: e.Description(),
		Findings:    e.Selected(),
	}
	if err := e.o.validate("UpdateProject", input); err != nil {
		return err
	}

	ticket, err := e.draft.BeginSave()
	if err != nil {
		return err
	}
	updated, err := e.o.Gateway.UpdateProject(ctx, e.id, input)
	if err != nil {
		_ = e.draft.Fail(ticket, err)
		return e.o.remoteFailure("UpdateProject", err, interfaces.F("project_id", e.id))
	}

	var authoritative map[string]any
	if updated != nil {
		authoritative = projectFields(*updated)
	}
	if err := e.draft.Commit(ticket, authoritative); err != nil {
		e.o.Logger.Warn("ignored late save result", interfaces.F("project_id", e.id), interfaces.F("error", err))
		return err
	}

	saved := e.draft.Saved()
	p := entities.Project{ID: e.id}
	p.Name, _ = saved[ProjectFieldName].(string)
	p.Description, _ = saved[ProjectFieldDescription].(string)
	p.Findings, _ = saved[ProjectFieldFindings].([]entities.FindingRef)
	e.o.remember(p)
	e.o.succeeded("UpdateProject", "Project updated", interfaces.F("project_id", e.id))
	return nil
}

// Cancel discards the draft and keeps the session open
func (e *ProjectEditor) Cancel() {
	e.draft.Cancel()
}

// Close ends the session
func (e *ProjectEditor) Close() {
	e.o.sessions.Close(e.id)
}

func (e *ProjectEditor) set(field string, value any) error {
	if err := e.draft.Edit(); err != nil {
		return err
	}
	return e.draft.Set(field, value)
}
