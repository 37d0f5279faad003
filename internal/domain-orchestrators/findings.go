package orchestrators

import (
	"context"
	"fmt"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces"
	"github.com/ochairo/slime/internal/domain/services"
)

// ListOverviewLimit is the rune limit of overviews in list views
const ListOverviewLimit = 200

// FindingsOrchestrator coordinates the finding list, the report editors and
// report generation
type FindingsOrchestrator struct {
	base
	store    *services.EntityStore[entities.Finding]
	view     *services.QueryView[entities.Finding]
	sessions *services.Sessions[string, string, any]
}

// NewFindingsOrchestrator creates a new findings orchestrator
func NewFindingsOrchestrator(deps Deps) *FindingsOrchestrator {
	return &FindingsOrchestrator{
		base:     newBase(deps),
		store:    services.NewFindingStore(),
		view:     services.NewFindingQueryView(),
		sessions: services.NewSessions[string, string, any](),
	}
}

// Store exposes the local finding collection
func (o *FindingsOrchestrator) Store() *services.EntityStore[entities.Finding] {
	return o.store
}

// Refresh replaces the local collection with the backend's list
func (o *FindingsOrchestrator) Refresh(ctx context.Context) ([]entities.Finding, error) {
	findings, err := o.Gateway.ListFindings(ctx)
	if err != nil {
		return nil, o.remoteFailure("ListFindings", err)
	}
	o.store.Replace(findings)

	if o.Snapshots != nil {
		if err := o.Snapshots.SaveFindings(ctx, o.store.List()); err != nil {
			o.Logger.Warn("failed to cache findings", interfaces.F("error", err))
		}
	}
	o.Logger.Debug("findings refreshed", interfaces.F("count", o.store.Len()))
	return o.store.List(), nil
}

// LoadCached fills the local collection from the snapshot cache
func (o *FindingsOrchestrator) LoadCached(ctx context.Context) ([]entities.Finding, error) {
	if o.Snapshots == nil {
		return nil, errs.New(errs.KindNotFound, "LoadCachedFindings", "the local cache is disabled")
	}
	snap, err := o.Snapshots.LoadFindings(ctx)
	if err != nil {
		return nil, err
	}
	o.store.Replace(snap.Items)
	o.Logger.Info("loaded cached findings",
		interfaces.F("count", len(snap.Items)),
		interfaces.F("fetched_at", snap.FetchedAt))
	return o.store.List(), nil
}

// List returns the requested page of the local collection. Overviews are
// truncated for display.
func (o *FindingsOrchestrator) List(q services.Query) services.Page[entities.Finding] {
	page := o.view.View(o.store.List(), q)
	for i := range page.Items {
		page.Items[i].Overview = entities.Truncate(page.Items[i].Overview, ListOverviewLimit)
	}
	return page
}

// Show fetches a finding with its full report
func (o *FindingsOrchestrator) Show(ctx context.Context, id string) (*entities.Finding, error) {
	f, err := o.Gateway.GetFinding(ctx, id)
	if err != nil {
		return nil, o.remoteFailure("GetFinding", err, interfaces.F("finding_id", id))
	}
	if f.ID == "" {
		f.ID = id
	}
	o.remember(*f)
	return f, nil
}

// Delete removes a finding once the confirmer approves. It reports whether
// the finding was deleted.
func (o *FindingsOrchestrator) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := o.confirm(ctx, fmt.Sprintf("Delete finding %s?", id))
	if err != nil || !ok {
		return false, err
	}

	if err := o.Gateway.DeleteFinding(ctx, id); err != nil {
		return false, o.remoteFailure("DeleteFinding", err, interfaces.F("finding_id", id))
	}
	_ = o.store.Remove(id)
	o.sessions.Close(id)
	o.succeeded("DeleteFinding", "Finding deleted", interfaces.F("finding_id", id))
	return true, nil
}

// Generate asks the backend to draft a new finding. Invalid requests are
// rejected before any remote call.
func (o *FindingsOrchestrator) Generate(ctx context.Context, req entities.ReportRequest) (*entities.Finding, error) {
	if err := o.validate("GenerateReport", req); err != nil {
		return nil, err
	}

	f, err := o.Gateway.CreateFinding(ctx, req)
	if err != nil {
		return nil, o.remoteFailure("CreateFinding", err, interfaces.F("report_type", req.ReportType))
	}
	o.store.Upsert(*f)
	o.succeeded("CreateFinding", "Report generated", interfaces.F("finding_id", f.ID))
	return f, nil
}

// OpenEditor loads a finding and opens its report editing session. An
// already open session for the same finding is returned as is.
func (o *FindingsOrchestrator) OpenEditor(ctx context.Context, id string) (*ReportEditor, error) {
	if draft, ok := o.sessions.Get(id); ok {
		f, err := o.store.Get(id)
		if err != nil {
			fetched, err := o.Show(ctx, id)
			if err != nil {
				return nil, err
			}
			f = *fetched
		}
		return &ReportEditor{o: o, finding: f, draft: draft}, nil
	}

	f, err := o.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	draft := o.sessions.Open(id, func() *services.Draft[string, any] {
		return services.NewDraft(map[string]any(f.Report), entities.CloneValue)
	})
	if err := draft.Edit(); err != nil {
		return nil, err
	}
	return &ReportEditor{o: o, finding: *f, draft: draft}, nil
}

// remember upserts f, keeping the known list title when the fetched copy has
// none
func (o *FindingsOrchestrator) remember(f entities.Finding) {
	if prev, err := o.store.Get(f.ID); err == nil {
		if f.Title == "" {
			f.Title = prev.Title
		}
		if f.Overview == "" {
			f.Overview = prev.Overview
		}
	}
	if f.Title == "" {
		f.Title = f.DisplayTitle()
	}
	o.store.Upsert(f)
}

// ReportEditor is the editing session of one finding's report. The whole
// report is sent on every save.
type ReportEditor struct {
	o       *FindingsOrchestrator
	finding entities.Finding
	draft   *services.Draft[string, any]
}

// ID returns the edited finding's id
func (e *ReportEditor) ID() string { return e.finding.ID }

// State returns the session state
func (e *ReportEditor) State() services.DraftState { return e.draft.State() }

// LastError returns the error of the last failed save
func (e *ReportEditor) LastError() error { return e.draft.LastError() }

// Report returns the draft report
func (e *ReportEditor) Report() entities.Report {
	return entities.Report(e.draft.Values())
}

// Saved returns the last saved report
func (e *ReportEditor) Saved() entities.Report {
	return entities.Report(e.draft.Saved())
}

// DirtyFields returns the report fields that differ from the saved report
func (e *ReportEditor) DirtyFields() []string { return e.draft.DirtyFields() }

// Set changes one report field of the draft
func (e *ReportEditor) Set(field string, value any) error {
	if err := e.draft.Edit(); err != nil {
		return err
	}
	return e.draft.Set(field, value)
}

// SetText parses text as a whole report document and replaces the draft's
// fields with it. Text that is not a valid document leaves the draft as is.
func (e *ReportEditor) SetText(text string) error {
	report, err := entities.ParseReportText(text)
	if err != nil {
		e.o.notify(errs.Message(err), entities.SeverityError, 0)
		return err
	}
	return e.apply(report)
}

// Save sends the full draft report
func (e *ReportEditor) Save(ctx context.Context) error {
	ticket, err := e.draft.BeginSave()
	if err != nil {
		return err
	}
	report := entities.Report(ticket.Values())
	if _, err := report.Serialize(); err != nil {
		perr := errs.Wrap(errs.KindParseError, "UpdateFinding", err)
		_ = e.draft.Fail(ticket, perr)
		e.o.notify(errs.Message(perr), entities.SeverityError, 0)
		return perr
	}

	updated, err := e.o.Gateway.UpdateFinding(ctx, e.finding.ID, report)
	if err != nil {
		_ = e.draft.Fail(ticket, err)
		return e.o.remoteFailure("UpdateFinding", err, interfaces.F("finding_id", e.finding.ID))
	}

	var authoritative map[string]any
	if updated != nil && updated.Report != nil {
		authoritative = updated.Report
	}
	if err := e.draft.Commit(ticket, authoritative); err != nil {
		e.o.Logger.Warn("ignored late save result", interfaces.F("finding_id", e.finding.ID), interfaces.F("error", err))
		return err
	}

	f := e.finding
	f.Report = e.Saved()
	if title, ok := f.Report[entities.FieldTitle].(string); ok {
		f.Title = title
	}
	if updated != nil && updated.Overview != "" {
		f.Overview = updated.Overview
	}
	e.finding = f
	e.o.remember(f)
	e.o.succeeded("UpdateFinding", "Report saved", interfaces.F("finding_id", f.ID))
	return nil
}

// CorrectGrammar sends the pretty-printed draft for grammar correction and
// loads the reply into the draft. A reply that is not a valid document
// leaves the draft unchanged.
func (e *ReportEditor) CorrectGrammar(ctx context.Context) error {
	text, err := e.Report().Pretty()
	if err != nil {
		perr := errs.Wrap(errs.KindParseError, "CorrectGrammar", err)
		e.o.notify(errs.Message(perr), entities.SeverityError, 0)
		return perr
	}

	corrected, err := e.o.Gateway.CorrectGrammar(ctx, text)
	if err != nil {
		return e.o.remoteFailure("CorrectGrammar", err, interfaces.F("finding_id", e.finding.ID))
	}

	report, err := entities.ParseReportText(corrected)
	if err != nil {
		return e.o.remoteFailure("CorrectGrammar", err, interfaces.F("finding_id", e.finding.ID))
	}
	if err := e.apply(report); err != nil {
		return err
	}
	e.o.succeeded("CorrectGrammar", "Grammar corrected", interfaces.F("finding_id", e.finding.ID))
	return nil
}

// Cancel discards the draft and returns the session to viewing. The
// session stays open; the next Set resumes editing.
func (e *ReportEditor) Cancel() {
	e.draft.Cancel()
}

// Close ends the session
func (e *ReportEditor) Close() {
	e.o.sessions.Close(e.finding.ID)
}

func (e *ReportEditor) apply(report entities.Report) error {
	if err := e.draft.Edit(); err != nil {
		return err
	}
	return e.draft.Replace(map[string]any(report))
}
