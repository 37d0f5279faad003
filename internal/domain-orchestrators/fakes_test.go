package orchestrators

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces/services"
	domainservices "github.com/ochairo/slime/internal/domain/services"
	"github.com/ochairo/slime/internal/external-adapters/validation"
)

// fakeGateway is an in-memory backend. Setting err on an operation name
// makes that operation fail.
type fakeGateway struct {
	mu        sync.Mutex
	findings  map[string]entities.Finding
	projects  map[string]entities.Project
	summaries map[string]entities.ProjectSummary
	errors    map[string]error
	calls     []string

	grammarReply string
	generated    entities.GeneratedSummaries
	ackOnly      bool

	lastReport  entities.Report
	lastProject entities.ProjectInput
	lastSummary map[entities.SummaryField]string
	nextID      int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		findings:  make(map[string]entities.Finding),
		projects:  make(map[string]entities.Project),
		summaries: make(map[string]entities.ProjectSummary),
		errors:    make(map[string]error),
		nextID:    100,
	}
}

func (g *fakeGateway) record(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, op)
	return g.errors[op]
}

func (g *fakeGateway) failWith(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errors[op] = err
}

func (g *fakeGateway) called(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (g *fakeGateway) ListFindings(_ context.Context) ([]entities.Finding, error) {
	if err := g.record("ListFindings"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.findings))
	for id := range g.findings {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]entities.Finding, 0, len(ids))
	for _, id := range ids {
		f := g.findings[id]
		out = append(out, entities.Finding{ID: f.ID, Title: f.Title, Overview: f.Overview})
	}
	return out, nil
}

func (g *fakeGateway) GetFinding(_ context.Context, id string) (*entities.Finding, error) {
	if err := g.record("GetFinding"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.findings[id]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "GetFinding", "Report not found")
	}
	clone := f.Clone()
	clone.Title = ""
	return &clone, nil
}

func (g *fakeGateway) CreateFinding(_ context.Context, req entities.ReportRequest) (*entities.Finding, error) {
	if err := g.record("CreateFinding"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := fmt.Sprint(g.nextID)
	f := entities.Finding{
		ID:         id,
		Title:      "Generated",
		Overview:   req.Overview,
		ReportType: req.ReportType,
		Report:     entities.Report{entities.FieldTitle: "Generated", entities.FieldOverview: req.Overview},
	}
	g.findings[id] = f
	return &f, nil
}

func (g *fakeGateway) UpdateFinding(_ context.Context, id string, report entities.Report) (*entities.Finding, error) {
	if err := g.record("UpdateFinding"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	f := g.findings[id]
	f.Report = report.Clone()
	g.findings[id] = f
	g.lastReport = report.Clone()
	if g.ackOnly {
		return nil, nil
	}
	clone := f.Clone()
	return &clone, nil
}

func (g *fakeGateway) DeleteFinding(_ context.Context, id string) error {
	if err := g.record("DeleteFinding"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.findings, id)
	return nil
}

func (g *fakeGateway) ListProjects(_ context.Context) ([]entities.Project, error) {
	if err := g.record("ListProjects"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.projects))
	for id := range g.projects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]entities.Project, 0, len(ids))
	for _, id := range ids {
		p := g.projects[id]
		out = append(out, entities.Project{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return out, nil
}

func (g *fakeGateway) GetProject(_ context.Context, id string) (*entities.Project, error) {
	if err := g.record("GetProject"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.projects[id]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "GetProject", "Project not found")
	}
	out := entities.Project{ID: p.ID, Name: p.Name, Description: p.Description}
	for _, ref := range p.Findings {
		if f, ok := g.findings[ref.ID]; ok {
			embedded := f.Clone()
			embedded.Title = ""
			out.Findings = append(out.Findings, entities.RefEmbedding(embedded))
		}
	}
	return &out, nil
}

func (g *fakeGateway) CreateProject(_ context.Context, input entities.ProjectInput) (*entities.Project, error) {
	if err := g.record("CreateProject"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	p := entities.Project{ID: fmt.Sprint(g.nextID), Name: input.Name, Description: input.Description}
	g.projects[p.ID] = p
	return &p, nil
}

func (g *fakeGateway) UpdateProject(_ context.Context, id string, input entities.ProjectInput) (*entities.Project, error) {
	if err := g.record("UpdateProject"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	refs := make([]entities.FindingRef, 0, len(input.Findings))
	for _, fid := range input.Findings {
		refs = append(refs, entities.RefByID(fid))
	}
	g.projects[id] = entities.Project{ID: id, Name: input.Name, Description: input.Description, Findings: refs}
	g.lastProject = input
	return nil, nil
}

func (g *fakeGateway) DeleteProject(_ context.Context, id string) error {
	if err := g.record("DeleteProject"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.projects, id)
	return nil
}

func (g *fakeGateway) GetProjectSummary(_ context.Context, projectID string) (*entities.ProjectSummary, error) {
	if err := g.record("GetProjectSummary"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.summaries[projectID]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "GetProjectSummary", "No summaries found for this project")
	}
	return &s, nil
}

func (g *fakeGateway) UpdateProjectSummary(_ context.Context, projectID string, fields map[entities.SummaryField]string) (*entities.ProjectSummary, error) {
	if err := g.record("UpdateProjectSummary"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s := entities.ProjectSummary{ProjectID: projectID}
	for field, value := range fields {
		s = s.WithField(field, value)
	}
	g.summaries[projectID] = s
	g.lastSummary = fields
	return nil, nil
}

func (g *fakeGateway) CorrectGrammar(_ context.Context, _ string) (string, error) {
	if err := g.record("CorrectGrammar"); err != nil {
		return "", err
	}
	return g.grammarReply, nil
}

func (g *fakeGateway) GenerateSummaries(_ context.Context, req entities.SummaryRequest) (*entities.GeneratedSummaries, error) {
	if err := g.record("GenerateSummaries"); err != nil {
		return nil, err
	}
	out := g.generated
	out.ID = req.ProjectID
	return &out, nil
}

// fakeConfirmer answers every prompt with answer and records the prompts
type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}

var _ services.Confirmer = (*fakeConfirmer)(nil)

type harness struct {
	gateway   *fakeGateway
	notifier  *domainservices.TransientNotifier
	clock     *domainservices.ManualClock
	confirmer *fakeConfirmer
	deps      Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := domainservices.NewManualClock(time.UnixMilli(1_700_000_000_000))
	h := &harness{
		gateway:   newFakeGateway(),
		clock:     clock,
		notifier:  domainservices.NewNotifier(clock, entities.NotificationConfig{}),
		confirmer: &fakeConfirmer{answer: true},
	}
	h.deps = Deps{
		Gateway:   h.gateway,
		Notifier:  h.notifier,
		Confirmer: h.confirmer,
		Validator: validation.NewValidator(),
	}
	return h
}

func (h *harness) severities() []entities.Severity {
	var out []entities.Severity
	for _, n := range h.notifier.Entries() {
		out = append(out, n.Severity)
	}
	return out
}

func (h *harness) lastNotification(t *testing.T) entities.Notification {
	t.Helper()
	entries := h.notifier.Entries()
	if len(entries) == 0 {
		t.Fatal("no notification queued")
	}
	return entries[len(entries)-1]
}

func (h *harness) seedFindings() {
	h.gateway.findings["1"] = entities.Finding{
		ID: "1", Title: "SQL injection", Overview: "Login form injectable",
		Report: entities.Report{entities.FieldTitle: "SQL injection", entities.FieldOverview: "Login form injectable", entities.FieldCVSS: "9.8"},
	}
	h.gateway.findings["2"] = entities.Finding{
		ID: "2", Title: "Weak TLS", Overview: "TLS 1.0 enabled",
		Report: entities.Report{entities.FieldTitle: "Weak TLS", entities.FieldOverview: "TLS 1.0 enabled"},
	}
	h.gateway.findings["3"] = entities.Finding{
		ID: "3", Title: "Kerberoasting", Overview: "Service accounts roastable",
		Report: entities.Report{entities.FieldTitle: "Kerberoasting", entities.FieldOverview: "Service accounts roastable"},
	}
}

func (h *harness) seedProject() {
	h.gateway.projects["5"] = entities.Project{
		ID: "5", Name: "Acme internal", Description: "Q3 assessment",
		Findings: []entities.FindingRef{entities.RefByID("1"), entities.RefByID("2")},
	}
}
