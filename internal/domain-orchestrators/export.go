package orchestrators

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces"
	"github.com/ochairo/slime/internal/domain/services"
)

// exportConcurrency bounds concurrent report fetches during an export
const exportConcurrency = 4

// ExportOrchestrator renders project reports
type ExportOrchestrator struct {
	base
}

// NewExportOrchestrator creates a new export orchestrator
func NewExportOrchestrator(deps Deps) *ExportOrchestrator {
	return &ExportOrchestrator{base: newBase(deps)}
}

// ExportResult is a rendered project report
type ExportResult struct {
	Markdown string

	// Signature is the armored detached signature of Markdown, empty when
	// no signer is configured
	Signature   []byte
	Fingerprint string
}

// Signed reports whether the export carries a signature
func (r *ExportResult) Signed() bool { return len(r.Signature) > 0 }

// Export fetches the project, its summary and the full report of every
// finding, and renders them as one Markdown document
func (o *ExportOrchestrator) Export(ctx context.Context, projectID string) (*ExportResult, error) {
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
			return nil
		}
		summary = s
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, o.remoteFailure("ExportProject", err, interfaces.F("project_id", projectID))
	}

	findings, err := o.fetchReports(ctx, project.Findings)
	if err != nil {
		return nil, o.remoteFailure("ExportProject", err, interfaces.F("project_id", projectID))
	}

	markdown := services.RenderProjectMarkdown(services.ProjectReport{
		Project:  *project,
		Summary:  summary,
		Findings: findings,
	})
	result := &ExportResult{Markdown: markdown}

	if o.Signer != nil {
		var sig bytes.Buffer
		if err := o.Signer.SignDetached(&sig, strings.NewReader(markdown)); err != nil {
			o.Logger.Error("failed to sign export", interfaces.F("project_id", projectID), interfaces.F("error", err))
			o.notify("Failed to sign the exported report", entities.SeverityError, 0)
			return nil, err
		}
		result.Signature = sig.Bytes()
		result.Fingerprint = o.Signer.Fingerprint()
	}

	o.Logger.Info("project exported",
		interfaces.F("project_id", projectID),
		interfaces.F("findings", len(findings)),
		interfaces.F("signed", result.Signed()))
	return result, nil
}

// fetchReports loads the full report of every referenced finding, keeping
// reference order
func (o *ExportOrchestrator) fetchReports(ctx context.Context, refs []entities.FindingRef) ([]entities.Finding, error) {
	findings := make([]entities.Finding, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			f, err := o.Gateway.GetFinding(gctx, ref.ID)
			if err != nil {
				return err
			}
			if f.ID == "" {
				f.ID = ref.ID
			}
			if f.Title == "" && ref.Embedded != nil {
				f.Title = ref.Embedded.Title
			}
			findings[i] = *f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return findings, nil
}
