// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/slime/internal/domain/entities"
)

// FindingGateway defines operations on remote findings
type FindingGateway interface {
	// ListFindings returns list-level projections of all findings
	ListFindings(ctx context.Context) ([]entities.Finding, error)

	// GetFinding retrieves a finding with its full report
	GetFinding(ctx context.Context, id string) (*entities.Finding, error)

	// CreateFinding asks the backend to draft and store a new finding
	CreateFinding(ctx context.Context, req entities.ReportRequest) (*entities.Finding, error)

	// UpdateFinding replaces the finding's report. The returned finding is
	// the backend's authoritative copy, or nil when the backend only
	// acknowledged the write.
	UpdateFinding(ctx context.Context, id string, report entities.Report) (*entities.Finding, error)

	// DeleteFinding removes a finding
	DeleteFinding(ctx context.Context, id string) error
}

// ProjectGateway defines operations on remote projects
type ProjectGateway interface {
	// ListProjects returns all projects
	ListProjects(ctx context.Context) ([]entities.Project, error)

	// GetProject retrieves a project with its findings embedded
	GetProject(ctx context.Context, id string) (*entities.Project, error)

	// CreateProject creates a project and returns it
	CreateProject(ctx context.Context, input entities.ProjectInput) (*entities.Project, error)

	// UpdateProject replaces the project's name, description and finding ids.
	// A nil project means the backend only acknowledged the write.
	UpdateProject(ctx context.Context, id string, input entities.ProjectInput) (*entities.Project, error)

	// DeleteProject removes a project
	DeleteProject(ctx context.Context, id string) error
}

// SummaryGateway defines operations on project summaries
type SummaryGateway interface {
	// GetProjectSummary returns the summary record, or a NotFound error when
	// the project has none yet
	GetProjectSummary(ctx context.Context, projectID string) (*entities.ProjectSummary, error)

	// UpdateProjectSummary writes the given fields. A nil summary means the
	// backend only acknowledged the write.
	UpdateProjectSummary(ctx context.Context, projectID string, fields map[entities.SummaryField]string) (*entities.ProjectSummary, error)
}

// AssistantGateway defines the AI-assisted text operations
type AssistantGateway interface {
	// CorrectGrammar returns the corrected form of text
	CorrectGrammar(ctx context.Context, text string) (string, error)

	// GenerateSummaries drafts the derived summary fields of a project
	GenerateSummaries(ctx context.Context, req entities.SummaryRequest) (*entities.GeneratedSummaries, error)
}

// RemoteGateway is the full backend contract
type RemoteGateway interface {
	FindingGateway
	ProjectGateway
	SummaryGateway
	AssistantGateway
}
