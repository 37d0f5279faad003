package gateways

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/interfaces/gateways"
)

// summaryGateway implements SummaryGateway over the backend HTTP API
type summaryGateway struct {
	http *httpClient
}

var _ gateways.SummaryGateway = (*summaryGateway)(nil)

// GetProjectSummary returns the latest summary record of a project
func (g *summaryGateway) GetProjectSummary(ctx context.Context, projectID string) (*entities.ProjectSummary, error) {
	body, err := g.http.do(ctx, call{
		op:     "GetProjectSummary",
		method: http.MethodGet,
		path:   "/get_project_summaries/" + url.PathEscape(projectID),
	})
	if err != nil {
		return nil, err
	}

	var summary entities.ProjectSummary
	if err := decode("GetProjectSummary", body, &summary); err != nil {
		return nil, err
	}
	if summary.ProjectID == "" {
		summary.ProjectID = projectID
	}
	return &summary, nil
}

// UpdateProjectSummary writes the given summary fields
func (g *summaryGateway) UpdateProjectSummary(ctx context.Context, projectID string, fields map[entities.SummaryField]string) (*entities.ProjectSummary, error) {
	payload := make(map[string]string, len(fields))
	for field, value := range fields {
		if field.Valid() {
			payload[string(field)] = value
		}
	}

	body, err := g.http.do(ctx, call{
		op:     "UpdateProjectSummary",
		method: http.MethodPut,
		path:   "/update_project_summary/" + url.PathEscape(projectID),
		body:   payload,
	})
	if err != nil {
		return nil, err
	}
	if !carriesEntity(body) {
		return nil, nil
	}

	var summary entities.ProjectSummary
	if err := decode("UpdateProjectSummary", body, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
