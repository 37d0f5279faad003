package gateways

import (
	"context"
	"net/http"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces/gateways"
)

// assistantGateway implements AssistantGateway over the backend HTTP API.
// Calls share the assistant rate limit.
type assistantGateway struct {
	http *httpClient
}

var _ gateways.AssistantGateway = (*assistantGateway)(nil)

type grammarRequest struct {
	Text string `json:"text"`
}

type grammarResponse struct {
	CorrectedText *string `json:"corrected_text"`
}

// generateSummariesRequest is the backend format of a summary request
type generateSummariesRequest struct {
	ProjectID        string `json:"project_id"`
	ProjectName      string `json:"project_name"`
	FindingsOverview string `json:"findings_overview"`
	ProjectSummary   string `json:"project_summary"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
}

// CorrectGrammar returns the corrected form of text
func (g *assistantGateway) CorrectGrammar(ctx context.Context, text string) (string, error) {
	if err := g.http.throttle(ctx, "CorrectGrammar"); err != nil {
		return "", err
	}

	body, err := g.http.do(ctx, call{
		op:     "CorrectGrammar",
		method: http.MethodPost,
		path:   "/correct_grammar",
		body:   grammarRequest{Text: text},
	})
	if err != nil {
		return "", err
	}

	var resp grammarResponse
	if err := decode("CorrectGrammar", body, &resp); err != nil {
		return "", err
	}
	if resp.CorrectedText == nil {
		return "", errs.New(errs.KindParseError, "CorrectGrammar", "backend response has no corrected text")
	}
	return *resp.CorrectedText, nil
}

// GenerateSummaries drafts the derived summary fields of a project
func (g *assistantGateway) GenerateSummaries(ctx context.Context, req entities.SummaryRequest) (*entities.GeneratedSummaries, error) {
	if err := g.http.throttle(ctx, "GenerateSummaries"); err != nil {
		return nil, err
	}

	payload := generateSummariesRequest{
		ProjectID:        req.ProjectID,
		ProjectName:      req.ProjectName,
		FindingsOverview: req.FindingsOverview,
		ProjectSummary:   req.ProjectSummary,
	}
	if !req.StartDate.IsZero() {
		payload.StartDate = req.StartDate.Format(entities.DateLayout)
	}
	if !req.EndDate.IsZero() {
		payload.EndDate = req.EndDate.Format(entities.DateLayout)
	}

	body, err := g.http.do(ctx, call{
		op:     "GenerateSummaries",
		method: http.MethodPost,
		path:   "/generate_summaries",
		body:   payload,
	})
	if err != nil {
		return nil, err
	}

	var generated entities.GeneratedSummaries
	if err := decode("GenerateSummaries", body, &generated); err != nil {
		return nil, err
	}
	return &generated, nil
}
