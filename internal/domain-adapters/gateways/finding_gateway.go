package gateways

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces/gateways"
)

// findingGateway implements FindingGateway over the backend HTTP API
type findingGateway struct {
	http *httpClient
}

var _ gateways.FindingGateway = (*findingGateway)(nil)

// generateReportRequest is the backend format of a report generation request
type generateReportRequest struct {
	ReportType         entities.ReportType `json:"report_type"`
	Parameters         reportParameters    `json:"parameters"`
	ObfuscateUsernames bool                `json:"obfuscate_usernames"`
	ObfuscateMachines  bool                `json:"obfuscate_machines"`
	ObfuscateDomains   bool                `json:"obfuscate_domains"`
}

type reportParameters struct {
	Overview string `json:"Overview"`
}

// updateReportRequest carries the report as encoded JSON text
type updateReportRequest struct {
	Report string `json:"report"`
}

// ListFindings returns list-level projections of all findings
func (g *findingGateway) ListFindings(ctx context.Context) ([]entities.Finding, error) {
	body, err := g.http.getShared(ctx, "ListFindings", "/get_findings")
	if err != nil {
		return nil, err
	}

	var findings []entities.Finding
	if err := decode("ListFindings", body, &findings); err != nil {
		return nil, err
	}
	return findings, nil
}

// GetFinding retrieves a finding with its full report
func (g *findingGateway) GetFinding(ctx context.Context, id string) (*entities.Finding, error) {
	body, err := g.http.do(ctx, call{
		op:     "GetFinding",
		method: http.MethodGet,
		path:   "/get_report/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}

	var finding entities.Finding
	if err := decode("GetFinding", body, &finding); err != nil {
		return nil, err
	}
	if finding.ID == "" {
		finding.ID = id
	}
	return &finding, nil
}

// CreateFinding asks the backend to draft and store a new finding
func (g *findingGateway) CreateFinding(ctx context.Context, req entities.ReportRequest) (*entities.Finding, error) {
	if err := g.http.throttle(ctx, "CreateFinding"); err != nil {
		return nil, err
	}

	body, err := g.http.do(ctx, call{
		op:     "CreateFinding",
		method: http.MethodPost,
		path:   "/generate_report",
		body: generateReportRequest{
			ReportType:         req.ReportType,
			Parameters:         reportParameters{Overview: req.Overview},
			ObfuscateUsernames: req.ObfuscateUsernames,
			ObfuscateMachines:  req.ObfuscateMachines,
			ObfuscateDomains:   req.ObfuscateDomains,
		},
	})
	if err != nil {
		return nil, err
	}

	var finding entities.Finding
	if err := decode("CreateFinding", body, &finding); err != nil {
		return nil, err
	}
	if finding.ID == "" {
		return nil, errs.New(errs.KindParseError, "CreateFinding", "backend response has no finding id")
	}
	if finding.ReportType == "" {
		finding.ReportType = req.ReportType
	}
	if finding.Overview == "" {
		finding.Overview = req.Overview
	}
	if finding.Title == "" {
		finding.Title = finding.DisplayTitle()
	}
	return &finding, nil
}

// UpdateFinding replaces the finding's report
func (g *findingGateway) UpdateFinding(ctx context.Context, id string, report entities.Report) (*entities.Finding, error) {
	text, err := report.Serialize()
	if err != nil {
		return nil, err
	}

	body, err := g.http.do(ctx, call{
		op:     "UpdateFinding",
		method: http.MethodPut,
		path:   "/update_report/" + url.PathEscape(id),
		body:   updateReportRequest{Report: text},
	})
	if err != nil {
		return nil, err
	}
	if !carriesEntity(body) {
		return nil, nil
	}

	var finding entities.Finding
	if err := decode("UpdateFinding", body, &finding); err != nil {
		return nil, err
	}
	return &finding, nil
}

// DeleteFinding removes a finding
func (g *findingGateway) DeleteFinding(ctx context.Context, id string) error {
	_, err := g.http.do(ctx, call{
		op:     "DeleteFinding",
		method: http.MethodDelete,
		path:   "/delete_finding/" + url.PathEscape(id),
	})
	return err
}
