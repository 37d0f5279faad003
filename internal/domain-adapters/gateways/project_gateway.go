package gateways

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces/gateways"
)

// projectGateway implements ProjectGateway over the backend HTTP API
type projectGateway struct {
	http *httpClient
}

var _ gateways.ProjectGateway = (*projectGateway)(nil)

// ListProjects returns all projects
func (g *projectGateway) ListProjects(ctx context.Context) ([]entities.Project, error) {
	body, err := g.http.getShared(ctx, "ListProjects", "/get_projects")
	if err != nil {
		return nil, err
	}

	var projects []entities.Project
	if err := decode("ListProjects", body, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject retrieves a project with its findings embedded
func (g *projectGateway) GetProject(ctx context.Context, id string) (*entities.Project, error) {
	body, err := g.http.do(ctx, call{
		op:     "GetProject",
		method: http.MethodGet,
		path:   "/get_project/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}

	var project entities.Project
	if err := decode("GetProject", body, &project); err != nil {
		return nil, err
	}
	if project.ID == "" {
		project.ID = id
	}
	return &project, nil
}

// CreateProject creates a project and returns it
func (g *projectGateway) CreateProject(ctx context.Context, input entities.ProjectInput) (*entities.Project, error) {
	body, err := g.http.do(ctx, call{
		op:     "CreateProject",
		method: http.MethodPost,
		path:   "/create_project",
		body:   input,
	})
	if err != nil {
		return nil, err
	}

	var project entities.Project
	if err := decode("CreateProject", body, &project); err != nil {
		return nil, err
	}
	if project.ID == "" {
		return nil, errs.New(errs.KindParseError, "CreateProject", "backend response has no project id")
	}
	return &project, nil
}

// UpdateProject replaces the project's name, description and finding ids
func (g *projectGateway) UpdateProject(ctx context.Context, id string, input entities.ProjectInput) (*entities.Project, error) {
	if input.Findings == nil {
		input.Findings = []string{}
	}

	body, err := g.http.do(ctx, call{
		op:     "UpdateProject",
		method: http.MethodPut,
		path:   "/update_project/" + url.PathEscape(id),
		body:   input,
	})
	if err != nil {
		return nil, err
	}
	if !carriesEntity(body) {
		return nil, nil
	}

	var project entities.Project
	if err := decode("UpdateProject", body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project
func (g *projectGateway) DeleteProject(ctx context.Context, id string) error {
	_, err := g.http.do(ctx, call{
		op:     "DeleteProject",
		method: http.MethodDelete,
		path:   "/delete_project/" + url.PathEscape(id),
	})
	return err
}
