package projecta

import (
	"context"
	"fmt"
)

// Project is a tracked project.
type Project struct {
	ID          string
	Name        string
	Description string
}

// Total is one aggregate line for a project.
type Total struct {
	Title    string
	Amount   int64
	Currency string
}

type projectDTO struct {
	ProjectID   string `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectListDTO struct {
	Projects []projectDTO `json:"projects"`
	Total    int          `json:"total"`
}

type totalDTO struct {
	Title    string `json:"title"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type totalsDTO struct {
	Totals []totalDTO `json:"totals"`
}

type createProjectDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectRepository maps the /projects collection.
type ProjectRepository struct {
	caller Caller
}

// NewProjectRepository wires the repository to an API caller.
func NewProjectRepository(caller Caller) *ProjectRepository {
	return &ProjectRepository{caller: caller}
}

// List returns one page of projects plus the collection total.
func (repository *ProjectRepository) List(ctx context.Context, page Page) ([]Project, int, error) {
	var response projectListDTO
	if err := repository.caller.Get(ctx, "/projects?"+page.queryString(), &response); err != nil {
		return nil, 0, err
	}
	projects := make([]Project, 0, len(response.Projects))
	for _, dto := range response.Projects {
		projects = append(projects, Project{
			ID:          dto.ProjectID,
			Name:        dto.Name,
			Description: dto.Description,
		})
	}
	return projects, response.Total, nil
}

// Create registers a new project.
func (repository *ProjectRepository) Create(ctx context.Context, name string, description string) (Project, error) {
	var response projectDTO
	err := repository.caller.Post(ctx, "/projects", createProjectDTO{
		Name:        name,
		Description: description,
	}, &response)
	if err != nil {
		return Project{}, err
	}
	return Project{
		ID:          response.ProjectID,
		Name:        response.Name,
		Description: response.Description,
	}, nil
}

// Totals returns the aggregate lines for a project.
func (repository *ProjectRepository) Totals(ctx context.Context, projectID string) ([]Total, error) {
	var response totalsDTO
	path := fmt.Sprintf("/projects/%s/totals", projectID)
	if err := repository.caller.Get(ctx, path, &response); err != nil {
		return nil, err
	}
	totals := make([]Total, 0, len(response.Totals))
	for _, dto := range response.Totals {
		totals = append(totals, Total{
			Title:    dto.Title,
			Amount:   dto.Amount,
			Currency: dto.Currency,
		})
	}
	return totals, nil
}
