package projecta

import "context"

// Category is a cost category within a project.
type Category struct {
	ID          string
	Name        string
	Description string
}

type categoryDTO struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type categoryListDTO struct {
	Categories []categoryDTO `json:"categories"`
	Total      int           `json:"total"`
}

type addCategoryDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryRepository maps /projects/{id}/categories.
type CategoryRepository struct {
	caller Caller
}

// NewCategoryRepository wires the repository to an API caller.
func NewCategoryRepository(caller Caller) *CategoryRepository {
	return &CategoryRepository{caller: caller}
}

// List returns one page of categories plus the collection total.
func (repository *CategoryRepository) List(ctx context.Context, projectID string, page Page) ([]Category, int, error) {
	var response categoryListDTO
	if err := repository.caller.Get(ctx, collectionPath(projectID, "categories", page), &response); err != nil {
		return nil, 0, err
	}
	categories := make([]Category, 0, len(response.Categories))
	for _, dto := range response.Categories {
		categories = append(categories, Category{
			ID:          dto.CategoryID,
			Name:        dto.Name,
			Description: dto.Description,
		})
	}
	return categories, response.Total, nil
}

// Add creates a category.
func (repository *CategoryRepository) Add(ctx context.Context, projectID string, name string, description string) (Category, error) {
	var response categoryDTO
	err := repository.caller.Post(ctx, "/projects/"+projectID+"/categories", addCategoryDTO{
		Name:        name,
		Description: description,
	}, &response)
	if err != nil {
		return Category{}, err
	}
	return Category{
		ID:          response.CategoryID,
		Name:        response.Name,
		Description: response.Description,
	}, nil
}

// Remove deletes a category.
func (repository *CategoryRepository) Remove(ctx context.Context, projectID string, categoryID string) error {
	return repository.caller.Delete(ctx, resourcePath(projectID, "categories", categoryID), nil)
}
