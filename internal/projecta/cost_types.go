package projecta

import "context"

// CostType is an expense type belonging to a category.
type CostType struct {
	ID          string
	Name        string
	Description string
	Category    string
}

type costTypeDTO struct {
	TypeID      string   `json:"type_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    namedDTO `json:"category"`
}

type costTypeListDTO struct {
	Types []costTypeDTO `json:"types"`
	Total int           `json:"total"`
}

type addCostTypeDTO struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CostTypeRepository maps /projects/{id}/types.
type CostTypeRepository struct {
	caller Caller
}

// NewCostTypeRepository wires the repository to an API caller.
func NewCostTypeRepository(caller Caller) *CostTypeRepository {
	return &CostTypeRepository{caller: caller}
}

// List returns one page of cost types plus the collection total.
func (repository *CostTypeRepository) List(ctx context.Context, projectID string, page Page) ([]CostType, int, error) {
	var response costTypeListDTO
	if err := repository.caller.Get(ctx, collectionPath(projectID, "types", page), &response); err != nil {
		return nil, 0, err
	}
	costTypes := make([]CostType, 0, len(response.Types))
	for _, dto := range response.Types {
		costTypes = append(costTypes, toCostType(dto))
	}
	return costTypes, response.Total, nil
}

// Add creates a cost type under a category.
func (repository *CostTypeRepository) Add(ctx context.Context, projectID string, categoryID string, name string, description string) (CostType, error) {
	var response costTypeDTO
	err := repository.caller.Post(ctx, "/projects/"+projectID+"/types", addCostTypeDTO{
		CategoryID:  categoryID,
		Name:        name,
		Description: description,
	}, &response)
	if err != nil {
		return CostType{}, err
	}
	return toCostType(response), nil
}

// Remove deletes a cost type.
func (repository *CostTypeRepository) Remove(ctx context.Context, projectID string, typeID string) error {
	return repository.caller.Delete(ctx, resourcePath(projectID, "types", typeID), nil)
}

func toCostType(dto costTypeDTO) CostType {
	return CostType{
		ID:          dto.TypeID,
		Name:        dto.Name,
		Description: dto.Description,
		Category:    dto.Category.Name,
	}
}
