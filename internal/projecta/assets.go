package projecta

import (
	"context"
	"time"
)

// Asset is a project asset prepared for display.
type Asset struct {
	ID          string
	Name        string
	Description string
	Price       string
	Currency    string
	Type        string
	Category    string
	AcquiredAt  string
}

// AssetInput describes a new or updated asset in major units. WithPayment
// asks the server to record a matching payment on creation.
type AssetInput struct {
	TypeID      string
	Price       float64
	Currency    string
	AcquiredAt  time.Time
	Name        string
	Description string
	WithPayment bool
}

type assetDTO struct {
	AssetID     string   `json:"asset_id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	Type        namedDTO `json:"type"`
	Category    namedDTO `json:"category"`
	AcquiredAt  string   `json:"acquired_at"`
}

type assetListDTO struct {
	Assets []assetDTO `json:"assets"`
	Total  int        `json:"total"`
}

type assetInputDTO struct {
	TypeID      string `json:"type_id"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
	AcquiredAt  string `json:"acquired_at"`
	Name        string `json:"name"`
	Description string `json:"description"`
	WithPayment bool   `json:"with_payment"`
}

// AssetRepository maps /projects/{id}/assets.
type AssetRepository struct {
	caller Caller
}

// NewAssetRepository wires the repository to an API caller.
func NewAssetRepository(caller Caller) *AssetRepository {
	return &AssetRepository{caller: caller}
}

// List returns one page of assets plus the collection total.
func (repository *AssetRepository) List(ctx context.Context, projectID string, page Page) ([]Asset, int, error) {
	var response assetListDTO
	if err := repository.caller.Get(ctx, collectionPath(projectID, "assets", page), &response); err != nil {
		return nil, 0, err
	}
	assets := make([]Asset, 0, len(response.Assets))
	for _, dto := range response.Assets {
		assets = append(assets, toAsset(dto))
	}
	return assets, response.Total, nil
}

// Add registers a new asset.
func (repository *AssetRepository) Add(ctx context.Context, projectID string, asset AssetInput) (Asset, error) {
	var response assetDTO
	err := repository.caller.Post(ctx, "/projects/"+projectID+"/assets", toAssetInputDTO(asset), &response)
	if err != nil {
		return Asset{}, err
	}
	return toAsset(response), nil
}

// Update replaces an asset's attributes.
func (repository *AssetRepository) Update(ctx context.Context, projectID string, assetID string, asset AssetInput) (Asset, error) {
	var response assetDTO
	err := repository.caller.Put(ctx, resourcePath(projectID, "assets", assetID), toAssetInputDTO(asset), &response)
	if err != nil {
		return Asset{}, err
	}
	return toAsset(response), nil
}

// Remove deletes an asset.
func (repository *AssetRepository) Remove(ctx context.Context, projectID string, assetID string) error {
	return repository.caller.Delete(ctx, resourcePath(projectID, "assets", assetID), nil)
}

func toAssetInputDTO(asset AssetInput) assetInputDTO {
	return assetInputDTO{
		TypeID:      asset.TypeID,
		Price:       ToMinorUnits(asset.Price),
		Currency:    asset.Currency,
		AcquiredAt:  asset.AcquiredAt.Format(time.RFC3339),
		Name:        asset.Name,
		Description: asset.Description,
		WithPayment: asset.WithPayment,
	}
}

func toAsset(dto assetDTO) Asset {
	return Asset{
		ID:          dto.AssetID,
		Name:        dto.Name,
		Description: dto.Description,
		Price:       FormatMinorUnits(dto.Price),
		Currency:    dto.Currency,
		Type:        dto.Type.Name,
		Category:    dto.Category.Name,
		AcquiredAt:  ToDateView(dto.AcquiredAt),
	}
}
