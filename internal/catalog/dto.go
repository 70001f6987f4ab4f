package catalog

import (
	"github.com/freshoils/freshoils-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// ProductDTO is the public representation of a catalog listing. Category is
// the category name, nil when the product is uncategorized.
type ProductDTO struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    *string         `json:"category"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
	InStock     bool            `json:"in_stock"`
}

// FromModel maps a persisted product onto the public DTO.
func FromModel(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImageURL:    product.ImageURL,
		InStock:     product.InStock,
	}
	if product.Category != nil {
		name := product.Category.Name
		dto.Category = &name
	}
	return dto
}

// FromModels maps a product slice onto DTOs.
func FromModels(products []models.Product) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *FromModel(&products[i]))
	}
	return dtos
}

// WriteProductRequest is the full product payload used by create and PUT.
// Category carries a name; an unseen name creates the category on the fly.
type WriteProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Category    *string         `json:"category" validate:"omitempty,max=120"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url" validate:"omitempty,url,max=500"`
	InStock     *bool           `json:"in_stock"`
}

// PatchProductRequest updates only the provided fields.
type PatchProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Category    *string          `json:"category" validate:"omitempty,max=120"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url,max=500"`
	InStock     *bool            `json:"in_stock"`
}
