package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshoils/freshoils-backend/pkg/db/models"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service defines the behavior needed by the product controllers.
type Service interface {
	ListPublic(ctx context.Context) ([]ProductDTO, error)
	AdminList(ctx context.Context) ([]ProductDTO, error)
	AdminGet(ctx context.Context, id uint) (*ProductDTO, error)
	AdminCreate(ctx context.Context, req WriteProductRequest) (*ProductDTO, error)
	AdminReplace(ctx context.Context, id uint, req WriteProductRequest) (*ProductDTO, error)
	AdminPatch(ctx context.Context, id uint, req PatchProductRequest) (*ProductDTO, error)
	AdminDelete(ctx context.Context, id uint) error
}

type productRepository interface {
	ListInStock(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
}

type service struct {
	repo productRepository
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	Repo productRepository
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) ListPublic(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.ListInStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return FromModels(products), nil
}

func (s *service) AdminList(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return FromModels(products), nil
}

func (s *service) AdminGet(ctx context.Context, id uint) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) AdminCreate(ctx context.Context, req WriteProductRequest) (*ProductDTO, error) {
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		InStock:     true,
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}

	if req.Category != nil && *req.Category != "" {
		category, err := s.repo.FindOrCreateCategory(ctx, *req.Category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve category")
		}
		product.CategoryID = &category.ID
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return FromModel(created), nil
}

func (s *service) AdminReplace(ctx context.Context, id uint, req WriteProductRequest) (*ProductDTO, error) {
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}
	updates := map[string]any{
		"name":        req.Name,
		"description": req.Description,
		"price":       req.Price,
		"image_url":   req.ImageURL,
		"in_stock":    inStock,
		"category_id": nil,
	}
	if req.Category != nil && *req.Category != "" {
		category, err := s.repo.FindOrCreateCategory(ctx, *req.Category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve category")
		}
		updates["category_id"] = category.ID
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return s.AdminGet(ctx, id)
}

func (s *service) AdminPatch(ctx context.Context, id uint, req PatchProductRequest) (*ProductDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
		updates["price"] = *req.Price
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.InStock != nil {
		updates["in_stock"] = *req.InStock
	}
	if req.Category != nil {
		if *req.Category == "" {
			updates["category_id"] = nil
		} else {
			category, err := s.repo.FindOrCreateCategory(ctx, *req.Category)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve category")
			}
			updates["category_id"] = category.ID
		}
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
	}
	return s.AdminGet(ctx, id)
}

func (s *service) AdminDelete(ctx context.Context, id uint) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}
