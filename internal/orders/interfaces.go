package orders

import (
	"context"

	"github.com/freshoils/freshoils-backend/pkg/db/models"
	"github.com/freshoils/freshoils-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	UpdateOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error
	FindOrderableProduct(ctx context.Context, productID uint) (*models.Product, error)
	FindByID(ctx context.Context, orderID uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, status enums.OrderStatus) error
	Summary(ctx context.Context) (*SummaryDTO, error)
}
