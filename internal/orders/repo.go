package orders

import (
	"context"

	"github.com/freshoils/freshoils-backend/pkg/db/models"
	"github.com/freshoils/freshoils-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateOrderTotal(ctx context.Context, orderID uint, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("total_amount", total).Error
}

// FindOrderableProduct loads a product constrained to in-stock rows, so
// unavailable products read as not found.
func (r *repository) FindOrderableProduct(ctx context.Context, productID uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND in_stock = ?", productID, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByID(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uint, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("status", status).Error
}

func (r *repository) Summary(ctx context.Context) (*SummaryDTO, error) {
	var row struct {
		TotalOrders     int64
		TotalRevenue    decimal.Decimal
		PendingOrders   int64
		CompletedOrders int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(
			"COUNT(*) AS total_orders, "+
				"COALESCE(SUM(total_amount), 0) AS total_revenue, "+
				"COUNT(*) FILTER (WHERE status = ?) AS pending_orders, "+
				"COUNT(*) FILTER (WHERE status = ?) AS completed_orders",
			enums.OrderStatusPending, enums.OrderStatusDelivered,
		).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &SummaryDTO{
		TotalOrders:     row.TotalOrders,
		TotalRevenue:    row.TotalRevenue,
		PendingOrders:   row.PendingOrders,
		CompletedOrders: row.CompletedOrders,
	}, nil
}
