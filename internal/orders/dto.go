package orders

import (
	"time"

	"github.com/freshoils/freshoils-backend/pkg/db/models"
	"github.com/freshoils/freshoils-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CreateOrderItem is one requested line in an order.
type CreateOrderItem struct {
	ProductID uint `json:"product_id" validate:"required,min=1"`
	Quantity  int  `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest carries the items to purchase. An empty list is rejected.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusRequest carries the requested lifecycle transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderItemDTO is one snapshot line of a placed order.
type OrderItemDTO struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}

// OrderDTO is the public representation of a placed order.
type OrderDTO struct {
	ID          uint              `json:"id"`
	UserID      uint              `json:"user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Status      enums.OrderStatus `json:"status"`
	PaymentMode string            `json:"payment_mode"`
	Items       []OrderItemDTO    `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
}

// SummaryDTO aggregates the storefront order book for the admin dashboard.
type SummaryDTO struct {
	TotalOrders     int64           `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PendingOrders   int64           `json:"pending_orders"`
	CompletedOrders int64           `json:"completed_orders"`
}

// FromModel maps a persisted order onto the public DTO.
func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		dto := OrderItemDTO{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
		}
		if item.Product != nil {
			dto.ProductName = item.Product.Name
		}
		items = append(items, dto)
	}
	return &OrderDTO{
		ID:          order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		PaymentMode: order.PaymentMode,
		Items:       items,
		CreatedAt:   order.CreatedAt,
	}
}

// FromModels maps an order slice onto DTOs.
func FromModels(orders []models.Order) []OrderDTO {
	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, *FromModel(&orders[i]))
	}
	return dtos
}
