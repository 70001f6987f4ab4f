package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshoils/freshoils-backend/pkg/db/models"
	"github.com/freshoils/freshoils-backend/pkg/enums"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order operations exposed to controllers.
type Service interface {
	Create(ctx context.Context, userID uint, req CreateOrderRequest) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uint) ([]OrderDTO, error)
	AdminList(ctx context.Context) ([]OrderDTO, error)
	AdminUpdateStatus(ctx context.Context, orderID uint, req UpdateStatusRequest) (*OrderDTO, error)
	Summary(ctx context.Context) (*SummaryDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo     Repository
	TxRunner txRunner
}

// NewService constructs an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{repo: params.Repo, tx: params.TxRunner}, nil
}

// Create places a cash-on-delivery order. The whole sequence runs inside one
// transaction; any unavailable product rolls everything back.
func (s *service) Create(ctx context.Context, userID uint, req CreateOrderRequest) (*OrderDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for product %d must be at least 1", item.ProductID))
		}
	}

	var orderID uint
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.CreateOrder(ctx, &models.Order{
			UserID:      userID,
			TotalAmount: decimal.Zero,
			Status:      enums.OrderStatusPending,
			PaymentMode: "COD",
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			product, err := repo.FindOrderableProduct(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %d not available", line.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}

			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   product.ID,
				Quantity:    line.Quantity,
				PriceAtTime: product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}
		if err := repo.UpdateOrderTotal(ctx, order.ID, total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write order total")
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return FromModel(created), nil
}

func (s *service) ListForUser(ctx context.Context, userID uint) ([]OrderDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return FromModels(orders), nil
}

func (s *service) AdminList(ctx context.Context) ([]OrderDTO, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return FromModels(orders), nil
}

func (s *service) AdminUpdateStatus(ctx context.Context, orderID uint, req UpdateStatusRequest) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if order.Status == target {
		return FromModel(order), nil
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, target); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	order.Status = target
	return FromModel(order), nil
}

func (s *service) Summary(ctx context.Context) (*SummaryDTO, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate orders")
	}
	return summary, nil
}
