package models

import (
	"time"

	"github.com/freshoils/freshoils-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order is a cash-on-delivery purchase. TotalAmount is fixed at creation from
// the item snapshots and never recomputed from live product prices.
type Order struct {
	ID          uint              `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uint              `gorm:"column:user_id;not null;index"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null;default:0"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'Pending'"`
	PaymentMode string            `gorm:"column:payment_mode;type:text;not null;default:'COD'"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
