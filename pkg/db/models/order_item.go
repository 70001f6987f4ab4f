package models

import "github.com/shopspring/decimal"

// OrderItem snapshots one ordered product. PriceAtTime is the product price at
// order creation and is never updated afterwards.
type OrderItem struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     uint            `gorm:"column:order_id;not null;index"`
	ProductID   uint            `gorm:"column:product_id;not null"`
	Product     *Product        `gorm:"foreignKey:ProductID"`
	Quantity    int             `gorm:"column:quantity;not null"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:numeric(10,2);not null"`
}
