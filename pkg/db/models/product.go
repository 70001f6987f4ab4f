package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Only in-stock products are orderable; the
// category link is severed (not cascaded) when a category is removed.
type Product struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	CategoryID  *uint           `gorm:"column:category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL    *string         `gorm:"column:image_url;type:text"`
	InStock     bool            `gorm:"column:in_stock;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
