package models

// Category groups products for browsing.
type Category struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;type:text;not null"`
}
