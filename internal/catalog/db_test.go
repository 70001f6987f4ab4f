package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/freshoils/freshoils-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func mustCreateTestProduct(t *testing.T, repo *Repository, name string, price string, inStock bool, category *string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:    name,
		Price:   decimal.RequireFromString(price),
		InStock: inStock,
	}
	if category != nil {
		cat, err := repo.FindOrCreateCategory(context.Background(), *category)
		if err != nil {
			t.Fatalf("resolve category: %v", err)
		}
		product.CategoryID = &cat.ID
	}
	created, err := repo.Create(context.Background(), product)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return created
}
