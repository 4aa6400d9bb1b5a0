package service

import (
	"fmt"
	"testing"

	"backend/internal/database"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database per test. The named
// shared-cache DSN keeps every pooled connection on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &model.User{
		Name:     "Test User",
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Password: string(hash),
		Role:     role,
		Active:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedCustomer(t *testing.T, db *gorm.DB) *model.Customer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	customer := &model.Customer{
		Name:     "Test Customer",
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Password: string(hash),
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

func seedCategory(t *testing.T, db *gorm.DB) *model.Category {
	t.Helper()

	category := &model.Category{Name: fmt.Sprintf("cat-%s", uuid.NewString()[:8])}
	require.NoError(t, db.Create(category).Error)
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, quantity, minQuantity int) *model.Product {
	t.Helper()

	category := seedCategory(t, db)
	product := &model.Product{
		Name:        "Widget",
		SKU:         fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
		CategoryID:  category.ID,
		Unit:        "un",
		CostPrice:   decimal.NewFromFloat(10.00),
		SalePrice:   decimal.NewFromFloat(25.50),
		Quantity:    quantity,
		MinQuantity: minQuantity,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func productQuantity(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()

	var product model.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return product.Quantity
}
