package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iilkane/Legerity/database"
	"github.com/iilkane/Legerity/models"
	"github.com/iilkane/Legerity/repository"
	"github.com/iilkane/Legerity/services"
)

// testingT is what the fixture needs from a test. Both *testing.T and
// *rapid.T satisfy it.
type testingT interface {
	Helper()
	require.TestingT
}

// openTestDB opens a private in-memory database. A single connection makes
// concurrent transactions queue instead of failing with SQLITE_BUSY. The
// caller closes it.
func openTestDB(t testingT) (*gorm.DB, func()) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg := database.GormConfig()
	cfg.Logger = gormlogger.Discard
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db, func() { _ = sqlDB.Close() }
}

type fixture struct {
	db       *gorm.DB
	carts    *services.CartService
	checkout *services.CheckoutService
	orders   *services.OrderService
	category models.Category
}

func newFixture(t testing.TB, opts services.CheckoutOptions) *fixture {
	t.Helper()
	db, closeDB := openTestDB(t)
	t.Cleanup(closeDB)
	return fixtureOn(t, db, opts)
}

func fixtureOn(t testingT, db *gorm.DB, opts services.CheckoutOptions) *fixture {
	t.Helper()
	cartRepo := repository.NewGormCartRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	guard := repository.NewGormStockGuard(db)
	retry := database.RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}

	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = time.Millisecond
	}

	category := models.Category{Title: "Sneakers"}
	require.NoError(t, db.Create(&category).Error)

	return &fixture{
		db:       db,
		carts:    services.NewCartService(db, cartRepo, guard, retry, nil),
		checkout: services.NewCheckoutService(db, cartRepo, orderRepo, guard, opts),
		orders:   services.NewOrderService(orderRepo),
		category: category,
	}
}

func (f *fixture) product(t testingT, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		CategoryID: f.category.ID,
		Info:       "test product",
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
	}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) reload(t testingT, id uuid.UUID) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p
}

func (f *fixture) add(t testingT, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	t.Helper()
	return f.carts.AddItem(context.Background(), userID, models.AddCartItemRequest{Product: &productID, Quantity: &quantity})
}

func (f *fixture) count(t testingT, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func validCheckout() models.CheckoutRequest {
	return models.CheckoutRequest{
		Address:     "28 May street 5",
		ZipCode:     "AZ1000",
		PhoneNumber: "+994501234567",
	}
}

func intPtr(v int) *int { return &v }
