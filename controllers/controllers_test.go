package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/controllers"
	"github.com/iilkane/Legerity/middleware"
	"github.com/iilkane/Legerity/models"
	"github.com/iilkane/Legerity/routes"
)

// ---- mocks ----

type mockCartSvc struct {
	view    *models.CartView
	item    *models.CartItem
	err     error
	lastReq models.AddCartItemRequest
	lastID  uuid.UUID
}

func (m *mockCartSvc) GetOrCreateCart(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New(), UserID: userID}, m.err
}

func (m *mockCartSvc) ListCart(context.Context, uuid.UUID) (*models.CartView, error) {
	return m.view, m.err
}

func (m *mockCartSvc) AddItem(_ context.Context, _ uuid.UUID, req models.AddCartItemRequest) (*models.CartItem, error) {
	m.lastReq = req
	return m.item, m.err
}

func (m *mockCartSvc) UpdateItemQuantity(_ context.Context, _, itemID uuid.UUID, _ models.UpdateCartItemRequest) (*models.CartItem, error) {
	m.lastID = itemID
	return m.item, m.err
}

func (m *mockCartSvc) RemoveItem(_ context.Context, _, itemID uuid.UUID) error {
	m.lastID = itemID
	return m.err
}

type mockCheckoutSvc struct {
	order   *models.Order
	err     error
	lastKey string
}

func (m *mockCheckoutSvc) Checkout(_ context.Context, _ uuid.UUID, _ models.CheckoutRequest, key string) (*models.Order, error) {
	m.lastKey = key
	return m.order, m.err
}

type mockOrderSvc struct {
	resp      *models.OrderResponse
	order     *models.Order
	err       error
	lastPage  int
	lastLimit int
}

func (m *mockOrderSvc) GetUserOrders(_ context.Context, _ uuid.UUID, page, limit int) (*models.OrderResponse, error) {
	m.lastPage, m.lastLimit = page, limit
	return m.resp, m.err
}

func (m *mockOrderSvc) GetOrderByID(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return m.order, m.err
}

type mockCatalogSvc struct {
	product      *models.ProductView
	list         *models.ProductListResponse
	categories   []models.Category
	reviews      []models.Review
	err          error
	lastCategory *uuid.UUID
}

func (m *mockCatalogSvc) GetProduct(context.Context, uuid.UUID) (*models.ProductView, error) {
	return m.product, m.err
}

func (m *mockCatalogSvc) ListProducts(_ context.Context, categoryID *uuid.UUID, _, _ int) (*models.ProductListResponse, error) {
	m.lastCategory = categoryID
	return m.list, m.err
}

func (m *mockCatalogSvc) ListCategories(context.Context) ([]models.Category, error) {
	return m.categories, m.err
}

func (m *mockCatalogSvc) ListReviews(context.Context) ([]models.Review, error) {
	return m.reviews, m.err
}

// ---- helpers ----

type mocks struct {
	cart     *mockCartSvc
	checkout *mockCheckoutSvc
	orders   *mockOrderSvc
	catalog  *mockCatalogSvc
}

var testUser = uuid.New()

func fakeAuth(c *gin.Context) {
	if c.GetHeader("X-Test-Anonymous") != "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set(middleware.UserContextKey, testUser)
	c.Next()
}

func setupRouter() (*gin.Engine, *mocks) {
	gin.SetMode(gin.TestMode)
	m := &mocks{
		cart:     &mockCartSvc{},
		checkout: &mockCheckoutSvc{},
		orders:   &mockOrderSvc{},
		catalog:  &mockCatalogSvc{},
	}
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	routes.RegisterRoutes(r, fakeAuth, routes.Controllers{
		Cart:     controllers.NewCartController(m.cart),
		Checkout: controllers.NewCheckoutController(m.checkout),
		Orders:   controllers.NewOrderController(m.orders),
		Catalog:  controllers.NewCatalogController(m.catalog),
	})
	return r, m
}

func do(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ---- tests ----

func TestListCartItems(t *testing.T) {
	r, m := setupRouter()
	m.cart.view = &models.CartView{Items: []models.CartItemView{}, TotalPrice: decimal.RequireFromString("12.5")}

	w := do(r, http.MethodGet, "/cart-items/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "12.5", resp["total_price"])
	assert.Contains(t, resp, "cart_items")
}

func TestAddCartItem_Created(t *testing.T) {
	r, m := setupRouter()
	productID := uuid.New()
	m.cart.item = &models.CartItem{ID: uuid.New(), ProductID: productID, Quantity: 2}

	w := do(r, http.MethodPost, "/cart-items/", map[string]interface{}{"product": productID, "quantity": 2})

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, m.cart.lastReq.Product)
	assert.Equal(t, productID, *m.cart.lastReq.Product)
	assert.Equal(t, 2, *m.cart.lastReq.Quantity)
}

func TestAddCartItem_ErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"missing field", apperrors.InvalidInput("product", "This field is required"), http.StatusBadRequest, "invalid_input"},
		{"already in cart", apperrors.Conflict("Product already in cart. Use PATCH to update quantity"), http.StatusBadRequest, "conflict"},
		{"out of stock", apperrors.OutOfStock("p-1"), http.StatusBadRequest, "out_of_stock"},
		{"unknown product", apperrors.NotFound("Product not found"), http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, m := setupRouter()
			m.cart.err = tc.err

			w := do(r, http.MethodPost, "/cart-items/", map[string]interface{}{"product": uuid.New(), "quantity": 1})

			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, tc.kind, decode(t, w)["kind"])
		})
	}
}

func TestAddCartItem_BadJSON(t *testing.T) {
	r, _ := setupRouter()

	w := do(r, http.MethodPost, "/cart-items/", "not-json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCartItem(t *testing.T) {
	r, m := setupRouter()
	itemID := uuid.New()
	m.cart.item = &models.CartItem{ID: itemID, Quantity: 5}

	w := do(r, http.MethodPatch, "/cart-items/"+itemID.String(), map[string]int{"quantity": 5})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, itemID, m.cart.lastID)
	assert.Equal(t, float64(5), decode(t, w)["quantity"])
}

func TestUpdateCartItem_InvalidID(t *testing.T) {
	r, _ := setupRouter()

	w := do(r, http.MethodPatch, "/cart-items/nope", map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveCartItem(t *testing.T) {
	r, m := setupRouter()

	w := do(r, http.MethodDelete, "/cart-items/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	m.cart.err = apperrors.NotFound("Cart item not found")
	w = do(r, http.MethodDelete, "/cart-items/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Cart item not found", decode(t, w)["message"])
}

func TestCartRequiresAuth(t *testing.T) {
	r, _ := setupRouter()

	w := do(r, http.MethodGet, "/cart-items/", nil, "X-Test-Anonymous", "1")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckout_Created(t *testing.T) {
	r, m := setupRouter()
	m.checkout.order = &models.Order{ID: uuid.New()}

	w := do(r, http.MethodPost, "/checkout/", map[string]string{
		"address": "a", "zip_code": "z", "phone_number": "+994501234567",
	}, controllers.IdempotencyKeyHeader, " abc ")

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "Order placed successfully.", resp["message"])
	assert.Equal(t, m.checkout.order.ID.String(), resp["order_id"])
	assert.Equal(t, "abc", m.checkout.lastKey)
}

func TestCheckout_Failures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"empty cart", apperrors.EmptyCart(), http.StatusBadRequest},
		{"invalid phone", apperrors.InvalidInput("phone_number", "bad"), http.StatusBadRequest},
		{"out of stock", apperrors.OutOfStock("p"), http.StatusBadRequest},
		{"unavailable", apperrors.Unavailable(context.DeadlineExceeded), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, m := setupRouter()
			m.checkout.err = tc.err

			w := do(r, http.MethodPost, "/checkout/", map[string]string{"address": "a"})
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestCheckout_OutOfStockNamesProduct(t *testing.T) {
	r, m := setupRouter()
	productID := uuid.NewString()
	m.checkout.err = apperrors.OutOfStock(productID)

	w := do(r, http.MethodPost, "/checkout/", map[string]string{})

	assert.Equal(t, productID, decode(t, w)["product_id"])
}

func TestGetOrders_Pagination(t *testing.T) {
	r, m := setupRouter()
	m.orders.resp = &models.OrderResponse{Orders: []models.Order{}, Meta: models.MetaData{Page: 2, Limit: 100}}

	w := do(r, http.MethodGet, "/orders/?page=2&limit=500", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, m.orders.lastPage)
	assert.Equal(t, 100, m.orders.lastLimit)
}

func TestGetOrders_HugePageIsCapped(t *testing.T) {
	r, m := setupRouter()
	m.orders.resp = &models.OrderResponse{Orders: []models.Order{}}

	w := do(r, http.MethodGet, "/orders/?page=9223372036854775807&limit=0", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10000, m.orders.lastPage)
	assert.Equal(t, 10, m.orders.lastLimit)
}

func TestGetOrderByID(t *testing.T) {
	r, m := setupRouter()
	m.orders.order = &models.Order{ID: uuid.New(), Status: models.OrderStatusPrepared}

	w := do(r, http.MethodGet, "/orders/"+m.orders.order.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "order")

	w = do(r, http.MethodGet, "/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.orders.err = apperrors.NotFound("Order not found")
	w = do(r, http.MethodGet, "/orders/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	r, m := setupRouter()
	categoryID := uuid.New()
	m.catalog.list = &models.ProductListResponse{Products: []models.ProductView{{ID: uuid.New(), Name: "Shoes"}}}
	m.catalog.categories = []models.Category{{ID: categoryID, Title: "Shoes"}}
	m.catalog.product = &models.ProductView{ID: uuid.New(), Name: "Shoes"}

	w := do(r, http.MethodGet, "/products/?category="+categoryID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, m.catalog.lastCategory)
	assert.Equal(t, categoryID, *m.catalog.lastCategory)

	w = do(r, http.MethodGet, "/products/?category=bad", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/products/"+m.catalog.product.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shoes", decode(t, w)["name"])

	w = do(r, http.MethodGet, "/category/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListReviews(t *testing.T) {
	r, m := setupRouter()
	m.catalog.reviews = []models.Review{{ID: uuid.New(), Fullname: "Aysel M.", Image: "reviews/aysel.jpg", Comment: "<p>Fast delivery</p>"}}

	w := do(r, http.MethodGet, "/reviews/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, map[string]any{
		"fullname": "Aysel M.",
		"image":    "reviews/aysel.jpg",
		"comment":  "<p>Fast delivery</p>",
	}, body[0])
}

func TestCatalog_InternalErrorIsOpaque(t *testing.T) {
	r, m := setupRouter()
	m.catalog.err = apperrors.Internal(assert.AnError)

	w := do(r, http.MethodGet, "/category/", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
