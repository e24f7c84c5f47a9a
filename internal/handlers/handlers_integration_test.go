package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"pasar/internal/handlers"
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbCounter atomic.Int64

// setupApp builds a Fiber app backed by a fresh in-memory SQLite
// database with all handlers wired the way main does it.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	viper.SetDefault("SESSION_SECRET", "integration-test-secret")
	viper.AutomaticEnv()
	secret := viper.GetString("SESSION_SECRET")

	// A uniquely named shared-cache memory DB keeps GORM's connection
	// pool on one database while isolating tests from each other.
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.OrderItem{}))

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, secret)
	productService := services.NewProductService(productRepo, userRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, nil) // no RabbitMQ in tests

	app := fiber.New()
	requireSession := middleware.RequireSession(authService)
	handlers.NewAuthHandler(authService).RegisterRoutes(app)
	handlers.NewProductHandler(productService).RegisterRoutes(app, requireSession)
	handlers.NewOrderHandler(orderService).RegisterRoutes(app, requireSession)

	return app
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// request performs one in-process HTTP round trip, optionally carrying
// a session cookie, and decodes the JSON response body.
func request(t *testing.T, app *fiber.App, method, path, cookie string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: cookie})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

// sessionCookie pulls the session cookie value out of a response.
func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c.Value
		}
	}
	t.Fatal("no session cookie in response")
	return ""
}

// registerUser registers an account and returns its session cookie and id.
func registerUser(t *testing.T, app *fiber.App, username, email, role string) (string, uint) {
	t.Helper()
	resp, body := request(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register %s: %v", username, body)
	data := body["data"].(map[string]any)
	return sessionCookie(t, resp), uint(data["id"].(float64))
}

// createProduct creates a product through the API and returns its id.
func createProduct(t *testing.T, app *fiber.App, cookie, name string, price float64, stock int) uint {
	t.Helper()
	resp, body := request(t, app, http.MethodPost, "/products", cookie, map[string]any{
		"name":  name,
		"price": price,
		"stock": stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create product: %v", body)
	return uint(body["data"].(map[string]any)["id"].(float64))
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	// Register sets a session cookie and returns the user sans password.
	resp, body := request(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "Customer", data["role"], "role defaults to Customer")
	assert.NotContains(t, data, "password_hash")
	cookie := sessionCookie(t, resp)
	assert.NotEmpty(t, cookie)

	// Duplicate registrations conflict.
	resp, body = request(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "USERNAME_EXISTS", body["code"])

	resp, body = request(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", body["code"])

	// Short password is a validation failure.
	resp, _ = request(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Login: wrong password 401, unknown email 404, malformed email 400.
	resp, _ = request(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	loginCookie := sessionCookie(t, resp)

	resp, body = request(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	resp, body = request(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", body["code"])

	resp, _ = request(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "not-an-email", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// /auth/me round trip.
	resp, body = request(t, app, http.MethodGet, "/auth/me", loginCookie, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["data"].(map[string]any)["username"])

	resp, _ = request(t, app, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A tampered cookie is indistinguishable from no cookie.
	resp, _ = request(t, app, http.MethodGet, "/auth/me", loginCookie+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Logout expires the cookie.
	resp, _ = request(t, app, http.MethodPost, "/auth/logout", loginCookie, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			assert.Empty(t, c.Value)
		}
	}
}

func TestProductEndpoints(t *testing.T) {
	app := setupApp(t)
	sellerCookie, sellerID := registerUser(t, app, "seller", "seller@example.com", "Seller")
	customerCookie, _ := registerUser(t, app, "customer", "customer@example.com", "Customer")
	otherSellerCookie, _ := registerUser(t, app, "rival", "rival@example.com", "Seller")

	// Listing is public.
	resp, _ := request(t, app, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Creation requires a session and the Seller/Admin role.
	resp, _ = request(t, app, http.MethodPost, "/products", "", map[string]any{"name": "X", "price": 1.0})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, app, http.MethodPost, "/products", customerCookie, map[string]any{"name": "X", "price": 1.0})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Non-admins may not smuggle a seller_id into the body.
	resp, body := request(t, app, http.MethodPost, "/products", sellerCookie, map[string]any{
		"name": "X", "price": 1.0, "seller_id": 999,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "SELLER_ID_NOT_ALLOWED", body["code"])

	productID := createProduct(t, app, sellerCookie, "Walnut Desk", 499.99, 3)

	// The listing carries the seller as display data.
	resp, body = request(t, app, http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	sellerView := items[0].(map[string]any)["seller"].(map[string]any)
	assert.Equal(t, float64(sellerID), sellerView["id"])
	assert.NotContains(t, sellerView, "password_hash")

	// Patching: owner only (or Admin); ownership cannot be reassigned.
	path := fmt.Sprintf("/products/%d", productID)

	// Detail view is public too.
	resp, body = request(t, app, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Walnut Desk", body["data"].(map[string]any)["name"])

	resp, _ = request(t, app, http.MethodGet, "/products/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = request(t, app, http.MethodPatch, path, otherSellerCookie, map[string]any{"price": 1.0})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = request(t, app, http.MethodPatch, path, sellerCookie, map[string]any{"seller_id": 999})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "SELLER_ID_NOT_ALLOWED", body["code"])

	resp, body = request(t, app, http.MethodPatch, path, sellerCookie, map[string]any{"price": 450.00})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	patched := body["data"].(map[string]any)
	assert.Equal(t, 450.00, patched["price"])
	assert.Equal(t, "Walnut Desk", patched["name"], "absent fields are untouched")

	// Missing product is 404 before any ownership verdict.
	resp, _ = request(t, app, http.MethodPatch, "/products/9999", sellerCookie, map[string]any{"price": 1.0})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = request(t, app, http.MethodDelete, "/products/abc", sellerCookie, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Deletion: stranger forbidden, owner allowed, second attempt 404.
	resp, _ = request(t, app, http.MethodDelete, path, otherSellerCookie, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = request(t, app, http.MethodDelete, path, sellerCookie, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = request(t, app, http.MethodDelete, path, sellerCookie, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogSearch(t *testing.T) {
	app := setupApp(t)
	sellerCookie, sellerID := registerUser(t, app, "seller", "seller@example.com", "Seller")
	otherCookie, _ := registerUser(t, app, "other", "other@example.com", "Seller")

	createProduct(t, app, sellerCookie, "Espresso Machine", 250, 3)
	createProduct(t, app, sellerCookie, "Coffee Grinder", 80, 9)
	createProduct(t, app, otherCookie, "Tea Kettle", 30, 12)

	resp, body := request(t, app, http.MethodGet, "/products?search=Coffee", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["data"].([]any), 1)

	resp, body = request(t, app, http.MethodGet, "/products?minPrice=50&maxPrice=300", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]any), 2)

	resp, body = request(t, app, http.MethodGet, fmt.Sprintf("/products?sellerId=%d", sellerID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]any), 2)

	resp, body = request(t, app, http.MethodGet, "/products?limit=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]any), 2)
}

func TestOrderEndpoints(t *testing.T) {
	app := setupApp(t)
	sellerCookie, _ := registerUser(t, app, "seller", "seller@example.com", "Seller")
	customerCookie, customerID := registerUser(t, app, "customer", "customer@example.com", "Customer")
	strangerCookie, _ := registerUser(t, app, "stranger", "stranger@example.com", "Customer")
	adminCookie, _ := registerUser(t, app, "admin", "admin@example.com", "Admin")

	productID := createProduct(t, app, sellerCookie, "Gadget", 10.00, 5)

	// Sessions are mandatory everywhere on /orders.
	resp, _ := request(t, app, http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Sellers do not place orders.
	resp, _ = request(t, app, http.MethodPost, "/orders", sellerCookie, map[string]any{
		"items": []map[string]any{{"product_id": productID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The customer identity comes from the session, never the body.
	resp, body := request(t, app, http.MethodPost, "/orders", customerCookie, map[string]any{
		"user_id": 999,
		"items":   []map[string]any{{"product_id": productID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "USER_ID_NOT_ALLOWED", body["code"])

	// Validation failures.
	resp, body = request(t, app, http.MethodPost, "/orders", customerCookie, map[string]any{
		"items": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_ITEMS", body["code"])

	resp, body = request(t, app, http.MethodPost, "/orders", customerCookie, map[string]any{
		"items": []map[string]any{{"product_id": 9999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "PRODUCT_NOT_FOUND", body["code"])

	// Placing an order snapshots prices and decrements stock.
	resp, body = request(t, app, http.MethodPost, "/orders", customerCookie, map[string]any{
		"items": []map[string]any{{"product_id": productID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "place order: %v", body)
	order := body["data"].(map[string]any)
	assert.Equal(t, 30.00, order["total"])
	assert.Equal(t, float64(customerID), order["user_id"])
	orderItems := order["items"].([]any)
	require.Len(t, orderItems, 1)
	assert.Equal(t, 10.00, orderItems[0].(map[string]any)["unit_price"])
	orderID := uint(order["id"].(float64))

	resp, body = request(t, app, http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["data"].([]any)[0].(map[string]any)["stock"])

	// Over-ordering the remaining stock names the product and amounts,
	// and nothing changes.
	resp, body = request(t, app, http.MethodPost, "/orders", customerCookie, map[string]any{
		"items": []map[string]any{{"product_id": productID, "quantity": 3}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Contains(t, body["error"], "Available: 2, Requested: 3")

	resp, body = request(t, app, http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["data"].([]any)[0].(map[string]any)["stock"])

	// Role-scoped listing: owner and admin see it, the stranger does not,
	// the seller sees it because it contains their product.
	for cookie, want := range map[string]int{
		customerCookie: 1,
		adminCookie:    1,
		sellerCookie:   1,
		strangerCookie: 0,
	} {
		resp, body = request(t, app, http.MethodGet, "/orders", cookie, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list, _ := body["data"].([]any)
		assert.Len(t, list, want)
	}

	// Order detail permissions.
	detailPath := fmt.Sprintf("/orders/%d", orderID)
	for _, cookie := range []string{customerCookie, sellerCookie, adminCookie} {
		resp, body = request(t, app, http.MethodGet, detailPath, cookie, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		detail := body["data"].(map[string]any)
		assert.Equal(t, float64(orderID), detail["id"])
	}

	resp, _ = request(t, app, http.MethodGet, detailPath, strangerCookie, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unknown orders are 404 for everyone; the id must be numeric.
	resp, _ = request(t, app, http.MethodGet, "/orders/9999", strangerCookie, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = request(t, app, http.MethodGet, "/orders/abc", customerCookie, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
