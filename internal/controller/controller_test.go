package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bakery-shop-backend/internal/cache"
	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/service"
	"bakery-shop-backend/internal/service/servicetest"
)

type apiEnv struct {
	router *gin.Engine
	store  *servicetest.Store

	mu  sync.Mutex
	now time.Time

	aliceToken string
	bobToken   string
	adminToken string

	bread *model.Product
}

func (e *apiEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *apiEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := servicetest.NewStore()
	lg := zaptest.NewLogger(t)
	e := &apiEnv{store: st, now: time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)}

	catalog := service.NewCatalogService(st.Catalog(), cache.Nop{}, lg)
	offers, err := service.NewOfferCatalog(service.DefaultOffers())
	require.NoError(t, err)
	verifier := service.NewJWTVerifier("test-secret", time.Hour, st.Users())

	e.router = gin.New()
	RegisterRoutes(e.router, Services{
		Verifier: verifier,
		Orders: service.NewOrderService(service.OrderDeps{
			Tx:       st,
			Orders:   st.Orders(),
			Counters: st.Counters(),
			Users:    st.Users(),
			Carts:    st.Carts(),
			Outbox:   st.Outbox(),
			Catalog:  catalog,
		}, service.OrderConfig{
			Pricing:      service.DefaultPricingPolicy(),
			VerifyPrices: true,
			Now:          e.clock,
		}, lg),
		Catalog:   catalog,
		Carts:     service.NewCartService(st.Carts(), catalog),
		Addresses: service.NewAddressService(st, st.Addresses()),
		Payments:  service.NewPaymentService(st, st.PaymentMethods()),
		Users:     service.NewUserService(st.Users(), st.Orders(), st.Favourites(), catalog),
		Rewards:   service.NewRewardService(st.Users(), offers),
	})

	token := func(u *model.User) string {
		tok, err := verifier.IssueToken(u.ID)
		require.NoError(t, err)
		return tok
	}
	e.aliceToken = token(st.AddUser(model.User{Name: "Alice"}))
	e.bobToken = token(st.AddUser(model.User{Name: "Bob"}))
	e.adminToken = token(st.AddUser(model.User{Name: "Admin", Role: model.RoleAdmin}))

	e.bread = st.AddProduct(model.Product{
		Name: "Sourdough Loaf", Price: decimal.RequireFromString("10.00"),
		CategoryName: "Breads", IsActive: true,
	})
	return e
}

type envelope struct {
	Success bool            `json:"success"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (e *apiEnv) orderBody() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"productId": e.bread.ID, "productName": "Sourdough Loaf", "quantity": 2, "price": 10.00},
		},
		"deliveryAddress": map[string]any{"type": "Home", "address": "12 Baker Street"},
		"paymentMethod":   "card",
	}
}

type orderJSON struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	Subtotal    json.Number `json:"subtotal"`
	DeliveryFee json.Number `json:"deliveryFee"`
	Tax         json.Number `json:"tax"`
	Total       json.Number `json:"total"`
	Status      string      `json:"status"`
	Payment     string      `json:"paymentStatus"`
}

func (e *apiEnv) placeOrder(t *testing.T, token string) orderJSON {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/api/orders", token, e.orderBody())
	require.Equal(t, http.StatusCreated, code, env.Message)
	var o orderJSON
	require.NoError(t, json.Unmarshal(env.Data, &o))
	return o
}

func TestCreateOrderEndpoint(t *testing.T) {
	e := newAPI(t)

	o := e.placeOrder(t, e.aliceToken)
	assert.Equal(t, "ORD-2026-0001", o.OrderNumber)
	assert.Equal(t, json.Number("20.00"), o.Subtotal)
	assert.Equal(t, json.Number("4.99"), o.DeliveryFee)
	assert.Equal(t, json.Number("1.60"), o.Tax)
	assert.Equal(t, json.Number("26.59"), o.Total)
	assert.Equal(t, "pending", o.Status)
	assert.Equal(t, "paid", o.Payment)

	code, env := e.do(t, http.MethodGet, "/api/rewards", e.aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	var rewards struct {
		Points int64 `json:"points"`
		Tier   string
	}
	require.NoError(t, json.Unmarshal(env.Data, &rewards))
	assert.Equal(t, int64(265), rewards.Points)
}

func TestCreateOrderEndpoint_Errors(t *testing.T) {
	e := newAPI(t)

	code, env := e.do(t, http.MethodPost, "/api/orders", "", e.orderBody())
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, env = e.do(t, http.MethodPost, "/api/orders", e.aliceToken, map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "items must contain at least 1 entry")
	assert.Contains(t, env.Message, "paymentMethod is required")

	body := e.orderBody()
	body["items"].([]map[string]any)[0]["price"] = 1.00
	code, env = e.do(t, http.MethodPost, "/api/orders", e.aliceToken, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "does not match catalog price 10.00")

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+e.aliceToken)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	e := newAPI(t)
	o := e.placeOrder(t, e.aliceToken)
	e.placeOrder(t, e.bobToken)

	code, env := e.do(t, http.MethodGet, "/api/orders", e.aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	code, _ = e.do(t, http.MethodGet, "/api/orders?status=shipped", e.aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodGet, "/api/orders/"+o.ID, e.bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = e.do(t, http.MethodGet, "/api/orders/"+o.ID, e.adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = e.do(t, http.MethodGet, "/api/orders/missing", e.aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Order not found", env.Message)

	code, env = e.do(t, http.MethodPut, "/api/orders/"+o.ID+"/cancel", e.bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Not authorized to cancel this order", env.Message)

	e.advance(5*time.Minute + time.Second)
	code, env = e.do(t, http.MethodPut, "/api/orders/"+o.ID+"/cancel", e.aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Order cannot be cancelled after 5 minutes", env.Message)

	code, env = e.do(t, http.MethodPut, "/api/orders/"+o.ID+"/status", e.aliceToken, map[string]string{"status": "ready"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "User role user is not authorized to access this route", env.Message)

	code, _ = e.do(t, http.MethodPut, "/api/orders/"+o.ID+"/status", e.adminToken, map[string]string{"status": "baking"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = e.do(t, http.MethodPut, "/api/orders/"+o.ID+"/status", e.adminToken, map[string]string{"status": "ready"})
	require.Equal(t, http.StatusOK, code)
	var updated orderJSON
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "ready", updated.Status)

	code, env = e.do(t, http.MethodGet, "/api/admin/orders?status=pending", e.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, *env.Count)
}

func TestCancelWithinWindowEndpoint(t *testing.T) {
	e := newAPI(t)
	o := e.placeOrder(t, e.aliceToken)

	e.advance(5 * time.Minute)
	code, env := e.do(t, http.MethodPut, "/api/orders/"+o.ID+"/cancel", e.aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	var got orderJSON
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "cancelled", got.Status)
	assert.Equal(t, "refunded", got.Payment)
}

func TestRedeemEndpoint(t *testing.T) {
	e := newAPI(t)

	code, env := e.do(t, http.MethodPost, "/api/rewards/redeem", e.aliceToken, map[string]string{"offerId": "1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Insufficient reward points", env.Message)

	code, env = e.do(t, http.MethodPost, "/api/rewards/redeem", e.aliceToken, map[string]string{"offerId": "42"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Offer not found", env.Message)

	e.placeOrder(t, e.aliceToken)
	code, env = e.do(t, http.MethodPost, "/api/rewards/redeem", e.aliceToken, map[string]string{"offerId": "1"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Reward redeemed successfully", env.Message)
	assert.JSONEq(t, `{"points":165,"redeemedOffer":{"id":"1","title":"Free Donut",
		"description":"Get a free donut on your next order","points":100,"icon":"🍩"}}`, string(env.Data))
}

func TestCatalogAndCartEndpoints(t *testing.T) {
	e := newAPI(t)

	code, env := e.do(t, http.MethodGet, "/api/products?category=Breads", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *env.Count)

	code, _ = e.do(t, http.MethodGet, "/api/products?sort=cheapest", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = e.do(t, http.MethodGet, "/api/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Product not found", env.Message)

	code, env = e.do(t, http.MethodPost, "/api/cart", e.aliceToken, map[string]any{"productId": e.bread.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `2`, string(jsonPath(t, env.Data, "items", 0, "quantity")))

	code, env = e.do(t, http.MethodPut, "/api/cart/"+e.bread.ID, e.aliceToken, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(jsonPath(t, env.Data, "items")))

	code, env = e.do(t, http.MethodPut, "/api/cart/"+e.bread.ID, e.aliceToken, map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Item not found in cart", env.Message)
}

func TestAddressEndpoints(t *testing.T) {
	e := newAPI(t)

	code, env := e.do(t, http.MethodPost, "/api/addresses", e.aliceToken, map[string]any{"type": "Home"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "address is required, city is required, state is required, zipCode is required", env.Message)

	body := map[string]any{
		"type": "Work", "address": "1 Flour Way", "city": "Springfield",
		"state": "IL", "zipCode": "62701", "isDefault": true,
	}
	code, env = e.do(t, http.MethodPost, "/api/addresses", e.aliceToken, body)
	require.Equal(t, http.StatusCreated, code)
	var a struct {
		ID        string `json:"id"`
		Country   string `json:"country"`
		IsDefault bool   `json:"isDefault"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "USA", a.Country)
	assert.True(t, a.IsDefault)

	code, _ = e.do(t, http.MethodDelete, "/api/addresses/"+a.ID, e.bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = e.do(t, http.MethodDelete, "/api/addresses/"+a.ID, e.aliceToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Address deleted successfully", env.Message)
}

func TestRespondError_Internal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, errors.Wrap(errors.New("connection reset"), "find order"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Server Error"}`, w.Body.String())
}

// jsonPath walks decoded JSON by object keys and array indexes.
func jsonPath(t *testing.T, raw json.RawMessage, path ...any) json.RawMessage {
	t.Helper()
	for _, p := range path {
		switch k := p.(type) {
		case string:
			var m map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &m))
			raw = m[k]
		case int:
			var s []json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &s))
			require.Greater(t, len(s), k)
			raw = s[k]
		}
	}
	return raw
}
