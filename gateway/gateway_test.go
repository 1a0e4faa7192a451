package gateway_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/brewdesk/gateway"
	"github.com/example/brewdesk/pkg/api"
	"github.com/example/brewdesk/pkg/app"
	"github.com/example/brewdesk/pkg/config"
	"github.com/example/brewdesk/pkg/hub"
	"github.com/example/brewdesk/pkg/models"
	"github.com/example/brewdesk/pkg/repository"
	"github.com/example/brewdesk/pkg/store"
)

// collaborator is a fake REST API that records submitted orders.
type collaborator struct {
	mu     sync.Mutex
	orders []models.CreateOrderRequest
}

func (f *collaborator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.Path {
	case "GET /products":
		_ = json.NewEncoder(w).Encode([]models.CatalogItem{{ID: "p1", Name: "Latte", Price: 35000, Category: "coffee"}})
	case "GET /tables":
		_ = json.NewEncoder(w).Encode([]models.Table{{ID: "t1", TableNumber: "5", IsAvailable: true}})
	case "POST /customer/start-session":
		var req models.StartSessionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(models.StartSessionResponse{SessionData: models.Session{
			CustomerName: req.CustomerName, TableID: req.TableID,
		}})
	case "POST /orders":
		var req models.CreateOrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.orders = append(f.orders, req)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Order{
			ID: "o1", OrderNumber: "ORD-1", Status: models.StatusPending,
			CustomerName: req.CustomerName, TableID: req.TableID, Items: req.Items,
			Subtotal: req.Subtotal, Tax: req.Tax, Total: req.Total,
		})
	case "POST /auth/login":
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	case "GET /orders":
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token missing"}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *collaborator) submitted() []models.CreateOrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CreateOrderRequest(nil), f.orders...)
}

type fixture struct {
	router http.Handler
	api    *collaborator
	tab    string
}

func setup(t *testing.T, mutate ...func(*config.GatewayConfig)) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &collaborator{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := api.NewClient(api.StaticURL(srv.URL), 0, zap.NewNop())
	repo := repository.NewMemoryRepository()
	h := hub.New(func(tabID string) *app.Tab {
		return app.NewTab(tabID, app.Deps{API: client, Persistence: repo}, app.Policy{
			TaxBasisPoints: 1100,
			KeyPrefix:      "test",
		}, zap.NewNop())
	}, hub.Options{}, zap.NewNop())
	t.Cleanup(h.Shutdown)

	cfg := &config.GatewayConfig{TabCookie: "tab_id"}
	for _, m := range mutate {
		m(cfg)
	}
	gw := gateway.NewGateway(cfg, h, zap.NewNop())
	gw.SetupRoutes()

	return &fixture{router: gw.Handler(), api: fake, tab: uuid.NewString()}
}

type response struct {
	State   store.Snapshot  `json:"state"`
	Error   string          `json:"error"`
	Orders  []models.Order  `json:"orders"`
	Receipt *models.Receipt `json:"receipt"`
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(gateway.TabHeader, f.tab)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func TestCustomerOrderFlow(t *testing.T) {
	f := setup(t)

	w, _ := f.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = f.do(t, http.MethodGet, "/api/v1/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := f.do(t, http.MethodPost, "/api/v1/session", map[string]string{"customerName": "Budi", "tableId": "t1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", resp.State.Session.TableNumber)

	f.do(t, http.MethodPost, "/api/v1/cart/items", map[string]string{"itemId": "p1"})
	w, resp = f.do(t, http.MethodPut, "/api/v1/cart/items/p1", map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(77700), resp.State.Totals.Total)

	w, resp = f.do(t, http.MethodPost, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, resp.State.CurrentOrder)
	assert.Equal(t, "o1", resp.State.CurrentOrder.ID)
	assert.Empty(t, resp.State.Cart)

	sent := f.api.submitted()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(70000), sent[0].Subtotal)
	assert.Equal(t, int64(7700), sent[0].Tax)
	assert.Equal(t, int64(77700), sent[0].Total)

	w, resp = f.do(t, http.MethodGet, "/api/v1/receipt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Receipt)
	assert.Equal(t, "ORD-1", resp.Receipt.OrderNumber)
}

func TestEmptyCartIsBadRequest(t *testing.T) {
	f := setup(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/orders", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, f.api.submitted())
}

func TestLoginFailurePassesStatusThrough(t *testing.T) {
	f := setup(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.c", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", resp.Error)
	assert.Equal(t, store.AuthFailed, resp.State.AuthStatus)
	assert.Equal(t, "Invalid credentials", resp.State.AuthError)
}

func TestCashierRoutesRequireLogin(t *testing.T) {
	f := setup(t)

	w, _ := f.do(t, http.MethodPatch, "/api/v1/cashier/orders/o1/status", map[string]string{"status": "preparing"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/cashier/orders?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiptWithoutOrderIsNotFound(t *testing.T) {
	f := setup(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/receipt", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestTabIDIsIssued(t *testing.T) {
	f := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	issued := w.Header().Get(gateway.TabHeader)
	_, err := uuid.Parse(issued)
	require.NoError(t, err)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "tab_id" {
			found = true
			assert.Equal(t, issued, c.Value)
		}
	}
	assert.True(t, found)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.AddCookie(&http.Cookie{Name: "tab_id", Value: issued})
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, issued, w.Header().Get(gateway.TabHeader))
}

func TestCreateProductRejectsBadPrice(t *testing.T) {
	f := setup(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Mocha"))
	require.NoError(t, mw.WriteField("price", "abc"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cashier/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(gateway.TabHeader, f.tab)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndPreflight(t *testing.T) {
	f := setup(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/state", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), gateway.TabHeader)
}

func TestTabsWithoutCookieFallbackStayApart(t *testing.T) {
	f := setup(t, func(cfg *config.GatewayConfig) { cfg.TabCookie = "" })

	first := httptest.NewRecorder()
	f.router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.AddCookie(&http.Cookie{Name: "tab_id", Value: first.Header().Get(gateway.TabHeader)})
	second := httptest.NewRecorder()
	f.router.ServeHTTP(second, req)

	assert.NotEqual(t, first.Header().Get(gateway.TabHeader), second.Header().Get(gateway.TabHeader))
}

func TestFractionalRateLimitAdmitsOneRequest(t *testing.T) {
	f := setup(t, func(cfg *config.GatewayConfig) { cfg.RateLimit = 0.5 })

	w, _ := f.do(t, http.MethodGet, "/api/v1/state", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header.Set(gateway.TabHeader, f.tab)
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
