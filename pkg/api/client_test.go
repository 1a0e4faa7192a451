package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/brewdesk/pkg/api"
	"github.com/example/brewdesk/pkg/models"
)

func newClient(t *testing.T, h http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return api.NewClient(api.StaticURL(srv.URL), 2*time.Second, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginFailureSurfacesMessageVerbatim(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	})

	_, err := c.Login(context.Background(), models.Credentials{Email: "bad@x.com", Password: "wrong"})

	var apiErr *models.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestErrorPayloadUsesErrorField(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table is taken"})
	})

	_, err := c.StartSession(context.Background(), models.StartSessionRequest{CustomerName: "Budi", TableID: "t1"})

	assert.Equal(t, "table is taken", models.Message(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := api.NewClient(api.StaticURL(url), time.Second, zap.NewNop())

	_, err := c.Products(context.Background())

	var netErr *models.NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Error(t, c.Ping(context.Background()))
}

func TestStaffCallsCarryBearerToken(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer staff-token", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/orders/o1/status", r.URL.Path)

		var body models.UpdateStatusRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, models.StatusPreparing, body.Status)

		writeJSON(w, http.StatusOK, models.Order{ID: "o1", Status: models.StatusPreparing})
	})

	order, err := c.UpdateOrderStatus(context.Background(), "staff-token", "o1", models.StatusPreparing)

	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, order.Status)
}

func TestDecodeUnwrapsDataEnvelope(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []models.CatalogItem{{ID: "p1", Name: "Latte", Price: 35000}},
		})
	})

	items, err := c.Products(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(35000), items[0].Price)
}

func TestCreateTablesAcceptsSingleObject(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tables []models.NewTable `json:"tables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Tables, 1)
		writeJSON(w, http.StatusCreated, models.Table{ID: "t9", TableNumber: body.Tables[0].TableNumber, IsAvailable: true})
	})

	tables, err := c.CreateTables(context.Background(), "tok", []models.NewTable{{TableNumber: "B3"}})

	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "B3", tables[0].TableNumber)
}

func TestCreateProductSendsMultipart(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Mocha", r.FormValue("name"))
		assert.Equal(t, "42000", r.FormValue("price"))
		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "mocha.png", hdr.Filename)
		assert.Equal(t, []byte("png"), data)
		writeJSON(w, http.StatusCreated, models.CatalogItem{ID: "p9", Name: "Mocha", Price: 42000})
	})

	item, err := c.CreateProduct(context.Background(), "tok", models.NewProduct{
		Name: "Mocha", Price: 42000, Category: "coffee", ImageName: "mocha.png", Image: []byte("png"),
	})

	require.NoError(t, err)
	assert.Equal(t, "p9", item.ID)
}

func TestRegisterAndDeleteUser(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/register":
			writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
		case "/users/u1":
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	msg, err := c.Register(context.Background(), models.Registration{Name: "n", Email: "e", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "User registered", msg)

	assert.NoError(t, c.DeleteUser(context.Background(), "tok", "u1"))
}
