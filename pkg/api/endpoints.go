package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/brewdesk/pkg/models"
)

func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", creds, &resp)
	return resp, err
}

// Register returns the server's confirmation message.
func (c *Client) Register(ctx context.Context, reg models.Registration) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", reg, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		resp.Message = "Registration successful"
	}
	return resp.Message, nil
}

func (c *Client) Products(ctx context.Context) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	err := c.doJSON(ctx, http.MethodGet, "/products", "", nil, &items)
	return items, err
}

func (c *Client) CreateProduct(ctx context.Context, token string, p models.NewProduct) (models.CatalogItem, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":      p.Name,
		"price":     strconv.FormatInt(p.Price, 10),
		"category":  p.Category,
		"isPopular": strconv.FormatBool(p.IsPopular),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return models.CatalogItem{}, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if len(p.Image) > 0 {
		name := p.ImageName
		if name == "" {
			name = "image"
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return models.CatalogItem{}, fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(p.Image); err != nil {
			return models.CatalogItem{}, fmt.Errorf("write image part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return models.CatalogItem{}, fmt.Errorf("close multipart body: %w", err)
	}

	var item models.CatalogItem
	err := c.do(ctx, http.MethodPost, "/products", token, &buf, w.FormDataContentType(), &item)
	return item, err
}

func (c *Client) Tables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := c.doJSON(ctx, http.MethodGet, "/tables", "", nil, &tables)
	return tables, err
}

// CreateTables accepts either a list or a single created table in the reply.
func (c *Client) CreateTables(ctx context.Context, token string, tables []models.NewTable) ([]models.Table, error) {
	body := struct {
		Tables []models.NewTable `json:"tables"`
	}{Tables: tables}

	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/tables", token, body, &raw); err != nil {
		return nil, err
	}

	var created []models.Table
	if err := json.Unmarshal(raw, &created); err == nil {
		return created, nil
	}
	var wrapped struct {
		Tables []models.Table `json:"tables"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Tables) > 0 {
		return wrapped.Tables, nil
	}
	var single models.Table
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, &models.APIError{StatusCode: http.StatusBadGateway, Message: "POST /tables: malformed response"}
	}
	return []models.Table{single}, nil
}

func (c *Client) StartSession(ctx context.Context, req models.StartSessionRequest) (models.Session, error) {
	var resp models.StartSessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/customer/start-session", "", req, &resp); err != nil {
		return models.Session{}, err
	}
	return resp.SessionData, nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	var order models.Order
	err := c.doJSON(ctx, http.MethodPost, "/orders", "", req, &order)
	return order, err
}

func (c *Client) Orders(ctx context.Context, token string) ([]models.Order, error) {
	var orders []models.Order
	err := c.doJSON(ctx, http.MethodGet, "/orders", token, nil, &orders)
	return orders, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID string, status models.OrderStatus) (models.Order, error) {
	var order models.Order
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	err := c.doJSON(ctx, http.MethodPatch, path, token, models.UpdateStatusRequest{Status: status}, &order)
	return order, err
}

func (c *Client) OrderStatus(ctx context.Context, orderID string) (models.Order, error) {
	var order models.Order
	err := c.doJSON(ctx, http.MethodGet, "/orders/status/"+url.PathEscape(orderID), "", nil, &order)
	return order, err
}

func (c *Client) CreateTransaction(ctx context.Context, req models.CreateTransactionRequest) (models.Transaction, error) {
	var tx models.Transaction
	err := c.doJSON(ctx, http.MethodPost, "/payments/create-transaction", "", req, &tx)
	return tx, err
}

func (c *Client) Users(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	err := c.doJSON(ctx, http.MethodGet, "/users", token, nil, &users)
	return users, err
}

func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), token, nil, nil)
}
